package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/paulhhowells/tmplpack/internal/config"
	pkgerrors "github.com/paulhhowells/tmplpack/internal/errors"
	"github.com/paulhhowells/tmplpack/internal/pipeline"
)

var buildCmd = &cobra.Command{
	Use:     "build",
	Aliases: []string{"b"},
	Short:   "Normalize, minify and bundle all templates",
	Long: `Run the full pipeline once. Templates under the app root are normalized
into <tmp>/html, minified into <tmp>/html-min and bundled into a single artifact
under <dist>. The working directory is removed after a successful build and
left in place after a failed one.

Examples:
  tmplpack build                             # Build with .tmplpack.yml settings
  tmplpack build --format js --standalone    # AngularJS module declaring itself
  tmplpack build --engine aggressive         # Smaller output via tdewolff/minify
  tmplpack build -o json                     # Machine-readable summary`,
	RunE: runBuild,
}

var buildFlags *StandardFlags

func init() {
	rootCmd.AddCommand(buildCmd)

	buildFlags = AddStandardFlags(buildCmd, "bundle", "output", "quiet")
}

func runBuild(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return pkgerrors.WithSuggestions(err)
	}

	p, err := pipeline.New(cfg, logger)
	if err != nil {
		return pkgerrors.WithSuggestions(err)
	}

	res, err := p.Run(cmd.Context())
	if err != nil {
		return pkgerrors.WithSuggestions(err)
	}

	if buildFlags.Quiet {
		return nil
	}

	return writeSummary(cmd.OutOrStdout(), buildFlags.OutputFormat, newSummary(cfg, res))
}

// buildSummary is the printable outcome of one build.
type buildSummary struct {
	Module        string `json:"module" yaml:"module"`
	Format        string `json:"format" yaml:"format"`
	Artifact      string `json:"artifact" yaml:"artifact"`
	Templates     int    `json:"templates" yaml:"templates"`
	RawBytes      int64  `json:"raw_bytes" yaml:"raw_bytes"`
	MinifiedBytes int64  `json:"minified_bytes" yaml:"minified_bytes"`
	ArtifactBytes int64  `json:"artifact_bytes" yaml:"artifact_bytes"`
	DurationMS    int64  `json:"duration_ms" yaml:"duration_ms"`
}

func newSummary(cfg *config.Config, res *pipeline.Result) buildSummary {
	return buildSummary{
		Module:        cfg.Bundle.Module,
		Format:        cfg.Bundle.Format,
		Artifact:      res.ArtifactPath,
		Templates:     len(res.Templates),
		RawBytes:      res.RawBytes,
		MinifiedBytes: res.MinifiedBytes,
		ArtifactBytes: res.ArtifactSize,
		DurationMS:    res.Duration.Milliseconds(),
	}
}

// savings is the share of raw bytes the minifier removed, in percent.
func (s buildSummary) savings() float64 {
	if s.RawBytes == 0 {
		return 0
	}
	return 100 * float64(s.RawBytes-s.MinifiedBytes) / float64(s.RawBytes)
}

func writeSummary(w io.Writer, format string, s buildSummary) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(s)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		return encoder.Encode(s)
	}

	fmt.Fprintf(w, "Built %d %s into %s (module %q, %s)\n",
		s.Templates, plural(s.Templates, "template", "templates"), s.Artifact, s.Module, s.Format)
	fmt.Fprintf(w, "  raw:      %s\n", humanize.Bytes(uint64(s.RawBytes)))
	fmt.Fprintf(w, "  minified: %s (%.1f%% smaller)\n", humanize.Bytes(uint64(s.MinifiedBytes)), s.savings())
	fmt.Fprintf(w, "  artifact: %s\n", humanize.Bytes(uint64(s.ArtifactBytes)))
	fmt.Fprintf(w, "  took:     %dms\n", s.DurationMS)
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
