package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/paulhhowells/tmplpack/internal/config"
	pkgerrors "github.com/paulhhowells/tmplpack/internal/errors"
	"github.com/paulhhowells/tmplpack/internal/minify"
	"github.com/paulhhowells/tmplpack/internal/normalize"
	"github.com/paulhhowells/tmplpack/internal/scanner"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l"},
	Short:   "List the templates a build would bundle",
	Long: `List every template under the app root that matches the include globs,
with the cache key it will be registered under. Nothing is written to disk.

Examples:
  tmplpack list                   # Keys and sizes as a table
  tmplpack list -o json           # Output as JSON
  tmplpack list -m                # Also normalize and minify in memory
  tmplpack list -m -o yaml        # Minified sizes as YAML`,
	RunE: runList,
}

var (
	listFlags    *StandardFlags
	listMinified bool
)

func init() {
	rootCmd.AddCommand(listCmd)

	listFlags = AddStandardFlags(listCmd, "output")

	listCmd.Flags().
		BoolVarP(&listMinified, "minified", "m", false, "Normalize and minify each template in memory and report its size")
}

// listEntry is one template as printed by list.
type listEntry struct {
	Key      string `json:"key" yaml:"key"`
	Path     string `json:"path" yaml:"path"`
	Size     int64  `json:"size" yaml:"size"`
	Minified *int64 `json:"minified_size,omitempty" yaml:"minified_size,omitempty"`
}

func runList(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return pkgerrors.WithSuggestions(err)
	}

	sc, err := scanner.New(scanner.OptionsFromConfig(cfg), logger)
	if err != nil {
		return pkgerrors.WithSuggestions(pkgerrors.NewConfigError("template globs", err))
	}

	sources, err := sc.Scan(cmd.Context())
	if err != nil {
		return pkgerrors.WithSuggestions(err)
	}

	entries := make([]listEntry, len(sources))
	for i, src := range sources {
		entries[i] = listEntry{Key: src.Key, Path: src.Path, Size: src.Size}
	}

	if listMinified {
		if err := measureMinified(cfg, entries); err != nil {
			return pkgerrors.WithSuggestions(err)
		}
	}

	out := cmd.OutOrStdout()
	switch strings.ToLower(listFlags.OutputFormat) {
	case "json":
		return outputListJSON(out, entries)
	case "yaml":
		return outputListYAML(out, entries)
	default:
		return outputListTable(out, entries)
	}
}

// measureMinified runs the normalize and minify stages in memory.
func measureMinified(cfg *config.Config, entries []listEntry) error {
	m, err := minify.FromConfig(cfg.Minify)
	if err != nil {
		return pkgerrors.NewConfigError("minifier", err)
	}
	n := normalize.New()

	for i := range entries {
		raw, err := os.ReadFile(entries[i].Path)
		if err != nil {
			return pkgerrors.NewIOError("reading template", entries[i].Path, err)
		}
		minified, err := m.Minify(entries[i].Path, n.Normalize(string(raw)))
		if err != nil {
			return err
		}
		size := int64(len(minified))
		entries[i].Minified = &size
	}
	return nil
}

func outputListJSON(w io.Writer, entries []listEntry) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(entries)
}

func outputListYAML(w io.Writer, entries []listEntry) error {
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	return encoder.Encode(entries)
}

func outputListTable(w io.Writer, entries []listEntry) error {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No templates found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	if listMinified {
		fmt.Fprintln(tw, "KEY\tSIZE\tMINIFIED\tPATH")
	} else {
		fmt.Fprintln(tw, "KEY\tSIZE\tPATH")
	}

	for _, e := range entries {
		size := humanize.Bytes(uint64(e.Size))
		if e.Minified != nil {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Key, size, humanize.Bytes(uint64(*e.Minified)), e.Path)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Key, size, e.Path)
	}

	return nil
}
