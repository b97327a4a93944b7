package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	pkgerrors "github.com/paulhhowells/tmplpack/internal/errors"
	"github.com/paulhhowells/tmplpack/internal/pipeline"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the working directory",
	Long: `Remove the working directory (<tmp>) including the normalized and minified
copies a failed build leaves behind. The distribution directory is untouched.

Examples:
  tmplpack clean
  tmplpack clean --tmp build/tmp`,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return pkgerrors.WithSuggestions(err)
	}

	p, err := pipeline.New(cfg, logger)
	if err != nil {
		return pkgerrors.WithSuggestions(err)
	}

	if err := p.Clean(); err != nil {
		return pkgerrors.WithSuggestions(err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", cfg.Project.Tmp)
	return nil
}
