package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	pkgerrors "github.com/paulhhowells/tmplpack/internal/errors"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Display the configuration a build would use, after loading the config
file, applying TMPLPACK_* environment overrides, command-line flags and
defaults. The configuration is validated first, so this doubles as a check.

Examples:
  tmplpack config                  # YAML, ready to paste into .tmplpack.yml
  tmplpack config -o json          # JSON`,
	RunE: runConfigShow,
}

var configFormat string

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.Flags().StringVarP(&configFormat, "output", "o", "yaml", "Output format (yaml|json)")
	AddFlagValidation(configCmd.Flags(), "output", oneOf("yaml", "json"))
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return pkgerrors.WithSuggestions(err)
	}

	if configFormat == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(cfg)
	}

	encoder := yaml.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(cfg)
}
