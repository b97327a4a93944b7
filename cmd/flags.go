package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagBindings maps flag names to the configuration keys they override.
var flagBindings = map[string]string{
	"log-level":  "log.level",
	"log-format": "log.format",
	"app":        "project.app",
	"tmp":        "project.tmp",
	"dist":       "project.dist",
	"format":     "bundle.format",
	"module":     "bundle.module",
	"artifact":   "bundle.output",
	"standalone": "bundle.standalone",
	"engine":     "minify.engine",
	"debounce":   "watch.debounce",
	"livereload": "watch.livereload",
}

// bindFlags binds the running command's flags to their viper keys. It runs
// per invocation so the binding always points at the command being run.
func bindFlags(cmd *cobra.Command) error {
	for name, key := range flagBindings {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := viper.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	return nil
}

// StandardFlags provides consistent flag definitions across commands
type StandardFlags struct {
	// Output flags
	OutputFormat string `flag:"output,o" desc:"Output format (table|json|yaml)" default:"table"`
	Quiet        bool   `flag:"quiet,q" desc:"Suppress output" default:"false"`
}

// AddStandardFlags adds standard flags to a command
func AddStandardFlags(cmd *cobra.Command, flagTypes ...string) *StandardFlags {
	flags := &StandardFlags{}

	for _, flagType := range flagTypes {
		switch flagType {
		case "bundle":
			addBundleFlags(cmd)
		case "output":
			addOutputFlags(cmd, flags)
		case "quiet":
			cmd.Flags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress output")
		}
	}

	return flags
}

// addBundleFlags registers the flags that shape a build. Their values reach
// the pipeline through viper, so no struct fields back them.
func addBundleFlags(cmd *cobra.Command) {
	cmd.Flags().String("format", "json", "Artifact format (json|yaml|js)")
	cmd.Flags().String("module", "app", "Module name recorded in the artifact")
	cmd.Flags().String("artifact", "", "Artifact file name relative to dist (default templates.<format>)")
	cmd.Flags().Bool("standalone", false, "Declare the module in js artifacts instead of extending it")
	cmd.Flags().String("engine", "standard", "Minifier engine (standard|aggressive)")

	AddFlagValidation(cmd.Flags(), "format", oneOf("json", "yaml", "js"))
	AddFlagValidation(cmd.Flags(), "engine", oneOf("standard", "aggressive"))
}

func addOutputFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().StringVarP(&flags.OutputFormat, "output", "o", "table", "Output format (table|json|yaml)")
	AddFlagValidation(cmd.Flags(), "output", oneOf("table", "json", "yaml"))
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(flags *pflag.FlagSet, flagName string, validator func(string) error) {
	flag := flags.Lookup(flagName)
	if flag == nil {
		return
	}

	// Store original value setter
	originalSet := flag.Value.Set

	// Create wrapper that validates
	flag.Value = &validatingValue{
		Value:       flag.Value,
		validator:   validator,
		originalSet: originalSet,
	}
}

type validatingValue struct {
	pflag.Value
	validator   func(string) error
	originalSet func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.originalSet(val)
}

// oneOf accepts exactly the listed values.
func oneOf(allowed ...string) func(string) error {
	return func(val string) error {
		for _, a := range allowed {
			if val == a {
				return nil
			}
		}
		return fmt.Errorf("invalid value %q, must be one of: %s", val, strings.Join(allowed, ", "))
	}
}
