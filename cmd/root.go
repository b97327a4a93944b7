package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/paulhhowells/tmplpack/internal/config"
	pkgerrors "github.com/paulhhowells/tmplpack/internal/errors"
	"github.com/paulhhowells/tmplpack/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tmplpack",
	Short: "Bundle HTML templates into a preloaded template cache",
	Long: `tmplpack turns a tree of HTML view templates into one artifact that
preloads a client-side template cache.

Pipeline:
  1. enumerate   templates under the app root matching the include globs
  2. normalize   canonicalize Angular expressions into <tmp>/html
  3. minify      strip comments and whitespace into <tmp>/html-min
  4. bundle      write every template under its cache key into <dist>
  5. cleanup     remove the working directory

Quick Start:
  tmplpack build                  Run the pipeline once
  tmplpack list                   Show which templates would be bundled
  tmplpack watch                  Rebuild whenever a template changes

Command Aliases (for faster typing):
  build (b), list (l), watch (w)`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return bindFlags(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// SIGINT and SIGTERM cancel the command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .tmplpack.yml, can also use TMPLPACK_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().String("app", "app", "template root directory")
	rootCmd.PersistentFlags().String("tmp", "tmp", "working directory, removed after a successful build")
	rootCmd.PersistentFlags().String("dist", "dist", "distribution directory for the artifact")

	AddFlagValidation(rootCmd.PersistentFlags(), "log-level", oneOf("debug", "info", "warn", "error"))
	AddFlagValidation(rootCmd.PersistentFlags(), "log-format", oneOf("text", "json"))
}

// initConfig initializes the configuration system with support for multiple config sources.
//
// Configuration Loading Priority (highest to lowest):
//  1. --config flag: Explicitly specified config file path
//  2. TMPLPACK_CONFIG_FILE environment variable: Custom config file path
//  3. Default: .tmplpack.yml in current directory
//
// Every key can also be set from the environment with the TMPLPACK_ prefix,
// e.g. TMPLPACK_BUNDLE_FORMAT=js.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("TMPLPACK_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".tmplpack")
	}

	viper.SetEnvPrefix("TMPLPACK")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing or unreadable file falls back to defaults and env.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig resolves the effective configuration after flags are bound.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, pkgerrors.NewConfigError("loading configuration", err)
	}
	return cfg, nil
}

// newLogger builds the process logger from the log section.
func newLogger(cfg *config.Config, w io.Writer) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, pkgerrors.NewConfigError("log level", err)
	}

	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: w,
	}), nil
}

// setup loads configuration and a logger writing to the command's stderr.
func setup(cmd *cobra.Command) (*config.Config, logging.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}

	return cfg, logger, nil
}
