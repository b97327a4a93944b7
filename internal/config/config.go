// Package config provides configuration management for tmplpack using Viper
// for flexible loading from files, environment variables and command-line
// flags.
//
// The configuration describes the three project roots (template source,
// working directory and distribution output), template discovery globs,
// the minifier toggles, the bundle artifact and watch-mode settings.
// Environment variables use the TMPLPACK_ prefix, e.g. TMPLPACK_BUNDLE_MODULE.
package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Project   ProjectConfig   `mapstructure:"project" yaml:"project"`
	Templates TemplatesConfig `mapstructure:"templates" yaml:"templates"`
	Minify    MinifyConfig    `mapstructure:"minify" yaml:"minify"`
	Bundle    BundleConfig    `mapstructure:"bundle" yaml:"bundle"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Watch     WatchConfig     `mapstructure:"watch" yaml:"watch"`
}

// ProjectConfig holds the directory layout. The three roots must not overlap.
type ProjectConfig struct {
	App  string `mapstructure:"app" yaml:"app" validate:"required"`
	Tmp  string `mapstructure:"tmp" yaml:"tmp" validate:"required"`
	Dist string `mapstructure:"dist" yaml:"dist" validate:"required"`
}

type TemplatesConfig struct {
	Include    []string `mapstructure:"include" yaml:"include" validate:"min=1,dive,required"`
	Exclude    []string `mapstructure:"exclude" yaml:"exclude" validate:"dive,required"`
	IncludeDot bool     `mapstructure:"include_dot" yaml:"include_dot"`
}

type MinifyConfig struct {
	Engine                    string `mapstructure:"engine" yaml:"engine" validate:"oneof=standard aggressive"`
	CollapseWhitespace        bool   `mapstructure:"collapse_whitespace" yaml:"collapse_whitespace"`
	CollapseBooleanAttributes bool   `mapstructure:"collapse_boolean_attributes" yaml:"collapse_boolean_attributes"`
	RemoveComments            bool   `mapstructure:"remove_comments" yaml:"remove_comments"`
	RemoveCommentsFromCDATA   bool   `mapstructure:"remove_comments_from_cdata" yaml:"remove_comments_from_cdata"`
	RemoveOptionalTags        bool   `mapstructure:"remove_optional_tags" yaml:"remove_optional_tags"`
	RemoveAttributeQuotes     bool   `mapstructure:"remove_attribute_quotes" yaml:"remove_attribute_quotes"`
	KeepClosingSlash          bool   `mapstructure:"keep_closing_slash" yaml:"keep_closing_slash"`
	ConservativeCollapse      bool   `mapstructure:"conservative_collapse" yaml:"conservative_collapse"`
	MaxLineLength             int    `mapstructure:"max_line_length" yaml:"max_line_length" validate:"min=0"`
	CustomAttrCollapse        string `mapstructure:"custom_attr_collapse" yaml:"custom_attr_collapse"`
	CaseSensitive             bool   `mapstructure:"case_sensitive" yaml:"case_sensitive"`
}

type BundleConfig struct {
	Module      string `mapstructure:"module" yaml:"module" validate:"required"`
	Format      string `mapstructure:"format" yaml:"format" validate:"oneof=json yaml js"`
	Output      string `mapstructure:"output" yaml:"output"`
	FoldKeyCase bool   `mapstructure:"fold_key_case" yaml:"fold_key_case"`
	Standalone  bool   `mapstructure:"standalone" yaml:"standalone"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
}

type WatchConfig struct {
	Debounce   time.Duration `mapstructure:"debounce" yaml:"debounce"`
	LiveReload string        `mapstructure:"livereload" yaml:"livereload"`
}

// SetDefaults registers every default on the given viper instance. Defaults
// mirror the build the pipeline was designed around: whitespace collapsing
// and comment removal on, quote and boolean-attribute rewriting off.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("project.app", "app")
	v.SetDefault("project.tmp", "tmp")
	v.SetDefault("project.dist", "dist")

	v.SetDefault("templates.include", []string{"main/**/*.html"})
	v.SetDefault("templates.exclude", []string{"__*"})
	v.SetDefault("templates.include_dot", false)

	v.SetDefault("minify.engine", "standard")
	v.SetDefault("minify.collapse_whitespace", true)
	v.SetDefault("minify.collapse_boolean_attributes", false)
	v.SetDefault("minify.remove_comments", true)
	v.SetDefault("minify.remove_comments_from_cdata", false)
	v.SetDefault("minify.remove_optional_tags", false)
	v.SetDefault("minify.remove_attribute_quotes", false)
	v.SetDefault("minify.keep_closing_slash", true)
	v.SetDefault("minify.conservative_collapse", false)
	v.SetDefault("minify.max_line_length", 10240)
	v.SetDefault("minify.custom_attr_collapse", "ng-class")
	v.SetDefault("minify.case_sensitive", true)

	v.SetDefault("bundle.module", "app")
	v.SetDefault("bundle.format", "json")
	v.SetDefault("bundle.output", "")
	v.SetDefault("bundle.fold_key_case", true)
	v.SetDefault("bundle.standalone", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("watch.debounce", 300*time.Millisecond)
	v.SetDefault("watch.livereload", "")
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads, defaults and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Handle slices set as comma separated env values (workaround for viper slice handling)
	config.Templates.Include = splitList(config.Templates.Include)
	config.Templates.Exclude = splitList(config.Templates.Exclude)

	if config.Bundle.Output == "" {
		config.Bundle.Output = "templates" + FormatExtension(config.Bundle.Format)
	}

	if err := Validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns the configuration produced by defaults alone.
func Default() *Config {
	config, err := LoadFrom(viper.New())
	if err != nil {
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return config
}

// FormatExtension returns the file extension for an artifact format.
func FormatExtension(format string) string {
	switch format {
	case "yaml":
		return ".yaml"
	case "js":
		return ".js"
	default:
		return ".json"
	}
}

// ArtifactPath is the final bundled artifact location.
func (c *Config) ArtifactPath() string {
	return filepath.Join(c.Project.Dist, c.Bundle.Output)
}

var validate = validator.New()

// Validate checks struct constraints and the cross-field rules the tags
// cannot express.
func Validate(config *Config) error {
	if err := validate.Struct(config); err != nil {
		return err
	}

	if err := validateProject(&config.Project); err != nil {
		return fmt.Errorf("project config: %w", err)
	}

	if err := validateBundle(&config.Bundle); err != nil {
		return fmt.Errorf("bundle config: %w", err)
	}

	if config.Watch.Debounce < 0 {
		return fmt.Errorf("watch config: negative debounce %s", config.Watch.Debounce)
	}

	if config.Minify.CustomAttrCollapse != "" {
		if _, err := regexp.Compile(config.Minify.CustomAttrCollapse); err != nil {
			return fmt.Errorf("minify config: custom_attr_collapse: %w", err)
		}
	}

	return nil
}

// validateProject rejects layouts where one root contains another.
func validateProject(config *ProjectConfig) error {
	roots := map[string]string{
		"app":  config.App,
		"tmp":  config.Tmp,
		"dist": config.Dist,
	}
	names := []string{"app", "tmp", "dist"}

	abs := make(map[string]string, len(roots))
	for _, name := range names {
		p, err := filepath.Abs(filepath.Clean(roots[name]))
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		abs[name] = p
	}

	for i, a := range names {
		for _, b := range names[i+1:] {
			if overlaps(abs[a], abs[b]) {
				return fmt.Errorf("%s (%s) and %s (%s) must not overlap", a, roots[a], b, roots[b])
			}
		}
	}

	return nil
}

// overlaps reports whether either absolute path contains the other. Roots
// such as "/" contain everything.
func overlaps(a, b string) bool {
	return within(a, b) || within(b, a)
}

// within reports whether p is parent or lies below it.
func within(parent, p string) bool {
	rel, err := filepath.Rel(parent, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func validateBundle(config *BundleConfig) error {
	clean := filepath.Clean(config.Output)
	if filepath.IsAbs(clean) {
		return fmt.Errorf("output should be relative to dist: %s", config.Output)
	}
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("output escapes dist: %s", config.Output)
	}
	return nil
}

func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
