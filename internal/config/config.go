// Package config loads stagehand settings from .stagehand.yaml and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/sprite-ai/stagehand/internal/boundary"
	"github.com/sprite-ai/stagehand/internal/budget"
	"github.com/sprite-ai/stagehand/internal/logging"
)

// FileName is the config file looked up in the repository root.
const FileName = ".stagehand.yaml"

// EnvPrefix prefixes environment overrides, e.g. STAGEHAND_MODEL.
const EnvPrefix = "STAGEHAND"

// Model names such as gpt-4.1 contain dots, so nested keys use "::".
const keyDelim = "::"

// Config is the complete stagehand configuration.
type Config struct {
	Model             string           `mapstructure:"model" json:"model" yaml:"model"`
	PromptType        string           `mapstructure:"prompt_type" json:"prompt_type" yaml:"prompt_type"`
	PrioritizeQuality bool             `mapstructure:"prioritize_quality" json:"prioritize_quality" yaml:"prioritize_quality"`
	Models            map[string]int   `mapstructure:"models" json:"models,omitempty" yaml:"models,omitempty"`
	Boundaries        BoundariesConfig `mapstructure:"boundaries" json:"boundaries" yaml:"boundaries"`
	Logging           LoggingConfig    `mapstructure:"logging" json:"logging" yaml:"logging"`
	Server            ServerConfig     `mapstructure:"server" json:"server" yaml:"server"`
}

// BoundariesConfig tunes commit boundary detection.
type BoundariesConfig struct {
	boundary.Options `mapstructure:",squash" yaml:",inline"`
	// Re-run detection with strict options when complexity suggests a split.
	StrictOnComplex bool `mapstructure:"strict_on_complex" json:"strict_on_complex" yaml:"strict_on_complex"`
}

// LoggingConfig selects log level and format.
type LoggingConfig struct {
	Level  string `mapstructure:"level" json:"level" yaml:"level"`
	Format string `mapstructure:"format" json:"format" yaml:"format"`
}

// ServerConfig is where `stagehand serve` listens.
type ServerConfig struct {
	Addr string `mapstructure:"addr" json:"addr" yaml:"addr"`
	Port int    `mapstructure:"port" json:"port" yaml:"port"`
}

// Address joins host and port.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Addr, s.Port)
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Model:             "gpt-4",
		PromptType:        string(budget.PromptCommit),
		PrioritizeQuality: true,
		Boundaries: BoundariesConfig{
			Options:         boundary.DefaultOptions(),
			StrictOnComplex: true,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: string(logging.FormatHuman),
		},
		Server: ServerConfig{
			Addr: "127.0.0.1",
			Port: 6142,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("model", d.Model)
	v.SetDefault("prompt_type", d.PromptType)
	v.SetDefault("prioritize_quality", d.PrioritizeQuality)
	v.SetDefault("boundaries"+keyDelim+"split_threshold", d.Boundaries.SplitThreshold)
	v.SetDefault("boundaries"+keyDelim+"chunk_size", d.Boundaries.ChunkSize)
	v.SetDefault("boundaries"+keyDelim+"merge_limit", d.Boundaries.MergeLimit)
	v.SetDefault("boundaries"+keyDelim+"strict_on_complex", d.Boundaries.StrictOnComplex)
	v.SetDefault("logging"+keyDelim+"level", d.Logging.Level)
	v.SetDefault("logging"+keyDelim+"format", d.Logging.Format)
	v.SetDefault("server"+keyDelim+"addr", d.Server.Addr)
	v.SetDefault("server"+keyDelim+"port", d.Server.Port)
}

// newViper configures lookup of .stagehand.yaml in repoRoot, then in
// $HOME/.config/stagehand, with STAGEHAND_* overrides.
func newViper(repoRoot string) *viper.Viper {
	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelim))
	setDefaults(v)

	v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
	v.SetConfigType("yaml")
	if repoRoot != "" {
		v.AddConfigPath(repoRoot)
	}
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "stagehand"))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(keyDelim, "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration for a repository. A missing file is not an
// error; defaults and environment overrides still apply. STAGEHAND_*
// entries in the repository's .env file count as environment overrides.
func Load(repoRoot string) (*Config, error) {
	v := newViper(repoRoot)
	applyDotenv(v, repoRoot)
	return load(v, "")
}

// applyDotenv copies STAGEHAND_* values from repoRoot/.env into v for keys
// the real environment leaves unset. Other entries are ignored and the
// process environment is not modified.
func applyDotenv(v *viper.Viper, repoRoot string) {
	if repoRoot == "" {
		return
	}
	vals, err := godotenv.Read(filepath.Join(repoRoot, ".env"))
	if err != nil {
		return
	}
	for _, key := range v.AllKeys() {
		name := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, keyDelim, "_"))
		val, ok := vals[name]
		if !ok {
			continue
		}
		if _, set := os.LookupEnv(name); !set {
			v.Set(key, val)
		}
	}
}

// LoadFile reads an explicit config file.
func LoadFile(path string) (*Config, error) {
	v := newViper("")
	return load(v, path)
}

func load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail deep inside the pipeline.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return &Error{Field: "model", Message: "must not be empty"}
	}
	if _, err := budget.ParsePromptType(c.PromptType); err != nil {
		return &Error{Field: "prompt_type", Message: err.Error()}
	}
	for name, limit := range c.Models {
		if limit <= 0 {
			return &Error{Field: "models." + name, Message: "context limit must be positive"}
		}
	}
	b := c.Boundaries
	if b.SplitThreshold <= 0 || b.ChunkSize <= 0 || b.MergeLimit <= 0 {
		return &Error{Field: "boundaries", Message: "split_threshold, chunk_size and merge_limit must be positive"}
	}
	if b.ChunkSize >= b.SplitThreshold {
		return &Error{Field: "boundaries.chunk_size", Message: "must be smaller than split_threshold"}
	}
	if !logging.ValidLevel(c.Logging.Level) {
		return &Error{Field: "logging.level", Message: fmt.Sprintf("unknown level %q", c.Logging.Level)}
	}
	switch c.Logging.Format {
	case string(logging.FormatHuman), string(logging.FormatJSON):
	default:
		return &Error{Field: "logging.format", Message: fmt.Sprintf("unknown format %q (want human or json)", c.Logging.Format)}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return &Error{Field: "server.port", Message: "out of range"}
	}
	return nil
}

// Prompt returns the validated prompt type.
func (c *Config) Prompt() budget.PromptType {
	pt, err := budget.ParsePromptType(c.PromptType)
	if err != nil {
		return budget.PromptCommit
	}
	return pt
}

// Error is a configuration value that failed validation.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}

const header = `# stagehand configuration
# Values here can be overridden with STAGEHAND_* environment variables,
# e.g. STAGEHAND_MODEL=gpt-4o or STAGEHAND_BOUNDARIES_SPLIT_THRESHOLD=6.
`

// WriteDefault writes the default configuration to dir/.stagehand.yaml.
// An existing file is left alone unless force is set.
func WriteDefault(dir string, force bool) (string, error) {
	path := filepath.Join(dir, FileName)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return path, fmt.Errorf("%s already exists", path)
		}
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(header), data...), 0644); err != nil {
		return "", fmt.Errorf("writing config: %w", err)
	}
	return path, nil
}
