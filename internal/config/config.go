package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/dshills/commitcraft/internal/apperr"
)

// EnvPrefix is prepended to every environment override, e.g.
// COMMITCRAFT_COMMIT_MAX_RETRIES.
const EnvPrefix = "COMMITCRAFT"

// Config represents the commitcraft configuration.
type Config struct {
	LLM     LLMConfig     `mapstructure:"llm" yaml:"llm"`
	Commit  CommitConfig  `mapstructure:"commit" yaml:"commit"`
	Review  ReviewConfig  `mapstructure:"review" yaml:"review"`
	UI      UIConfig      `mapstructure:"ui" yaml:"ui"`
	Network NetworkConfig `mapstructure:"network" yaml:"network"`
	Privacy PrivacyConfig `mapstructure:"privacy" yaml:"privacy"`
	Cache   CacheConfig   `mapstructure:"cache" yaml:"cache"`
}

// LLMConfig selects and configures generation providers.
type LLMConfig struct {
	DefaultProvider string                    `mapstructure:"default_provider" yaml:"default_provider"`
	Providers       map[string]ProviderConfig `mapstructure:"providers" yaml:"providers"`
}

// ProviderConfig configures one provider entry. Unknown keys are kept in
// Extra and passed through to the request body.
type ProviderConfig struct {
	APIStyle    string         `mapstructure:"api_style" yaml:"api_style,omitempty"`
	Endpoint    string         `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	APIKey      string         `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Model       string         `mapstructure:"model" yaml:"model"`
	MaxTokens   int            `mapstructure:"max_tokens" yaml:"max_tokens,omitempty"`
	Temperature *float64       `mapstructure:"temperature" yaml:"temperature,omitempty"`
	Extra       map[string]any `mapstructure:",remain" yaml:",inline"`
}

// CommitConfig controls the commit workflow.
type CommitConfig struct {
	ShowDiffPreview bool   `mapstructure:"show_diff_preview" yaml:"show_diff_preview"`
	AllowEdit       bool   `mapstructure:"allow_edit" yaml:"allow_edit"`
	CustomPrompt    string `mapstructure:"custom_prompt" yaml:"custom_prompt,omitempty"`
	MaxRetries      int    `mapstructure:"max_retries" yaml:"max_retries"`
	Streaming       bool   `mapstructure:"streaming" yaml:"streaming"`
}

// ReviewConfig controls the review command.
type ReviewConfig struct {
	MinSeverity  string `mapstructure:"min_severity" yaml:"min_severity"`
	CustomPrompt string `mapstructure:"custom_prompt" yaml:"custom_prompt,omitempty"`
}

// UIConfig controls terminal output.
type UIConfig struct {
	Colored bool `mapstructure:"colored" yaml:"colored"`
	Verbose bool `mapstructure:"verbose" yaml:"verbose"`
}

// NetworkConfig holds HTTP timeouts in seconds.
type NetworkConfig struct {
	RequestTimeout int `mapstructure:"request_timeout" yaml:"request_timeout"`
	ConnectTimeout int `mapstructure:"connect_timeout" yaml:"connect_timeout"`
}

// Request returns the whole-request timeout.
func (n NetworkConfig) Request() time.Duration { return time.Duration(n.RequestTimeout) * time.Second }

// Connect returns the dial timeout.
func (n NetworkConfig) Connect() time.Duration { return time.Duration(n.ConnectTimeout) * time.Second }

// PrivacyConfig controls privacy/redaction behavior.
type PrivacyConfig struct {
	RedactSecrets bool     `mapstructure:"redact_secrets" yaml:"redact_secrets"`
	RedactPaths   []string `mapstructure:"redact_paths" yaml:"redact_paths,omitempty"`
}

// CacheConfig controls caching of review results.
type CacheConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	Dir        string `mapstructure:"dir" yaml:"dir,omitempty"`
	TTLSeconds int    `mapstructure:"ttl_seconds" yaml:"ttl_seconds"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		LLM: LLMConfig{
			DefaultProvider: "claude",
			Providers: map[string]ProviderConfig{
				"claude": {Model: "claude-sonnet-4-5-20250929"},
				"openai": {Model: "gpt-4o-mini"},
				"ollama": {Model: "llama3.2"},
			},
		},
		Commit: CommitConfig{
			ShowDiffPreview: true,
			AllowEdit:       true,
			MaxRetries:      10,
			Streaming:       true,
		},
		Review: ReviewConfig{MinSeverity: "info"},
		UI:     UIConfig{Colored: true},
		Network: NetworkConfig{
			RequestTimeout: 120,
			ConnectTimeout: 10,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/*secrets*"},
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 86400,
		},
	}
}

// ConfigDir returns the platform-appropriate config directory for commitcraft.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "commitcraft"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "cannot determine home directory")
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "commitcraft"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "commitcraft"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "commitcraft"), nil
	default:
		return filepath.Join(home, ".config", "commitcraft"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load builds the effective config by merging: defaults <- file <- env <- flags.
// An empty path means the default location, where a missing file is fine.
// flags maps config keys (e.g. "ui.verbose") to the CLI flags that set them;
// only flags the user changed take effect.
func Load(path string, flags map[string]*pflag.Flag) (*Config, error) {
	v := viper.New()
	if err := setDefaults(v); err != nil {
		return nil, err
	}

	v.SetConfigType("yaml")
	explicit := path != ""
	if !explicit {
		p, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	v.SetConfigFile(path)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if explicit || !isNotFound(err) {
			return nil, apperr.WithHint(
				apperr.Wrap(apperr.KindConfig, err, "reading config file %s", path),
				"Run 'commitcraft config validate' or recreate it with 'commitcraft config init --force'",
			)
		}
	}

	for key, f := range flags {
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, errors.Wrapf(err, "binding flag %s", f.Name)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperr.WithHint(
			apperr.Wrap(apperr.KindConfig, err, "decoding config"),
			"Check value types in "+path,
		)
	}
	return &cfg, nil
}

func isNotFound(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf) || errors.Is(err, os.ErrNotExist)
}

// setDefaults registers Default() with viper so that file, env, and flags
// overlay it key by key.
func setDefaults(v *viper.Viper) error {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return errors.Wrap(err, "marshaling defaults")
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return errors.Wrap(err, "decoding defaults")
	}
	for k, val := range m {
		v.SetDefault(k, val)
	}
	return nil
}

// knownStyles lists the accepted api_style values.
var knownStyles = map[string]bool{"claude": true, "anthropic": true, "openai": true, "ollama": true}

// Provider returns the named provider entry, or the default provider when
// name is empty. Well-known names without an entry get an empty config so
// that family defaults apply.
func (c *Config) Provider(name string) (string, ProviderConfig, error) {
	if name == "" {
		name = c.LLM.DefaultProvider
	}
	if pc, ok := c.LLM.Providers[name]; ok {
		return name, pc, nil
	}
	if knownStyles[name] {
		return name, ProviderConfig{}, nil
	}
	return name, ProviderConfig{}, apperr.Config(
		fmt.Sprintf("Configured providers: %s", strings.Join(c.ProviderNames(), ", ")),
		"provider %q not found in config", name,
	)
}

// ProviderNames returns the configured provider names, sorted.
func (c *Config) ProviderNames() []string {
	names := make([]string, 0, len(c.LLM.Providers))
	for n := range c.LLM.Providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Validate checks the config for values that would fail later at runtime.
func (c *Config) Validate() error {
	var problems []string

	if _, _, err := c.Provider(""); err != nil {
		problems = append(problems, fmt.Sprintf("llm.default_provider %q has no provider entry", c.LLM.DefaultProvider))
	}
	for _, name := range c.ProviderNames() {
		pc := c.LLM.Providers[name]
		if pc.APIStyle != "" && !knownStyles[pc.APIStyle] {
			problems = append(problems, fmt.Sprintf("llm.providers.%s.api_style %q is not one of claude, openai, ollama", name, pc.APIStyle))
		}
		if pc.APIStyle == "" && !knownStyles[name] {
			problems = append(problems, fmt.Sprintf("llm.providers.%s needs api_style (claude, openai, or ollama)", name))
		}
		if pc.Temperature != nil && (*pc.Temperature < 0 || *pc.Temperature > 2) {
			problems = append(problems, fmt.Sprintf("llm.providers.%s.temperature must be between 0 and 2", name))
		}
		if pc.MaxTokens < 0 {
			problems = append(problems, fmt.Sprintf("llm.providers.%s.max_tokens must not be negative", name))
		}
	}
	if c.Commit.MaxRetries < 1 {
		problems = append(problems, "commit.max_retries must be at least 1")
	}
	switch strings.ToLower(c.Review.MinSeverity) {
	case "", "info", "warning", "critical":
	default:
		problems = append(problems, fmt.Sprintf("review.min_severity %q is not one of info, warning, critical", c.Review.MinSeverity))
	}
	if c.Network.RequestTimeout <= 0 || c.Network.ConnectTimeout <= 0 {
		problems = append(problems, "network timeouts must be positive")
	}

	if len(problems) > 0 {
		return apperr.Config("Fix the listed keys in the config file", "invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// Save writes cfg as YAML to path. The file may hold API keys, so it is
// created owner-readable only.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "creating config directory")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}
	return errors.Wrap(os.WriteFile(path, data, 0o600), "writing config")
}

// ErrConfigExists is returned by Init when a file is already present.
var ErrConfigExists = errors.New("config file already exists")

// Init writes the default config to path unless a file exists and force is false.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return apperr.WithHint(apperr.Wrap(apperr.KindConfig, ErrConfigExists, "%s", path), "Use --force to overwrite it")
	}
	return Save(path, Default())
}
