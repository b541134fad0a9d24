package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Malformed descriptor handling modes.
const (
	MalformedFail = "fail"
	MalformedSkip = "skip"
)

// ConfigName is the basename (without extension) of the config file looked
// up in the project directory and in $HOME.
const ConfigName = ".licensescan"

// EnvPrefix prefixes every environment override, e.g. LICENSESCAN_REPORT_FORMAT.
const EnvPrefix = "LICENSESCAN"

// ErrInvalidConfig wraps every configuration failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all configuration for licensescan
type Config struct {
	Scan   ScanConfig   `mapstructure:"scan"`
	Report ReportConfig `mapstructure:"report"`
	Policy PolicyConfig `mapstructure:"policy"`

	// file the settings were read from, empty when only defaults applied
	source string
}

// ScanConfig controls the dependency walk
type ScanConfig struct {
	ModulesDir  string `mapstructure:"modules_dir"`
	Descriptor  string `mapstructure:"descriptor"`
	IncludeDev  bool   `mapstructure:"include_dev"`
	OnMalformed string `mapstructure:"on_malformed"` // "fail" or "skip"
	IgnoreFile  string `mapstructure:"ignore_file"`
	Workers     int    `mapstructure:"workers"`
}

// ReportConfig controls report rendering
type ReportConfig struct {
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"` // "-" is stdout
}

// PolicyConfig points at an optional license policy file
type PolicyConfig struct {
	Path string `mapstructure:"path"`
}

var defaultConfig = Config{
	Scan: ScanConfig{
		ModulesDir:  "node_modules",
		Descriptor:  "package.json",
		IncludeDev:  true,
		OnMalformed: MalformedFail,
		IgnoreFile:  ".licensescanignore",
		Workers:     4,
	},
	Report: ReportConfig{
		Format: "csv",
		Output: "-",
	},
}

// Default returns the built-in configuration.
func Default() *Config {
	c := defaultConfig
	return &c
}

// flagKeys maps command flags onto config keys. Flags that are not defined
// on the given flag set are ignored.
var flagKeys = map[string]string{
	"format":  "report.format",
	"output":  "report.output",
	"policy":  "policy.path",
	"workers": "scan.workers",
}

// Load builds the configuration for a project directory. Precedence, highest
// first: flags, LICENSESCAN_* environment (a .env file in dir is loaded
// without overriding the real environment), the config file, defaults.
func Load(dir string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if dir == "" {
		dir = "."
	}
	if err := loadDotEnv(dir); err != nil {
		return nil, err
	}

	v.SetConfigName(ConfigName)
	v.AddConfigPath(dir)
	v.AddConfigPath("$HOME")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	if used := v.ConfigFileUsed(); used != "" {
		if err := ValidateFile(used); err != nil {
			return nil, err
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg.source = v.ConfigFileUsed()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scan.modules_dir", defaultConfig.Scan.ModulesDir)
	v.SetDefault("scan.descriptor", defaultConfig.Scan.Descriptor)
	v.SetDefault("scan.include_dev", defaultConfig.Scan.IncludeDev)
	v.SetDefault("scan.on_malformed", defaultConfig.Scan.OnMalformed)
	v.SetDefault("scan.ignore_file", defaultConfig.Scan.IgnoreFile)
	v.SetDefault("scan.workers", defaultConfig.Scan.Workers)
	v.SetDefault("report.format", defaultConfig.Report.Format)
	v.SetDefault("report.output", defaultConfig.Report.Output)
	v.SetDefault("policy.path", defaultConfig.Policy.Path)
}

func loadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("%w: load %s: %v", ErrInvalidConfig, path, err)
	}
	return nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("%w: bind --%s: %v", ErrInvalidConfig, name, err)
		}
	}
	// boolean switches that select a config value rather than mirror one
	if on, err := flags.GetBool("production"); err == nil && flags.Changed("production") && on {
		v.Set("scan.include_dev", false)
	}
	if on, err := flags.GetBool("skip-malformed"); err == nil && flags.Changed("skip-malformed") && on {
		v.Set("scan.on_malformed", MalformedSkip)
	}
	return nil
}

// Validate checks values that the schema cannot see, such as those coming
// from the environment or flags.
func (c *Config) Validate() error {
	switch c.Scan.OnMalformed {
	case MalformedFail, MalformedSkip:
	default:
		return fmt.Errorf("%w: scan.on_malformed must be %q or %q, got %q", ErrInvalidConfig, MalformedFail, MalformedSkip, c.Scan.OnMalformed)
	}
	if c.Scan.Workers < 1 {
		return fmt.Errorf("%w: scan.workers must be at least 1, got %d", ErrInvalidConfig, c.Scan.Workers)
	}
	if c.Scan.ModulesDir == "" || c.Scan.Descriptor == "" {
		return fmt.Errorf("%w: scan.modules_dir and scan.descriptor must not be empty", ErrInvalidConfig)
	}
	return nil
}

// Source is the config file the settings were read from, if any.
func (c *Config) Source() string { return c.source }
