package utils

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

type QueryConfig struct {
	Requeries int      `mapstructure:"requeries"`
	Cutoff    int      `mapstructure:"cutoff"`
	Sources   []string `mapstructure:"sources"`
}

type HTTPConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
}

type EndpointConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type Alex123Config struct {
	DBPath string `mapstructure:"db_path"`
}

type LionConfig struct {
	AssociationPath string `mapstructure:"association_path"`
	OBOPath         string `mapstructure:"obo_path"`
}

type LinexConfig struct {
	ReactionsPath string `mapstructure:"reactions_path"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ProgressAddr string        `mapstructure:"progress_addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type LogConfig struct {
	JSON bool `mapstructure:"json"`
}

type Config struct {
	Query             QueryConfig    `mapstructure:"query"`
	NormalizerTimeout time.Duration  `mapstructure:"normalizer_timeout"`
	HTTP              HTTPConfig     `mapstructure:"http"`
	LipidMaps         EndpointConfig `mapstructure:"lipidmaps"`
	SwissLipids       EndpointConfig `mapstructure:"swisslipids"`
	Alex123           Alex123Config  `mapstructure:"alex123"`
	Lion              LionConfig     `mapstructure:"lion"`
	Linex             LinexConfig    `mapstructure:"linex"`
	Server            ServerConfig   `mapstructure:"server"`
	Log               LogConfig      `mapstructure:"log"`
}

// DefaultSources is the full connector selection in registry order.
var DefaultSources = []string{"swisslipids", "lipidmaps", "alex123", "linex", "lion"}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("query.requeries", 0)
	v.SetDefault("query.cutoff", 0)
	v.SetDefault("query.sources", DefaultSources)
	v.SetDefault("normalizer_timeout", 30*time.Second)

	v.SetDefault("http.timeout", 20*time.Second)
	v.SetDefault("http.rate_per_second", 5.0)
	v.SetDefault("http.burst", 1)

	v.SetDefault("lipidmaps.base_url", "https://www.lipidmaps.org")
	v.SetDefault("swisslipids.base_url", "https://www.swisslipids.org")

	v.SetDefault("alex123.db_path", "")
	v.SetDefault("lion.association_path", "")
	v.SetDefault("lion.obo_path", "")
	v.SetDefault("linex.reactions_path", "")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.progress_addr", ":7070")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)

	v.SetDefault("log.json", false)
}

// NewViper builds a viper instance with defaults, LIPIDLIBRARIAN_* environment
// binding and the optional lipidlibrarian.toml from the working directory or
// ~/.lipidlibrarian. An explicit path takes precedence over the search.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("LIPIDLIBRARIAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
		return v, nil
	}

	v.SetConfigName("lipidlibrarian")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		v.AddConfigPath(filepath.Join(home, ".lipidlibrarian"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}
	return v, nil
}

// LoadConfig reads the configuration from the given file (optional) and the
// environment.
func LoadConfig(path string) (*Config, error) {
	v, err := NewViper(path)
	if err != nil {
		return nil, err
	}
	return Unmarshal(v)
}

// Unmarshal decodes and validates the configuration held by v.
func Unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Query.Requeries < 0 {
		return errors.WithHint(errors.Newf("query.requeries must be >= 0, got %d", c.Query.Requeries),
			"use 0 to disable requerying")
	}
	if c.Query.Cutoff < 0 {
		return errors.WithHint(errors.Newf("query.cutoff must be >= 0, got %d", c.Query.Cutoff),
			"use 0 for no cutoff")
	}
	if c.HTTP.RatePerSecond < 0 {
		return errors.Newf("http.rate_per_second must be >= 0, got %v", c.HTTP.RatePerSecond)
	}
	return nil
}
