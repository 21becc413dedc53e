package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
type Config struct {
	Server     Server     `mapstructure:"server" yaml:"server"`
	Storage    Storage    `mapstructure:"storage" yaml:"storage"`
	Watch      Watch      `mapstructure:"watch" yaml:"watch"`
	Ollama     Ollama     `mapstructure:"ollama" yaml:"ollama"`
	Import     Import     `mapstructure:"import" yaml:"import"`
	Similarity Similarity `mapstructure:"similarity" yaml:"similarity"`
}

// Server configures the HTTP listener.
type Server struct {
	Port        int      `mapstructure:"port" yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// Storage locates the SQLite metadata store.
type Storage struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// Watch configures the CSV drop-directory watcher.
type Watch struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Dir     string `mapstructure:"dir" yaml:"dir"`
}

// Ollama configures the optional local model for question suggestions.
type Ollama struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	URL     string `mapstructure:"url" yaml:"url"`
	Model   string `mapstructure:"model" yaml:"model"`
}

// Import bounds CSV ingestion. MaxRows 0 means unlimited.
type Import struct {
	MaxRows     int `mapstructure:"max_rows" yaml:"max_rows"`
	PreviewRows int `mapstructure:"preview_rows" yaml:"preview_rows"`
}

// Similarity tunes the fuzzy column matcher.
type Similarity struct {
	Threshold float64 `mapstructure:"threshold" yaml:"threshold"`
	Strategy  string  `mapstructure:"strategy" yaml:"strategy"`
}

// Load reads configuration with precedence env > config file > defaults.
// The config file is optional: askdata.yaml in the working directory or
// under ~/.askdata/. A bare PORT variable overrides the listen port on
// top, matching the usual platform convention.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ASKDATA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173", "http://localhost:3000"})
	v.SetDefault("storage.path", "data/askdata.db")
	v.SetDefault("watch.enabled", false)
	v.SetDefault("watch.dir", "data/incoming")
	v.SetDefault("ollama.enabled", false)
	v.SetDefault("ollama.url", "http://localhost:11434")
	v.SetDefault("ollama.model", "qwen3-vl:2b")
	v.SetDefault("import.max_rows", 0)
	v.SetDefault("import.preview_rows", 10)
	v.SetDefault("similarity.threshold", 0.7)
	v.SetDefault("similarity.strategy", "sequence")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".askdata"))
		}
		v.SetConfigName("askdata")
		v.SetConfigType("yaml")
	}
	// The config file is optional.
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if port := os.Getenv("PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			c.Server.Port = n
		}
	}
	return &c, nil
}

// Save writes the configuration to path as YAML. An empty path targets
// ~/.askdata/askdata.yaml; parent directories are created as needed.
func Save(c *Config, path string) error {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".askdata")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "askdata.yaml")
	} else if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
