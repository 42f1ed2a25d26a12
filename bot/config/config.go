package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/ini.v1"
)

// Config wraps viper and provides typed accessors.
type Config struct {
	v         *viper.Viper
	platforms map[string][]string
}

// Load reads an INI config file and prepares defaults. Non-INI paths are
// handed to viper directly so YAML/TOML configs keep working.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TUNEID")
	v.AutomaticEnv()

	setDefaults(v)

	c := &Config{
		v:         v,
		platforms: make(map[string][]string),
	}

	if strings.EqualFold(filepath.Ext(path), ".ini") {
		cfg, err := ini.Load(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		for _, key := range cfg.Section("").Keys() {
			v.Set(key.Name(), key.Value())
		}
		loadPlatformSection(cfg, c)
		return c, nil
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("BotAPI", "https://api.telegram.org")
	v.SetDefault("BotDebug", false)
	v.SetDefault("BotAdmin", 0)
	v.SetDefault("DownloadDir", "./downloads")
	v.SetDefault("DefaultLanguage", "fa")
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFormat", "text")
	v.SetDefault("LogSource", false)
	v.SetDefault("RecognizeAPI", "")
	v.SetDefault("RecognizeTimeout", 30)
	v.SetDefault("RecognizeMaxFileSizeMB", 50)
	v.SetDefault("DownloadTimeout", 300)
	v.SetDefault("DownloadMaxRetries", 3)
	v.SetDefault("DownloadConcurrency", 4)
	v.SetDefault("MemoryGuardPercent", 80)
	v.SetDefault("MaxSendFileSizeMB", 50)
	v.SetDefault("WorkerPoolSize", 4)
	v.SetDefault("InlineSearchLimit", 10)
	v.SetDefault("RateLimitPerSecond", 1.0)
	v.SetDefault("RateLimitBurst", 3)
	v.SetDefault("TempFileMaxAgeHours", 1)
}

// GetString returns a string value.
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt returns an int value.
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 returns a float64 value.
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool returns a bool value.
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// PlatformDomains returns the configured domain list for a platform tag,
// or nil when the [platform] section does not override it.
func (c *Config) PlatformDomains(tag string) []string {
	return c.platforms[strings.ToLower(tag)]
}

// loadPlatformSection reads the optional [platform] section, where each key
// is a platform tag and the value a comma-separated domain list.
func loadPlatformSection(cfg *ini.File, c *Config) {
	section, err := cfg.GetSection("platform")
	if err != nil {
		return
	}
	for _, key := range section.Keys() {
		var domains []string
		for _, d := range strings.Split(key.Value(), ",") {
			if d = strings.TrimSpace(d); d != "" {
				domains = append(domains, d)
			}
		}
		if len(domains) > 0 {
			c.platforms[strings.ToLower(key.Name())] = domains
		}
	}
}
