// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"survey-dict/internal/cache"
	"survey-dict/internal/paths"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// Default settings
	Defaults struct {
		Format  string `yaml:"format"`
		Verbose bool   `yaml:"verbose"`
		Debug   bool   `yaml:"debug"`
		NoColor bool   `yaml:"no_color"`
		Output  string `yaml:"output"`
	} `yaml:"defaults"`

	API        APIConfig        `yaml:"api"`
	Dictionary DictionaryConfig `yaml:"dictionary"`
	Compare    CompareConfig    `yaml:"compare"`
	Responses  ResponsesConfig  `yaml:"responses"`
	Cache      CacheConfig      `yaml:"cache"`

	// Profiles for different surveys or studies
	Profiles map[string]Profile `yaml:"profiles"`
}

// APIConfig holds the survey platform connection settings
type APIConfig struct {
	BaseURL      string        `yaml:"base_url"`
	DataCenter   string        `yaml:"data_center"`
	TokenEnv     string        `yaml:"token_env"`
	Timeout      time.Duration `yaml:"timeout"`
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxRetries   int           `yaml:"max_retries"`
}

// Token reads the API token from the configured environment variable
func (a APIConfig) Token() string {
	return os.Getenv(a.TokenEnv)
}

// EffectiveBaseURL returns BaseURL, falling back to QUALTRICS_BASE_URL when
// neither a base URL nor a data center is configured
func (a APIConfig) EffectiveBaseURL() string {
	if a.BaseURL != "" || a.DataCenter != "" {
		return a.BaseURL
	}
	return os.Getenv("QUALTRICS_BASE_URL")
}

// DictionaryConfig controls dictionary generation
type DictionaryConfig struct {
	VarName         string `yaml:"var_name"`
	NameStyle       string `yaml:"name_style"`
	MaxNameWords    int    `yaml:"max_name_words"`
	BlockPrefix     string `yaml:"block_prefix"`
	BlockSep        string `yaml:"block_sep"`
	Filter          string `yaml:"filter"`
	OverridesFile   string `yaml:"overrides_file"`
	SplitByBlock    bool   `yaml:"split_by_block"`
	SkipUnsupported bool   `yaml:"skip_unsupported"`
	ExcludeMistakes bool   `yaml:"exclude_mistakes"`
}

// CompareConfig controls dictionary comparison
type CompareConfig struct {
	MaxDistance int `yaml:"max_distance"`
}

// ResponsesConfig controls response export and recoding
type ResponsesConfig struct {
	Format              string   `yaml:"format"`
	UnanswerRecode      *float64 `yaml:"unanswer_recode"`
	UnanswerRecodeMulti *float64 `yaml:"unanswer_recode_multi"`
	SplitByBlock        bool     `yaml:"split_by_block"`
}

// CacheConfig selects the survey definition cache
type CacheConfig struct {
	Backend string             `yaml:"backend"`
	TTL     time.Duration      `yaml:"ttl"`
	Redis   cache.RedisOptions `yaml:"redis"`
}

// Profile represents a named set of overrides. Empty strings, false booleans
// and nil pointers leave the base configuration unchanged.
type Profile struct {
	Description     string   `yaml:"description"`
	Format          string   `yaml:"format"`
	Verbose         bool     `yaml:"verbose"`
	Debug           bool     `yaml:"debug"`
	NoColor         bool     `yaml:"no_color"`
	DataCenter      string   `yaml:"data_center"`
	BaseURL         string   `yaml:"base_url"`
	TokenEnv        string   `yaml:"token_env"`
	VarName         string   `yaml:"var_name"`
	NameStyle       string   `yaml:"name_style"`
	MaxNameWords    *int     `yaml:"max_name_words"`
	BlockPrefix     string   `yaml:"block_prefix"`
	BlockSep        string   `yaml:"block_sep"`
	Filter          string   `yaml:"filter"`
	OverridesFile   string   `yaml:"overrides_file"`
	SplitByBlock    bool     `yaml:"split_by_block"`
	SkipUnsupported bool     `yaml:"skip_unsupported"`
	ExcludeMistakes bool     `yaml:"exclude_mistakes"`
	MaxDistance     *int     `yaml:"max_distance"`
	Unanswer        *float64 `yaml:"unanswer_recode"`
	UnanswerMulti   *float64 `yaml:"unanswer_recode_multi"`
	CacheBackend    string   `yaml:"cache_backend"`
}

// Defaults returns the configuration used when no file is found
func Defaults() *Config {
	config := &Config{
		Profiles: make(map[string]Profile),
	}

	config.Defaults.Format = "text"

	config.API.TokenEnv = "QUALTRICS_API_KEY"
	config.API.Timeout = 60 * time.Second
	config.API.PollInterval = 2 * time.Second
	config.API.MaxRetries = 5

	config.Dictionary.VarName = "question_name"
	config.Dictionary.NameStyle = "as_is"
	config.Dictionary.MaxNameWords = 2
	config.Dictionary.BlockSep = "."

	config.Compare.MaxDistance = 5

	config.Responses.Format = "csv"

	config.Cache.Backend = "none"
	config.Cache.TTL = time.Hour
	config.Cache.Redis = cache.DefaultRedisOptions()

	config.Profiles["easyname"] = Profile{
		Description: "Short keyword based names in snake case",
		VarName:     "easyname",
		NameStyle:   "snake",
	}
	return config
}

// LoadConfig loads configuration from the specified file path
func LoadConfig(configPath string) (*Config, error) {
	config := Defaults()

	// If no config file specified, return default config
	if configPath == "" {
		return config, nil
	}

	cleanPath := filepath.Clean(configPath)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Fields absent from the file keep their defaults
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	if config.Profiles == nil {
		config.Profiles = make(map[string]Profile)
	}

	if err := ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

// FindConfigFile looks for a configuration file in the current directory,
// then in the user configuration directory
func FindConfigFile() string {
	for _, name := range []string{"surveydict.yaml", "surveydict.yml", ".surveydict.yaml", ".surveydict.yml"} {
		if fileExists(name) {
			return name
		}
	}

	standardConfig := paths.GetConfigFile()
	if fileExists(standardConfig) {
		return standardConfig
	}
	return ""
}

// fileExists checks if a file exists and is not a directory
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// ListProfiles returns the sorted profile names
func (c *Config) ListProfiles() []string {
	profiles := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		profiles = append(profiles, name)
	}
	sort.Strings(profiles)
	return profiles
}

// GetProfile returns a profile by name, or nil if not found
func (c *Config) GetProfile(name string) *Profile {
	if profile, exists := c.Profiles[name]; exists {
		return &profile
	}
	return nil
}

// ApplyProfile merges the named profile into the configuration
func (c *Config) ApplyProfile(name string) error {
	p := c.GetProfile(name)
	if p == nil {
		return fmt.Errorf("profile '%s' not found (available: %v)", name, c.ListProfiles())
	}

	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setString(&c.Defaults.Format, p.Format)
	c.Defaults.Verbose = c.Defaults.Verbose || p.Verbose
	c.Defaults.Debug = c.Defaults.Debug || p.Debug
	c.Defaults.NoColor = c.Defaults.NoColor || p.NoColor

	setString(&c.API.DataCenter, p.DataCenter)
	setString(&c.API.BaseURL, p.BaseURL)
	setString(&c.API.TokenEnv, p.TokenEnv)

	setString(&c.Dictionary.VarName, p.VarName)
	setString(&c.Dictionary.NameStyle, p.NameStyle)
	if p.MaxNameWords != nil {
		c.Dictionary.MaxNameWords = *p.MaxNameWords
	}
	setString(&c.Dictionary.BlockPrefix, p.BlockPrefix)
	setString(&c.Dictionary.BlockSep, p.BlockSep)
	setString(&c.Dictionary.Filter, p.Filter)
	setString(&c.Dictionary.OverridesFile, p.OverridesFile)
	if p.SplitByBlock {
		c.Dictionary.SplitByBlock = true
		c.Responses.SplitByBlock = true
	}
	c.Dictionary.SkipUnsupported = c.Dictionary.SkipUnsupported || p.SkipUnsupported
	c.Dictionary.ExcludeMistakes = c.Dictionary.ExcludeMistakes || p.ExcludeMistakes

	if p.MaxDistance != nil {
		c.Compare.MaxDistance = *p.MaxDistance
	}
	if p.Unanswer != nil {
		c.Responses.UnanswerRecode = p.Unanswer
	}
	if p.UnanswerMulti != nil {
		c.Responses.UnanswerRecodeMulti = p.UnanswerMulti
	}
	setString(&c.Cache.Backend, p.CacheBackend)
	return ValidateConfig(c)
}

// ValidateConfig checks enumerated settings, ranges and paths
func ValidateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}

	switch config.Dictionary.VarName {
	case "question_name", "easyname":
	default:
		return fmt.Errorf("dictionary.var_name must be question_name or easyname, got %q", config.Dictionary.VarName)
	}
	switch config.Dictionary.NameStyle {
	case "as_is", "snake":
	default:
		return fmt.Errorf("dictionary.name_style must be as_is or snake, got %q", config.Dictionary.NameStyle)
	}
	if config.Dictionary.MaxNameWords < 0 {
		return fmt.Errorf("dictionary.max_name_words must be >= 0")
	}
	if config.Compare.MaxDistance < 0 {
		return fmt.Errorf("compare.max_distance must be >= 0, got %d", config.Compare.MaxDistance)
	}
	switch config.Responses.Format {
	case "csv", "json":
	default:
		return fmt.Errorf("responses.format must be csv or json, got %q", config.Responses.Format)
	}
	switch config.Cache.Backend {
	case "", "none", "memory", "redis":
	default:
		return fmt.Errorf("cache.backend must be none, memory or redis, got %q", config.Cache.Backend)
	}
	if config.API.Timeout < 0 || config.API.PollInterval < 0 || config.Cache.TTL < 0 {
		return fmt.Errorf("durations can't be negative")
	}
	if config.API.MaxRetries < 0 {
		return fmt.Errorf("api.max_retries must be >= 0")
	}
	if config.API.TokenEnv == "" {
		return fmt.Errorf("api.token_env can't be empty")
	}

	for field, p := range map[string]string{
		"defaults.output":           config.Defaults.Output,
		"dictionary.overrides_file": config.Dictionary.OverridesFile,
	} {
		if err := paths.ValidatePath(p); err != nil {
			return fmt.Errorf("invalid %s: %w", field, err)
		}
	}
	return nil
}

// LoadConfigOrDefault loads configuration from configFile (or searches standard locations
// when configFile is empty). If loading fails, it returns a default configuration.
func LoadConfigOrDefault(configFile string) *Config {
	configPath := configFile
	if configPath == "" {
		configPath = FindConfigFile()
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		// Fall back to defaults; callers should not crash on a missing/bad config file.
		cfg = Defaults()
	}
	return cfg
}
