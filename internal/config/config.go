package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level devsight configuration.
type Config struct {
	ScanPaths []string   `mapstructure:"scan_paths"`
	LogHome   string     `mapstructure:"log_home"`
	SkipDirs  []string   `mapstructure:"skip_dirs"`
	Scan      ScanLimits `mapstructure:"scan"`
	CacheTTL  int        `mapstructure:"cache_ttl_hours"`
	Output    Output     `mapstructure:"output"`
}

// ScanLimits bounds the repository scanner. Every limit exists so a single
// pathological repository cannot stall or dominate a run.
type ScanLimits struct {
	MaxDepth      int           `mapstructure:"max_depth"`
	MaxRepos      int           `mapstructure:"max_repos"`
	MaxCommits    int           `mapstructure:"max_commits"`
	MaxRepoSizeMB int           `mapstructure:"max_repo_size_mb"`
	RepoTimeout   time.Duration `mapstructure:"repo_timeout"`
	Workers       int           `mapstructure:"workers"`
}

// Output defines output preferences.
type Output struct {
	Color bool `mapstructure:"color"`
	Width int  `mapstructure:"width"`
}

// CacheTTLDuration returns the cache TTL as a duration.
func (c *Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Hour
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from the given path (or the default location)
// and returns a Config with all defaults applied.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("scan_paths", DefaultScanPaths)
	v.SetDefault("log_home", DefaultLogHome)
	v.SetDefault("skip_dirs", DefaultSkipDirs)
	v.SetDefault("scan.max_depth", DefaultScanLimits.MaxDepth)
	v.SetDefault("scan.max_repos", DefaultScanLimits.MaxRepos)
	v.SetDefault("scan.max_commits", DefaultScanLimits.MaxCommits)
	v.SetDefault("scan.max_repo_size_mb", DefaultScanLimits.MaxRepoSizeMB)
	v.SetDefault("scan.repo_timeout", DefaultScanLimits.RepoTimeout)
	v.SetDefault("scan.workers", DefaultScanLimits.Workers)
	v.SetDefault("cache_ttl_hours", DefaultCacheTTLHours)
	v.SetDefault("output.color", DefaultOutput.Color)
	v.SetDefault("output.width", DefaultOutput.Width)

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		configDir := expandPath(DefaultConfigDir)
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Read config file if it exists; missing file is not an error.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.LogHome = expandPath(cfg.LogHome)
	for i, p := range cfg.ScanPaths {
		cfg.ScanPaths[i] = expandPath(p)
	}

	if cfg.Scan.Workers < 1 {
		cfg.Scan.Workers = 1
	}

	return &cfg, nil
}

// DBPath returns the full path to the snapshot history database.
func DBPath() string {
	return filepath.Join(expandPath(DefaultConfigDir), DefaultDBName)
}

// CachePath returns the full path to the repository scan cache.
func CachePath() string {
	return filepath.Join(expandPath(DefaultConfigDir), DefaultCacheName)
}
