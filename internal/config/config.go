package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/spf13/viper"

	"modlist-downloader/internal/i18n"
	"modlist-downloader/internal/logger"
	"modlist-downloader/internal/verify"
)

const appName = "modlist-downloader"

type Config struct {
	SessionToken     string        `mapstructure:"session_token"` // value of the nexusmods_session cookie
	GameID           int           `mapstructure:"game_id"`
	GameDomain       string        `mapstructure:"game_domain"`
	DownloadDir      string        `mapstructure:"download_dir"`
	WorklistPath     string        `mapstructure:"worklist_path"`
	LedgerPath       string        `mapstructure:"ledger_path"`
	HistoryPath      string        `mapstructure:"history_path"`
	Concurrency      int           `mapstructure:"concurrency"`
	VerificationMode string        `mapstructure:"verification_mode"` // Hash, Size or Skip
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout"`
	ReadTimeout      time.Duration `mapstructure:"read_timeout"` // max silence while reading a body
	ResolveTimeout   time.Duration `mapstructure:"resolve_timeout"`
	RateLimit        string        `mapstructure:"rate_limit"` // e.g. "20MB", empty for unlimited
	ChallengeSolver  bool          `mapstructure:"challenge_solver"`
	Headless         bool          `mapstructure:"headless"`
	BrowserDataDir   string        `mapstructure:"browser_data_dir"`
	EmailAlertTo     string        `mapstructure:"email_alert_to"` // Destination email for alerts (uses system msmtp)
}

var AppConfig Config

// ConfigFile overrides the search path when set (--config).
var ConfigFile string

// Dir is the per-user configuration directory.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", appName)
}

// SetDefaults registers every key so viper.Unmarshal and MLD_* environment
// overrides see them even without a config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("session_token", "")
	v.SetDefault("game_id", 0)
	v.SetDefault("game_domain", "")
	v.SetDefault("download_dir", "./downloads")
	v.SetDefault("worklist_path", "output.csv")
	v.SetDefault("ledger_path", "download_state.json")
	v.SetDefault("history_path", "download_history.jsonl")
	v.SetDefault("concurrency", 5)
	v.SetDefault("verification_mode", "Size")
	v.SetDefault("connect_timeout", 5*time.Second)
	v.SetDefault("read_timeout", 10*time.Second)
	v.SetDefault("resolve_timeout", 30*time.Second)
	v.SetDefault("rate_limit", "")
	v.SetDefault("challenge_solver", true)
	v.SetDefault("headless", true)
	v.SetDefault("browser_data_dir", filepath.Join(Dir(), "browser"))
	v.SetDefault("email_alert_to", "")
}

// Load reads configuration into v and decodes it. A missing config file is
// not an error.
func Load(v *viper.Viper) (Config, bool, error) {
	if ConfigFile != "" {
		v.SetConfigFile(ConfigFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/" + appName + "/")
		v.AddConfigPath("$HOME/.config/" + appName)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("MLD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	found := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, false, err
		}
		found = false
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, found, fmt.Errorf("decoding config: %w", err)
	}
	return c, found, nil
}

func InitConfig() {
	c, found, err := Load(viper.GetViper())
	if err != nil {
		logger.Error(i18n.T("config_read_error"), err)
		os.Exit(1)
	}
	if !found {
		logger.Info(i18n.T("config_missing"))
	}
	AppConfig = c
}

// ValidationError lists every problem found in a configuration.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// Validate checks the values the download engine depends on.
func (c Config) Validate() error {
	var problems []string
	if c.Concurrency < 1 {
		problems = append(problems, fmt.Sprintf("concurrency must be at least 1 (got %d)", c.Concurrency))
	}
	if _, err := verify.ParseMode(c.VerificationMode); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := c.RateLimitBytes(); err != nil {
		problems = append(problems, err.Error())
	}
	if c.ConnectTimeout <= 0 {
		problems = append(problems, "connect_timeout must be positive")
	}
	if c.ReadTimeout <= 0 {
		problems = append(problems, "read_timeout must be positive")
	}
	if c.DownloadDir == "" {
		problems = append(problems, "download_dir is empty")
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// Mode returns the parsed verification mode.
func (c Config) Mode() (verify.Mode, error) {
	return verify.ParseMode(c.VerificationMode)
}

// RateLimitBytes parses rate_limit ("20MB", "512KB/s"). 0 means unlimited.
func (c Config) RateLimitBytes() (int64, error) {
	s := strings.TrimSpace(c.RateLimit)
	s = strings.TrimSuffix(strings.TrimSuffix(s, "/s"), "ps")
	if s == "" || s == "0" {
		return 0, nil
	}
	var v datasize.ByteSize
	if err := v.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("rate_limit %q: %w", c.RateLimit, err)
	}
	return int64(v.Bytes()), nil
}
