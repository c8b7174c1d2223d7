package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	c, found, err := Load(viper.New())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if found {
		t.Skip("a system-wide config file is present")
	}
	if c.Concurrency != 5 || c.VerificationMode != "Size" || c.WorklistPath != "output.csv" {
		t.Errorf("defaults = %+v", c)
	}
	if !c.ChallengeSolver || !c.Headless {
		t.Errorf("boolean defaults = %+v", c)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "session_token: from-file\nconcurrency: 3\nverification_mode: Hash\nread_timeout: 20s\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	old := ConfigFile
	ConfigFile = path
	defer func() { ConfigFile = old }()
	t.Setenv("MLD_SESSION_TOKEN", "from-env")

	c, found, err := Load(viper.New())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !found {
		t.Error("config file should be reported as found")
	}
	if c.SessionToken != "from-env" {
		t.Errorf("session token = %q, env should win", c.SessionToken)
	}
	if c.Concurrency != 3 || c.VerificationMode != "Hash" || c.ReadTimeout != 20*time.Second {
		t.Errorf("config = %+v", c)
	}
	if c.ConnectTimeout != 5*time.Second || c.DownloadDir != "./downloads" || c.LedgerPath != "download_state.json" {
		t.Errorf("defaults not applied: %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidateCollectsProblems(t *testing.T) {
	c := Config{
		Concurrency:      0,
		VerificationMode: "md5",
		RateLimit:        "fast",
		ConnectTimeout:   time.Second,
		ReadTimeout:      time.Second,
		DownloadDir:      "d",
	}
	err := c.Validate()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if len(ve.Problems) != 3 {
		t.Errorf("problems = %v", ve.Problems)
	}
	if !strings.Contains(err.Error(), "concurrency") {
		t.Errorf("error = %v", err)
	}
}

func TestRateLimitBytes(t *testing.T) {
	cases := map[string]int64{
		"":       0,
		"0":      0,
		"512KB":  512 << 10,
		"20MB/s": 20 << 20,
		"1GB":    1 << 30,
		"2048":   2048,
	}
	for in, want := range cases {
		got, err := Config{RateLimit: in}.RateLimitBytes()
		if err != nil || got != want {
			t.Errorf("RateLimitBytes(%q) = %d, %v; want %d", in, got, err, want)
		}
	}
}
