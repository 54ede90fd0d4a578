package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"CLIENT_ID", "CLIENT_SECRET", "APP_ACCESS_TOKEN", "API", "CHANNELS", "MAX_PAGES", "FORMAT"} {
		t.Setenv(EnvPrefix+"_"+key, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func mustParse(t *testing.T, args ...string) *Flags {
	flags, err := ParseFlags("procrastinate", args, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	return flags
}

func TestParseFlagsHelp(t *testing.T) {
	for _, arg := range []string{"-h", "--help"} {
		var out bytes.Buffer
		_, err := ParseFlags("procrastinate", []string{arg}, &out)
		if !errors.Is(err, pflag.ErrHelp) {
			t.Errorf("expected ErrHelp for %s, got %v", arg, err)
		}
		if !strings.Contains(out.String(), "game <game>") || !strings.Contains(out.String(), "--config") {
			t.Errorf("unexpected usage %q", out.String())
		}
	}
}

func TestParseFlagsArgs(t *testing.T) {
	flags := mustParse(t, "-vv", "lang", "en", "--format", "json", "game", "Chess")
	if !reflect.DeepEqual(flags.Args, []string{"lang", "en", "game", "Chess"}) {
		t.Errorf("unexpected args %v", flags.Args)
	}
	if flags.Verbose != 2 || flags.Format != "json" || flags.EnvFile != DefaultEnvFile {
		t.Errorf("unexpected flags %+v", flags)
	}
	if _, err := ParseFlags("procrastinate", []string{"--unknown"}, &bytes.Buffer{}); err == nil {
		t.Error("expected error")
	}
}

func TestReadConfigEnvFile(t *testing.T) {
	clearEnv(t)
	envFile := writeFile(t, ".env", "appClientID=abc\nUNRELATED=value\n")
	cfg, err := ReadConfig(mustParse(t, "--env-file", envFile))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ClientID != "abc" {
		t.Errorf("unexpected client id %q", cfg.ClientID)
	}
	if cfg.API != Kraken || cfg.MaxPages != 10 || cfg.TimeoutSeconds != 10 || cfg.Format != "text" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Channels, []string{"kirinokirino"}) {
		t.Errorf("unexpected channels %v", cfg.Channels)
	}
}

func TestReadConfigMissingClientID(t *testing.T) {
	clearEnv(t)
	_, err := ReadConfig(mustParse(t, "--env-file", ""))
	if err == nil || err.Error() != "configure client_id" {
		t.Errorf("unexpected error %v", err)
	}
}

func TestReadConfigMissingEnvFile(t *testing.T) {
	clearEnv(t)
	missing := filepath.Join(t.TempDir(), "missing.env")
	if _, err := ReadConfig(mustParse(t, "--env-file", missing)); err == nil {
		t.Error("expected error for an explicitly given env file")
	}
	t.Setenv(EnvPrefix+"_CLIENT_ID", "abc")
	flags := mustParse(t)
	flags.EnvFile = missing
	if _, err := ReadConfig(flags); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}

func TestReadConfigLayers(t *testing.T) {
	clearEnv(t)
	configFile := writeFile(t, "config.yaml", `
client_id: from-file
channels: ["A", "@b"]
max_pages: 3
degrade_on_decode_error: true
`)
	envFile := writeFile(t, ".env", "appClientID=from-env-file\nPRC_TIMEOUT_SECONDS=4\n")
	t.Setenv(EnvPrefix+"_MAX_PAGES", "5")
	cfg, err := ReadConfig(mustParse(t, "-c", configFile, "--env-file", envFile, "-f", "yaml", "-v"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ClientID != "from-env-file" {
		t.Errorf("unexpected client id %q", cfg.ClientID)
	}
	if cfg.MaxPages != 5 || cfg.TimeoutSeconds != 4 || !cfg.DegradeOnDecodeError {
		t.Errorf("unexpected config %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Channels, []string{"a", "b"}) {
		t.Errorf("unexpected channels %v", cfg.Channels)
	}
	if cfg.Format != "yaml" || cfg.Verbosity != 2 {
		t.Errorf("unexpected flags overrides %+v", cfg)
	}
}

func TestReadConfigEnvChannels(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvPrefix+"_CLIENT_ID", "abc")
	t.Setenv(EnvPrefix+"_CHANNELS", "x, y")
	cfg, err := ReadConfig(mustParse(t))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cfg.Channels, []string{"x", "y"}) {
		t.Errorf("unexpected channels %v", cfg.Channels)
	}
}

func TestReadConfigUnknownKey(t *testing.T) {
	clearEnv(t)
	configFile := writeFile(t, "config.json", `{"client_id": "abc", "no_such_key": 1}`)
	if _, err := ReadConfig(mustParse(t, "-c", configFile)); err == nil {
		t.Error("expected error")
	}
}

func TestCheckConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ClientID:       "abc",
			API:            Kraken,
			APIBaseURL:     "https://api.twitch.tv/kraken",
			TimeoutSeconds: 10,
			MaxPages:       10,
			Format:         "text",
			Verbosity:      1,
		}
	}
	if err := checkConfig(valid()); err != nil {
		t.Errorf("unexpected error %v", err)
	}
	broken := []func(*Config){
		func(c *Config) { c.ClientID = "" },
		func(c *Config) { c.API = "v3" },
		func(c *Config) { c.API = Helix },
		func(c *Config) { c.APIBaseURL = "" },
		func(c *Config) { c.SourceIPAddress = "localhost" },
		func(c *Config) { c.TimeoutSeconds = 0 },
		func(c *Config) { c.MaxPages = -1 },
		func(c *Config) { c.Format = "xml" },
		func(c *Config) { c.Verbosity = -1 },
		func(c *Config) { c.Channels = []string{"bad name"} },
	}
	for i, b := range broken {
		cfg := valid()
		b(cfg)
		if err := checkConfig(cfg); err == nil {
			t.Errorf("expected error for case %d", i)
		}
	}
	cfg := valid()
	cfg.API = Helix
	cfg.ClientSecret = "secret"
	cfg.Format = "JSON"
	cfg.Verbosity = 7
	if err := checkConfig(cfg); err != nil {
		t.Errorf("unexpected error %v", err)
	}
	if cfg.Format != "json" || cfg.Verbosity != 3 {
		t.Errorf("unexpected normalization %+v", cfg)
	}
}
