// Package config represents procrastinate configuration
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"reflect"
	"strings"

	"github.com/bcmk/procrastinate/internal/present"
	"github.com/bcmk/procrastinate/internal/twitch"
	"github.com/bcmk/procrastinate/lib/cmdlib"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// API versions
const (
	Kraken = "kraken"
	Helix  = "helix"
)

// EnvPrefix prefixes environment variables
const EnvPrefix = "PRC"

// Config represents procrastinate configuration
type Config struct {
	ClientID             string   `mapstructure:"client_id"`               // Twitch application client ID
	ClientSecret         string   `mapstructure:"client_secret"`           // Twitch application secret, Helix only
	AppAccessToken       string   `mapstructure:"app_access_token"`        // Helix only, requested with client_secret if empty
	API                  string   `mapstructure:"api"`                     // one of "kraken", "helix"
	APIBaseURL           string   `mapstructure:"api_base_url"`            // Kraken only
	Channels             []string `mapstructure:"channels"`                // login names to check in the default mode
	TimeoutSeconds       int      `mapstructure:"timeout_seconds"`         // HTTP timeout
	SourceIPAddress      string   `mapstructure:"source_ip_address"`       // source IP address to use in queries
	EnableCookies        bool     `mapstructure:"enable_cookies"`          // enable cookies
	MaxPages             int      `mapstructure:"max_pages"`               // maximum pages to fetch for game and language queries
	DegradeOnDecodeError bool     `mapstructure:"degrade_on_decode_error"` // treat unparsable stream pages as empty instead of failing
	Format               string   `mapstructure:"format"`                  // one of "text", "json", "yaml", "pp"
	Verbosity            int      `mapstructure:"verbosity"`               // 0 silent, 1 errors, 2 info, 3 debug
	MetricsFile          string   `mapstructure:"metrics_file"`            // write Prometheus metrics here on exit
}

// Flags represents command line options
type Flags struct {
	ConfigPath  string
	EnvFile     string
	Format      string
	MetricsFile string
	Verbose     int
	Args        []string // positional arguments

	set *pflag.FlagSet
}

// DefaultEnvFile is the key-value file holding the credentials
const DefaultEnvFile = ".env"

const usageHeader = `procrastinate shows which Twitch channels are live

usage:
  %[1]s [options]                          check the configured channels
  %[1]s [options] game <game>              list live streams of a game
  %[1]s [options] lang <language>          list live streams in a language
  %[1]s [options] lang <language> game <game>
  %[1]s [options] game <game> lang <language>

options:
`

// ParseFlags parses command line arguments.
// It returns pflag.ErrHelp after printing usage to out if help is requested.
func ParseFlags(name string, args []string, out io.Writer) (*Flags, error) {
	f := &Flags{}
	set := pflag.NewFlagSet(name, pflag.ContinueOnError)
	set.SetOutput(out)
	set.StringVarP(&f.ConfigPath, "config", "c", "", "path to a config file, JSON, YAML or TOML")
	set.StringVar(&f.EnvFile, "env-file", DefaultEnvFile, "path to a key-value file with credentials")
	set.StringVarP(&f.Format, "format", "f", string(present.Text), "output format: text, json, yaml or pp")
	set.StringVar(&f.MetricsFile, "metrics-file", "", "write Prometheus metrics to this file")
	set.CountVarP(&f.Verbose, "verbose", "v", "verbose output, repeat for debug output")
	set.Usage = func() {
		fmt.Fprintf(out, usageHeader, name)
		fmt.Fprint(out, set.FlagUsages())
	}
	if err := set.Parse(args); err != nil {
		return nil, err
	}
	f.Args = set.Args()
	f.set = set
	return f, nil
}

// Usage prints usage
func (f *Flags) Usage() { f.set.Usage() }

func (f *Flags) changed(name string) bool { return f.set != nil && f.set.Changed(name) }

func bindEnvForStructType(v *viper.Viper, t reflect.Type, prefix string) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		_ = v.BindEnv(prefix)
		return
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue
		}
		tag := f.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		bindEnvForStructType(v, f.Type, key)
	}
}

func configKeys() map[string]bool {
	keys := map[string]bool{}
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		if tag := t.Field(i).Tag.Get("mapstructure"); tag != "" && tag != "-" {
			keys[tag] = true
		}
	}
	return keys
}

func stringToSliceHookFunc(sep string) mapstructure.DecodeHookFunc {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		if t != reflect.SliceOf(f) {
			return data, nil
		}

		raw := data.(string)
		if raw == "" {
			return []string{}, nil
		}

		result := strings.Split(raw, sep)
		for k, v := range result {
			result[k] = strings.TrimSpace(v)
		}
		return result, nil
	}
}

// envFileValues reads the credentials file
// and maps its keys to config keys ignoring unknown ones
func envFileValues(path string, required bool) (map[string]interface{}, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			cmdlib.Ldbg("skip env file %q", path)
			return nil, nil
		}
		return nil, fmt.Errorf("error reading %q: %w", path, err)
	}
	known := configKeys()
	result := map[string]interface{}{}
	for k, v := range values {
		key := strings.ToLower(k)
		key = strings.TrimPrefix(key, strings.ToLower(EnvPrefix)+"_")
		if key == "appclientid" {
			key = "client_id"
		}
		if known[key] {
			result[key] = v
		}
	}
	cmdlib.Ldbg("successfully read env file %q", path)
	return result, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api", Kraken)
	v.SetDefault("api_base_url", twitch.KrakenBaseURL)
	v.SetDefault("channels", []string{twitch.DefaultLogin})
	v.SetDefault("timeout_seconds", 10)
	v.SetDefault("max_pages", 10)
	v.SetDefault("format", string(present.Text))
	v.SetDefault("verbosity", int(cmdlib.ErrVerbosity))
}

// ReadConfig reads config.
// Later sources override earlier ones:
// defaults, the config file, the env file, environment variables, flags.
func ReadConfig(flags *Flags) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if flags.ConfigPath != "" {
		v.SetConfigFile(flags.ConfigPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("error reading %q: %w", flags.ConfigPath, err)
		}
		cmdlib.Ldbg("successfully read config %q", flags.ConfigPath)
	}

	if flags.EnvFile != "" {
		values, err := envFileValues(flags.EnvFile, flags.changed("env-file"))
		if err != nil {
			return nil, err
		}
		if len(values) > 0 {
			if err := v.MergeConfigMap(values); err != nil {
				return nil, err
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	cfg := &Config{}
	bindEnvForStructType(v, reflect.TypeOf(cfg), "")

	if flags.changed("format") {
		v.Set("format", flags.Format)
	}
	if flags.changed("metrics-file") {
		v.Set("metrics_file", flags.MetricsFile)
	}
	if flags.Verbose > 0 {
		v.Set("verbosity", int(cmdlib.ErrVerbosity)+flags.Verbose)
	}

	err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.ErrorUnused = true
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			stringToSliceHookFunc(","),
			mapstructure.StringToTimeDurationHookFunc(),
		)
	})
	if err != nil {
		return nil, err
	}
	if err := checkConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func checkConfig(cfg *Config) error {
	if cfg.ClientID == "" {
		return errors.New("configure client_id")
	}
	switch cfg.API {
	case Kraken:
		if cfg.APIBaseURL == "" {
			return errors.New("configure api_base_url")
		}
	case Helix:
		if cfg.ClientSecret == "" && cfg.AppAccessToken == "" {
			return errors.New("configure client_secret or app_access_token")
		}
	default:
		return fmt.Errorf("unknown api %q, configure one of %q, %q", cfg.API, Kraken, Helix)
	}
	if cfg.SourceIPAddress != "" && net.ParseIP(cfg.SourceIPAddress) == nil {
		return fmt.Errorf("cannot parse source IP address %s", cfg.SourceIPAddress)
	}
	if cfg.TimeoutSeconds <= 0 {
		return errors.New("configure timeout_seconds")
	}
	if cfg.MaxPages <= 0 {
		return errors.New("configure max_pages")
	}
	format, err := present.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	cfg.Format = string(format)
	if cfg.Verbosity > int(cmdlib.DbgVerbosity) {
		cfg.Verbosity = int(cmdlib.DbgVerbosity)
	}
	if cfg.Verbosity < int(cmdlib.SilentVerbosity) {
		return errors.New("configure verbosity")
	}
	for i, c := range cfg.Channels {
		canonical, err := twitch.CanonicalLogin(c)
		if err != nil {
			return err
		}
		cfg.Channels[i] = canonical
	}
	return nil
}
