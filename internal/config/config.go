package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"codeberg.org/mutker/barmeter/internal/derive"
	"codeberg.org/mutker/barmeter/internal/errors"
	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultEnvPrefix = "BARMETER"
	DefaultFaultLog  = "app.log"
	configName       = "barmeter"
)

// Config holds every meter setting. Values are stored as given; consumers
// clamp them to their valid range at the point of use.
type Config struct {
	Path       string   `mapstructure:"path"`
	Scale      float64  `mapstructure:"scale"`
	Method     int      `mapstructure:"method"`
	MethodInfo []string `mapstructure:"methodInfo"`

	DoLog  bool    `mapstructure:"doLog"`
	Log    string  `mapstructure:"log"`
	LogMin float64 `mapstructure:"logMin"`
	LogMax float64 `mapstructure:"logMax"`
	LogInc bool    `mapstructure:"logInc"`

	SPF    float64 `mapstructure:"spf"`
	LogLen int     `mapstructure:"logLen"`
	NumLen int     `mapstructure:"numLen"`

	BarMin  float64 `mapstructure:"barMin"`
	BarMax  float64 `mapstructure:"barMax"`
	BarLen  float64 `mapstructure:"barLen"`
	BarMed  float64 `mapstructure:"barMed"`
	BarHi   float64 `mapstructure:"barHi"`
	BarChr  string  `mapstructure:"barChr"`
	BarLoC  float64 `mapstructure:"barLoC"`
	BarMedC float64 `mapstructure:"barMedC"`
	BarHiC  float64 `mapstructure:"barHiC"`

	FaultLog    string `mapstructure:"faultLog"`
	FaultDB     string `mapstructure:"faultDB"`
	Catalog     string `mapstructure:"catalog"`
	ClearErrors bool   `mapstructure:"clearErrors"`
	Type        string `mapstructure:"type"`
	Run         bool   `mapstructure:"run"`
	Debug       bool   `mapstructure:"debug"`
	Verbose     bool   `mapstructure:"verbose"`
}

// Default returns the built-in settings: the thermal zone 0 temperature in
// degrees Celsius on a 20-100 bar.
func Default() *Config {
	return &Config{
		Path:       "/sys/class/thermal/thermal_zone0/temp",
		Scale:      1000,
		Method:     derive.MethodInstant,
		MethodInfo: []string{"0"},

		Log:    "log.txt",
		LogMin: 0,
		LogMax: 100,

		SPF:    1,
		LogLen: 20,
		NumLen: 6,

		BarMin:  20,
		BarMax:  100,
		BarLen:  50,
		BarMed:  0.7,
		BarHi:   0.85,
		BarChr:  "|",
		BarLoC:  32,
		BarMedC: 33,
		BarHiC:  31,

		FaultLog: DefaultFaultLog,
	}
}

// Load builds the configuration from defaults, the TOML config file,
// environment variables and command line arguments, in increasing order of
// precedence.
func Load(args []string, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := &options{}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	fs := NewFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(DefaultEnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := bindFlags(v, fs); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	if err := readConfigFile(v, o, fs); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		fieldsHook(),
		mapstructure.StringToTimeDurationHookFunc(),
	))); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewFlagSet returns the command line flags understood by Load.
func NewFlagSet() *pflag.FlagSet {
	d := Default()
	fs := pflag.NewFlagSet(configName, pflag.ContinueOnError)

	fs.String("config", "", "Path to a TOML config file")
	fs.Bool("run", false, "Start sampling immediately instead of showing the prompt")
	fs.String("type", "", "Select a metric type from the catalog")
	fs.String("catalog", "", "YAML file with additional metric types")
	fs.String("fault-log", d.FaultLog, "File receiving the process log")
	fs.String("fault-db", "", "SQLite database recording sampling faults")
	fs.Bool("clear-errors", false, "Clear the error line after a successful cycle")
	fs.Bool("debug", false, "Enable debugging mode")
	fs.Bool("verbose", false, "Enable verbose logging")

	for _, s := range settings {
		switch s.kind {
		case kindFloat:
			fs.Float64(s.flag, 0, s.usage)
		case kindInt:
			fs.Int(s.flag, 0, s.usage)
		case kindBool:
			fs.Bool(s.flag, false, s.usage)
		default:
			fs.String(s.flag, "", s.usage)
		}
	}

	return fs
}

func setDefaults(v *viper.Viper, d *Config) {
	values := map[string]any{}
	_ = mapstructure.Decode(d, &values)
	for key, value := range values {
		v.SetDefault(key, value)
	}
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var result *multierror.Error

	bind := func(key, flag string) {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			result = multierror.Append(result, err)
		}
	}

	for _, s := range settings {
		bind(s.key, s.flag)
	}
	bind("run", "run")
	bind("type", "type")
	bind("catalog", "catalog")
	bind("faultLog", "fault-log")
	bind("faultDB", "fault-db")
	bind("clearErrors", "clear-errors")
	bind("debug", "debug")
	bind("verbose", "verbose")

	return result.ErrorOrNil()
}

func readConfigFile(v *viper.Viper, o *options, fs *pflag.FlagSet) error {
	path := o.configPath
	if f := fs.Lookup("config"); f != nil && f.Changed {
		path = f.Value.String()
	}
	if path == "" {
		path = os.Getenv(DefaultEnvPrefix + "_CONFIG")
	}

	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", configName))
		}
		v.AddConfigPath("/etc")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return errors.New().Wrap(errors.ErrReadConfig, err)
		}
	}

	return nil
}

// fieldsHook splits a whitespace-separated string into a list, so
// methodInfo can be given as "1 4" in flags, env and files.
func fieldsHook() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf([]string{}) {
			return data, nil
		}
		return strings.Fields(data.(string)), nil
	}
}

// Validate checks the settings that cannot be clamped at the point of use.
func (c *Config) Validate() error {
	errFactory := errors.New()
	var result *multierror.Error

	if strings.TrimSpace(c.Path) == "" {
		result = multierror.Append(result, errFactory.WithMessage(errors.ErrInvalidConfig, "path must not be empty"))
	}

	if _, err := derive.NewMethod(c.Method, c.MethodInfo); err != nil {
		result = multierror.Append(result, err)
	}

	if err := result.ErrorOrNil(); err != nil {
		return errFactory.Wrap(errors.ErrInvalidConfig, err)
	}
	return nil
}
