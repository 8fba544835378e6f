package config

import "strings"

// Option defines a configuration option that can be passed to Load
type Option func(*options) error

// options holds internal configuration options
type options struct {
	configPath string
}

// WithConfigFile specifies an explicit configuration file path
func WithConfigFile(path string) Option {
	return func(o *options) error {
		o.configPath = path
		return nil
	}
}

type kind int

const (
	kindFloat kind = iota
	kindInt
	kindBool
	kindString
	kindChar
	kindList
)

// setting describes one user-editable field: its config key (also the
// mapstructure tag on Config), flag name and help text.
type setting struct {
	key   string
	flag  string
	kind  kind
	usage string
}

var settings = []setting{
	{"path", "path", kindString, "File path of the data source"},
	{"scale", "scale", kindFloat, "Divisor applied to every sample"},
	{"method", "method", kindInt, "Derivation method: 0 instant, 1 rate, 2 share, 3 delta"},
	{"methodInfo", "method-info", kindList, "Whitespace-separated method parameters"},
	{"doLog", "do-log", kindBool, "Append samples in the logging band to the log file"},
	{"log", "log", kindString, "Sample log file path"},
	{"logMin", "log-min", kindFloat, "Lower bound of the logging band"},
	{"logMax", "log-max", kindFloat, "Upper bound of the logging band"},
	{"logInc", "log-inc", kindBool, "Log samples inside the band instead of outside it"},
	{"spf", "spf", kindFloat, "Seconds per frame"},
	{"logLen", "log-len", kindInt, "Number of lines in the rolling display"},
	{"numLen", "num-len", kindInt, "Width of the numeric readout"},
	{"barMin", "bar-min", kindFloat, "Value at the left end of the bar"},
	{"barMax", "bar-max", kindFloat, "Value at the right end of the bar"},
	{"barLen", "bar-len", kindFloat, "Number of characters in the bar"},
	{"barMed", "bar-med", kindFloat, "Medium threshold (0 to 1)"},
	{"barHi", "bar-hi", kindFloat, "High threshold (0 to 1)"},
	{"barChr", "bar-chr", kindChar, "Character used to fill the bar"},
	{"barLoC", "bar-lo-c", kindFloat, "Low color (31-36)"},
	{"barMedC", "bar-med-c", kindFloat, "Medium color (31-36)"},
	{"barHiC", "bar-hi-c", kindFloat, "High color (31-36)"},
}

func lookup(key string) (setting, bool) {
	for _, s := range settings {
		if strings.EqualFold(s.key, key) {
			return s, true
		}
	}
	return setting{}, false
}
