package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/oy3o/refcodec"
)

// Config holds command defaults. Every field can be overridden by a flag.
//
//	max_depth = 10000     # nesting bound for encode, decode and transports
//	indent    = "  "      # JSON indent; its length is the YAML indent
//	output    = "json"    # default --to format
//	id_scheme = "counter" # "counter" or "random", used by --renumber
//	max_input = 0         # bytes read from the input; 0 means unlimited
type Config struct {
	MaxDepth int    `toml:"max_depth"`
	Indent   string `toml:"indent"`
	Output   string `toml:"output"`
	IDScheme string `toml:"id_scheme"`
	MaxInput int64  `toml:"max_input"`
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() Config {
	return Config{
		MaxDepth: refcodec.DefaultMaxDepth,
		Output:   refcodec.FormatJSON.String(),
		IDScheme: refcodec.IDCounter.String(),
	}
}

// LoadConfig reads a TOML config file on top of DefaultConfig.
// Unknown keys are rejected so that typos do not go unnoticed.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("load config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return cfg, cfg.Validate()
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if f, err := refcodec.ParseFormat(c.Output); err != nil {
		errs = append(errs, fmt.Errorf("output: %w", err))
	} else if f == refcodec.FormatAuto {
		errs = append(errs, errors.New("output: must name a format"))
	}
	if _, err := refcodec.ParseIDScheme(c.IDScheme); err != nil {
		errs = append(errs, fmt.Errorf("id_scheme: %w", err))
	}
	if c.MaxInput < 0 {
		errs = append(errs, errors.New("max_input: must not be negative"))
	}
	return errors.Join(errs...)
}
