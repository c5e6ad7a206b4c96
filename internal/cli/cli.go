package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/oy3o/refcodec"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config Config
}

// New creates a new CLI instance with a default logger and config.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: DefaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "refcodec",
		Short: "refcodec converts reference-preserving documents between formats",
		Long: `refcodec reads documents that describe value graphs with shared and cyclic
references, in JSON, CBOR or YAML, and converts, validates and inspects them.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return nil
			}
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			c.Logger.Debug("loaded config", "path", configPath)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "TOML file with command defaults")

	root.AddCommand(c.convertCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.diagCommand())

	return root
}

// debugLogger returns the logger when debug output is enabled, for the
// encoder and decoder which log one line per call.
func (c *CLI) debugLogger() *log.Logger {
	if c.Logger.GetLevel() <= log.DebugLevel {
		return c.Logger
	}
	return nil
}

func (c *CLI) decoder() *refcodec.Decoder {
	return refcodec.NewDecoder().WithMaxDepth(c.Config.MaxDepth).WithLogger(c.debugLogger())
}

// transport builds the transport for f from the current config.
func (c *CLI) transport(f refcodec.Format, indent string) (refcodec.Transport, error) {
	switch f {
	case refcodec.FormatJSON:
		return refcodec.JSONTransport{Indent: indent, MaxDepth: c.Config.MaxDepth}, nil
	case refcodec.FormatCBOR:
		return refcodec.CBORTransport{MaxDepth: c.Config.MaxDepth}, nil
	case refcodec.FormatYAML:
		return refcodec.YAMLTransport{Indent: len(indent), MaxDepth: c.Config.MaxDepth}, nil
	}
	return nil, fmt.Errorf("%w: %s", refcodec.ErrUnknownFormat, f)
}

// readInput reads one document from the named file, or stdin when name is
// empty or "-".
func (c *CLI) readInput(cmd *cobra.Command, name string, f refcodec.Format) (*refcodec.Document, refcodec.Format, error) {
	var r io.Reader = cmd.InOrStdin()
	if name != "" && name != "-" {
		file, err := os.Open(name)
		if err != nil {
			return nil, f, err
		}
		defer file.Close()
		r = file
	}

	data, err := io.ReadAll(refcodec.LimitReader(r, c.Config.MaxInput))
	if err != nil {
		return nil, f, err
	}
	if f == refcodec.FormatAuto {
		if f = refcodec.DetectFormat(data); f == refcodec.FormatAuto {
			return nil, f, fmt.Errorf("%w: empty input", refcodec.ErrUnknownFormat)
		}
	}
	t, err := c.transport(f, "")
	if err != nil {
		return nil, f, err
	}
	doc, err := t.ReadDocument(data)
	if err != nil {
		return nil, f, fmt.Errorf("read %s input: %w", f, err)
	}
	return doc, f, nil
}
