package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/cobra"

	"github.com/oy3o/refcodec"
)

type convertOptions struct {
	from     string
	to       string
	indent   string
	output   string
	verify   bool
	renumber bool
}

func (c *CLI) convertCommand() *cobra.Command {
	var opts convertOptions

	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert a document between JSON, CBOR and YAML",
		Long: `Convert reads a document (from file or stdin), validates that it decodes to
a value graph and writes it in another format.

The input format is detected unless --from is given. With --renumber the
graph is decoded and encoded again, which rewrites every reference id with
the configured id scheme. With --verify the output is parsed back and
compared with the converted document.`,
		Example: `  refcodec convert graph.json --to cbor -o graph.cbor
  refcodec convert graph.cbor --to yaml
  cat graph.yaml | refcodec convert --to json --indent "  " --verify`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("to") {
				opts.to = c.Config.Output
			}
			if !cmd.Flags().Changed("indent") {
				opts.indent = c.Config.Indent
			}
			var input string
			if len(args) > 0 {
				input = args[0]
			}
			return c.runConvert(cmd, input, opts)
		},
	}

	cmd.Flags().StringVar(&opts.from, "from", "auto", "input format: auto, json, cbor, yaml")
	cmd.Flags().StringVar(&opts.to, "to", "json", "output format: json, cbor, yaml")
	cmd.Flags().StringVar(&opts.indent, "indent", "", "indent for JSON output (its length is used for YAML)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.verify, "verify", false, "parse the output back and compare")
	cmd.Flags().BoolVar(&opts.renumber, "renumber", false, "re-encode the graph to rewrite reference ids")

	return cmd
}

func (c *CLI) runConvert(cmd *cobra.Command, input string, opts convertOptions) error {
	prog := newProgress(c.Logger)

	from, err := refcodec.ParseFormat(opts.from)
	if err != nil {
		return err
	}
	to, err := refcodec.ParseFormat(opts.to)
	if err != nil {
		return err
	}
	if to == refcodec.FormatAuto {
		return fmt.Errorf("--to must name a format")
	}

	doc, from, err := c.readInput(cmd, input, from)
	if err != nil {
		return err
	}

	// Decoding proves that every ref resolves, even when ids are kept.
	graph, err := c.decoder().Decode(doc)
	if err != nil {
		return err
	}
	if opts.renumber {
		scheme, err := refcodec.ParseIDScheme(c.Config.IDScheme)
		if err != nil {
			return err
		}
		enc := refcodec.NewEncoder().
			WithMaxDepth(c.Config.MaxDepth).
			WithIDScheme(scheme).
			WithLogger(c.debugLogger())
		if doc, err = enc.Encode(graph); err != nil {
			return err
		}
	}

	t, err := c.transport(to, opts.indent)
	if err != nil {
		return err
	}
	out, err := refcodec.Render(t, doc)
	if err != nil {
		return err
	}
	if to == refcodec.FormatJSON {
		out = append(out, '\n')
	}

	if opts.verify {
		back, err := t.ReadDocument(out)
		if err != nil {
			return fmt.Errorf("verify: %w", err)
		}
		if diff := cmp.Diff(doc, back, cmpopts.EquateNaNs(), cmpopts.EquateEmpty()); diff != "" {
			return fmt.Errorf("verify: output does not round-trip (-want +got):\n%s", diff)
		}
		c.Logger.Info("verified round trip", "format", to)
	}

	if err := writeOutput(cmd, opts.output, out); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("converted %s to %s", from, to), "bytes", len(out))
	return nil
}

func writeOutput(cmd *cobra.Command, name string, data []byte) error {
	if name == "" || name == "-" {
		_, err := bytes.NewReader(data).WriteTo(cmd.OutOrStdout())
		return err
	}
	return os.WriteFile(name, data, 0o644)
}
