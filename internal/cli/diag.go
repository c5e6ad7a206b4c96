package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/oy3o/refcodec"
)

func (c *CLI) diagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diag [file]",
		Short: "Print CBOR diagnostic notation for a document",
		Long: `Diag prints RFC 8949 diagnostic notation, one line per top-level item.
Input in another format is converted to CBOR first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var input string
			if len(args) > 0 {
				input = args[0]
			}
			doc, _, err := c.readInput(cmd, input, refcodec.FormatAuto)
			if err != nil {
				return err
			}
			data, err := refcodec.Render(refcodec.CBORTransport{MaxDepth: c.Config.MaxDepth}, doc)
			if err != nil {
				return err
			}
			notation, err := refcodec.Diagnose(data)
			if err != nil {
				return fmt.Errorf("diag: %w", err)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), notation)
			return err
		},
	}
	return cmd
}
