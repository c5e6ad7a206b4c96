package cli

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/oy3o/refcodec"
)

func (c *CLI) inspectCommand() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Summarize the nodes and references of a document",
		Long: `Inspect reads a document, checks that it decodes and prints node counts
by kind, the number of composites and refs, and the nesting depth.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := refcodec.ParseFormat(from)
			if err != nil {
				return err
			}
			var input string
			if len(args) > 0 {
				input = args[0]
			}
			doc, f, err := c.readInput(cmd, input, f)
			if err != nil {
				return err
			}
			if _, err := c.decoder().Decode(doc); err != nil {
				return err
			}
			return printStats(cmd, f, doc.Stats())
		},
	}
	cmd.Flags().StringVar(&from, "from", "auto", "input format: auto, json, cbor, yaml")
	return cmd
}

func printStats(cmd *cobra.Command, f refcodec.Format, st refcodec.Stats) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "format\t%s\n", f)
	fmt.Fprintf(tw, "nodes\t%d\n", st.Nodes)
	fmt.Fprintf(tw, "composites\t%d\n", st.Composites)
	fmt.Fprintf(tw, "refs\t%d\n", st.Refs)
	fmt.Fprintf(tw, "depth\t%d\n", st.MaxDepth)

	// Most frequent kinds first, ties by name.
	kinds := slices.SortedFunc(maps.Keys(st.ByKind), func(a, b string) int {
		return cmp.Or(cmp.Compare(st.ByKind[b], st.ByKind[a]), cmp.Compare(a, b))
	})
	for _, k := range kinds {
		fmt.Fprintf(tw, "  %s\t%d\n", k, st.ByKind[k])
	}
	return tw.Flush()
}
