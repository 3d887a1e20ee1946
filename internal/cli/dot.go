package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cadseer/cadseer/pkg/render/nodelink"
)

// dotOpts holds options for the dot command.
type dotOpts struct {
	output   string
	history  bool
	detailed bool
}

func (c *CLI) dotCommand() *cobra.Command {
	var opts dotOpts

	cmd := &cobra.Command{
		Use:   "dot <model>",
		Short: "Write the feature graph or shape history as Graphviz",
		Long: `Recompute a model and write its feature graph in Graphviz DOT format.

With --history, the shape history of the pass is written instead. An output
path ending in .svg is rendered; any other path receives the DOT text.`,
		Example: `  cadseer dot bracket.toml
  cadseer dot bracket.toml -o bracket.svg --detailed
  cadseer dot bracket.toml --history -o history.dot`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("detailed") {
				opts.detailed = c.Config.Detailed
			}
			return c.runDot(cmd.Context(), cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (.dot or .svg, default stdout)")
	cmd.Flags().BoolVar(&opts.history, "history", false, "write the shape history of the pass")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show ids, states, logs and owners")

	return cmd
}

func (c *CLI) runDot(ctx context.Context, cmd *cobra.Command, path string, opts dotOpts) error {
	ws, err := c.open(ctx, path)
	if err != nil {
		return err
	}
	if _, err := ws.recompute(ctx); err != nil {
		return err
	}

	g := ws.graph()
	nopts := nodelink.Options{Detailed: opts.detailed, Names: nodelink.NamesOf(g)}
	var dot string
	if opts.history {
		dot = nodelink.HistoryToDOT(ws.engine.History(), nopts)
	} else {
		dot = nodelink.ToDOT(g, nopts)
	}

	if opts.output == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), dot)
		return err
	}
	if err := nodelink.WriteGraphviz(dot, opts.output); err != nil {
		return err
	}
	printSuccess("Wrote %s", StyleTitle.Render(opts.output))
	return nil
}
