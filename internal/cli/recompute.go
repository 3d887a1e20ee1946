package cli

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/cadseer/cadseer/pkg/model"
	"github.com/cadseer/cadseer/pkg/observability/metrics"
)

// recomputeOpts holds options for the recompute command.
type recomputeOpts struct {
	dirty   []string
	output  string
	metrics bool
}

func (c *CLI) recomputeCommand() *cobra.Command {
	var opts recomputeOpts

	cmd := &cobra.Command{
		Use:   "recompute <model>",
		Short: "Recompute a model and print feature states",
		Long: `Recompute every feature of a model in dependency order and print a table
of the features visited, their state and their first log line.

With --dirty, the named features are marked dirty after the first pass and
the model is recomputed again, showing which features the edit reaches.`,
		Example: `  cadseer recompute bracket.toml
  cadseer recompute bracket.toml --dirty boss
  cadseer recompute bracket.toml -o bracket.yaml
  cadseer recompute bracket.toml --dirty grid --metrics`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRecompute(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.dirty, "dirty", nil, "feature to mark dirty before a second pass (repeatable)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "save the model with pinned ids (.toml, .yaml or .json)")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "print recompute metrics after the last pass")

	return cmd
}

func (c *CLI) runRecompute(ctx context.Context, path string, opts recomputeOpts) error {
	ws, err := c.open(ctx, path)
	if err != nil {
		return err
	}
	var reg *prometheus.Registry
	if opts.metrics {
		reg = prometheus.NewRegistry()
		m, err := metrics.New(reg)
		if err != nil {
			return err
		}
		ws.withMetrics(m)
	}

	printInfo("Recomputing %s", StyleTitle.Render(path))
	res, err := ws.recompute(ctx)
	if err != nil {
		return err
	}
	printResult(ws.graph(), res)

	if len(opts.dirty) > 0 {
		if err := ws.markDirty(opts.dirty); err != nil {
			return err
		}
		printInfo("Recomputing after editing %v", opts.dirty)
		res, err = ws.recompute(ctx)
		if err != nil {
			return err
		}
		printResult(ws.graph(), res)
	}

	if reg != nil {
		if err := printMetrics(reg); err != nil {
			return err
		}
	}
	if opts.output != "" {
		return ws.save(opts.output)
	}
	return nil
}

// save writes the current graph as a model, keeping the model's name and
// seed.
func (ws *workspace) save(path string) error {
	m, err := model.FromGraph(ws.graph(), ws.model.Name)
	if err != nil {
		return err
	}
	m.Seed = ws.model.Seed
	if err := model.Save(m, path); err != nil {
		return err
	}
	printFile(path)
	return nil
}
