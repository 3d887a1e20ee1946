package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cadseer/cadseer/pkg/errors"
	"github.com/cadseer/cadseer/pkg/feature"
	"github.com/cadseer/cadseer/pkg/shape"
	"github.com/cadseer/cadseer/pkg/stableid"
)

// resolveOpts holds options for the resolve command.
type resolveOpts struct {
	from  string
	shape string
	at    string
	dirty []string
}

func (c *CLI) resolveCommand() *cobra.Command {
	var opts resolveOpts

	cmd := &cobra.Command{
		Use:   "resolve <model>",
		Short: "Follow a picked shape into a downstream feature",
		Long: `Pick a shape in the output of one feature, recompute the model and report
what the pick became in the output of another feature.

The shape is named by its construction tag (for example ZP, the top face of
a box) or by its full stable id. Without --dirty every feature is recomputed.`,
		Example: `  cadseer resolve bracket.toml --feature base --shape ZP --at grid
  cadseer resolve bracket.toml --feature boss --shape XN --at fuse --dirty boss`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runResolve(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.from, "feature", "", "feature whose output holds the shape")
	cmd.Flags().StringVar(&opts.shape, "shape", "", "shape tag or stable id")
	cmd.Flags().StringVar(&opts.at, "at", "", "feature to resolve the pick in")
	cmd.Flags().StringArrayVar(&opts.dirty, "dirty", nil, "feature to edit before the second pass (repeatable)")
	_ = cmd.MarkFlagRequired("feature")
	_ = cmd.MarkFlagRequired("shape")
	_ = cmd.MarkFlagRequired("at")

	return cmd
}

func (c *CLI) runResolve(ctx context.Context, path string, opts resolveOpts) error {
	ws, err := c.open(ctx, path)
	if err != nil {
		return err
	}
	if _, err := ws.recompute(ctx); err != nil {
		return err
	}

	from, err := ws.store(opts.from)
	if err != nil {
		return err
	}
	shapeID, err := lookupShape(from, opts.shape)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotFound, err, "feature %q", opts.from)
	}
	pick, err := ws.engine.Pick(shapeID)
	if err != nil {
		return err
	}

	if len(opts.dirty) > 0 {
		err = ws.markDirty(opts.dirty)
	} else {
		ws.engine.MarkAllDirty()
	}
	if err != nil {
		return err
	}
	if _, err := ws.recompute(ctx); err != nil {
		return err
	}

	atV, err := ws.built.Vertex(opts.at)
	if err != nil {
		return err
	}
	at := ws.graph().Feature(atV)
	ids, err := ws.engine.Resolve(ctx, pick, at.ID())
	if err != nil {
		return err
	}

	printKeyValue("pick", shapeID.String())
	printKeyValue("history", strconv.Itoa(pick.History.Len())+" shapes")
	if len(ids) == 0 {
		printWarning("Pick does not resolve in %s", opts.at)
		return nil
	}
	printSuccess("Resolved in %s to %d shape(s)", StyleTitle.Render(opts.at), len(ids))
	out := feature.ShapeOf(at)
	for _, id := range ids {
		kind := "?"
		if out != nil {
			if sh, ok := out.FindShape(id); ok {
				kind = sh.Kind().String()
			}
		}
		printDetail("%s  %s", id, kind)
	}
	return nil
}

// store returns the shape store of the named feature.
func (ws *workspace) store(name string) (*shape.Store, error) {
	v, err := ws.built.Vertex(name)
	if err != nil {
		return nil, err
	}
	s := feature.ShapeOf(ws.graph().Feature(v))
	if s == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "feature %q has no shape output", name)
	}
	return s, nil
}

// lookupShape finds a shape id in s by construction tag, then by stable id.
func lookupShape(s *shape.Store, ref string) (stableid.ID, error) {
	if id, ok := s.FeatureTagID(ref); ok {
		return id, nil
	}
	if id, err := stableid.Parse(ref); err == nil && s.HasID(id) {
		return id, nil
	}
	return stableid.Nil, errors.New(errors.ErrCodeNotFound, "no shape tagged or identified %q", ref)
}
