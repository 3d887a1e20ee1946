package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cadseer/cadseer/pkg/dag"
	"github.com/cadseer/cadseer/pkg/geom/memgeom"
	"github.com/cadseer/cadseer/pkg/model"
	"github.com/cadseer/cadseer/pkg/observability"
	"github.com/cadseer/cadseer/pkg/observability/metrics"
	"github.com/cadseer/cadseer/pkg/update"
)

// workspace is a loaded model with its graph and engine.
type workspace struct {
	path   string
	model  *model.Model
	built  *model.Built
	engine *update.Engine
	logger *log.Logger
	hooks  *progressHooks
}

// open loads and builds the model at path.
func (c *CLI) open(ctx context.Context, path string) (*workspace, error) {
	logger := loggerFromContext(ctx)
	m, err := model.Load(path)
	if err != nil {
		return nil, err
	}
	built, err := m.Build(memgeom.New())
	if err != nil {
		return nil, err
	}
	logger.Debug("model loaded", "path", path, "features", built.Graph.Len(), "connections", built.Graph.EdgeCount())

	hooks := &progressHooks{logger: logger}
	opts := c.Config.engineOptions(m, logger)
	opts.Hooks = hooks
	opts.Integrity = hooks
	return &workspace{
		path:   path,
		model:  m,
		built:  built,
		engine: update.New(built.Graph, opts),
		logger: logger,
		hooks:  hooks,
	}, nil
}

// withMetrics forwards the engine's events to m as well.
func (ws *workspace) withMetrics(m *metrics.Hooks) { ws.hooks.next = m }

func (ws *workspace) graph() *dag.Graph { return ws.built.Graph }

// markDirty marks the named features and everything downstream dirty.
func (ws *workspace) markDirty(names []string) error {
	for _, name := range names {
		v, err := ws.built.Vertex(name)
		if err != nil {
			return err
		}
		if err := ws.engine.MarkDirty(v); err != nil {
			return err
		}
	}
	return nil
}

// recompute runs one pass behind a spinner that names the feature being
// updated.
func (ws *workspace) recompute(ctx context.Context) (*update.Result, error) {
	spinner := newSpinnerWithContext(ctx, "Recomputing "+ws.path)
	ws.hooks.spinner = spinner
	defer func() { ws.hooks.spinner = nil }()

	prog := newProgress(ws.logger)
	spinner.Start()
	res, err := ws.engine.Recompute(ctx)
	spinner.Stop()
	if err != nil {
		return res, err
	}
	prog.done(fmt.Sprintf("Recomputed %d features", len(res.Order)))
	return res, nil
}

// progressHooks forwards engine events to the spinner while one runs, the
// log and the metrics hooks, if any.
type progressHooks struct {
	spinner *Spinner
	logger  *log.Logger
	next    *metrics.Hooks
}

var (
	_ observability.UpdateHooks    = (*progressHooks)(nil)
	_ observability.IntegrityHooks = (*progressHooks)(nil)
)

func (h *progressHooks) status(msg string) {
	if h.spinner != nil {
		h.spinner.SetMessage(msg)
	}
}

func (h *progressHooks) OnRecomputeStart(ctx context.Context, dirty int) {
	h.status(fmt.Sprintf("Recomputing %d features", dirty))
	if h.next != nil {
		h.next.OnRecomputeStart(ctx, dirty)
	}
}

func (h *progressHooks) OnRecomputeComplete(ctx context.Context, updated, failed int, d time.Duration, err error) {
	if h.next != nil {
		h.next.OnRecomputeComplete(ctx, updated, failed, d, err)
	}
}

func (h *progressHooks) OnFeatureStart(ctx context.Context, name, id string) {
	h.status("Updating " + name)
	if h.next != nil {
		h.next.OnFeatureStart(ctx, name, id)
	}
}

func (h *progressHooks) OnFeatureComplete(ctx context.Context, name, id string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("feature done", "feature", name, "id", id, "duration", d, "err", err)
	} else {
		h.logger.Debug("feature done", "feature", name, "id", id, "duration", d)
	}
	if h.next != nil {
		h.next.OnFeatureComplete(ctx, name, id, d, err)
	}
}

func (h *progressHooks) OnNilRepaired(ctx context.Context, feature string, count int) {
	h.logger.Warn("shapes without id repaired", "feature", feature, "count", count)
	if h.next != nil {
		h.next.OnNilRepaired(ctx, feature, count)
	}
}

func (h *progressHooks) OnDuplicateRepaired(ctx context.Context, feature string, count int) {
	h.logger.Warn("duplicate ids repaired", "feature", feature, "count", count)
	if h.next != nil {
		h.next.OnDuplicateRepaired(ctx, feature, count)
	}
}

func (h *progressHooks) OnPickUnresolved(ctx context.Context, feature, pick string) {
	h.logger.Debug("pick unresolved", "feature", feature, "pick", pick)
	if h.next != nil {
		h.next.OnPickUnresolved(ctx, feature, pick)
	}
}
