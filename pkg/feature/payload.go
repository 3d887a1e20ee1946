package feature

import (
	"github.com/charmbracelet/log"

	"github.com/cadseer/cadseer/pkg/correlate"
	"github.com/cadseer/cadseer/pkg/errors"
	"github.com/cadseer/cadseer/pkg/geom"
	"github.com/cadseer/cadseer/pkg/history"
	"github.com/cadseer/cadseer/pkg/observability"
	"github.com/cadseer/cadseer/pkg/stableid"
)

// Entry is one parent output offered to a feature under one role. A parent
// connected with several roles appears once per role.
type Entry struct {
	Tag     InputType
	Feature Feature

	// Failed is set when the parent's own last update failed. The payload
	// still carries it; the child decides whether that is fatal.
	Failed bool
}

// Payload is what a feature receives for one update.
type Payload struct {
	Entries []Entry

	// History is the shape history of the running pass. Features record
	// their ids into it and resolve picks against it.
	History *history.History

	// Skipped asks the feature to pass its primary input through unchanged.
	Skipped bool

	Generator stableid.Generator
	Logger    *log.Logger

	// Integrity receives the id repairs of correlators run for this update.
	Integrity observability.IntegrityHooks
}

// ByTag returns the entries offered under tag, in edge order.
func (p *Payload) ByTag(tag InputType) []Entry {
	var out []Entry
	for _, e := range p.Entries {
		if e.Tag == tag {
			out = append(out, e)
		}
	}
	return out
}

// Single returns the only entry offered under tag. Zero or several entries
// are an INVALID_INPUT error.
func (p *Payload) Single(tag InputType) (Entry, error) {
	es := p.ByTag(tag)
	if len(es) != 1 {
		return Entry{}, errors.New(errors.ErrCodeInvalidInput, "expected exactly one %s input, got %d", tag, len(es))
	}
	return es[0], nil
}

// Primary returns the input a skipped feature passes through: the first
// Target, else the first Create, else the first entry.
func (p *Payload) Primary() (Entry, bool) {
	for _, tag := range []InputType{InputTarget, InputCreate} {
		if es := p.ByTag(tag); len(es) > 0 {
			return es[0], true
		}
	}
	if len(p.Entries) > 0 {
		return p.Entries[0], true
	}
	return Entry{}, false
}

// RequireHealthy returns an INPUT_FAILED error naming the first entry under
// one of tags whose source failed. With no tags every entry is checked.
func (p *Payload) RequireHealthy(tags ...InputType) error {
	required := NewTags(tags...)
	for _, e := range p.Entries {
		if !e.Failed || (len(required) > 0 && !required.Has(e.Tag)) {
			continue
		}
		return errors.New(errors.ErrCodeInputFailed, "%s input %q failed", e.Tag, e.Feature.Name())
	}
	return nil
}

// Correlation returns the options a correlator needs to fill f's store in
// this update.
func (p *Payload) Correlation(f Feature, x geom.Explorer) correlate.Options {
	return correlate.Options{
		Explorer:    x,
		History:     p.History,
		Generator:   p.Generator,
		Logger:      p.Logger,
		Integrity:   p.Integrity,
		FeatureID:   f.ID(),
		FeatureName: f.Name(),
	}
}
