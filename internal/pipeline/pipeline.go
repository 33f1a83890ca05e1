// Package pipeline runs keyword generation end to end: context resolution,
// tiered synthesis and ad group allocation.
package pipeline

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/keyword-cli/internal/config"
	"github.com/sells-group/keyword-cli/internal/export"
	"github.com/sells-group/keyword-cli/internal/geo"
	"github.com/sells-group/keyword-cli/internal/ingest"
	"github.com/sells-group/keyword-cli/internal/model"
	"github.com/sells-group/keyword-cli/internal/synth"
	"github.com/sells-group/keyword-cli/internal/terms"
)

// ErrNoAdGroups is returned when a run has no ad group IDs.
var ErrNoAdGroups = export.ErrNoAdGroups

// ErrNoContexts is returned when no input record could be resolved.
var ErrNoContexts = eris.New("pipeline: no valid business contexts built; check input columns and the Maps geocoding subscription")

// IsConfigError reports whether err was caused by the caller's input or
// configuration rather than by a provider or the runtime.
func IsConfigError(err error) bool {
	if err == nil {
		return false
	}
	var shortfall *export.ShortfallError
	return errors.Is(err, ingest.ErrInvalidInput) ||
		errors.Is(err, ErrNoAdGroups) ||
		errors.Is(err, ErrNoContexts) ||
		errors.Is(err, config.ErrMissingCredentials) ||
		errors.As(err, &shortfall)
}

// Pipeline generates keyword plans from business records.
type Pipeline struct {
	cfg   *config.Config
	maps  geo.MapsProvider
	local geo.LocalSearcher
}

// New creates a Pipeline. local may be nil when no stage uses the Local
// search API.
func New(cfg *config.Config, maps geo.MapsProvider, local geo.LocalSearcher) *Pipeline {
	return &Pipeline{cfg: cfg, maps: maps, local: local}
}

// Config returns the configuration the pipeline was built with.
func (p *Pipeline) Config() *config.Config {
	return p.cfg
}

// Request is the input of a full run.
type Request struct {
	Records    []model.BusinessRecord
	AdGroupIDs []string
	// ExtraTerms are appended to keywords.service_terms for this run only.
	ExtraTerms []string
	// POIFilterSet selects pois.filter_sets[name] for this run only.
	POIFilterSet   string
	AllowShortfall bool
}

// Result is the outcome of a run or a composition.
type Result struct {
	TargetTotal      int              `json:"target_total" yaml:"target_total"`
	GeneratedTotal   int              `json:"generated_total" yaml:"generated_total"`
	Shortfall        int              `json:"shortfall" yaml:"shortfall"`
	AdGroupIDs       []string         `json:"ad_group_ids" yaml:"ad_group_ids"`
	KeywordsPerGroup int              `json:"keywords_per_group" yaml:"keywords_per_group"`
	Contexts         int              `json:"contexts" yaml:"contexts"`
	TiersUsed        int              `json:"tiers_used" yaml:"tiers_used"`
	Components       model.Components `json:"components" yaml:"components"`
	Patterns         []model.Pattern  `json:"patterns" yaml:"patterns"`
	Plan             *export.Plan     `json:"-" yaml:"-"`
}

// Run resolves contexts for req.Records, escalates modifier tiers until the
// ad groups can be filled, and allocates the best keywords. A shortfall
// fails the run with *export.ShortfallError unless req.AllowShortfall is set.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	cfg := p.cfg.WithPOIFilterSet(req.POIFilterSet).WithExtraServiceTerms(req.ExtraTerms)
	log := zap.L().With(
		zap.Int("records", len(req.Records)),
		zap.Int("ad_groups", len(req.AdGroupIDs)),
		zap.String("poi_filter_set", req.POIFilterSet),
	)
	log.Info("pipeline: starting run")

	if len(req.AdGroupIDs) == 0 {
		return nil, ErrNoAdGroups
	}
	engine, err := synth.NewEngine(cfg.Keywords, cfg.Filters)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: build engine")
	}

	resolver := geo.NewResolver(p.maps, p.local, cfg)
	contexts, err := resolver.BuildContexts(ctx, req.Records, geo.NewPOIFilter(cfg.POIs))
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: build contexts")
	}
	if len(contexts) == 0 {
		return nil, ErrNoContexts
	}

	perGroup := cfg.Output.KeywordsPerGroup
	target := len(req.AdGroupIDs) * perGroup
	esc := engine.Escalate(contexts, cfg.Keywords.ModifiersTiers, target)

	plan, err := export.Allocate(esc.Ranks, req.AdGroupIDs, perGroup, export.Options{
		AllowShortfall:    req.AllowShortfall,
		AllowPartialGroup: cfg.Output.AllowPartialGroup,
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: allocate")
	}

	result := &Result{
		TargetTotal:      plan.TargetTotal,
		GeneratedTotal:   plan.SelectedTotal,
		Shortfall:        plan.Shortfall,
		AdGroupIDs:       slices.Clone(req.AdGroupIDs),
		KeywordsPerGroup: perGroup,
		Contexts:         len(contexts),
		TiersUsed:        esc.TiersUsed,
		Components:       MergeComponents(contexts, esc.Modifiers),
		Patterns:         engine.Patterns(),
		Plan:             plan,
	}
	logResult(log, result, len(esc.Ranks), time.Since(start))
	return result, nil
}

// ComposeRequest is the input of a component-driven regeneration.
type ComposeRequest struct {
	Components model.Components
	// Patterns are used when non-empty, otherwise the configured patterns.
	Patterns         []model.Pattern
	AdGroupIDs       []string
	KeywordsPerGroup int
}

// Compose synthesizes keywords from edited term pools without any provider
// call and allocates them to the ad groups. A shortfall never fails.
func (p *Pipeline) Compose(req ComposeRequest) (*Result, error) {
	start := time.Now()
	log := zap.L().With(zap.Int("ad_groups", len(req.AdGroupIDs)))

	if len(req.AdGroupIDs) == 0 {
		return nil, ErrNoAdGroups
	}
	engine, err := synth.NewEngine(p.cfg.Keywords, p.cfg.Filters)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: build engine")
	}

	patterns := req.Patterns
	if len(patterns) == 0 {
		patterns = engine.Patterns()
	}
	perGroup := req.KeywordsPerGroup
	if perGroup <= 0 {
		perGroup = p.cfg.Output.KeywordsPerGroup
	}

	components := model.Components{
		Regions:   terms.Unique(req.Components.Regions...),
		Services:  terms.Unique(req.Components.Services...),
		Modifiers: terms.Unique(req.Components.Modifiers...),
		POIs:      terms.Unique(req.Components.POIs...),
	}
	ranks := engine.GenerateFromComponents(components, patterns)

	plan, err := export.Allocate(ranks, req.AdGroupIDs, perGroup, export.Options{
		AllowShortfall:    true,
		AllowPartialGroup: p.cfg.Output.AllowPartialGroup,
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: allocate")
	}

	result := &Result{
		TargetTotal:      plan.TargetTotal,
		GeneratedTotal:   plan.SelectedTotal,
		Shortfall:        plan.Shortfall,
		AdGroupIDs:       slices.Clone(req.AdGroupIDs),
		KeywordsPerGroup: perGroup,
		Components:       components,
		Patterns:         patterns,
		Plan:             plan,
	}
	logResult(log, result, len(ranks), time.Since(start))
	return result, nil
}

// MergeComponents pools the region, service and POI terms of every context,
// sorted, alongside the modifiers in selection order.
func MergeComponents(contexts []model.BusinessContext, modifiers []string) model.Components {
	var regions, services, pois []string
	for _, bc := range contexts {
		regions = append(regions, bc.RegionKeywords...)
		services = append(services, bc.Services...)
		pois = append(pois, bc.POIKeywords...)
	}
	return model.Components{
		Regions:   sortedUnique(regions),
		Services:  sortedUnique(services),
		Modifiers: terms.Unique(modifiers...),
		POIs:      sortedUnique(pois),
	}
}

func sortedUnique(items []string) []string {
	out := terms.Unique(items...)
	slices.Sort(out)
	return out
}

func logResult(log *zap.Logger, r *Result, candidates int, elapsed time.Duration) {
	fields := []zap.Field{
		zap.Int("candidates", candidates),
		zap.Int("target_total", r.TargetTotal),
		zap.Int("generated_total", r.GeneratedTotal),
		zap.Int("files", len(r.Plan.Groups)),
		zap.Duration("elapsed", elapsed),
	}
	if r.Shortfall > 0 {
		log.Warn("pipeline: keyword shortfall", append(fields, zap.Int("shortfall", r.Shortfall))...)
		return
	}
	log.Info("pipeline: complete", fields...)
}
