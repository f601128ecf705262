// Package engine scores per-user aggregates and runs the full analysis
// pipeline: aggregation, rule table, scoring and report assembly.
package engine

import (
	"time"

	"github.com/gokaycavdar/go-cdrguard/internal/logger"
	"github.com/gokaycavdar/go-cdrguard/pkg/aggregate"
	"github.com/gokaycavdar/go-cdrguard/pkg/models"
	"github.com/gokaycavdar/go-cdrguard/pkg/report"
	"github.com/gokaycavdar/go-cdrguard/pkg/rules"
)

// Engine is stateless between runs and safe for concurrent use.
type Engine struct {
	registry *rules.Registry
	scorer   *Scorer
}

type options struct {
	registry *rules.Registry
	weights  *Weights
	bonus    BonusSource
}

// Option configures an Engine.
type Option func(*options)

// WithRegistry replaces the default rule registry.
func WithRegistry(r *rules.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithWeights replaces the default scoring weights.
func WithWeights(w *Weights) Option {
	return func(o *options) { o.weights = w }
}

// WithBonus enables an additional-pattern bonus source.
func WithBonus(b BonusSource) Option {
	return func(o *options) { o.bonus = b }
}

// New creates an Engine with the default registry, default weights and no bonus.
func New(opts ...Option) *Engine {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = rules.Default()
	}
	return &Engine{
		registry: o.registry,
		scorer:   NewScorer(o.weights, o.bonus),
	}
}

// Registry returns the rule registry used by the engine.
func (e *Engine) Registry() *rules.Registry {
	return e.registry
}

// Scorer returns the per-user scorer used by the engine.
func (e *Engine) Scorer() *Scorer {
	return e.scorer
}

// Analyze runs the pipeline over an in-memory dataset. An empty dataset
// yields a zeroed result.
func (e *Engine) Analyze(users []models.User, connections []models.Connection) *models.AnalysisResult {
	started := time.Now()

	snap := aggregate.Build(users, connections)
	summaries := e.registry.Summarize(snap)

	gctx := snap.Global()
	profiles := make([]models.UserRiskProfile, 0, snap.Len())
	snap.Each(func(agg aggregate.UserAggregate) {
		profiles = append(profiles, e.scorer.Score(agg, gctx))
	})

	result := report.Assemble(report.Totals{
		Users:       len(users),
		Connections: len(connections),
	}, summaries, profiles)

	logger.EngineLog.Infof("analyzed %d users, %d connections: %d suspicious in %s",
		result.TotalUsers, result.TotalConnections, result.SuspiciousUserCount, time.Since(started))

	return result
}
