package main

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ByLCY/quire/config"
	"github.com/ByLCY/quire/document"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/measure"
	canvasrenderer "github.com/ByLCY/quire/renderer/canvas"
	"github.com/ByLCY/quire/schedule"
)

// pipeline wires measurement, pagination and PDF output from configuration.
type pipeline struct {
	geo      layout.Geometry
	styles   layout.StyleSheet
	pdf      *canvasrenderer.Renderer
	measurer layout.Measurer
	cache    *measure.Cached
	log      *zap.Logger
}

func newPipeline(ctx context.Context, cfg *config.Config, log *zap.Logger) (*pipeline, error) {
	geo, err := cfg.Geometry()
	if err != nil {
		return nil, err
	}
	p := &pipeline{geo: geo, styles: cfg.StyleSheet(), log: log}
	p.pdf = canvasrenderer.NewRenderer(canvasrenderer.Options{
		Styles:      p.styles,
		Geometry:    geo,
		Author:      cfg.Export.Author,
		PageNumbers: cfg.Export.PageNumbers,
	})

	switch cfg.Measure.Backend {
	case "estimate":
		p.measurer = &measure.Estimator{Styles: p.styles, Geometry: geo}
	default:
		p.measurer = p.pdf
	}

	var store measure.Store
	switch cfg.Measure.Cache {
	case "memory":
		store = measure.NewMemoryStore()
	case "redis":
		rc := cfg.Measure.Redis
		rs, err := measure.NewRedisStore(ctx, measure.RedisOptions{Addr: rc.Addr, Password: rc.Password, DB: rc.DB, TTL: rc.TTL})
		if err != nil {
			return nil, fmt.Errorf("unable to connect measurement cache redis %s: %w", rc.Addr, err)
		}
		store = rs
	}
	if store != nil {
		// scope includes the backend so estimate and canvas heights never mix
		scope := cfg.Measure.Backend + ":" + measure.Scope(p.styles, geo)
		p.cache = measure.NewCached(p.measurer, store, scope, log)
		p.measurer = p.cache
	}
	return p, nil
}

func (p *pipeline) layoutOptions() layout.Options {
	return layout.Options{Measurer: p.measurer, Geometry: p.geo, Logger: p.log}
}

func (p *pipeline) paginate(ctx context.Context, doc *document.Document) (*layout.Result, error) {
	res, err := layout.Paginate(ctx, doc, p.layoutOptions())
	if err != nil {
		return nil, fmt.Errorf("pagination failed: %w", err)
	}
	return res, nil
}

func (p *pipeline) scheduleOptions(sc config.ScheduleConfig) (schedule.Options, error) {
	ticker, err := schedule.NewTicker(schedule.TickerOptions{Kind: sc.Ticker, Frame: sc.Frame, Debounce: sc.Debounce})
	if err != nil {
		return schedule.Options{}, err
	}
	policy, err := schedule.ParsePolicy(sc.Policy)
	if err != nil {
		return schedule.Options{}, err
	}
	return schedule.Options{Layout: p.layoutOptions(), Ticker: ticker, Policy: policy, Logger: p.log}, nil
}

func (p *pipeline) Close() (err error) {
	if p.cache != nil {
		hits, misses := p.cache.Stats()
		p.log.Debug("Measurement cache", zap.Int64("hits", hits), zap.Int64("misses", misses))
		err = multierr.Append(err, p.cache.Close())
	}
	return err
}
