/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the Restara project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"restara/internal/alert"
	"restara/internal/catalog"
	"restara/internal/config"
	"restara/internal/ipc"
	"restara/internal/mixer"
	"restara/internal/timer"
	"restara/pkg/audioengine"

	"go.uber.org/zap"
)

// serverReset lets the countdown reset the mix through the ipc server, which
// drops pending slider moves first. srv is set before any client can start
// the timer.
type serverReset struct{ srv *ipc.Server }

func (r *serverReset) ResetMixer() { r.srv.ResetMixer() }

type options struct {
	bell   bool
	silent bool
}

// daemon wires the engine, mixer, timer and socket together.
type daemon struct {
	cfg    config.Config
	log    *zap.Logger
	engine *audioengine.Engine
	mixer  *mixer.Controller
	timer  *timer.Controller
	server *ipc.Server
}

func loadCatalog(cfg config.Config) (*catalog.Catalog, error) {
	if cfg.CatalogFile == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return cat, nil
}

func openEngine(cfg config.Config, silent bool, log *zap.Logger) *audioengine.Engine {
	if !silent {
		buffer := time.Duration(cfg.BufferMS) * time.Millisecond
		e, err := audioengine.NewSpeaker(cfg.AssetDir, cfg.SampleRate, buffer, log)
		if err == nil {
			return e
		}
		log.Warn("no audio device, running silent", zap.Error(err))
	}
	return audioengine.NewDiscard(cfg.AssetDir, cfg.SampleRate, log)
}

func newDaemon(cfg config.Config, opts options, log *zap.Logger) (*daemon, error) {
	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}
	log.Info("catalog ready",
		zap.Int("tracks", cat.Len()),
		zap.String("assets", cfg.AssetDir),
	)

	engine := openEngine(cfg, opts.silent, log)
	mix := mixer.New(cat, engine, log)
	mix.LoadAll()

	alerts := alert.Chain{alert.NewChime(engine.Sink(), engine.Rate(), log)}
	if opts.bell {
		alerts = append(alerts, alert.NewBell(os.Stdout))
	}

	reset := &serverReset{}
	tm := timer.New(timer.Options{
		Interval:      cfg.TickInterval,
		AlertDuration: cfg.AlertDuration,
		Alerter:       alerts,
		Mixer:         reset,
		Log:           log,
	})

	srv := ipc.New(ipc.Options{
		Catalog:  cat,
		Mixer:    mix,
		Timer:    tm,
		Debounce: cfg.Debounce,
		Log:      log,
	})
	reset.srv = srv

	return &daemon{
		cfg:    cfg,
		log:    log,
		engine: engine,
		mixer:  mix,
		timer:  tm,
		server: srv,
	}, nil
}

// Serve blocks until ctx is done.
func (d *daemon) Serve(ctx context.Context) error {
	return d.server.ListenAndServe(ctx, d.cfg.SocketPath)
}

// Close tears down in dependency order: clients first, then the countdown
// that could still reset the mixer, then the voices and the device.
func (d *daemon) Close() {
	d.server.Close()
	d.timer.Close()
	d.mixer.Close()
	d.engine.Close()
	_ = os.Remove(d.cfg.SocketPath)
}
