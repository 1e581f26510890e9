/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the Restara project.
 * This code is provided "as is", without warranty of any kind.
 */

// Package timer implements the sleep countdown that silences the mixer.
package timer

import (
	"sync"
	"time"

	"restara/internal/logger"
	"restara/pkg/spec"

	"go.uber.org/zap"
)

// Alerter is the fire-and-forget device alert made on completion.
type Alerter interface {
	Alert(d time.Duration)
}

// Resetter is the part of the mixer the timer needs.
type Resetter interface {
	ResetMixer()
}

// Phase names where the countdown is in its life cycle.
type Phase string

const (
	Idle      Phase = "idle"
	Running   Phase = "running"
	Paused    Phase = "paused"
	Completed Phase = "completed"
)

// State is the read-only view of the countdown.
type State struct {
	Remaining int    `json:"remaining"`
	Running   bool   `json:"running"`
	Started   bool   `json:"started"`
	Phase     Phase  `json:"phase"`
	Clock     string `json:"clock"`
}

// Options configures a Controller; zero durations take the defaults.
type Options struct {
	Interval      time.Duration // tick period, default one second
	AlertDuration time.Duration
	Alerter       Alerter  // optional
	Mixer         Resetter // optional
	Log           *zap.Logger
}

// Controller owns the countdown and its ticker. The ticker goroutine only
// exists while the countdown is running.
type Controller struct {
	interval time.Duration
	alertFor time.Duration
	alerter  Alerter
	mixer    Resetter
	log      *zap.Logger

	mu        sync.Mutex
	remaining int
	running   bool
	started   bool
	fired     bool
	stopTick  chan struct{}
	sink      func(State)

	tickers sync.WaitGroup
}

// New returns an idle countdown.
func New(opts Options) *Controller {
	if opts.Interval <= 0 {
		opts.Interval = spec.TickInterval
	}
	if opts.AlertDuration <= 0 {
		opts.AlertDuration = spec.AlertDuration
	}
	return &Controller{
		interval: opts.Interval,
		alertFor: opts.AlertDuration,
		alerter:  opts.Alerter,
		mixer:    opts.Mixer,
		log:      logger.OrNop(opts.Log).Named("timer"),
	}
}

// SetEventSink registers fn to receive the state after each change.
func (c *Controller) SetEventSink(fn func(State)) {
	c.mu.Lock()
	c.sink = fn
	c.mu.Unlock()
}

// Start arms the countdown for the given minutes. Non-positive values are
// ignored and reported false.
func (c *Controller) Start(minutes int) bool {
	if minutes <= 0 {
		c.log.Warn("ignoring non-positive timer duration", zap.Int("minutes", minutes))
		return false
	}

	c.mu.Lock()
	c.remaining = minutes * 60
	c.running = true
	c.started = true
	c.fired = false
	c.startTicker()
	c.mu.Unlock()

	c.log.Info("timer started", zap.Int("minutes", minutes))
	c.notify()
	return true
}

// PauseResume toggles running. It does nothing once the countdown is at zero.
func (c *Controller) PauseResume() {
	c.mu.Lock()
	if c.remaining == 0 {
		c.mu.Unlock()
		return
	}
	c.running = !c.running
	if c.running {
		c.startTicker()
	} else {
		c.stopTicker()
	}
	c.mu.Unlock()

	c.notify()
}

// Reset returns to the never-configured state.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.running = false
	c.remaining = 0
	c.started = false
	c.stopTicker()
	c.mu.Unlock()

	c.notify()
}

// Tick advances the countdown by one step. The ticker calls it every
// interval; it is exported so a different clock can drive the countdown.
func (c *Controller) Tick() {
	c.mu.Lock()
	c.tickLocked()
}

func (c *Controller) tickFrom(stop chan struct{}) {
	c.mu.Lock()
	if c.stopTick != stop {
		// a tick from a ticker that has already been replaced or stopped
		c.mu.Unlock()
		return
	}
	c.tickLocked()
}

// tickLocked is entered with c.mu held and releases it.
func (c *Controller) tickLocked() {
	if !c.running || c.remaining == 0 {
		c.mu.Unlock()
		return
	}
	c.remaining--

	complete := false
	if c.remaining == 0 && c.started && !c.fired {
		c.fired = true
		c.running = false
		c.stopTicker()
		complete = true
	}
	c.mu.Unlock()

	if complete {
		c.complete()
	}
	c.notify()
}

func (c *Controller) complete() {
	c.log.Info("timer completed, silencing mixer")
	if c.alerter != nil {
		c.alerter.Alert(c.alertFor)
	}
	if c.mixer != nil {
		c.mixer.ResetMixer()
	}
}

// State returns the current countdown state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state()
}

// Close stops the ticker and waits for its goroutine to exit.
func (c *Controller) Close() {
	c.mu.Lock()
	c.running = false
	c.stopTicker()
	c.mu.Unlock()
	c.tickers.Wait()
}

func (c *Controller) state() State {
	st := State{
		Remaining: c.remaining,
		Running:   c.running,
		Started:   c.started,
		Clock:     Clock(c.remaining),
	}
	switch {
	case !c.started:
		st.Phase = Idle
	case c.running:
		st.Phase = Running
	case c.remaining == 0:
		st.Phase = Completed
	default:
		st.Phase = Paused
	}
	return st
}

// startTicker launches the periodic tick source. Caller holds c.mu.
func (c *Controller) startTicker() {
	c.stopTicker()
	stop := make(chan struct{})
	c.stopTick = stop

	c.tickers.Add(1)
	go func() {
		defer c.tickers.Done()
		t := time.NewTicker(c.interval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				c.tickFrom(stop)
			}
		}
	}()
}

// stopTicker tears the tick source down. Caller holds c.mu.
func (c *Controller) stopTicker() {
	if c.stopTick != nil {
		close(c.stopTick)
		c.stopTick = nil
	}
}

func (c *Controller) ticking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopTick != nil
}

func (c *Controller) notify() {
	c.mu.Lock()
	sink, st := c.sink, c.state()
	c.mu.Unlock()
	if sink != nil {
		sink(st)
	}
}
