/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the Restara project.
 * This code is provided "as is", without warranty of any kind.
 */

// Package mixer owns the per-track volume and playback state of the ambient
// sound mixer and drives the audio voices from it.
package mixer

import (
	"sync"

	"restara/internal/catalog"
	"restara/internal/logger"

	"go.uber.org/zap"
)

// TrackState is the read-only view of one track.
type TrackState struct {
	ID      string  `json:"id"`
	Label   string  `json:"label"`
	Volume  float64 `json:"volume"`
	Loaded  bool    `json:"loaded"`
	Failed  bool    `json:"failed"`
	Playing bool    `json:"playing"`
	Icon    string  `json:"icon"`
}

// State is a snapshot of the whole mixer, in catalog order.
type State struct {
	Tracks     []TrackState `json:"tracks"`
	AnyPlaying bool         `json:"any_playing"`
	Master     float64      `json:"master"`
}

type track struct {
	desc   catalog.TrackDescriptor
	volume float64
	voice  Voice

	loaded bool
	failed bool

	// started: Play was issued and no Stop since. playing: Play confirmed.
	started bool
	playing bool
	// gen tags each start so late confirmations can be recognised.
	gen uint64
}

// Controller is the single owner of mixer state and of every voice.
type Controller struct {
	backend Backend
	log     *zap.Logger

	mu         sync.Mutex
	order      []*track
	byID       map[string]*track
	master     float64
	anyPlaying bool
	held       bool // master toggle switched off; loads must not auto-start
	closed     bool
	sink       func(State)

	pending sync.WaitGroup
}

// New creates a controller with every track silent and unloaded.
func New(cat *catalog.Catalog, backend Backend, log *zap.Logger) *Controller {
	c := &Controller{
		backend: backend,
		log:     logger.OrNop(log).Named("mixer"),
		byID:    make(map[string]*track, cat.Len()),
		master:  1,
	}
	for _, d := range cat.Tracks() {
		t := &track{desc: d}
		c.order = append(c.order, t)
		c.byID[d.ID] = t
	}
	return c
}

// SetEventSink registers fn to receive a snapshot after every state change.
// fn runs outside the controller lock.
func (c *Controller) SetEventSink(fn func(State)) {
	c.mu.Lock()
	c.sink = fn
	c.mu.Unlock()
}

// LoadAll starts loading every track's asset. Loads run concurrently and
// complete in any order; use Settle to wait for them.
func (c *Controller) LoadAll() {
	for _, t := range c.order {
		id, ref := t.desc.ID, t.desc.AudioRef
		c.pending.Add(1)
		go func() {
			defer c.pending.Done()
			v, err := c.backend.Load(ref)
			c.loaded(id, v, err)
		}()
	}
}

func (c *Controller) loaded(id string, v Voice, err error) {
	c.mu.Lock()
	t := c.byID[id]
	if c.closed {
		c.mu.Unlock()
		if v != nil {
			v.Release()
		}
		return
	}
	if err != nil {
		t.failed = true
		c.mu.Unlock()
		c.log.Warn("track failed to load", zap.String("track", id), zap.String("ref", t.desc.AudioRef), zap.Error(err))
		c.notify()
		return
	}

	t.voice = v
	t.loaded = true
	v.SetVolume(t.volume * c.master)
	if t.volume > 0 && !c.held {
		c.start(t)
	}
	c.mu.Unlock()

	c.log.Debug("track loaded", zap.String("track", id))
	c.notify()
}

// SetVolume stores the clamped volume and starts or stops the track to match.
// Unloaded tracks only record the value; it is applied when loading completes.
func (c *Controller) SetVolume(id string, volume float64) {
	volume = clamp(volume)

	c.mu.Lock()
	t, ok := c.byID[id]
	if !ok {
		c.mu.Unlock()
		c.log.Warn("set volume on unknown track", zap.String("track", id))
		return
	}
	t.volume = volume
	if t.loaded {
		if volume > 0 {
			c.held = false
			c.start(t)
		} else {
			c.stop(t)
		}
	}
	c.recompute()
	c.mu.Unlock()

	c.notify()
}

// PlayTrack starts a loaded track that has a non-zero volume.
func (c *Controller) PlayTrack(id string) {
	c.mu.Lock()
	t, ok := c.byID[id]
	if !ok {
		c.mu.Unlock()
		c.log.Warn("play on unknown track", zap.String("track", id))
		return
	}
	if t.loaded && t.volume > 0 {
		c.held = false
		c.start(t)
	}
	c.mu.Unlock()

	c.notify()
}

// StopTrack stops a track and keeps its stored volume.
func (c *Controller) StopTrack(id string) {
	c.mu.Lock()
	t, ok := c.byID[id]
	if !ok {
		c.mu.Unlock()
		c.log.Warn("stop on unknown track", zap.String("track", id))
		return
	}
	if t.loaded {
		c.stop(t)
	}
	c.recompute()
	c.mu.Unlock()

	c.notify()
}

// TogglePlayAll switches the whole mix off if anything is playing or about to
// play, else starts every loaded track with a non-zero volume. Stored volumes
// are never changed. It reports whether the mix is now switched on.
func (c *Controller) TogglePlayAll() bool {
	c.mu.Lock()
	on := c.anyPlaying
	for _, t := range c.order {
		on = on || t.started
	}

	started := 0
	if on {
		for _, t := range c.order {
			if t.loaded {
				c.halt(t)
			}
		}
		c.held = true
	} else {
		c.held = false
		for _, t := range c.order {
			if t.loaded && t.volume > 0 {
				c.start(t)
				started++
			}
		}
	}
	c.recompute()
	c.mu.Unlock()

	c.log.Info("toggle all", zap.Bool("on", !on), zap.Int("started", started))
	c.notify()
	return !on && started > 0
}

// ResetMixer silences everything: every stored volume becomes 0, loaded or not.
func (c *Controller) ResetMixer() {
	c.mu.Lock()
	for _, t := range c.order {
		t.volume = 0
		if t.loaded {
			c.halt(t)
			t.voice.SetVolume(0)
		}
	}
	c.held = false
	c.recompute()
	c.mu.Unlock()

	c.log.Info("mixer reset")
	c.notify()
}

// SetMasterVolume scales every voice by v without touching stored volumes.
func (c *Controller) SetMasterVolume(v float64) {
	v = clamp(v)

	c.mu.Lock()
	c.master = v
	for _, t := range c.order {
		if t.loaded {
			t.voice.SetVolume(t.volume * v)
		}
	}
	c.mu.Unlock()

	c.notify()
}

// IconFor returns the active icon while the track's volume is above zero and
// the idle icon otherwise.
func (c *Controller) IconFor(id string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.byID[id]
	if !ok {
		c.log.Warn("icon for unknown track", zap.String("track", id))
		return ""
	}
	return iconOf(t)
}

// AnyPlaying reports whether at least one track is confirmed playing.
func (c *Controller) AnyPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.anyPlaying
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Settle blocks until every in-flight load and play confirmation has been
// applied.
func (c *Controller) Settle() {
	c.pending.Wait()
}

// Close waits for pending work, then stops and releases every voice.
func (c *Controller) Close() {
	c.pending.Wait()

	c.mu.Lock()
	c.closed = true
	for _, t := range c.order {
		if t.voice == nil {
			continue
		}
		t.voice.Stop()
		t.voice.Release()
		t.voice = nil
		t.loaded = false
		t.started = false
		t.playing = false
	}
	c.recompute()
	c.mu.Unlock()

	c.log.Info("mixer closed")
}

// start applies the volume, enables looping and issues Play unless the
// track is already started. Caller holds c.mu.
func (c *Controller) start(t *track) {
	t.voice.SetVolume(t.volume * c.master)
	t.voice.SetLoop(true)
	if t.started {
		return
	}
	t.started = true
	t.gen++

	id, gen, v := t.desc.ID, t.gen, t.voice
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		err := v.Play()
		c.confirm(id, gen, err)
	}()
}

// stop silences a started track. Tracks that were never started get no Stop
// call, so repeated zero volumes stay quiet. Caller holds c.mu.
func (c *Controller) stop(t *track) {
	if !t.started && !t.playing {
		return
	}
	c.halt(t)
}

// halt stops the voice unconditionally. Caller holds c.mu.
func (c *Controller) halt(t *track) {
	t.voice.Stop()
	t.started = false
	t.playing = false
	t.gen++
}

// confirm applies an asynchronous Play result. Results from an older start,
// or for a track whose stored volume has gone back to zero, are discarded; if
// such a stale Play succeeded after the track was stopped, the voice is
// silenced again.
func (c *Controller) confirm(id string, gen uint64, err error) {
	c.mu.Lock()
	t := c.byID[id]
	if c.closed || t.voice == nil {
		c.mu.Unlock()
		return
	}

	if gen != t.gen || !t.started || t.volume <= 0 {
		if err == nil && !t.started {
			t.voice.Stop()
		}
		c.mu.Unlock()
		c.log.Debug("discarding stale play confirmation", zap.String("track", id))
		return
	}

	if err != nil {
		t.started = false
		c.mu.Unlock()
		c.log.Warn("track failed to play", zap.String("track", id), zap.Error(err))
		c.notify()
		return
	}

	t.playing = true
	c.recompute()
	c.mu.Unlock()

	c.notify()
}

// recompute derives anyPlaying. Caller holds c.mu.
func (c *Controller) recompute() {
	on := false
	for _, t := range c.order {
		if t.playing {
			on = true
			break
		}
	}
	c.anyPlaying = on
}

func (c *Controller) snapshot() State {
	st := State{
		Tracks:     make([]TrackState, len(c.order)),
		AnyPlaying: c.anyPlaying,
		Master:     c.master,
	}
	for i, t := range c.order {
		st.Tracks[i] = TrackState{
			ID:      t.desc.ID,
			Label:   t.desc.Label,
			Volume:  t.volume,
			Loaded:  t.loaded,
			Failed:  t.failed,
			Playing: t.playing,
			Icon:    iconOf(t),
		}
	}
	return st
}

func (c *Controller) notify() {
	c.mu.Lock()
	sink := c.sink
	var st State
	if sink != nil {
		st = c.snapshot()
	}
	c.mu.Unlock()

	if sink != nil {
		sink(st)
	}
}

func iconOf(t *track) string {
	if t.volume > 0 {
		return t.desc.ActiveIcon
	}
	return t.desc.IdleIcon
}

func clamp(v float64) float64 {
	switch {
	case v != v: // NaN
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
