/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the Restara project.
 * This code is provided "as is", without warranty of any kind.
 */

// Package alert signals the end of a countdown.
package alert

import (
	"io"
	"math"
	"sync"
	"time"

	"restara/internal/logger"

	"github.com/faiface/beep"
	"go.uber.org/zap"
)

const (
	chimeHz   = 880
	chimeGain = 0.3
)

// Alerter is satisfied by every signal in this package.
type Alerter interface {
	Alert(d time.Duration)
}

// Player is the part of an audio sink a chime needs.
type Player interface {
	Play(s ...beep.Streamer)
}

// Chime plays a decaying sine through the audio sink.
type Chime struct {
	out  Player
	rate beep.SampleRate
	log  *zap.Logger
}

func NewChime(out Player, rate beep.SampleRate, log *zap.Logger) *Chime {
	return &Chime{out: out, rate: rate, log: logger.OrNop(log).Named("alert")}
}

func (c *Chime) Alert(d time.Duration) {
	if d <= 0 {
		return
	}
	c.log.Info("chime", zap.Duration("duration", d))
	c.out.Play(Tone(c.rate, chimeHz, d))
}

// Tone returns d worth of a sine at freq with a linear fade-out.
func Tone(rate beep.SampleRate, freq float64, d time.Duration) beep.Streamer {
	total := rate.N(d)
	pos := 0
	step := 2 * math.Pi * freq / float64(rate)
	return beep.Take(total, beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			env := 1 - float64(pos)/float64(total)
			v := chimeGain * env * math.Sin(step*float64(pos))
			samples[i] = [2]float64{v, v}
			pos++
		}
		return len(samples), true
	}))
}

// Bell writes the terminal bell, for hosts without an audio device.
type Bell struct {
	mu sync.Mutex
	w  io.Writer
}

func NewBell(w io.Writer) *Bell { return &Bell{w: w} }

func (b *Bell) Alert(time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	io.WriteString(b.w, "\a")
}

// Chain fans one alert out to several signals.
type Chain []Alerter

func (c Chain) Alert(d time.Duration) {
	for _, a := range c {
		if a != nil {
			a.Alert(d)
		}
	}
}
