/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the Restara project.
 * This code is provided "as is", without warranty of any kind.
 */

// Package audioengine plays catalog assets as looping voices on top of beep.
package audioengine

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"restara/internal/logger"
	"restara/internal/mixer"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"go.uber.org/zap"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrEmptyAsset        = errors.New("asset decoded to no samples")
	ErrReleased          = errors.New("voice released")
)

// Sink is where voices are mixed. The speaker is the production sink; the
// lock guards every field the audio callback reads.
type Sink interface {
	Play(s ...beep.Streamer)
	Lock()
	Unlock()
}

type speakerSink struct{}

func (speakerSink) Play(s ...beep.Streamer) { speaker.Play(s...) }
func (speakerSink) Lock()                   { speaker.Lock() }
func (speakerSink) Unlock()                 { speaker.Unlock() }

// discardSink accepts voices and never pulls samples from them.
type discardSink struct{ mu sync.Mutex }

func (*discardSink) Play(...beep.Streamer) {}
func (d *discardSink) Lock()               { d.mu.Lock() }
func (d *discardSink) Unlock()             { d.mu.Unlock() }

// Engine decodes assets from a directory into in-memory voices.
type Engine struct {
	dir     string
	rate    beep.SampleRate
	sink    Sink
	log     *zap.Logger
	speaker bool
}

// NewSpeaker initializes the system speaker and returns an engine playing on it.
func NewSpeaker(dir string, rate int, buffer time.Duration, log *zap.Logger) (*Engine, error) {
	sr := beep.SampleRate(rate)
	if err := speaker.Init(sr, sr.N(buffer)); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	e := New(dir, sr, speakerSink{}, log)
	e.speaker = true
	return e, nil
}

// NewDiscard returns an engine for hosts without an audio device. Assets are
// still decoded so load failures surface the same way.
func NewDiscard(dir string, rate int, log *zap.Logger) *Engine {
	return New(dir, beep.SampleRate(rate), &discardSink{}, log)
}

// New returns an engine mixing into sink at the given rate.
func New(dir string, rate beep.SampleRate, sink Sink, log *zap.Logger) *Engine {
	return &Engine{
		dir:  dir,
		rate: rate,
		sink: sink,
		log:  logger.OrNop(log).Named("engine"),
	}
}

func (e *Engine) Sink() Sink            { return e.sink }
func (e *Engine) Rate() beep.SampleRate { return e.rate }

// Load decodes ref (relative to the asset directory unless absolute),
// resamples it to the engine rate and buffers it for looping.
func (e *Engine) Load(ref string) (mixer.Voice, error) {
	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.dir, ref)
	}

	s, format, err := Decode(path)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	var src beep.Streamer = s
	if format.SampleRate != e.rate {
		src = beep.Resample(4, format.SampleRate, e.rate, s)
	}

	buf := beep.NewBuffer(beep.Format{SampleRate: e.rate, NumChannels: 2, Precision: 2})
	buf.Append(src)
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("decode %s: %w", ref, err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("%s: %w", ref, ErrEmptyAsset)
	}

	e.log.Debug("asset buffered",
		zap.String("ref", ref),
		zap.Duration("length", e.rate.D(buf.Len())),
		zap.Int("source_rate", int(format.SampleRate)),
	)
	return &voice{sink: e.sink, buf: buf}, nil
}

// Close shuts the speaker down if this engine opened it.
func (e *Engine) Close() {
	if e.speaker {
		speaker.Clear()
		speaker.Close()
	}
}
