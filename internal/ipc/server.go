/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the Restara project.
 * This code is provided "as is", without warranty of any kind.
 */

// Package ipc serves the mixer and timer over a line-based unix socket.
package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"restara/internal/catalog"
	"restara/internal/logger"
	"restara/internal/mixer"
	"restara/internal/slider"
	"restara/internal/timer"
	"restara/pkg/spec"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const writeTimeout = 2 * time.Second

// Mixer is the part of the mixer controller the server drives.
type Mixer interface {
	SetVolume(id string, volume float64)
	PlayTrack(id string)
	StopTrack(id string)
	TogglePlayAll() bool
	ResetMixer()
	SetMasterVolume(v float64)
	IconFor(id string) string
	Snapshot() mixer.State
	SetEventSink(fn func(mixer.State))
}

// Timer is the part of the countdown controller the server drives.
type Timer interface {
	Start(minutes int) bool
	PauseResume()
	Reset()
	State() timer.State
	SetEventSink(fn func(timer.State))
}

// Event is the payload of STATUS and of every EVENT line.
type Event struct {
	Mixer mixer.State `json:"mixer"`
	Timer timer.State `json:"timer"`
}

type Options struct {
	Catalog  *catalog.Catalog
	Mixer    Mixer
	Timer    Timer
	Debounce time.Duration // quiet window for VOLUME, 0 applies immediately
	Log      *zap.Logger
}

// Server accepts any number of observers; the first connection to send a
// control command owns the mixer until it disconnects.
type Server struct {
	cat      *catalog.Catalog
	mixer    Mixer
	timer    Timer
	debounce *slider.Debouncer
	log      *zap.Logger

	controlMu sync.Mutex
	owner     *conn

	mu     sync.Mutex
	ln     net.Listener
	conns  map[*conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

// conn serializes writes from the handler and from event pushes.
type conn struct {
	net.Conn
	id  string
	wmu sync.Mutex
}

func (c *conn) writeLine(s string) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	c.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, err := c.Write([]byte(s + "\n"))
	return err
}

func New(opts Options) *Server {
	s := &Server{
		cat:      opts.Catalog,
		mixer:    opts.Mixer,
		timer:    opts.Timer,
		debounce: slider.NewDebouncer(opts.Debounce),
		log:      logger.OrNop(opts.Log).Named("ipc"),
		conns:    make(map[*conn]struct{}),
	}
	s.mixer.SetEventSink(func(mixer.State) { s.push() })
	s.timer.SetEventSink(func(timer.State) { s.push() })
	return s
}

// ListenAndServe binds the unix socket at path, replacing a stale one, and
// serves until ctx is done or Close is called.
func (s *Server) ListenAndServe(ctx context.Context, path string) error {
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return fmt.Errorf("listen %s: %w", path, err)
	}
	s.log.Info("listening", zap.String("socket", path))

	go func() {
		<-ctx.Done()
		s.Close()
	}()
	return s.Serve(ln)
}

func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ln.Close()
		return nil
	}
	s.ln = ln
	s.mu.Unlock()

	for {
		c, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Warn("accept", zap.Error(err))
			continue
		}
		go s.ServeConn(c)
	}
}

// ServeConn handles one client until it disconnects.
func (s *Server) ServeConn(nc net.Conn) {
	c := &conn{Conn: nc, id: uuid.NewString()}
	log := s.log.With(zap.String("client", c.id))

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		nc.Close()
		return
	}
	s.conns[c] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()

	log.Debug("client connected")
	defer func() {
		s.releaseOwner(c)
		nc.Close()
		s.mu.Lock()
		delete(s.conns, c)
		s.mu.Unlock()
		s.wg.Done()
		log.Debug("client disconnected")
	}()

	sc := bufio.NewScanner(nc)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if err := c.writeLine(s.handle(c, line)); err != nil {
			log.Debug("reply failed", zap.Error(err))
			return
		}
	}
}

// Close stops accepting, disconnects every client and applies pending
// volume changes.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.ln != nil {
		s.ln.Close()
	}
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.debounce.Flush()
	s.debounce.Stop()
}

// ResetMixer drops pending VOLUME changes and then resets the mixer, so a
// debounced slider move never revives a track after the reset.
func (s *Server) ResetMixer() {
	s.debounce.Stop()
	s.mixer.ResetMixer()
}

func (s *Server) isOwner(c *conn) bool {
	s.controlMu.Lock()
	defer s.controlMu.Unlock()
	return s.owner == c
}

func (s *Server) claimOwner(c *conn) bool {
	s.controlMu.Lock()
	defer s.controlMu.Unlock()
	if s.owner == nil {
		s.owner = c
		s.log.Info("control claimed", zap.String("client", c.id))
		return true
	}
	return s.owner == c
}

// releaseOwner gives up control. The mix keeps playing.
func (s *Server) releaseOwner(c *conn) {
	s.controlMu.Lock()
	defer s.controlMu.Unlock()
	if s.owner == c {
		s.owner = nil
		s.log.Info("control released", zap.String("client", c.id))
	}
}

func (s *Server) event() Event {
	return Event{Mixer: s.mixer.Snapshot(), Timer: s.timer.State()}
}

// push sends the current state to the owner, dropping control if the
// owner can no longer be written to.
func (s *Server) push() {
	s.controlMu.Lock()
	owner := s.owner
	s.controlMu.Unlock()
	if owner == nil {
		return
	}

	j, err := json.Marshal(s.event())
	if err != nil {
		s.log.Error("encode event", zap.Error(err))
		return
	}
	if err := owner.writeLine(spec.EventPfx + string(j)); err != nil {
		s.log.Warn("event push failed", zap.Error(err))
		s.releaseOwner(owner)
	}
}
