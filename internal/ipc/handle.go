package ipc

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"restara/internal/slider"
	"restara/pkg/spec"

	"go.uber.org/zap"
)

const (
	replyOK      = "OK"
	errArg       = "ERR ARG"
	errUnknown   = "ERR UNKNOWN"
	errTrack     = "ERR TRACK"
	errLocked    = "ERR CONTROL_LOCKED"
	errInternal  = "ERR INTERNAL"
	replyPlaying = "PLAYING"
	replyPaused  = "PAUSED"
)

var controlVerbs = map[string]bool{
	"VOLUME": true,
	"MASTER": true,
	"PLAY":   true,
	"STOP":   true,
	"TOGGLE": true,
	"RESET":  true,
	"TIMER":  true,

	"SUBSCRIBE": true,
}

func jsonLine(v any) string {
	j, err := json.Marshal(v)
	if err != nil {
		return errInternal
	}
	return string(j)
}

func argFloat(args []string, idx int) (float64, bool) {
	if len(args) <= idx {
		return 0, false
	}
	v, err := strconv.ParseFloat(args[idx], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func argInt(args []string, idx int) (int, bool) {
	if len(args) <= idx {
		return 0, false
	}
	v, err := strconv.Atoi(args[idx])
	if err != nil {
		return 0, false
	}
	return v, true
}

// profileArg picks the slider profile named at idx, defaulting to percent.
func profileArg(args []string, idx int) (slider.Profile, bool) {
	name := ""
	if len(args) > idx {
		name = strings.ToLower(args[idx])
	}
	p, err := slider.Lookup(name)
	return p, err == nil
}

func (s *Server) knownTrack(id string) bool {
	_, ok := s.cat.Lookup(id)
	return ok
}

// handle runs one command line and returns the reply line.
func (s *Server) handle(c *conn, line string) string {
	fields := strings.Fields(line)
	cmd := strings.ToUpper(fields[0])
	args := fields[1:]

	switch cmd {
	case "ABOUT":
		return fmt.Sprintf("%s V.%d.%d", spec.AppName, spec.VersionMajor, spec.VersionMinor)

	case "PING":
		return "Pong"

	case "WHOAMI":
		if s.isOwner(c) {
			return "OWNER"
		}
		return "OBSERVER"

	case "STATUS":
		return jsonLine(s.event())

	case "LIST":
		return jsonLine(s.cat.Tracks())

	case "ICON":
		if len(args) != 1 {
			return errArg
		}
		if !s.knownTrack(args[0]) {
			return errTrack
		}
		return s.mixer.IconFor(args[0])

	case "PRESETS":
		return jsonLine(spec.TimerPresets)

	case "RELEASE":
		s.releaseOwner(c)
		return replyOK
	}

	if !controlVerbs[cmd] {
		return errUnknown
	}
	if !s.claimOwner(c) {
		return errLocked
	}
	s.log.Debug("control", zap.String("cmd", cmd), zap.Strings("args", args))

	switch cmd {
	case "VOLUME":
		if len(args) < 2 || len(args) > 3 {
			return errArg
		}
		id := args[0]
		raw, ok := argFloat(args, 1)
		if !ok {
			return errArg
		}
		p, ok := profileArg(args, 2)
		if !ok {
			return errArg
		}
		if !s.knownTrack(id) {
			return errTrack
		}
		v := p.Normalize(raw)
		s.debounce.Do(id, func() { s.mixer.SetVolume(id, v) })
		return replyOK

	case "MASTER":
		if len(args) < 1 || len(args) > 2 {
			return errArg
		}
		raw, ok := argFloat(args, 0)
		if !ok {
			return errArg
		}
		p, ok := profileArg(args, 1)
		if !ok {
			return errArg
		}
		s.mixer.SetMasterVolume(p.Normalize(raw))
		return replyOK

	case "PLAY", "STOP":
		if len(args) != 1 {
			return errArg
		}
		if !s.knownTrack(args[0]) {
			return errTrack
		}
		if cmd == "PLAY" {
			s.mixer.PlayTrack(args[0])
		} else {
			s.mixer.StopTrack(args[0])
		}
		return replyOK

	case "TOGGLE":
		if s.mixer.TogglePlayAll() {
			return replyPlaying
		}
		return replyPaused

	case "RESET":
		s.ResetMixer()
		return replyOK

	case "TIMER":
		return s.handleTimer(args)

	case "SUBSCRIBE":
		// claiming control is all it takes to receive events
		return replyOK
	}
	return errUnknown
}

func (s *Server) handleTimer(args []string) string {
	if len(args) == 0 {
		return errArg
	}
	switch strings.ToUpper(args[0]) {
	case "START":
		minutes, ok := argInt(args, 1)
		if !ok || len(args) != 2 {
			return errArg
		}
		if !s.timer.Start(minutes) {
			return errArg
		}
	case "PAUSE":
		s.timer.PauseResume()
	case "RESET":
		s.timer.Reset()
	default:
		return errArg
	}
	return replyOK
}
