package spec

import "time"

const (
	// === IDENTITY & VERSIONING ===
	AppName      = "Restara"
	VersionMajor = 1
	VersionMinor = 0

	// === ENGINE SPECS ===
	SampleRate = 44100
	Channels   = 2
	BufferMS   = 100

	// === PRESENTATION BOUNDARY ===
	Debounce      = 100 * time.Millisecond
	TickInterval  = time.Second
	AlertDuration = time.Second

	// === SOCKET ===
	SocketFile = "/tmp/restara.sock"
	EventPfx   = "EVENT "
)

// TimerPresets are the countdown choices the client offers, in minutes.
var TimerPresets = []int{30, 60, 90, 120}
