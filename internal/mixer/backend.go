package mixer

// Voice is the audio engine's handle for one loaded track. Implementations
// must tolerate calls from any goroutine.
type Voice interface {
	SetVolume(v float64)
	SetLoop(infinite bool)
	// Play starts playback and reports whether it succeeded. It may block
	// until the engine confirms; the controller calls it off its lock.
	Play() error
	Stop()
	Release()
}

// Backend prepares voices from catalog audio references.
type Backend interface {
	Load(ref string) (Voice, error)
}
