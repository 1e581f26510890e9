package audioengine

import (
	"math"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
)

// voice is one buffered asset. All fields are guarded by the sink lock,
// which is also what the audio callback holds while streaming.
type voice struct {
	sink Sink
	buf  *beep.Buffer

	volume   float64
	loop     bool
	ctrl     *beep.Ctrl
	gain     *effects.Volume
	released bool
}

func (v *voice) SetVolume(x float64) {
	v.sink.Lock()
	v.volume = x
	if v.gain != nil {
		applyGain(v.gain, x)
	}
	v.sink.Unlock()
}

// SetLoop takes effect on the next Play.
func (v *voice) SetLoop(infinite bool) {
	v.sink.Lock()
	v.loop = infinite
	v.sink.Unlock()
}

func (v *voice) Play() error {
	v.sink.Lock()
	if v.released {
		v.sink.Unlock()
		return ErrReleased
	}
	if v.ctrl != nil {
		v.sink.Unlock()
		return nil
	}

	var s beep.Streamer
	if v.loop {
		s = beep.Loop(-1, v.buf.Streamer(0, v.buf.Len()))
	} else {
		s = v.buf.Streamer(0, v.buf.Len())
	}
	gain := &effects.Volume{Streamer: s, Base: 2}
	applyGain(gain, v.volume)
	ctrl := &beep.Ctrl{Streamer: gain}
	v.ctrl, v.gain = ctrl, gain
	v.sink.Unlock()

	// the speaker takes its own lock in Play
	v.sink.Play(ctrl)
	return nil
}

// Stop detaches the voice from the sink; a nil streamer makes the mixer drop it.
func (v *voice) Stop() {
	v.sink.Lock()
	if v.ctrl != nil {
		v.ctrl.Streamer = nil
		v.ctrl, v.gain = nil, nil
	}
	v.sink.Unlock()
}

func (v *voice) Release() {
	v.Stop()
	v.sink.Lock()
	v.released = true
	v.buf = nil
	v.sink.Unlock()
}

// applyGain maps a linear gain in [0,1] onto beep's base-2 exponent.
func applyGain(g *effects.Volume, x float64) {
	if x <= 0 {
		g.Silent = true
		g.Volume = 0
		return
	}
	g.Silent = false
	g.Volume = math.Log2(x)
}
