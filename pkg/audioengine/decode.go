package audioengine

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"
	"github.com/hraban/opus"
)

// Decode opens an asset by extension: .wav, .mp3 or .opus (Ogg Opus).
func Decode(path string) (beep.StreamCloser, beep.Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".wav", ".mp3", ".opus":
	default:
		return nil, beep.Format{}, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}

	var (
		s      beep.StreamCloser
		format beep.Format
	)
	switch ext {
	case ".wav":
		s, format, err = wav.Decode(f)
	case ".mp3":
		s, format, err = mp3.Decode(f)
	case ".opus":
		s, format, err = decodeOpus(f)
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return s, format, nil
}

// opusStreamer adapts an Ogg Opus stream to beep. Opus always decodes at
// 48kHz; assets are expected to be stereo.
type opusStreamer struct {
	file    io.Closer
	stream  *opus.Stream
	pcm     []int16
	pending [][2]float64
	err     error
}

func decodeOpus(f *os.File) (beep.StreamCloser, beep.Format, error) {
	s, err := opus.NewStream(f)
	if err != nil {
		return nil, beep.Format{}, err
	}
	format := beep.Format{SampleRate: 48000, NumChannels: 2, Precision: 2}
	return &opusStreamer{file: f, stream: s, pcm: make([]int16, 5760*2)}, format, nil
}

func (o *opusStreamer) Stream(samples [][2]float64) (int, bool) {
	filled := 0
	for filled < len(samples) {
		if len(o.pending) == 0 {
			n, err := o.stream.Read(o.pcm)
			if err != nil {
				if err != io.EOF {
					o.err = err
				}
				return filled, filled > 0
			}
			for i := 0; i < n; i++ {
				o.pending = append(o.pending, [2]float64{
					float64(o.pcm[i*2]) / 32768.0,
					float64(o.pcm[i*2+1]) / 32768.0,
				})
			}
			if n == 0 {
				continue
			}
		}

		n := copy(samples[filled:], o.pending)
		o.pending = o.pending[n:]
		filled += n
	}
	return filled, true
}

func (o *opusStreamer) Err() error { return o.err }

// Close releases the decoder; the stream may already have closed the file.
func (o *opusStreamer) Close() error {
	err := o.stream.Close()
	o.file.Close()
	return err
}
