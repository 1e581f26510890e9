package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"restara/internal/codec"
	"restara/internal/digest"
	"restara/pkg/audioengine"

	"github.com/go-audio/wav"
)

// Report is everything restara-meta knows about one asset.
type Report struct {
	Path        string               `json:"path"`
	Format      string               `json:"format"`
	Size        int64                `json:"size"`
	SampleRate  int                  `json:"sample_rate"`
	Channels    int                  `json:"channels"`
	BitDepth    int                  `json:"bit_depth,omitempty"`
	Duration    time.Duration        `json:"duration"`
	Analysis    audioengine.Analysis `json:"analysis"`
	FileDigest  string               `json:"file_digest"`
	AudioDigest string               `json:"audio_digest"`
	Waveform    []byte               `json:"waveform,omitempty"`
}

// wavHeader reads the header fields go-audio exposes for a WAV file.
func wavHeader(path string, r *Report) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return fmt.Errorf("%s: invalid wav header", path)
	}
	r.BitDepth = int(d.BitDepth)
	return nil
}

// probe decodes the asset fully. points > 0 also fills the waveform, and a
// non-empty spectrogram path receives a PNG.
func probe(path string, points int, spectrogram string) (Report, error) {
	r := Report{Path: path, Format: strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")}

	st, err := os.Stat(path)
	if err != nil {
		return r, err
	}
	r.Size = st.Size()

	if r.Format == "wav" {
		if err := wavHeader(path, &r); err != nil {
			return r, err
		}
	}

	s, format, err := audioengine.Decode(path)
	if err != nil {
		return r, err
	}
	defer s.Close()
	r.SampleRate = int(format.SampleRate)
	r.Channels = format.NumChannels

	mono := audioengine.ReadMono(s, 0)
	if err := s.Err(); err != nil {
		return r, fmt.Errorf("decode %s: %w", path, err)
	}
	r.Duration = format.SampleRate.D(len(mono))
	r.Analysis = audioengine.Analyze(mono, r.SampleRate)
	r.AudioDigest = digest.Samples(mono)

	if r.FileDigest, err = digest.File(path); err != nil {
		return r, err
	}
	if points > 0 {
		r.Waveform = audioengine.Waveform(mono, points)
	}
	if spectrogram != "" {
		img, err := codec.Spectrogram(mono, 800, 200)
		if err != nil {
			return r, err
		}
		if err := os.WriteFile(spectrogram, img, 0o644); err != nil {
			return r, err
		}
	}
	return r, nil
}

// formatSize renders a byte count the way humans read it.
func formatSize(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(b)/float64(div), "KMGT"[exp])
}
