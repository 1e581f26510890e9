package main

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeTone(t *testing.T, path string, hz float64, rate, frames int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	data := make([]int, 2*frames)
	for i := 0; i < frames; i++ {
		v := int(16000 * math.Sin(2*math.Pi*hz*float64(i)/float64(rate)))
		data[2*i], data[2*i+1] = v, v
	}
	enc := wav.NewEncoder(f, rate, 16, 2, 1)
	if err := enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProbeWAV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flute.wav")
	writeTone(t, path, 440, 22050, 22050)
	png := filepath.Join(dir, "flute.png")

	r, err := probe(path, 8, png)
	if err != nil {
		t.Fatal(err)
	}
	if r.Format != "wav" || r.SampleRate != 22050 || r.Channels != 2 || r.BitDepth != 16 {
		t.Fatalf("header = %+v", r)
	}
	if r.Duration != time.Second {
		t.Fatalf("duration = %v", r.Duration)
	}
	if math.Abs(r.Analysis.DominantHz-440) > 10 {
		t.Fatalf("pitch = %v", r.Analysis.DominantHz)
	}
	if len(r.FileDigest) != 64 || !strings.HasPrefix(r.AudioDigest, "RSTA-") {
		t.Fatalf("digests = %q %q", r.FileDigest, r.AudioDigest)
	}
	if len(r.Waveform) != 8 {
		t.Fatalf("waveform = %v", r.Waveform)
	}
	if st, err := os.Stat(png); err != nil || st.Size() == 0 {
		t.Fatalf("spectrogram not written: %v", err)
	}

	var out bytes.Buffer
	printReports(&out, []Report{r})
	if !strings.Contains(out.String(), "flute.wav") || !strings.Contains(out.String(), "440Hz") {
		t.Fatalf("report:\n%s", out.String())
	}
}

func TestProbeRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "junk.wav")
	if err := os.WriteFile(bad, []byte("RIFF but not really"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := probe(bad, 0, ""); err == nil {
		t.Fatal("junk wav probed without error")
	}
	if _, err := probe(filepath.Join(dir, "x.flac"), 0, ""); err == nil {
		t.Fatal("missing flac probed without error")
	}
}

func TestAssetsIn(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"b.mp3", "a.wav", "notes.txt", "c.OPUS"} {
		if err := os.WriteFile(filepath.Join(dir, n), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	got, err := assetsIn(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a.wav", "b.mp3", "c.OPUS"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if filepath.Base(got[i]) != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestFormatSize(t *testing.T) {
	cases := map[int64]string{
		512:         "512 B",
		2048:        "2.00 KB",
		5 << 20:     "5.00 MB",
		3 << 30 / 2: "1.50 GB",
	}
	for in, want := range cases {
		if got := formatSize(in); got != want {
			t.Errorf("formatSize(%d) = %q, want %q", in, got, want)
		}
	}
}
