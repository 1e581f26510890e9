package mixer

import (
	"errors"
	"sync"
	"testing"
	"time"

	"restara/internal/catalog"
)

type fakeVoice struct {
	mu       sync.Mutex
	volume   float64
	loop     bool
	plays    int
	stops    int
	releases int
	playErr  error
	gate     chan struct{} // Play blocks on it when set
}

func (v *fakeVoice) SetVolume(x float64) {
	v.mu.Lock()
	v.volume = x
	v.mu.Unlock()
}

func (v *fakeVoice) SetLoop(infinite bool) {
	v.mu.Lock()
	v.loop = infinite
	v.mu.Unlock()
}

func (v *fakeVoice) Play() error {
	v.mu.Lock()
	v.plays++
	gate, err := v.gate, v.playErr
	v.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return err
}

func (v *fakeVoice) Stop() {
	v.mu.Lock()
	v.stops++
	v.mu.Unlock()
}

func (v *fakeVoice) Release() {
	v.mu.Lock()
	v.releases++
	v.mu.Unlock()
}

func (v *fakeVoice) counts() (plays, stops, releases int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.plays, v.stops, v.releases
}

func (v *fakeVoice) state() (float64, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.volume, v.loop
}

type fakeBackend struct {
	mu      sync.Mutex
	voices  map[string]*fakeVoice
	failing map[string]bool
	gates   map[string]chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		voices:  make(map[string]*fakeVoice),
		failing: make(map[string]bool),
		gates:   make(map[string]chan struct{}),
	}
}

func (b *fakeBackend) Load(ref string) (Voice, error) {
	b.mu.Lock()
	gate := b.gates[ref]
	b.mu.Unlock()
	if gate != nil {
		<-gate
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failing[ref] {
		return nil, errors.New("decode failed")
	}
	v, ok := b.voices[ref]
	if !ok {
		v = &fakeVoice{}
		b.voices[ref] = v
	}
	return v, nil
}

// voice returns the fake for ref, creating it ahead of Load if needed.
func (b *fakeBackend) voice(ref string) *fakeVoice {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.voices[ref]
	if !ok {
		v = &fakeVoice{}
		b.voices[ref] = v
	}
	return v
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]catalog.TrackDescriptor{
		{ID: "A", AudioRef: "a.wav", IdleIcon: "a.png", ActiveIcon: "a.gif"},
		{ID: "B", AudioRef: "b.wav", IdleIcon: "b.png", ActiveIcon: "b.gif"},
		{ID: "C", AudioRef: "c.wav", IdleIcon: "c.png", ActiveIcon: "c.gif"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

// loadedController returns a controller whose tracks have all finished loading.
func loadedController(t *testing.T, b *fakeBackend) *Controller {
	t.Helper()
	c := New(testCatalog(t), b, nil)
	c.LoadAll()
	c.Settle()
	return c
}

func trackState(t *testing.T, st State, id string) TrackState {
	t.Helper()
	for _, ts := range st.Tracks {
		if ts.ID == id {
			return ts
		}
	}
	t.Fatalf("track %q not in snapshot", id)
	return TrackState{}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timeout waiting for condition")
		}
		time.Sleep(time.Millisecond)
	}
}
