package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"restara/internal/catalog"
	"restara/internal/mixer"
	"restara/internal/timer"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeMixer struct {
	mu      sync.Mutex
	ids     []string
	volumes map[string]float64
	sets    int
	master  float64
	on      bool
	calls   []string
	sink    func(mixer.State)
}

func newFakeMixer(ids ...string) *fakeMixer {
	return &fakeMixer{ids: ids, volumes: make(map[string]float64), master: 1}
}

func (m *fakeMixer) record(call string, fn func()) {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	if fn != nil {
		fn()
	}
	sink := m.sink
	m.mu.Unlock()
	if sink != nil {
		sink(m.Snapshot())
	}
}

func (m *fakeMixer) SetVolume(id string, v float64) {
	m.record("volume "+id, func() { m.volumes[id] = v; m.sets++ })
}
func (m *fakeMixer) PlayTrack(id string) { m.record("play "+id, nil) }
func (m *fakeMixer) StopTrack(id string) { m.record("stop "+id, nil) }
func (m *fakeMixer) ResetMixer()         { m.record("reset", func() { m.volumes = map[string]float64{} }) }
func (m *fakeMixer) SetMasterVolume(v float64) {
	m.record("master", func() { m.master = v })
}

func (m *fakeMixer) TogglePlayAll() bool {
	var on bool
	m.record("toggle", func() { m.on = !m.on; on = m.on })
	return on
}

func (m *fakeMixer) IconFor(id string) string { return strings.ToLower(id) + ".png" }

func (m *fakeMixer) Snapshot() mixer.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := mixer.State{AnyPlaying: m.on, Master: m.master}
	for _, id := range m.ids {
		st.Tracks = append(st.Tracks, mixer.TrackState{ID: id, Volume: m.volumes[id]})
	}
	return st
}

func (m *fakeMixer) SetEventSink(fn func(mixer.State)) {
	m.mu.Lock()
	m.sink = fn
	m.mu.Unlock()
}

func (m *fakeMixer) volume(id string) (float64, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volumes[id], m.sets
}

func (m *fakeMixer) lastCall() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return ""
	}
	return m.calls[len(m.calls)-1]
}

type fixture struct {
	srv   *Server
	mixer *fakeMixer
	timer *timer.Controller
}

func newFixture(t *testing.T, debounce time.Duration) *fixture {
	t.Helper()
	return newLoggedFixture(t, debounce, nil)
}

func newLoggedFixture(t *testing.T, debounce time.Duration, log *zap.Logger) *fixture {
	t.Helper()
	cat, err := catalog.New([]catalog.TrackDescriptor{
		{ID: "A", AudioRef: "a.wav"},
		{ID: "B", AudioRef: "b.wav"},
		{ID: "C", AudioRef: "c.wav"},
	})
	if err != nil {
		t.Fatal(err)
	}
	m := newFakeMixer("A", "B", "C")
	tm := timer.New(timer.Options{Interval: time.Hour})
	srv := New(Options{Catalog: cat, Mixer: m, Timer: tm, Debounce: debounce, Log: log})
	t.Cleanup(func() {
		srv.Close()
		tm.Close()
	})
	return &fixture{srv: srv, mixer: m, timer: tm}
}

type client struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func (f *fixture) dial(t *testing.T) *client {
	t.Helper()
	a, b := net.Pipe()
	go f.srv.ServeConn(a)
	t.Cleanup(func() { b.Close() })
	return &client{t: t, conn: b, r: bufio.NewReader(b)}
}

func (c *client) line() string {
	c.t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	s, err := c.r.ReadString('\n')
	if err != nil {
		c.t.Fatalf("read: %v", err)
	}
	return strings.TrimSuffix(s, "\n")
}

// do sends one command and returns its reply plus any events pushed first.
func (c *client) do(cmd string) (string, []Event) {
	c.t.Helper()
	c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if _, err := fmt.Fprintf(c.conn, "%s\n", cmd); err != nil {
		c.t.Fatalf("write %q: %v", cmd, err)
	}
	var events []Event
	for {
		l := c.line()
		if !strings.HasPrefix(l, "EVENT ") {
			return l, events
		}
		var ev Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(l, "EVENT ")), &ev); err != nil {
			c.t.Fatalf("bad event %q: %v", l, err)
		}
		events = append(events, ev)
	}
}

func (c *client) reply(cmd string) string {
	c.t.Helper()
	r, _ := c.do(cmd)
	return r
}

func (c *client) status() Event {
	c.t.Helper()
	var ev Event
	if err := json.Unmarshal([]byte(c.reply("STATUS")), &ev); err != nil {
		c.t.Fatal(err)
	}
	return ev
}

func TestReadOnlyCommands(t *testing.T) {
	f := newFixture(t, 0)
	c := f.dial(t)

	cases := []struct{ cmd, want string }{
		{"ABOUT", "Restara V.1.0"},
		{"ping", "Pong"},
		{"WHOAMI", "OBSERVER"},
		{"PRESETS", "[30,60,90,120]"},
		{"ICON A", "a.png"},
		{"ICON Z", "ERR TRACK"},
		{"ICON", "ERR ARG"},
		{"DANCE", "ERR UNKNOWN"},
		{"WHOAMI", "OBSERVER"},
	}
	for _, tc := range cases {
		if got := c.reply(tc.cmd); got != tc.want {
			t.Errorf("%s = %q, want %q", tc.cmd, got, tc.want)
		}
	}

	var tracks []catalog.TrackDescriptor
	if err := json.Unmarshal([]byte(c.reply("LIST")), &tracks); err != nil {
		t.Fatal(err)
	}
	if len(tracks) != 3 || tracks[0].ID != "A" {
		t.Fatalf("LIST = %+v", tracks)
	}

	st := c.status()
	if len(st.Mixer.Tracks) != 3 || st.Timer.Phase != timer.Idle {
		t.Fatalf("STATUS = %+v", st)
	}
}

func TestVolumeProfiles(t *testing.T) {
	f := newFixture(t, 0)
	c := f.dial(t)

	cases := []struct {
		cmd  string
		id   string
		want float64
	}{
		{"VOLUME A 50", "A", 0.5},
		{"VOLUME B 0.25 unit", "B", 0.25},
		{"VOLUME C 5 COARSE", "C", 0.5},
		{"VOLUME A 150", "A", 1},
		{"VOLUME A -3", "A", 0},
	}
	for _, tc := range cases {
		if got := c.reply(tc.cmd); got != "OK" {
			t.Fatalf("%s = %q", tc.cmd, got)
		}
		if v, _ := f.mixer.volume(tc.id); v != tc.want {
			t.Errorf("%s: volume = %v, want %v", tc.cmd, v, tc.want)
		}
	}

	for cmd, want := range map[string]string{
		"VOLUME A":          "ERR ARG",
		"VOLUME A loud":     "ERR ARG",
		"VOLUME A 1 bogus":  "ERR ARG",
		"VOLUME A 1 unit x": "ERR ARG",
		"VOLUME Z 10":       "ERR TRACK",
	} {
		if got := c.reply(cmd); got != want {
			t.Errorf("%s = %q, want %q", cmd, got, want)
		}
	}
}

func TestMixerCommands(t *testing.T) {
	f := newFixture(t, 0)
	c := f.dial(t)

	steps := []struct{ cmd, want, call string }{
		{"PLAY A", "OK", "play A"},
		{"STOP A", "OK", "stop A"},
		{"TOGGLE", "PLAYING", "toggle"},
		{"TOGGLE", "PAUSED", "toggle"},
		{"RESET", "OK", "reset"},
		{"MASTER 25", "OK", "master"},
	}
	for _, s := range steps {
		if got := c.reply(s.cmd); got != s.want {
			t.Fatalf("%s = %q, want %q", s.cmd, got, s.want)
		}
		if got := f.mixer.lastCall(); got != s.call {
			t.Fatalf("%s called %q, want %q", s.cmd, got, s.call)
		}
	}
	if st := c.status(); st.Mixer.Master != 0.25 {
		t.Fatalf("master = %v", st.Mixer.Master)
	}

	for cmd, want := range map[string]string{
		"PLAY":          "ERR ARG",
		"PLAY Z":        "ERR TRACK",
		"STOP Z":        "ERR TRACK",
		"MASTER":        "ERR ARG",
		"MASTER x":      "ERR ARG",
		"MASTER 1 nope": "ERR ARG",
	} {
		if got := c.reply(cmd); got != want {
			t.Errorf("%s = %q, want %q", cmd, got, want)
		}
	}
}

func TestTimerCommands(t *testing.T) {
	f := newFixture(t, 0)
	c := f.dial(t)

	if got := c.reply("TIMER START 30"); got != "OK" {
		t.Fatalf("start = %q", got)
	}
	st := c.status()
	if st.Timer.Remaining != 1800 || !st.Timer.Running || st.Timer.Clock != "00:30:00" {
		t.Fatalf("after start: %+v", st.Timer)
	}

	if got := c.reply("timer pause"); got != "OK" {
		t.Fatalf("pause = %q", got)
	}
	if st := c.status(); st.Timer.Running || st.Timer.Phase != timer.Paused {
		t.Fatalf("after pause: %+v", st.Timer)
	}

	for _, cmd := range []string{"TIMER", "TIMER START", "TIMER START x", "TIMER START 0", "TIMER START 5 6", "TIMER SNOOZE"} {
		if got := c.reply(cmd); got != "ERR ARG" {
			t.Errorf("%s = %q, want ERR ARG", cmd, got)
		}
	}

	if got := c.reply("TIMER RESET"); got != "OK" {
		t.Fatalf("reset = %q", got)
	}
	if st := c.status(); st.Timer.Remaining != 0 || st.Timer.Phase != timer.Idle {
		t.Fatalf("after reset: %+v", st.Timer)
	}
}

func TestOwnerReceivesEvents(t *testing.T) {
	f := newFixture(t, 0)
	owner := f.dial(t)
	observer := f.dial(t)

	reply, events := owner.do("VOLUME B 40")
	if reply != "OK" {
		t.Fatalf("reply = %q", reply)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if v := events[0].Mixer.Tracks[1].Volume; v != 0.4 {
		t.Fatalf("event volume = %v, want 0.4", v)
	}

	_, events = owner.do("TIMER START 1")
	if len(events) != 1 || events[0].Timer.Remaining != 60 {
		t.Fatalf("timer events = %+v", events)
	}

	// observers get replies only
	if _, events := observer.do("STATUS"); len(events) != 0 {
		t.Fatalf("observer got %d events", len(events))
	}
	if got := owner.reply("WHOAMI"); got != "OWNER" {
		t.Fatalf("owner WHOAMI = %q", got)
	}
}

func TestControlLockedUntilOwnerLeaves(t *testing.T) {
	f := newFixture(t, 0)
	owner := f.dial(t)
	other := f.dial(t)

	if got := owner.reply("PLAY A"); got != "OK" {
		t.Fatalf("owner PLAY = %q", got)
	}
	if got := other.reply("PLAY A"); got != "ERR CONTROL_LOCKED" {
		t.Fatalf("other PLAY = %q", got)
	}
	if got := other.reply("STATUS"); !strings.HasPrefix(got, "{") {
		t.Fatalf("observer STATUS = %q", got)
	}

	owner.conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for other.reply("RESET") != "OK" {
		if time.Now().After(deadline) {
			t.Fatal("control was not released")
		}
		time.Sleep(time.Millisecond)
	}
	if got := other.reply("WHOAMI"); got != "OWNER" {
		t.Fatalf("WHOAMI = %q", got)
	}
}

func TestVolumeIsDebounced(t *testing.T) {
	f := newFixture(t, 30*time.Millisecond)
	c := f.dial(t)

	for _, raw := range []string{"10", "20", "90"} {
		if got := c.reply("VOLUME A " + raw); got != "OK" {
			t.Fatalf("VOLUME = %q", got)
		}
	}
	if _, n := f.mixer.volume("A"); n != 0 {
		t.Fatalf("volume applied %d times before the quiet window", n)
	}

	// the settled value is pushed to the owner
	ev := func() Event {
		l := c.line()
		var ev Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(l, "EVENT ")), &ev); err != nil {
			t.Fatalf("bad event %q: %v", l, err)
		}
		return ev
	}()
	if v := ev.Mixer.Tracks[0].Volume; v != 0.9 {
		t.Fatalf("event volume = %v, want 0.9", v)
	}
	if v, n := f.mixer.volume("A"); v != 0.9 || n != 1 {
		t.Fatalf("volume = %v after %d sets, want 0.9 after 1", v, n)
	}
}

func TestCloseFlushesPendingVolume(t *testing.T) {
	f := newFixture(t, time.Hour)
	c := f.dial(t)

	if got := c.reply("VOLUME C 70"); got != "OK" {
		t.Fatalf("VOLUME = %q", got)
	}
	f.srv.Close()

	if v, n := f.mixer.volume("C"); v != 0.7 || n != 1 {
		t.Fatalf("volume = %v after %d sets, want 0.7 after 1", v, n)
	}
	c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := c.r.ReadString('\n'); err == nil {
		t.Fatal("connection still open after Close")
	}
}

func TestResetDropsPendingVolume(t *testing.T) {
	f := newFixture(t, 50*time.Millisecond)
	c := f.dial(t)

	if got := c.reply("VOLUME A 80"); got != "OK" {
		t.Fatalf("VOLUME = %q", got)
	}
	if got := c.reply("RESET"); got != "OK" {
		t.Fatalf("RESET = %q", got)
	}
	time.Sleep(200 * time.Millisecond)

	if v, n := f.mixer.volume("A"); v != 0 || n != 0 {
		t.Fatalf("volume A = %v after %d sets, want 0 after 0", v, n)
	}
	if got := f.mixer.lastCall(); got != "reset" {
		t.Fatalf("last call = %q, want reset", got)
	}
}

func TestServerResetMixerDropsPendingVolume(t *testing.T) {
	f := newFixture(t, 50*time.Millisecond)
	c := f.dial(t)

	if got := c.reply("VOLUME B 40"); got != "OK" {
		t.Fatalf("VOLUME = %q", got)
	}
	// the timer's completion path
	f.srv.ResetMixer()
	time.Sleep(200 * time.Millisecond)

	if v, n := f.mixer.volume("B"); v != 0 || n != 0 {
		t.Fatalf("volume B = %v after %d sets, want 0 after 0", v, n)
	}
	if n := f.srv.debounce.Pending(); n != 0 {
		t.Fatalf("%d volume changes still pending", n)
	}
}

func TestListenAndServe(t *testing.T) {
	f := newFixture(t, 0)
	path := filepath.Join(t.TempDir(), "r.sock")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.srv.ListenAndServe(ctx, path) }()

	var nc net.Conn
	deadline := time.Now().Add(2 * time.Second)
	for {
		var err error
		if nc, err = net.Dial("unix", path); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("dial: %v", err)
		}
		time.Sleep(time.Millisecond)
	}
	defer nc.Close()

	fmt.Fprintln(nc, "PING")
	nc.SetReadDeadline(time.Now().Add(2 * time.Second))
	got, err := bufio.NewReader(nc).ReadString('\n')
	if err != nil || got != "Pong\n" {
		t.Fatalf("PING = %q, %v", got, err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("ListenAndServe = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestReleaseHandsOverControl(t *testing.T) {
	f := newFixture(t, 0)
	first := f.dial(t)
	second := f.dial(t)

	if got := first.reply("RESET"); got != "OK" {
		t.Fatalf("RESET = %q", got)
	}
	if got := second.reply("RESET"); got != "ERR CONTROL_LOCKED" {
		t.Fatalf("second RESET = %q", got)
	}
	if got := first.reply("RELEASE"); got != "OK" {
		t.Fatalf("RELEASE = %q", got)
	}
	if got := first.reply("WHOAMI"); got != "OBSERVER" {
		t.Fatalf("WHOAMI after RELEASE = %q", got)
	}
	if got := second.reply("RESET"); got != "OK" {
		t.Fatalf("second RESET after release = %q", got)
	}
	// releasing without owning is harmless
	if got := first.reply("RELEASE"); got != "OK" {
		t.Fatalf("observer RELEASE = %q", got)
	}
	if got := second.reply("WHOAMI"); got != "OWNER" {
		t.Fatalf("second WHOAMI = %q", got)
	}
}

func TestControlLogsNameTheClient(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	f := newLoggedFixture(t, 0, zap.New(core))
	c := f.dial(t)

	if got := c.reply("TOGGLE"); got != "PLAYING" {
		t.Fatalf("TOGGLE = %q", got)
	}
	if got := c.reply("RELEASE"); got != "OK" {
		t.Fatalf("RELEASE = %q", got)
	}

	claimed := logs.FilterMessage("control claimed").All()
	released := logs.FilterMessage("control released").All()
	if len(claimed) != 1 || len(released) != 1 {
		t.Fatalf("claimed %d, released %d", len(claimed), len(released))
	}
	id, _ := claimed[0].ContextMap()["client"].(string)
	if len(id) != 36 {
		t.Fatalf("client id = %q", id)
	}
	if released[0].ContextMap()["client"] != id {
		t.Fatal("release names a different client")
	}
}
