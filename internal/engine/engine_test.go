package engine

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/verte-zerg/crongame/internal/model"
	"github.com/verte-zerg/crongame/internal/platform"
	"github.com/verte-zerg/crongame/internal/store"
)

type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) HandleEvent(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *collector) count(t EventType) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, ev := range c.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

func (c *collector) last(t EventType) (Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.events) - 1; i >= 0; i-- {
		if c.events[i].Type == t {
			return c.events[i], true
		}
	}
	return Event{}, false
}

func (c *collector) types() []EventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]EventType, len(c.events))
	for i, ev := range c.events {
		out[i] = ev.Type
	}
	return out
}

func (c *collector) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}

func threePlayers(duration int, mode model.Mode) model.SessionConfig {
	return model.SessionConfig{
		Players: []model.Player{
			{Name: "Ana", Color: "#ff0000"},
			{Name: "Bo", Color: "#00ff00"},
			{Name: "Cy", Color: "#0000ff"},
		},
		Settings: model.RoundSettings{DurationSeconds: duration, Mode: mode},
	}
}

// newManual returns an engine whose tick source never fires; tests drive
// the clock through Tick.
func newManual(t *testing.T, opts ...Option) (*Engine, *collector, *platform.Recorder) {
	t.Helper()
	events := &collector{}
	rec := &platform.Recorder{}
	base := []Option{
		WithClock(clockwork.NewFakeClock()),
		WithListener(events),
		WithAffordances(rec),
	}
	e := New(append(base, opts...)...)
	t.Cleanup(e.EndSession)
	return e, events, rec
}

func tickN(t *testing.T, e *Engine, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := e.Tick(); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
}

func TestStartSessionRejectsEmptyRoster(t *testing.T) {
	e, events, rec := newManual(t)
	cfg := model.SessionConfig{Settings: model.RoundSettings{DurationSeconds: 30, Mode: model.CountDown}}
	err := e.StartSession(context.Background(), cfg)
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := e.Snapshot().State; got != StateIdle {
		t.Fatalf("expected idle, got %s", got)
	}
	if len(events.types()) != 0 || len(rec.Calls()) != 0 {
		t.Fatalf("expected no side effects, got %v %v", events.types(), rec.Calls())
	}
}

func TestCommandsRequireSession(t *testing.T) {
	e, _, _ := newManual(t)
	checks := map[string]error{
		"restart": e.RestartTurn(),
		"next":    e.NextPlayer(),
		"tick":    e.Tick(),
	}
	_, err := e.TogglePause()
	checks["pause"] = err
	for name, err := range checks {
		if !errors.Is(err, ErrNoSession) {
			t.Fatalf("%s: expected ErrNoSession, got %v", name, err)
		}
		var perr *PreconditionError
		if !errors.As(err, &perr) {
			t.Fatalf("%s: expected PreconditionError, got %T", name, err)
		}
	}
	if _, ok := e.Config(); ok {
		t.Fatalf("expected no config while idle")
	}
}

func TestStartSessionEmitsInitialState(t *testing.T) {
	e, events, rec := newManual(t)
	if err := e.StartSession(context.Background(), threePlayers(30, model.CountDown)); err != nil {
		t.Fatalf("start: %v", err)
	}
	want := []EventType{EventSessionStarted, EventActivePlayerChanged, EventClockUpdated}
	got := events.types()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	snap := e.Snapshot()
	if snap.State != StateRunning || snap.ActiveIndex != 0 || snap.Value != 30 || snap.Player.Name != "Ana" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if rec.Count("acquire") != 1 {
		t.Fatalf("expected wake lock, got %v", rec.Calls())
	}
	ev, _ := events.last(EventClockUpdated)
	clock := ev.Payload.(ClockPayload)
	if clock.Progress != 1 || clock.EndingSoon {
		t.Fatalf("unexpected clock payload: %+v", clock)
	}
}

func TestCountDownRound(t *testing.T) {
	e, events, rec := newManual(t)
	if err := e.StartSession(context.Background(), threePlayers(30, model.CountDown)); err != nil {
		t.Fatalf("start: %v", err)
	}

	tickN(t, e, 19)
	if events.count(EventNearEnd) != 0 {
		t.Fatalf("near-end fired early")
	}
	ev, _ := events.last(EventClockUpdated)
	if ev.Payload.(ClockPayload).EndingSoon {
		t.Fatalf("expected not ending soon at 11s")
	}

	events.reset()
	tickN(t, e, 1)
	got := events.types()
	if len(got) != 2 || got[0] != EventNearEnd || got[1] != EventClockUpdated {
		t.Fatalf("expected near-end before clock update, got %v", got)
	}
	ev, _ = events.last(EventClockUpdated)
	if clock := ev.Payload.(ClockPayload); clock.Value != 10 || !clock.EndingSoon {
		t.Fatalf("unexpected clock at 10s: %+v", clock)
	}
	if rec.Count("cue") != 1 {
		t.Fatalf("expected one cue, got %v", rec.Calls())
	}

	tickN(t, e, 10)
	if events.count(EventNearEnd) != 1 {
		t.Fatalf("expected near-end once per turn, got %d", events.count(EventNearEnd))
	}
	if events.count(EventTimeExhausted) != 1 {
		t.Fatalf("expected time exhausted")
	}
	snap := e.Snapshot()
	if snap.Value != 0 || snap.State != StateStopped || snap.Running || snap.ActiveIndex != 0 {
		t.Fatalf("unexpected snapshot after exhaustion: %+v", snap)
	}

	before := len(events.types())
	tickN(t, e, 3)
	if len(events.types()) != before || e.Snapshot().Value != 0 {
		t.Fatalf("expected ticks after exhaustion to be ignored")
	}

	if err := e.NextPlayer(); err != nil {
		t.Fatalf("next: %v", err)
	}
	snap = e.Snapshot()
	if snap.ActiveIndex != 1 || snap.Value != 30 || snap.State != StateRunning {
		t.Fatalf("unexpected snapshot after next: %+v", snap)
	}
	if rec.Count("vibrate") != 1 {
		t.Fatalf("expected one vibration, got %v", rec.Calls())
	}
}

func TestCountUpCapped(t *testing.T) {
	e, events, _ := newManual(t)
	if err := e.StartSession(context.Background(), threePlayers(5, model.CountUp)); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := e.Snapshot().Value; got != 0 {
		t.Fatalf("expected count-up to start at 0, got %d", got)
	}
	tickN(t, e, 7)
	snap := e.Snapshot()
	if snap.Value != 5 || snap.State != StateStopped {
		t.Fatalf("expected capped at 5 and stopped, got %+v", snap)
	}
	if events.count(EventNearEnd) != 0 {
		t.Fatalf("near-end must not fire when duration <= threshold")
	}
	if events.count(EventTimeExhausted) != 1 {
		t.Fatalf("expected time exhausted once")
	}
}

func TestCountUpNearEnd(t *testing.T) {
	e, events, _ := newManual(t)
	if err := e.StartSession(context.Background(), threePlayers(15, model.CountUp)); err != nil {
		t.Fatalf("start: %v", err)
	}
	tickN(t, e, 5)
	if events.count(EventNearEnd) != 1 {
		t.Fatalf("expected near-end at value 5 of 15")
	}
}

func TestCountUpUncapped(t *testing.T) {
	e, events, _ := newManual(t, WithPolicy(model.Policy{NearEndThreshold: 10, CapCountUp: false}))
	if err := e.StartSession(context.Background(), threePlayers(3, model.CountUp)); err != nil {
		t.Fatalf("start: %v", err)
	}
	tickN(t, e, 5)
	snap := e.Snapshot()
	if snap.Value != 5 || snap.State != StateRunning || snap.Remaining != -2 {
		t.Fatalf("expected uncapped count-up to keep running, got %+v", snap)
	}
	if events.count(EventTimeExhausted) != 0 {
		t.Fatalf("uncapped count-up must not exhaust")
	}
	ev, _ := events.last(EventClockUpdated)
	if p := ev.Payload.(ClockPayload).Progress; p != 1 {
		t.Fatalf("expected progress clamped to 1, got %v", p)
	}
}

func TestPauseIgnoresTicks(t *testing.T) {
	e, events, _ := newManual(t)
	if err := e.StartSession(context.Background(), threePlayers(30, model.CountDown)); err != nil {
		t.Fatalf("start: %v", err)
	}
	tickN(t, e, 2)
	paused, err := e.TogglePause()
	if err != nil || !paused {
		t.Fatalf("expected paused, got %v %v", paused, err)
	}
	tickN(t, e, 5)
	snap := e.Snapshot()
	if snap.Value != 28 || snap.State != StatePaused {
		t.Fatalf("expected frozen clock while paused, got %+v", snap)
	}
	paused, err = e.TogglePause()
	if err != nil || paused {
		t.Fatalf("expected resumed, got %v %v", paused, err)
	}
	tickN(t, e, 1)
	if got := e.Snapshot().Value; got != 27 {
		t.Fatalf("expected 27 after resume, got %d", got)
	}
	if events.count(EventPausedChanged) != 2 {
		t.Fatalf("expected two pause events, got %d", events.count(EventPausedChanged))
	}
}

func TestRestartTurnResetsClock(t *testing.T) {
	e, events, rec := newManual(t)
	if err := e.StartSession(context.Background(), threePlayers(30, model.CountDown)); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := e.NextPlayer(); err != nil {
		t.Fatalf("next: %v", err)
	}
	tickN(t, e, 22)
	if _, err := e.TogglePause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := e.RestartTurn(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	snap := e.Snapshot()
	if snap.Value != 30 || snap.Paused || snap.ActiveIndex != 1 {
		t.Fatalf("unexpected snapshot after restart: %+v", snap)
	}
	ev, _ := events.last(EventPausedChanged)
	if ev.Payload.(PausedPayload).Paused {
		t.Fatalf("expected restart to report resumed")
	}
	tickN(t, e, 20)
	if events.count(EventNearEnd) != 2 {
		t.Fatalf("expected near-end to re-arm after restart, got %d", events.count(EventNearEnd))
	}
	if rec.Count("stop-cue") < 3 {
		t.Fatalf("expected cue stopped on every new turn, got %v", rec.Calls())
	}
}

func TestNextPlayerWraps(t *testing.T) {
	e, events, _ := newManual(t)
	if err := e.StartSession(context.Background(), threePlayers(30, model.CountDown)); err != nil {
		t.Fatalf("start: %v", err)
	}
	want := []int{1, 2, 0, 1}
	for i, idx := range want {
		if err := e.NextPlayer(); err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		if got := e.Snapshot().ActiveIndex; got != idx {
			t.Fatalf("step %d: expected %d, got %d", i, idx, got)
		}
	}
	ev, _ := events.last(EventActivePlayerChanged)
	if p := ev.Payload.(ActivePlayerPayload); p.Index != 1 || p.Player.Name != "Bo" {
		t.Fatalf("unexpected active player payload: %+v", p)
	}
}

func TestNextPlayerSinglePlayer(t *testing.T) {
	e, _, _ := newManual(t)
	cfg := model.SessionConfig{
		Players:  []model.Player{{Name: "Solo"}},
		Settings: model.RoundSettings{DurationSeconds: 10, Mode: model.CountDown},
	}
	if err := e.StartSession(context.Background(), cfg); err != nil {
		t.Fatalf("start: %v", err)
	}
	tickN(t, e, 4)
	if err := e.NextPlayer(); err != nil {
		t.Fatalf("next: %v", err)
	}
	snap := e.Snapshot()
	if snap.ActiveIndex != 0 || snap.Value != 10 {
		t.Fatalf("expected fresh turn for the same player, got %+v", snap)
	}
}

func TestEndSessionIsIdempotent(t *testing.T) {
	e, events, rec := newManual(t)
	if err := e.StartSession(context.Background(), threePlayers(30, model.CountDown)); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.EndSession()
	e.EndSession()
	if events.count(EventSessionEnded) != 1 || rec.Count("release") != 1 {
		t.Fatalf("expected a single end, got %v %v", events.types(), rec.Calls())
	}
	if got := e.Snapshot().State; got != StateIdle {
		t.Fatalf("expected idle, got %s", got)
	}
	if err := e.Tick(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after end, got %v", err)
	}
}

func TestStartSessionReplacesRunningSession(t *testing.T) {
	e, events, _ := newManual(t)
	ctx := context.Background()
	if err := e.StartSession(ctx, threePlayers(30, model.CountDown)); err != nil {
		t.Fatalf("start: %v", err)
	}
	first := e.Snapshot().SessionID
	if err := e.StartSession(ctx, threePlayers(60, model.CountUp)); err != nil {
		t.Fatalf("restart session: %v", err)
	}
	snap := e.Snapshot()
	if snap.SessionID == first {
		t.Fatalf("expected a new session id")
	}
	if events.count(EventSessionEnded) != 1 || events.count(EventSessionStarted) != 2 {
		t.Fatalf("expected previous session ended, got %v", events.types())
	}
	cfg, ok := e.Config()
	if !ok || cfg.Settings.DurationSeconds != 60 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestAffordanceFailuresDoNotPropagate(t *testing.T) {
	events := &collector{}
	rec := &platform.Recorder{Err: errors.New("unsupported")}
	e := New(WithClock(clockwork.NewFakeClock()), WithListener(events), WithAffordances(rec))
	t.Cleanup(e.EndSession)
	if err := e.StartSession(context.Background(), threePlayers(12, model.CountDown)); err != nil {
		t.Fatalf("start: %v", err)
	}
	tickN(t, e, 2)
	if err := e.NextPlayer(); err != nil {
		t.Fatalf("next: %v", err)
	}
	if rec.Count("cue") != 1 || rec.Count("vibrate") != 1 {
		t.Fatalf("expected requests despite failures, got %v", rec.Calls())
	}
}

func TestStartSessionPersistsConfig(t *testing.T) {
	ctx := context.Background()
	st, err := store.OpenBolt(filepath.Join(t.TempDir(), "crongame.bolt"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	e, _, _ := newManual(t, WithSettings(st))
	if err := e.StartSession(ctx, threePlayers(45, model.CountUp)); err != nil {
		t.Fatalf("start: %v", err)
	}
	got, err := store.LoadConfig(ctx, st)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Players) != 3 || got.Settings.DurationSeconds != 45 || got.Settings.Mode != model.CountUp {
		t.Fatalf("unexpected stored config: %+v", got)
	}

	if err := e.StartSession(ctx, model.SessionConfig{}); err == nil {
		t.Fatalf("expected validation error")
	}
	got, err = store.LoadConfig(ctx, st)
	if err != nil || got.Settings.DurationSeconds != 45 {
		t.Fatalf("invalid config must not overwrite the stored one: %+v %v", got, err)
	}
}

type chanListener chan Event

func (c chanListener) HandleEvent(ev Event) {
	if ev.Type == EventClockUpdated {
		c <- ev
	}
}

func waitClock(t *testing.T, ch chanListener) ClockPayload {
	t.Helper()
	select {
	case ev := <-ch:
		return ev.Payload.(ClockPayload)
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for clock update")
	}
	return ClockPayload{}
}

func TestTickSourceDrivesClock(t *testing.T) {
	ctx := context.Background()
	fc := clockwork.NewFakeClock()
	ch := make(chanListener, 64)
	e := New(WithClock(fc), WithListener(ch))
	t.Cleanup(e.EndSession)

	if err := e.StartSession(ctx, threePlayers(30, model.CountDown)); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitClock(t, ch)
	if err := fc.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("block: %v", err)
	}
	for want := 29; want >= 27; want-- {
		fc.Advance(time.Second)
		if got := waitClock(t, ch).Value; got != want {
			t.Fatalf("expected %d, got %d", want, got)
		}
	}
}

func TestRestartLeavesOneTickSource(t *testing.T) {
	ctx := context.Background()
	fc := clockwork.NewFakeClock()
	ch := make(chanListener, 64)
	e := New(WithClock(fc), WithListener(ch))
	t.Cleanup(e.EndSession)

	if err := e.StartSession(ctx, threePlayers(30, model.CountDown)); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitClock(t, ch)
	for i := 0; i < 3; i++ {
		if err := e.RestartTurn(); err != nil {
			t.Fatalf("restart: %v", err)
		}
		waitClock(t, ch)
	}
	if err := fc.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("block: %v", err)
	}
	fc.Advance(time.Second)
	if got := waitClock(t, ch).Value; got != 29 {
		t.Fatalf("expected a single decrement, got %d", got)
	}
	select {
	case ev := <-ch:
		t.Fatalf("unexpected extra tick: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}
