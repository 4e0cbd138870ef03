package overlay

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/pong3d/internal/core/events/bus"
	"github.com/zeusync/pong3d/internal/engine"
	"github.com/zeusync/pong3d/internal/match"
)

type fakeEngine struct {
	mu      sync.Mutex
	snap    engine.Snapshot
	toggles int
	pauses  []bool
}

func (f *fakeEngine) Snapshot() engine.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeEngine) set(s engine.Snapshot) {
	f.mu.Lock()
	f.snap = s
	f.mu.Unlock()
}

func (f *fakeEngine) SetPaused(p bool) {
	f.mu.Lock()
	f.pauses = append(f.pauses, p)
	f.mu.Unlock()
}

func (f *fakeEngine) TogglePause() {
	f.mu.Lock()
	f.toggles++
	f.mu.Unlock()
}

// laggingEngine reads its state, then stalls once before returning it.
type laggingEngine struct {
	fakeEngine
	stall   chan struct{}
	entered chan struct{}
	stalled atomic.Bool
}

func (l *laggingEngine) Snapshot() engine.Snapshot {
	s := l.fakeEngine.Snapshot()
	select {
	case <-l.stall:
		if l.stalled.CompareAndSwap(false, true) {
			close(l.entered)
			time.Sleep(50 * time.Millisecond)
		}
	default:
	}
	return s
}

func TestRenderRally(t *testing.T) {
	v := Render(engine.Snapshot{
		Phase: engine.PhaseRallying,
		Score: engine.Score{Player1: 3, Player2: 1},
	})

	assert.Equal(t, "3 - 1", v.Score)
	assert.Empty(t, v.Countdown)
	assert.Nil(t, v.Banner)
	assert.Equal(t, Button{Label: "Pause", Action: ActionPause}, v.Pause)
	require.Len(t, v.Hints, 3)
	assert.Equal(t, []string{"W", "S"}, v.Hints[0].Keys)
	assert.Equal(t, []string{"↑", "↓"}, v.Hints[1].Keys)
	assert.Equal(t, []string{"Esc"}, v.Hints[2].Keys)
}

func TestRenderCountdownAndPause(t *testing.T) {
	v := Render(engine.Snapshot{Phase: engine.PhaseServing, Paused: true, Countdown: 3})
	assert.Equal(t, "3", v.Countdown)
	assert.Equal(t, ActionResume, v.Pause.Action)
	assert.Equal(t, "0 - 0", v.Score)
}

func TestRenderWinner(t *testing.T) {
	v := Render(engine.Snapshot{
		Phase:  engine.PhaseFinished,
		Score:  engine.Score{Player1: 2, Player2: 5},
		Winner: match.Player2,
	})
	require.NotNil(t, v.Banner)
	assert.Equal(t, "Player 2 wins", v.Banner.Text)
	assert.Equal(t, []Action{ActionRestart, ActionQuit},
		[]Action{v.Banner.Buttons[0].Action, v.Banner.Buttons[1].Action})
}

func TestRenderHalted(t *testing.T) {
	v := Render(engine.Snapshot{Phase: engine.PhaseHalted, Paused: true, Halted: "tick panicked"})
	assert.Equal(t, "tick panicked", v.Halted)
}

func TestPresenterFollowsEvents(t *testing.T) {
	b := bus.New()
	eng := &fakeEngine{}
	p, err := NewPresenter(b, eng, nil)
	require.NoError(t, err)
	defer p.Close()

	<-p.Updates()
	assert.Equal(t, "0 - 0", p.View().Score)

	eng.set(engine.Snapshot{Score: engine.Score{Player2: 1}, Countdown: 3, Paused: true})
	require.NoError(t, b.Publish(bus.NewEvent(engine.EventScore, "test", engine.Score{Player2: 1})))

	v := <-p.Updates()
	assert.Equal(t, "0 - 1", v.Score)
	assert.Equal(t, "3", v.Countdown)
	assert.Equal(t, v, p.View())

	// collisions do not re-render
	eng.set(engine.Snapshot{Score: engine.Score{Player1: 4}})
	require.NoError(t, b.Publish(bus.NewEvent(engine.EventCollision, "test", engine.Collision{})))
	assert.Equal(t, "0 - 1", p.View().Score)
}

func TestPresenterForwardsPause(t *testing.T) {
	eng := &fakeEngine{}
	p, err := NewPresenter(bus.New(), eng, nil)
	require.NoError(t, err)

	act, err := p.Press(ActionPause)
	require.NoError(t, err)
	assert.Empty(t, act)
	_, err = p.Press(ActionResume)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, eng.pauses)

	act, err = p.Press(ActionRestart)
	require.NoError(t, err)
	assert.Equal(t, ActionRestart, act)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.SetPaused(true), ErrPresenterClosed)
	_, ok := <-p.Updates()
	assert.False(t, ok)
}

func TestPresenterCloseUnsubscribes(t *testing.T) {
	b := bus.New()
	p, err := NewPresenter(b, &fakeEngine{}, nil)
	require.NoError(t, err)
	assert.Equal(t, len(watched), b.SubscriberCount(""))

	require.NoError(t, p.Close())
	assert.Equal(t, 0, b.SubscriberCount(""))
}

func TestPresenterWithEngine(t *testing.T) {
	e := &entity{}
	b := bus.New()
	eng, err := engine.New(engine.Entities{Paddle1: e, Paddle2: e, Ball: e, Mini: e}, engine.Options{Bus: b})
	require.NoError(t, err)
	p, err := NewPresenter(b, eng, nil)
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, eng.Start())
	assert.Equal(t, "5", p.View().Countdown)
	assert.Equal(t, ActionResume, p.View().Pause.Action)
}

func TestPresenterKeepsNewestViewUnderConcurrentEvents(t *testing.T) {
	b := bus.New()
	eng := &laggingEngine{stall: make(chan struct{}), entered: make(chan struct{})}
	p, err := NewPresenter(b, eng, nil)
	require.NoError(t, err)
	defer p.Close()

	eng.set(engine.Snapshot{Phase: engine.PhasePaused, Paused: true, Score: engine.Score{Player1: 4}})
	close(eng.stall)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = b.Publish(bus.NewEvent(engine.EventPaused, "test", true))
	}()
	<-eng.entered

	eng.set(engine.Snapshot{
		Phase:  engine.PhaseFinished,
		Score:  engine.Score{Player1: 5},
		Winner: match.Player1,
	})
	require.NoError(t, b.Publish(bus.NewEvent(engine.EventWinner, "test", match.Player1)))
	<-done

	v := p.View()
	assert.Equal(t, "5 - 0", v.Score)
	require.NotNil(t, v.Banner)
	assert.Equal(t, "Player 1 wins", v.Banner.Text)
}
