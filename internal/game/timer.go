package game

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// =============================================================================
// TIMER MANAGEMENT
// =============================================================================

// Timer names used by the state machine. Hint timers are numbered
// "hint:0".."hint:N" so they can be torn down as a group.
const (
	timerWordSelection = "word_selection"
	timerRound         = "round"
	timerNextTurn      = "next_turn"
	hintTimerPrefix    = "hint:"
)

// scheduleAt arms a named one-shot timer for a room, keyed to an absolute
// deadline (epoch millis). Re-arming an existing name replaces the previous
// timer. The callback runs on its own goroutine and must re-verify room
// state itself: cancellation is best-effort, the read-verify-write guard in
// each transition is what actually makes stale firings safe.
func (e *Engine) scheduleAt(code, name string, deadlineMs int64, fn func()) {
	d := time.Until(time.UnixMilli(deadlineMs))
	if d < 0 {
		d = 0
	}
	e.schedule(code, name, d, fn)
}

func (e *Engine) schedule(code, name string, d time.Duration, fn func()) {
	e.timersMu.Lock()
	defer e.timersMu.Unlock()

	if existing, ok := e.timers[code][name]; ok {
		existing.Stop()
	}
	if e.timers[code] == nil {
		e.timers[code] = make(map[string]*time.Timer)
	}

	logrus.Debugf("[schedule] room=%s: arming timer %q in %v", code, name, d)
	e.timers[code][name] = time.AfterFunc(d, func() {
		e.timersMu.Lock()
		delete(e.timers[code], name)
		e.timersMu.Unlock()
		fn()
	})
}

func (e *Engine) cancelTimer(code, name string) {
	e.timersMu.Lock()
	defer e.timersMu.Unlock()
	if t, ok := e.timers[code][name]; ok {
		t.Stop()
		delete(e.timers[code], name)
	}
}

// cancelHintTimers tears down every pending hint reveal for a room, used when
// a turn ends before its deadline.
func (e *Engine) cancelHintTimers(code string) {
	e.timersMu.Lock()
	defer e.timersMu.Unlock()
	for name, t := range e.timers[code] {
		if strings.HasPrefix(name, hintTimerPrefix) {
			t.Stop()
			delete(e.timers[code], name)
		}
	}
}

func (e *Engine) cancelAllTimers(code string) {
	e.timersMu.Lock()
	defer e.timersMu.Unlock()
	for name, t := range e.timers[code] {
		t.Stop()
		delete(e.timers[code], name)
	}
	delete(e.timers, code)
}
