package basic

import (
	"fmt"
	"sync"
	"time"
)

type dummyEvent struct {
	t time.Time
	f func()
}

// DummyTimer is a manually advanced clock for deterministic tests.
type DummyTimer struct {
	now    time.Time
	events []dummyEvent
	// The engine is single-threaded, so this lock only guards against
	// test code racing with scheduled callbacks.
	lock sync.Mutex
}

func NewDummyTimer() *DummyTimer {
	return &DummyTimer{
		now:    time.Unix(0, 0).UTC(),
		events: make([]dummyEvent, 0),
	}
}

func (tm *DummyTimer) Now() time.Time {
	return tm.now
}

// MoveForward advances the clock and fires every event whose time has
// passed.
func (tm *DummyTimer) MoveForward(d time.Duration) {
	events := func() []dummyEvent {
		tm.lock.Lock()
		defer tm.lock.Unlock()
		tm.now = tm.now.Add(d)
		ret := make([]dummyEvent, len(tm.events))
		copy(ret, tm.events)
		return ret
	}()

	for i, e := range events {
		if e.f != nil && e.t.Before(tm.now) {
			e.f()
			events[i].f = nil
		}
	}

	tm.lock.Lock()
	defer tm.lock.Unlock()
	tm.events = events
}

func (tm *DummyTimer) Schedule(d time.Duration, f func()) func() error {
	t := tm.now.Add(d)
	tm.lock.Lock()
	defer tm.lock.Unlock()

	idx := len(tm.events)
	for i := range tm.events {
		if tm.events[i].f == nil {
			idx = i
			break
		}
	}
	if idx == len(tm.events) {
		tm.events = append(tm.events, dummyEvent{t: t, f: f})
	} else {
		tm.events[idx] = dummyEvent{t: t, f: f}
	}

	return func() error {
		if t.Before(tm.now) {
			return nil // Already past
		}
		if idx < len(tm.events) && tm.events[idx].t.Equal(t) && tm.events[idx].f != nil {
			tm.lock.Lock()
			defer tm.lock.Unlock()
			tm.events[idx].f = nil
			return nil
		} else {
			return fmt.Errorf("event has already been canceled")
		}
	}
}

func (tm *DummyTimer) Sleep(d time.Duration) {
	ch := make(chan struct{})
	tm.Schedule(d, func() {
		ch <- struct{}{}
		close(ch)
	})
	<-ch
}

func (*DummyTimer) Nonce() []byte {
	return []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
}
