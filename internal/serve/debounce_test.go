package serve

import (
	"testing"
	"time"
)

func TestDebouncer_FiresOncePerTrigger(t *testing.T) {
	d := newDebouncer(20 * time.Millisecond)
	defer d.Stop()

	d.Trigger()
	select {
	case <-d.C():
	case <-time.After(time.Second):
		t.Fatal("debounce never fired")
	}

	// 没有新事件就不该再响
	select {
	case <-d.C():
		t.Fatal("debounce fired again without a new trigger")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDebouncer_CoalescesRapidTriggers(t *testing.T) {
	d := newDebouncer(30 * time.Millisecond)
	defer d.Stop()

	for i := 0; i < 5; i++ {
		d.Trigger()
		time.Sleep(5 * time.Millisecond)
	}

	fired := 0
	deadline := time.After(300 * time.Millisecond)
	for {
		select {
		case <-d.C():
			fired++
		case <-deadline:
			if fired != 1 {
				t.Fatalf("fired %d times, want exactly 1", fired)
			}
			return
		}
	}
}

func TestDebouncer_SilentBeforeTrigger(t *testing.T) {
	d := newDebouncer(10 * time.Millisecond)
	defer d.Stop()

	select {
	case <-d.C():
		t.Fatal("debounce fired before any trigger")
	case <-time.After(50 * time.Millisecond):
	}
}
