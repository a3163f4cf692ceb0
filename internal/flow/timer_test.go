package flow

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestSimpleTimer_ScheduleAfter(t *testing.T) {
	timer := NewSimpleTimer()
	defer timer.Stop()

	fired := make(chan struct{})
	id, err := timer.ScheduleAfter(1, 10*time.Millisecond, "test", func() { close(fired) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty timer id")
	}

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}

	// The entry is removed once the function runs.
	deadline := time.Now().Add(time.Second)
	for len(timer.ListActive()) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("timer entry was not cleaned up")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSimpleTimer_Cancel(t *testing.T) {
	timer := NewSimpleTimer()
	defer timer.Stop()

	var calls int32
	id, err := timer.ScheduleAfter(1, 50*time.Millisecond, "cancel me", func() { atomic.AddInt32(&calls, 1) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := timer.Cancel(id); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if err := timer.Cancel("missing"); err != nil {
		t.Fatalf("Cancel of unknown id should not fail: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if atomic.LoadInt32(&calls) != 0 {
		t.Error("cancelled timer fired")
	}
}

func TestSimpleTimer_ListActiveAndGetTimer(t *testing.T) {
	timer := NewSimpleTimer()
	defer timer.Stop()

	id, err := timer.ScheduleAfter(42, time.Hour, "pomodoro reminder", func() {})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	active := timer.ListActive()
	if len(active) != 1 {
		t.Fatalf("expected 1 active timer, got %d", len(active))
	}
	if active[0].UserID != 42 || active[0].Description != "pomodoro reminder" {
		t.Errorf("unexpected timer info: %+v", active[0])
	}

	info, err := timer.GetTimer(id)
	if err != nil {
		t.Fatalf("GetTimer failed: %v", err)
	}
	if !info.ExpiresAt.After(info.ScheduledAt) {
		t.Errorf("expected ExpiresAt after ScheduledAt: %+v", info)
	}
	if _, err := timer.GetTimer("timer_999"); err == nil {
		t.Error("expected error for unknown timer")
	}
}

func TestSimpleTimer_Stop(t *testing.T) {
	timer := NewSimpleTimer()
	var calls int32
	for i := 0; i < 3; i++ {
		if _, err := timer.ScheduleAfter(1, 30*time.Millisecond, "", func() { atomic.AddInt32(&calls, 1) }); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	timer.Stop()
	if n := len(timer.ListActive()); n != 0 {
		t.Errorf("expected no active timers after Stop, got %d", n)
	}
	time.Sleep(80 * time.Millisecond)
	if atomic.LoadInt32(&calls) != 0 {
		t.Error("stopped timers fired")
	}
}

func TestSimpleTimer_NilFunction(t *testing.T) {
	timer := NewSimpleTimer()
	if _, err := timer.ScheduleAfter(1, time.Millisecond, "", nil); err == nil {
		t.Error("expected error for nil function")
	}
}
