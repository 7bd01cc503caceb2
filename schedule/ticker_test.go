package schedule

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestManualTicker(t *testing.T) {
	var m Manual
	runs := 0
	m.Schedule(func() {
		runs++
		m.Schedule(func() { runs++ })
	})
	if m.Len() != 1 {
		t.Fatalf("应有一个排队任务")
	}
	if n := m.Tick(); n != 1 || runs != 1 {
		t.Fatalf("Tick 只运行之前排队的任务: n=%d runs=%d", n, runs)
	}
	if n := m.Drain(); n != 1 || runs != 2 {
		t.Fatalf("Drain 应运行剩余任务: n=%d runs=%d", n, runs)
	}
}

func TestFrameTicker(t *testing.T) {
	ran := make(chan struct{})
	Frame{Interval: time.Millisecond}.Schedule(func() { close(ran) })
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatalf("frame ticker 未触发")
	}
}

func TestDebouncedRunsLastOnly(t *testing.T) {
	d := NewDebounced(20 * time.Millisecond)
	var count, last atomic.Int64
	for i := int64(1); i <= 3; i++ {
		d.Schedule(func() {
			count.Add(1)
			last.Store(i)
		})
	}
	time.Sleep(200 * time.Millisecond)
	if count.Load() != 1 || last.Load() != 3 {
		t.Fatalf("应只运行最后一次: count=%d last=%d", count.Load(), last.Load())
	}
}

func TestNewTicker(t *testing.T) {
	for _, kind := range []string{"immediate", "goroutine", "frame", "debounce", ""} {
		if _, err := NewTicker(TickerOptions{Kind: kind}); err != nil {
			t.Fatalf("%q: %v", kind, err)
		}
	}
	if _, err := NewTicker(TickerOptions{Kind: "cron"}); err == nil {
		t.Fatalf("未知类型应报错")
	}
}
