package serve

import "time"

// debouncer 是单发的：到点只响一次，再次 Trigger 才会重新装填。
// 用 Ticker 的话 rebuild 之后会每个周期都再响一次。
type debouncer struct {
	timer *time.Timer
	d     time.Duration
}

func newDebouncer(d time.Duration) *debouncer {
	t := time.NewTimer(d)
	if !t.Stop() {
		<-t.C
	}
	return &debouncer{timer: t, d: d}
}

// Trigger 推迟触发点：连续的文件事件合并成一次
func (b *debouncer) Trigger() {
	if !b.timer.Stop() {
		select {
		case <-b.timer.C:
		default:
		}
	}
	b.timer.Reset(b.d)
}

func (b *debouncer) C() <-chan time.Time {
	return b.timer.C
}

func (b *debouncer) Stop() {
	b.timer.Stop()
}
