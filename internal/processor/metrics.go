package processor

import (
	"sync/atomic"
	"time"
)

type ServiceMetrics struct {
	totalSent       int64
	totalRetried    int64
	totalDead       int64
	totalDurationNs int64
	lastResetNs     int64
}

func NewServiceMetrics() *ServiceMetrics {
	return &ServiceMetrics{
		lastResetNs: time.Now().UnixNano(),
	}
}

func (m *ServiceMetrics) RecordSent(duration time.Duration) {
	atomic.AddInt64(&m.totalSent, 1)
	atomic.AddInt64(&m.totalDurationNs, int64(duration))
}

func (m *ServiceMetrics) RecordRetried() {
	atomic.AddInt64(&m.totalRetried, 1)
}

func (m *ServiceMetrics) RecordDead() {
	atomic.AddInt64(&m.totalDead, 1)
}

func (m *ServiceMetrics) GetStats() map[string]interface{} {
	sent := atomic.LoadInt64(&m.totalSent)
	retried := atomic.LoadInt64(&m.totalRetried)
	dead := atomic.LoadInt64(&m.totalDead)
	durationNs := atomic.LoadInt64(&m.totalDurationNs)
	lastResetNs := atomic.LoadInt64(&m.lastResetNs)

	elapsed := time.Since(time.Unix(0, lastResetNs)).Seconds()

	rate := 0.0
	if elapsed > 0 {
		rate = float64(sent) / elapsed
	}

	avgDuration := time.Duration(0)
	if sent > 0 {
		avgDuration = time.Duration(durationNs / sent)
	}

	return map[string]interface{}{
		"total_sent":      sent,
		"total_retried":   retried,
		"total_dead":      dead,
		"rate_per_second": rate,
		"avg_duration_ms": avgDuration.Milliseconds(),
		"uptime_seconds":  elapsed,
	}
}

func (m *ServiceMetrics) Reset() {
	atomic.StoreInt64(&m.totalSent, 0)
	atomic.StoreInt64(&m.totalRetried, 0)
	atomic.StoreInt64(&m.totalDead, 0)
	atomic.StoreInt64(&m.totalDurationNs, 0)
	atomic.StoreInt64(&m.lastResetNs, time.Now().UnixNano())
}
