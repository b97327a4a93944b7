package pipeline

import (
	"sync"
	"time"
)

// Metrics tracks runs over the lifetime of a Pipeline.
type Metrics struct {
	TotalRuns       int64
	SuccessfulRuns  int64
	FailedRuns      int64
	AverageDuration time.Duration
	TotalDuration   time.Duration
	mutex           sync.RWMutex
}

func (m *Metrics) record(duration time.Duration, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.TotalRuns++
	m.TotalDuration += duration

	if err != nil {
		m.FailedRuns++
	} else {
		m.SuccessfulRuns++
	}

	m.AverageDuration = m.TotalDuration / time.Duration(m.TotalRuns)
}

// Snapshot returns a copy of the current values.
func (m *Metrics) Snapshot() Metrics {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return Metrics{
		TotalRuns:       m.TotalRuns,
		SuccessfulRuns:  m.SuccessfulRuns,
		FailedRuns:      m.FailedRuns,
		AverageDuration: m.AverageDuration,
		TotalDuration:   m.TotalDuration,
	}
}
