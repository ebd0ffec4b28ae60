// Package metrics aggregates per-action statistics and persists them through core.StorageInterface.
package metrics

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"netxlate/internal/core"
)

const qpsWindow = time.Minute

// Config configuration for Service
type Config struct {
	SaveInterval time.Duration
	HistorySize  int
	Storage      core.StorageInterface
	Logger       core.Logger
}

type counters struct {
	total      atomic.Int64
	successful atomic.Int64
	failed     atomic.Int64
	latencyMS  atomic.Int64
}

// Service collects action outcomes and HTTP request rates.
type Service struct {
	counters counters

	mu           sync.RWMutex
	history      []core.RequestRecord
	lastRequest  time.Time
	lastSave     time.Time
	historySize  int
	saveInterval time.Duration

	recentMu sync.Mutex
	recent   []time.Time

	storage core.StorageInterface
	logger  core.Logger
	closed  atomic.Bool
}

// New creates a Service. A nil Storage keeps statistics in memory only.
func New(cfg Config) *Service {
	historySize := cfg.HistorySize
	if historySize <= 0 {
		historySize = core.HistoryBufferSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = &core.NopLogger{}
	}
	return &Service{
		historySize:  historySize,
		saveInterval: cfg.SaveInterval,
		storage:      cfg.Storage,
		logger:       logger,
	}
}

// RecordAction records one translate, explain or test-plan outcome.
func (s *Service) RecordAction(action, model string, success bool, duration time.Duration) {
	now := time.Now()
	ms := duration.Milliseconds()

	s.counters.total.Add(1)
	s.counters.latencyMS.Add(ms)
	if success {
		s.counters.successful.Add(1)
	} else {
		s.counters.failed.Add(1)
	}

	s.mu.Lock()
	s.lastRequest = now
	s.history = append(s.history, core.RequestRecord{
		Timestamp:    now,
		Success:      success,
		ResponseTime: ms,
		Action:       action,
		Model:        model,
	})
	if len(s.history) > s.historySize {
		s.history = s.history[len(s.history)-s.historySize:]
	}
	s.mu.Unlock()

	s.saveDebounced(now)
}

// RecordHTTPRequest feeds the QPS window.
func (s *Service) RecordHTTPRequest(_ time.Duration) {
	now := time.Now()
	s.recentMu.Lock()
	s.recent = append(pruneBefore(s.recent, now.Add(-qpsWindow)), now)
	s.recentMu.Unlock()
}

// GetQPS returns requests per second over the last minute.
func (s *Service) GetQPS() float64 {
	s.recentMu.Lock()
	defer s.recentMu.Unlock()

	s.recent = pruneBefore(s.recent, time.Now().Add(-qpsWindow))
	if len(s.recent) == 0 {
		return 0
	}
	return math.Round(float64(len(s.recent))/qpsWindow.Seconds()*1000) / 1000
}

func pruneBefore(times []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(times) && times[i].Before(cutoff) {
		i++
	}
	if i == 0 {
		return times
	}
	return append(times[:0:0], times[i:]...)
}

// Snapshot returns a copy of the current statistics.
func (s *Service) Snapshot() core.RequestStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := make([]core.RequestRecord, len(s.history))
	copy(history, s.history)

	return core.RequestStats{
		TotalRequests:      s.counters.total.Load(),
		SuccessfulRequests: s.counters.successful.Load(),
		FailedRequests:     s.counters.failed.Load(),
		TotalResponseTime:  s.counters.latencyMS.Load(),
		LastRequestTime:    s.lastRequest,
		RequestHistory:     history,
	}
}

// PeriodStats computes statistics for several trailing windows, in hours, in one pass.
func PeriodStats(history []core.RequestRecord, hourPeriods ...int) map[int]core.PeriodStats {
	if len(hourPeriods) == 0 {
		return nil
	}

	now := time.Now()
	result := make(map[int]core.PeriodStats, len(hourPeriods))
	cutoffs := make([]time.Time, len(hourPeriods))
	successful := make([]int64, len(hourPeriods))
	latency := make([]int64, len(hourPeriods))
	for i, hours := range hourPeriods {
		cutoffs[i] = now.Add(-time.Duration(hours) * time.Hour)
		result[hours] = core.PeriodStats{ByAction: map[string]int64{}}
	}

	for _, record := range history {
		for i, cutoff := range cutoffs {
			if !record.Timestamp.After(cutoff) {
				continue
			}
			stats := result[hourPeriods[i]]
			stats.Requests++
			stats.ByAction[record.Action]++
			result[hourPeriods[i]] = stats
			latency[i] += record.ResponseTime
			if record.Success {
				successful[i]++
			}
		}
	}

	for i, hours := range hourPeriods {
		stats := result[hours]
		stats.QPS = float64(stats.Requests) / (float64(hours) * 3600.0)
		if stats.Requests > 0 {
			stats.SuccessRate = float64(successful[i]) / float64(stats.Requests) * 100
			stats.AvgResponseTime = latency[i] / stats.Requests
		}
		result[hours] = stats
	}
	return result
}

// Load restores statistics from storage.
func (s *Service) Load() error {
	if s.storage == nil {
		return nil
	}
	stats, err := s.storage.LoadStats()
	if err != nil {
		return err
	}

	s.counters.total.Store(stats.TotalRequests)
	s.counters.successful.Store(stats.SuccessfulRequests)
	s.counters.failed.Store(stats.FailedRequests)
	s.counters.latencyMS.Store(stats.TotalResponseTime)

	s.mu.Lock()
	s.lastRequest = stats.LastRequestTime
	s.history = stats.RequestHistory
	if len(s.history) > s.historySize {
		s.history = s.history[len(s.history)-s.historySize:]
	}
	s.mu.Unlock()
	return nil
}

func (s *Service) saveDebounced(now time.Time) {
	if s.storage == nil || s.closed.Load() {
		return
	}

	s.mu.Lock()
	if now.Sub(s.lastSave) < s.saveInterval {
		s.mu.Unlock()
		return
	}
	s.lastSave = now
	s.mu.Unlock()

	stats := s.Snapshot()
	if err := s.storage.SaveStats(&stats); err != nil {
		s.logger.Warn("Failed to save stats: %v", err)
	}
}

// Close writes the final statistics.
func (s *Service) Close() error {
	if !s.closed.CompareAndSwap(false, true) || s.storage == nil {
		return nil
	}
	stats := s.Snapshot()
	return s.storage.SaveStats(&stats)
}
