package providers

import (
	"sync"
	"time"
)

// Budget tracks one provider's own request allowance in fixed one-minute
// and 24-hour windows, reset when elapsed. It is advisory: counters may
// overshoot the ceiling by at most one in-flight request. All mutation
// happens inside Allow under a single lock.
type Budget struct {
	mu          sync.Mutex
	minuteLimit int
	dayLimit    int
	minuteCount int
	dayCount    int
	minuteStart time.Time
	dayStart    time.Time
	lastRequest time.Time
	now         func() time.Time
}

// NewBudget creates a budget with the given per-minute and per-day ceilings
func NewBudget(minuteLimit, dayLimit int) *Budget {
	return &Budget{
		minuteLimit: minuteLimit,
		dayLimit:    dayLimit,
		now:         time.Now,
	}
}

// Allow records one request attempt and reports whether the provider
// still has budget for it. A false return means the provider should be
// skipped for the current aggregation round.
func (b *Budget) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()

	if now.Sub(b.minuteStart) >= time.Minute {
		b.minuteStart = now
		b.minuteCount = 0
	}
	if now.Sub(b.dayStart) >= 24*time.Hour {
		b.dayStart = now
		b.dayCount = 0
	}

	if b.minuteCount >= b.minuteLimit || b.dayCount >= b.dayLimit {
		return false
	}

	b.minuteCount++
	b.dayCount++
	b.lastRequest = now
	return true
}

// State is a read-only snapshot of the budget counters
type BudgetState struct {
	MinuteCount int       `json:"requestsThisMinute"`
	DayCount    int       `json:"requestsToday"`
	MinuteStart time.Time `json:"minuteWindowStart"`
	DayStart    time.Time `json:"dayWindowStart"`
	LastRequest time.Time `json:"lastRequest"`
}

func (b *Budget) State() BudgetState {
	b.mu.Lock()
	defer b.mu.Unlock()

	return BudgetState{
		MinuteCount: b.minuteCount,
		DayCount:    b.dayCount,
		MinuteStart: b.minuteStart,
		DayStart:    b.dayStart,
		LastRequest: b.lastRequest,
	}
}
