package llm

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Budget threshold percentages.
const (
	budgetThresholdWarning  = 0.8
	budgetThresholdCritical = 1.0
)

const dateFormatYMD = "2006-01-02"

// BudgetTracker tracks daily token usage against a soft limit. It only
// observes and warns; hard call budgets live with the individual clients.
type BudgetTracker struct {
	mu            sync.Mutex
	dailyTokens   int64
	dailyLimit    int64
	lastResetDate string
	warningFired  bool
	criticalFired bool
	logger        *zerolog.Logger
}

// NewBudgetTracker creates a tracker. A non-positive limit disables alerts.
func NewBudgetTracker(dailyLimit int64, logger *zerolog.Logger) *BudgetTracker {
	return &BudgetTracker{
		dailyLimit:    dailyLimit,
		lastResetDate: time.Now().UTC().Format(dateFormatYMD),
		logger:        logger,
	}
}

// RecordTokens adds tokens to the daily count and logs threshold crossings.
func (bt *BudgetTracker) RecordTokens(tokens int) {
	bt.mu.Lock()
	defer bt.mu.Unlock()

	bt.resetIfNewDay()
	bt.dailyTokens += int64(tokens)

	if bt.dailyLimit <= 0 {
		return
	}

	percentage := float64(bt.dailyTokens) / float64(bt.dailyLimit)

	if !bt.criticalFired && percentage >= budgetThresholdCritical {
		bt.criticalFired = true
		bt.warn("critical", percentage)

		return
	}

	if !bt.warningFired && percentage >= budgetThresholdWarning {
		bt.warningFired = true
		bt.warn("warning", percentage)
	}
}

// Status returns the current daily usage, limit and consumed fraction.
func (bt *BudgetTracker) Status() (dailyTokens, dailyLimit int64, percentage float64) {
	bt.mu.Lock()
	defer bt.mu.Unlock()

	bt.resetIfNewDay()

	dailyTokens = bt.dailyTokens
	dailyLimit = bt.dailyLimit

	if dailyLimit > 0 {
		percentage = float64(dailyTokens) / float64(dailyLimit)
	}

	return dailyTokens, dailyLimit, percentage
}

func (bt *BudgetTracker) warn(level string, percentage float64) {
	if bt.logger == nil {
		return
	}

	bt.logger.Warn().
		Str("level", level).
		Int64("daily_tokens", bt.dailyTokens).
		Int64("budget_limit", bt.dailyLimit).
		Float64("percentage", percentage).
		Msg("LLM token budget threshold reached")
}

func (bt *BudgetTracker) resetIfNewDay() {
	today := time.Now().UTC().Format(dateFormatYMD)
	if bt.lastResetDate == today {
		return
	}

	bt.dailyTokens = 0
	bt.warningFired = false
	bt.criticalFired = false
	bt.lastResetDate = today
}
