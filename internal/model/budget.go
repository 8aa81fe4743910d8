package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Threshold is the monthly spending limit a user configured. A nil Amount
// means no limit is set.
type Threshold struct {
	Amount *decimal.Decimal `json:"threshold"`
}

// IsSet reports whether a limit is configured.
func (t Threshold) IsSet() bool { return t.Amount != nil }

// ThresholdStatus compares one month's spend against the threshold.
type ThresholdStatus struct {
	Month       time.Time
	Spent       decimal.Decimal
	Limit       *decimal.Decimal
	Remaining   decimal.Decimal
	UsedPercent float64
	Exceeded    bool
}
