// Package notify fans threshold alerts out to an AMQP broker.
package notify

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Alert says an owner's spend for a month passed their threshold.
type Alert struct {
	Owner       string          `json:"owner"`
	Month       string          `json:"month"` // 2006-01
	Spent       decimal.Decimal `json:"spent"`
	Threshold   decimal.Decimal `json:"threshold"`
	UsedPercent float64         `json:"used_percent"`
	At          time.Time       `json:"at"`
}

// ToJSON encodes the alert as the message body.
func (a Alert) ToJSON() ([]byte, error) {
	return json.Marshal(a)
}
