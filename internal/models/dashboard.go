package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar date without time of day, encoded as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate truncates t to its UTC calendar date.
func NewDate(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts YYYY-MM-DD or a full RFC 3339 timestamp.
func ParseDate(raw string) (Date, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", raw, err)
	}
	return NewDate(t), nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(dateLayout)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// SeriesKind identifies one of the dashboard time series.
type SeriesKind string

const (
	SeriesTransactionGrowth SeriesKind = "transaction-growth"
	SeriesUserGrowth        SeriesKind = "user-growth"
)

// Valid reports whether the kind is known.
func (k SeriesKind) Valid() bool {
	return k == SeriesTransactionGrowth || k == SeriesUserGrowth
}

// EmptyMessage is the placeholder shown when the series has no data.
func (k SeriesKind) EmptyMessage() string {
	if k == SeriesUserGrowth {
		return "No user growth data available"
	}
	return "No transaction data available"
}

// SeriesPoint is one bucket of a time series.
type SeriesPoint struct {
	Date  Date    `json:"date"`
	Value float64 `json:"value"`
	Count int     `json:"count,omitempty"`
}

// DashboardSummary is the flattened platform totals.
type DashboardSummary struct {
	TotalUniversities int64 `json:"totalUniversities"`
	TotalTransactions int64 `json:"totalTransactions"`
	TotalUsers        int64 `json:"totalUsers"`
}
