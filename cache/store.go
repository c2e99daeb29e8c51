// Package cache keeps validated menu records keyed by (menu URL, date).
//
// Entries are serialized MenuData payloads. A store never interprets them
// beyond checking that they are JSON.
package cache

import (
	"context"
	"errors"
)

// ErrInvalidPayload is returned by Set when the payload is not JSON.
var ErrInvalidPayload = errors.New("cache payload is not valid JSON")

type Stats struct {
	TotalEntries int64  `json:"total_entries"`
	TodayEntries int64  `json:"today_entries"`
	Backend      string `json:"backend"`
	Location     string `json:"location"`
}

type Store interface {
	// Get returns the payload stored for url on date, if any.
	Get(ctx context.Context, url, date string) (string, bool, error)
	// Set stores payload for url on date, replacing any earlier entry.
	Set(ctx context.Context, url, date, payload string) error
	// PurgeOlderThan removes every entry dated strictly before date.
	PurgeOlderThan(ctx context.Context, date string) (int64, error)
	ClearAll(ctx context.Context) error
	Stats(ctx context.Context, today string) (Stats, error)
	Close()
}

// Usage is one model invocation's footprint.
type Usage struct {
	Url       string
	LengthIn  int
	LengthOut int
	TokensIn  int
	TokensOut int
}

type UsageRecorder interface {
	RecordUsage(ctx context.Context, usage Usage) error
}
