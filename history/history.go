// Package history keeps a bounded, most-recent-first list of weather lookups
// in a key-value store.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"weather/storage"
)

const (
	StorageKey  = "weather_history"
	MaxItems    = 50
	DefaultDays = 7
)

// TimestampLayout is ISO-8601 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

type Entry struct {
	City        string  `json:"city"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Temperature float64 `json:"temperature"`
	WeatherCode int     `json:"weather_code"`
	Timestamp   string  `json:"timestamp"`
}

func NewEntry(city string, latitude, longitude, temperature float64, code int, at time.Time) Entry {
	return Entry{
		City:        city,
		Latitude:    latitude,
		Longitude:   longitude,
		Temperature: temperature,
		WeatherCode: code,
		Timestamp:   at.UTC().Format(TimestampLayout),
	}
}

// Time parses the entry timestamp.
func (e Entry) Time() (time.Time, error) {
	return time.Parse(time.RFC3339, e.Timestamp)
}

// Confirmer asks the user a yes/no question and blocks until answered.
type Confirmer interface {
	Confirm(prompt string) bool
}

type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool {
	return f(prompt)
}

const ClearPrompt = "Are you sure you want to clear all weather history?"

type Option func(*Store)

func WithLimit(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.limit = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store is not safe for concurrent use; callers serialize access.
type Store struct {
	kv       storage.KV
	entries  []Entry
	limit    int
	now      func() time.Time
	onChange func([]Entry)
	log      *slog.Logger
}

func New(kv storage.KV, log *slog.Logger, opts ...Option) *Store {
	s := &Store{
		kv:    kv,
		limit: MaxItems,
		now:   time.Now,
		log:   log,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// OnChange registers fn to run after every mutation.
func (s *Store) OnChange(fn func([]Entry)) {
	s.onChange = fn
}

// Load reads the persisted list. Missing or unreadable data gives an empty
// history; errors are logged, never returned.
func (s *Store) Load(ctx context.Context) []Entry {
	s.entries = nil

	raw, ok, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		s.log.Error("load history", "err", err)
		return s.Entries()
	}
	if !ok {
		return s.Entries()
	}

	var entries []Entry
	if err = json.Unmarshal([]byte(raw), &entries); err != nil {
		s.log.Error("parse history", "err", err)
		return s.Entries()
	}

	if len(entries) > s.limit {
		entries = entries[:s.limit]
	}
	s.entries = entries

	return s.Entries()
}

// Record prepends e, drops the oldest entries beyond the limit and persists
// the whole list.
func (s *Store) Record(ctx context.Context, e Entry) error {
	entries := make([]Entry, 0, min(len(s.entries)+1, s.limit))
	entries = append(entries, e)
	entries = append(entries, s.entries...)
	if len(entries) > s.limit {
		entries = entries[:s.limit]
	}
	s.entries = entries

	err := s.persist(ctx)
	s.changed()

	return err
}

// Clear empties the history once c confirms. It reports whether the history
// was cleared.
func (s *Store) Clear(ctx context.Context, c Confirmer) (bool, error) {
	if !c.Confirm(ClearPrompt) {
		return false, nil
	}

	if err := s.kv.Delete(ctx, StorageKey); err != nil {
		return false, fmt.Errorf("clear history: %w", err)
	}

	s.entries = nil
	s.changed()

	return true, nil
}

// Entries returns a copy of the full history, newest first.
func (s *Store) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Recent returns the entries recorded within the last days days (DefaultDays
// when days <= 0). Entries with unreadable timestamps are skipped.
func (s *Store) Recent(days int) []Entry {
	if days <= 0 {
		days = DefaultDays
	}

	cutoff := s.now().AddDate(0, 0, -days)

	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		t, err := e.Time()
		if err != nil {
			continue
		}
		if !t.Before(cutoff) {
			out = append(out, e)
		}
	}

	return out
}

func (s *Store) persist(ctx context.Context) error {
	raw, err := json.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	if err = s.kv.Set(ctx, StorageKey, string(raw)); err != nil {
		return fmt.Errorf("save history: %w", err)
	}

	return nil
}

func (s *Store) changed() {
	if s.onChange != nil {
		s.onChange(s.Entries())
	}
}
