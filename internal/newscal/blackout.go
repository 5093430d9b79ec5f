package newscal

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"prop-strategy-builder/internal/types"
)

// BlackoutTimeLayout is the form MQL5's StringToTime accepts.
const BlackoutTimeLayout = "2006.01.02 15:04"

var blackoutHeader = []string{"time", "currency", "impact", "title"}

// WriteCSV writes events as the blackout file read by the EA's news hook.
// Times are UTC.
func WriteCSV(w io.Writer, events []types.NewsEvent) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(blackoutHeader); err != nil {
		return err
	}
	for _, ev := range events {
		rec := []string{ev.Time.UTC().Format(BlackoutTimeLayout), ev.Currency, ev.Impact, ev.Title}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the blackout CSV to path through a temporary file.
func WriteFile(path string, events []types.NewsEvent) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".blackout-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteCSV(tmp, events); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write blackout file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Active returns the events whose blackout window, window either side of the
// event, contains at.
func Active(events []types.NewsEvent, at time.Time, window time.Duration) []types.NewsEvent {
	var out []types.NewsEvent
	for _, ev := range events {
		if !at.Before(ev.Time.Add(-window)) && !at.After(ev.Time.Add(window)) {
			out = append(out, ev)
		}
	}
	return out
}
