// Package overdue tracks scheduled pending tasks between runs so their
// calendar events can be re-titled the moment their scheduled time passes.
package overdue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

type Entry struct {
	EventID   string    `json:"event_id"`
	Title     string    `json:"title"`
	Scheduled time.Time `json:"scheduled"`
}

type Table struct {
	Entries map[string]Entry `json:"entries"` // keyed by task id
	Path    string           `json:"-"`
	dirty   bool
}

func NewTable() (*Table, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(home, ".config", "taskrules", "pending_tasks.json")

	t := &Table{
		Path:    path,
		Entries: make(map[string]Entry),
	}
	if _, err := os.Stat(path); err == nil {
		if err := t.Load(); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Table) Load() error {
	f, err := os.Open(t.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(t)
}

func (t *Table) Save() error {
	if !t.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(t.Path), 0700); err != nil {
		return err
	}
	f, err := os.Create(t.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		return err
	}
	t.dirty = false
	return nil
}

// Track records a task's scheduled time, or drops it when the time is zero.
func (t *Table) Track(taskID, eventID, title string, scheduled time.Time) {
	if scheduled.IsZero() {
		t.Remove(taskID)
		return
	}
	old, exists := t.Entries[taskID]
	if !exists || !old.Scheduled.Equal(scheduled) || old.EventID != eventID || old.Title != title {
		t.Entries[taskID] = Entry{EventID: eventID, Title: title, Scheduled: scheduled}
		t.dirty = true
	}
}

func (t *Table) Remove(taskID string) {
	if _, exists := t.Entries[taskID]; exists {
		delete(t.Entries, taskID)
		t.dirty = true
	}
}

// Sweep removes and returns every entry whose scheduled time has passed.
func (t *Table) Sweep(now time.Time) []Entry {
	var swept []Entry
	for id, entry := range t.Entries {
		if entry.Scheduled.Before(now) {
			swept = append(swept, entry)
			delete(t.Entries, id)
			t.dirty = true
		}
	}
	return swept
}
