// Package rules owns the authoritative rule list and its persistence.
// The store is a JSON file under the user's config dir; a first load with no
// file on disk seeds the default rule set.
package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harrisonrobin/taskrules/pkg/model"
)

const (
	xdgAppName = "taskrules"
	rulesFile  = "rules.json"
)

// Store holds the ordered rule list. Edits mark the store dirty; Save is a
// no-op until something changed. The store is the source of truth — the
// engine only ever sees a snapshot of it.
type Store struct {
	Rules []model.Rule `json:"rules"`
	Path  string       `json:"-"`
	dirty bool
}

// Open loads the store from its default path, seeding defaults when the
// file does not exist yet.
func Open() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return OpenPath(filepath.Join(home, ".config", xdgAppName, rulesFile))
}

// OpenPath loads the store from an explicit path.
func OpenPath(path string) (*Store, error) {
	s := &Store{Path: path}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.Rules = Defaults()
			s.dirty = true
			return s, nil
		}
		return nil, err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(s); err != nil {
		return nil, fmt.Errorf("failed to decode rule store: %w", err)
	}
	return s, nil
}

// Save writes the store back if dirty.
func (s *Store) Save() error {
	if !s.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
		return err
	}
	f, err := os.Create(s.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// Add appends a rule, keeping list order as precedence order.
func (s *Store) Add(r model.Rule) {
	s.Rules = append(s.Rules, r)
	s.dirty = true
}

// Update replaces the rule with the given id. Returns false when unknown.
func (s *Store) Update(id string, r model.Rule) bool {
	for i := range s.Rules {
		if s.Rules[i].ID == id {
			r.ID = id
			s.Rules[i] = r
			s.dirty = true
			return true
		}
	}
	return false
}

// Remove deletes the rule with the given id. Returns false when unknown.
func (s *Store) Remove(id string) bool {
	for i := range s.Rules {
		if s.Rules[i].ID == id {
			s.Rules = append(s.Rules[:i], s.Rules[i+1:]...)
			s.dirty = true
			return true
		}
	}
	return false
}

// SetEnabled flips a rule's gate. Returns false when unknown.
func (s *Store) SetEnabled(id string, enabled bool) bool {
	for i := range s.Rules {
		if s.Rules[i].ID == id {
			if s.Rules[i].Enabled != enabled {
				s.Rules[i].Enabled = enabled
				s.dirty = true
			}
			return true
		}
	}
	return false
}

// Get returns the rule with the given id.
func (s *Store) Get(id string) (model.Rule, bool) {
	for _, r := range s.Rules {
		if r.ID == id {
			return r, true
		}
	}
	return model.Rule{}, false
}

// Defaults is the built-in rule set a fresh store starts with.
func Defaults() []model.Rule {
	return []model.Rule{
		{ID: "rule-1", If: "task contains 'Adil'", Then: model.Properties{"project": "Delegated", "assignee": "Adil"}, Enabled: true},
		{ID: "rule-2", If: "task time is 'morning'", Then: model.Properties{"time": "07:00 - 11:00"}, Enabled: true},
		{ID: "rule-3", If: "task time is 'afternoon'", Then: model.Properties{"time": "13:00 - 17:00"}, Enabled: true},
		{ID: "rule-4", If: "task time is 'evening'", Then: model.Properties{"time": "17:00 - 20:00"}, Enabled: true},
		{ID: "rule-5", If: "task time is 'night'", Then: model.Properties{"time": "21:00 - 00:00"}, Enabled: true},
		{ID: "rule-6", If: "task scheduled for Saturday or Sunday", Then: model.Properties{"priority": "Low", "project": "Personal"}, Enabled: true},
		{ID: "rule-7", If: "task involves calls, communication, or errands", Then: model.Properties{"label": "@Commute"}, Enabled: true},
		{ID: "rule-8", If: "task is quick or under 15 minutes", Then: model.Properties{"label": "@Quick"}, Enabled: true},
		{ID: "rule-9", If: "task involves admin work, paperwork or coordination", Then: model.Properties{"project": "Professional", "label": "@Admin"}, Enabled: true},
		{ID: "rule-10", If: "task includes grooming, meals, health or reflection", Then: model.Properties{"project": "Personal", "label": "/Health"}, Enabled: true},
		{ID: "rule-11", If: "task includes learning, university, academia, research", Then: model.Properties{"project": "Personal", "label": "/Academia"}, Enabled: true},
		{ID: "rule-12", If: "task includes team instructions or maintenance requests", Then: model.Properties{"project": "Delegated"}, Enabled: true},
	}
}
