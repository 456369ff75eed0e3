// Package engine applies an enabled-rule snapshot to tasks.
package engine

import (
	"strings"
	"time"

	"github.com/harrisonrobin/taskrules/pkg/match"
	"github.com/harrisonrobin/taskrules/pkg/model"
)

// Engine holds an ordered snapshot of enabled rules. It is immutable per
// rule-set version: after editing the authoritative rule list, construct a
// fresh engine (or call Reset) before reprocessing — never mutate mid-pass.
type Engine struct {
	rules []model.Rule
	clock func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock pins the engine's notion of "now". Tests use this to make the
// due-today, overdue and weekend conditions deterministic.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// New builds an engine over the enabled subset of rules, preserving list
// order. Disabled rules are dropped at construction and never evaluated.
func New(rules []model.Rule, opts ...Option) *Engine {
	e := &Engine{clock: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	e.Reset(rules)
	return e
}

// Reset replaces the snapshot with the enabled subset of rules.
func (e *Engine) Reset(rules []model.Rule) {
	e.rules = e.rules[:0]
	for _, r := range rules {
		if r.Enabled {
			e.rules = append(e.rules, r)
		}
	}
}

// Rules returns the held snapshot.
func (e *Engine) Rules() []model.Rule {
	return e.rules
}

// ProcessTask replays the snapshot over the task's original properties.
// Applied properties are rebuilt from scratch on every call, so the result
// depends only on the rule set and the task itself — reprocessing after a
// rule is disabled or deleted sheds its effects. Later rules win key
// collisions. The input task is not modified.
func (e *Engine) ProcessTask(t model.Task) model.Task {
	t.AppliedProperties = t.OriginalProperties.Clone()
	t.AppliedRules = []string{}
	now := e.clock()
	for _, r := range e.rules {
		if match.Matches(r.If, &t, now) {
			t.AppliedProperties.Merge(r.Then)
			t.AppliedRules = append(t.AppliedRules, r.ID)
		}
	}
	return t
}

// ProcessTasks processes each task independently, in order.
func (e *Engine) ProcessTasks(tasks []model.Task) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, e.ProcessTask(t))
	}
	return out
}

// ByAssignee filters tasks assigned to name, case-insensitively.
func ByAssignee(tasks []model.Task, name string) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if strings.EqualFold(t.AssignedTo, name) {
			out = append(out, t)
		}
	}
	return out
}

// ByPriority filters tasks with the given priority, case-insensitively.
func ByPriority(tasks []model.Task, priority string) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if strings.EqualFold(string(t.Priority), priority) {
			out = append(out, t)
		}
	}
	return out
}

// ByStatus filters tasks with the given status, case-insensitively.
func ByStatus(tasks []model.Task, status string) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if strings.EqualFold(string(t.Status), status) {
			out = append(out, t)
		}
	}
	return out
}

// Overdue filters tasks whose due date has passed and are not completed,
// using the same definition as the overdue condition.
func (e *Engine) Overdue(tasks []model.Task) []model.Task {
	now := e.clock()
	var out []model.Task
	for _, t := range tasks {
		if match.Overdue(&t, now) {
			out = append(out, t)
		}
	}
	return out
}

// Add appends a rule to the snapshot if it is enabled. Prefer rebuilding the
// engine from the authoritative rule list; this exists for callers that own
// no separate list.
func (e *Engine) Add(r model.Rule) {
	if r.Enabled {
		e.rules = append(e.rules, r)
	}
}

// Update replaces the rule with the given id in place.
func (e *Engine) Update(id string, r model.Rule) {
	for i := range e.rules {
		if e.rules[i].ID == id {
			e.rules[i] = r
			return
		}
	}
}

// Remove drops the rule with the given id from the snapshot.
func (e *Engine) Remove(id string) {
	for i := range e.rules {
		if e.rules[i].ID == id {
			e.rules = append(e.rules[:i], e.rules[i+1:]...)
			return
		}
	}
}
