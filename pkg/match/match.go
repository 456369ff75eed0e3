// Package match evaluates a rule's free-text condition against a task.
//
// Conditions are not a rule language. A fixed, ordered table of phrase forms
// is scanned; the first form whose trigger phrase occurs in the condition
// handles it completely, even when its predicate turns out false. A condition
// that triggers no form never matches.
package match

import (
	"regexp"
	"strings"
	"time"

	"github.com/harrisonrobin/taskrules/pkg/model"
)

// form couples a structural trigger with its predicate. The trigger decides
// which form owns the condition; the predicate decides the outcome.
type form struct {
	trigger string
	arg     *regexp.Regexp // extracts the quoted argument, nil when the form takes none
	eval    func(arg string, t *model.Task, now time.Time) bool
}

func quotedArg(prefix string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + prefix + `\s+['"]([^'"]+)['"]`)
}

var forms = []form{
	{trigger: "contains", arg: quotedArg("contains"), eval: containsTerm},
	{trigger: "time is", arg: quotedArg("time is"), eval: timeWord},
	{trigger: "scheduled for saturday or sunday", eval: onWeekend},
	{trigger: "priority is", arg: quotedArg("priority is"), eval: priorityIs},
	{trigger: "status is", arg: quotedArg("status is"), eval: statusIs},
	{trigger: "assigned to", arg: quotedArg("assigned to"), eval: assignedTo},
	{trigger: "due today", eval: dueToday},
	{trigger: "overdue", eval: isOverdue},
	{trigger: "involves calls, communication, or errands", eval: keywords(commuteWords)},
	{trigger: "quick or under 15 minutes", eval: keywords(quickWords)},
	{trigger: "admin work, paperwork or coordination", eval: keywords(adminWords)},
	{trigger: "grooming, meals, health or reflection", eval: keywords(healthWords)},
	{trigger: "learning, university, academia, research", eval: keywords(academicWords)},
	{trigger: "team instructions or maintenance requests", eval: keywords(teamWords)},
}

var (
	commuteWords  = []string{"call", "phone", "email", "message", "text", "communicate", "errand", "pickup", "drop off"}
	quickWords    = []string{"quick", "fast", "brief", "5 min", "10 min", "15 min", "short"}
	adminWords    = []string{"admin", "paperwork", "coordinate", "schedule", "organize", "plan", "document", "form"}
	healthWords   = []string{"shower", "brush", "eat", "meal", "breakfast", "lunch", "dinner", "exercise", "workout", "meditate", "reflect"}
	academicWords = []string{"study", "learn", "research", "read", "university", "course", "assignment", "homework", "exam"}
	teamWords     = []string{"team", "instruct", "delegate", "assign", "maintain", "fix", "repair", "update"}
)

// Matches reports whether condition holds for the task. Date comparisons are
// calendar-date-only in now's location; callers pin now for determinism.
func Matches(condition string, t *model.Task, now time.Time) bool {
	lc := strings.ToLower(condition)
	for _, f := range forms {
		if !strings.Contains(lc, f.trigger) {
			continue
		}
		var arg string
		if f.arg != nil {
			m := f.arg.FindStringSubmatch(condition)
			if m == nil {
				// The form owns this condition but the argument is
				// missing or unquoted. Fail closed, no fallthrough.
				return false
			}
			arg = strings.ToLower(m[1])
		}
		return f.eval(arg, t, now)
	}
	return false
}

func containsTerm(term string, t *model.Task, _ time.Time) bool {
	if strings.Contains(strings.ToLower(t.Title), term) ||
		strings.Contains(strings.ToLower(t.Description), term) ||
		strings.Contains(strings.ToLower(t.AssignedTo), term) ||
		strings.Contains(strings.ToLower(t.Category), term) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

func timeWord(word string, t *model.Task, _ time.Time) bool {
	return strings.Contains(strings.ToLower(t.Title), word) ||
		strings.Contains(strings.ToLower(t.Description), word)
}

func onWeekend(_ string, t *model.Task, now time.Time) bool {
	date, ok := t.DueOn(now.Location())
	if !ok {
		date, ok = t.ScheduledOn(now.Location())
	}
	if !ok {
		return false
	}
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func priorityIs(p string, t *model.Task, _ time.Time) bool {
	return strings.EqualFold(string(t.Priority), p)
}

func statusIs(s string, t *model.Task, _ time.Time) bool {
	return strings.EqualFold(string(t.Status), s)
}

func assignedTo(name string, t *model.Task, _ time.Time) bool {
	return strings.Contains(strings.ToLower(t.AssignedTo), name)
}

func dueToday(_ string, t *model.Task, now time.Time) bool {
	due, ok := t.DueOn(now.Location())
	if !ok {
		return false
	}
	return due.Equal(today(now))
}

// Overdue reports whether the task's due date has passed and the task is not
// completed. Shared with the engine's overdue query so both agree.
func Overdue(t *model.Task, now time.Time) bool {
	due, ok := t.DueOn(now.Location())
	if !ok {
		return false
	}
	return due.Before(today(now)) && t.Status != model.StatusCompleted
}

func isOverdue(_ string, t *model.Task, now time.Time) bool {
	return Overdue(t, now)
}

func keywords(words []string) func(string, *model.Task, time.Time) bool {
	return func(_ string, t *model.Task, _ time.Time) bool {
		title := strings.ToLower(t.Title)
		desc := strings.ToLower(t.Description)
		for _, w := range words {
			if strings.Contains(title, w) || strings.Contains(desc, w) {
				return true
			}
		}
		return false
	}
}

func today(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
