package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/harrisonrobin/taskrules/pkg/model"
)

// Tuesday, 2024-01-16.
var fixedNow = time.Date(2024, 1, 16, 10, 0, 0, 0, time.UTC)

func TestMatchesContains(t *testing.T) {
	task := model.Task{Title: "Call Adil about delegation"}

	t.Run("matches title", func(t *testing.T) {
		assert.True(t, Matches("task contains 'Adil'", &task, fixedNow))
	})

	t.Run("matches tags", func(t *testing.T) {
		tagged := model.Task{Title: "Standup", Tags: []string{"urgent", "team"}}
		assert.True(t, Matches("task contains 'urgent'", &tagged, fixedNow))
	})

	t.Run("matches category and assignee", func(t *testing.T) {
		cat := model.Task{Title: "Standup", Category: "Maintenance"}
		assert.True(t, Matches("task contains 'mainten'", &cat, fixedNow))

		asg := model.Task{Title: "Standup", AssignedTo: "Alice"}
		assert.True(t, Matches("task contains 'alice'", &asg, fixedNow))
	})

	t.Run("no term no match", func(t *testing.T) {
		assert.False(t, Matches("task contains 'Bob'", &task, fixedNow))
	})

	t.Run("unquoted argument fails closed", func(t *testing.T) {
		// The contains form owns the condition; a missing quoted term
		// must not fall through to another form.
		assert.False(t, Matches("task contains Adil", &task, fixedNow))
	})
}

func TestMatchesTimeIs(t *testing.T) {
	task := model.Task{Title: "Morning run", Description: "before work"}
	assert.True(t, Matches("task time is 'morning'", &task, fixedNow))
	assert.False(t, Matches("task time is 'evening'", &task, fixedNow))

	// time-is only looks at title and description, not the assignee
	asg := model.Task{Title: "Run", AssignedTo: "morning shift"}
	assert.False(t, Matches("task time is 'morning'", &asg, fixedNow))
}

func TestMatchesWeekend(t *testing.T) {
	cond := "task scheduled for Saturday or Sunday"

	t.Run("saturday due date matches", func(t *testing.T) {
		task := model.Task{Title: "Groceries", DueDate: "2024-01-13"}
		assert.True(t, Matches(cond, &task, fixedNow))
	})

	t.Run("tuesday due date does not", func(t *testing.T) {
		task := model.Task{Title: "Groceries", DueDate: "2024-01-16"}
		assert.False(t, Matches(cond, &task, fixedNow))
	})

	t.Run("falls back to scheduledFor", func(t *testing.T) {
		task := model.Task{Title: "Groceries", ScheduledFor: "2024-01-14"}
		assert.True(t, Matches(cond, &task, fixedNow))
	})

	t.Run("no date no match", func(t *testing.T) {
		task := model.Task{Title: "Groceries"}
		assert.False(t, Matches(cond, &task, fixedNow))
	})
}

func TestMatchesPriorityAndStatus(t *testing.T) {
	task := model.Task{Title: "Deploy", Priority: model.PriorityHigh, Status: model.StatusInProgress}

	assert.True(t, Matches("priority is 'high'", &task, fixedNow))
	assert.False(t, Matches("priority is 'low'", &task, fixedNow))
	assert.True(t, Matches("status is 'inprogress'", &task, fixedNow))
	assert.False(t, Matches("status is 'pending'", &task, fixedNow))
}

func TestMatchesAssignedTo(t *testing.T) {
	task := model.Task{Title: "Review", AssignedTo: "Alice Johnson"}
	assert.True(t, Matches("task assigned to 'alice'", &task, fixedNow))
	assert.False(t, Matches("task assigned to 'bob'", &task, fixedNow))
}

func TestMatchesDueToday(t *testing.T) {
	today := model.Task{Title: "Pay rent", DueDate: "2024-01-16"}
	assert.True(t, Matches("due today", &today, fixedNow))

	tomorrow := model.Task{Title: "Pay rent", DueDate: "2024-01-17"}
	assert.False(t, Matches("due today", &tomorrow, fixedNow))
}

func TestMatchesOverdue(t *testing.T) {
	t.Run("past due and not completed", func(t *testing.T) {
		task := model.Task{Title: "File taxes", DueDate: "2024-01-10", Status: model.StatusPending}
		assert.True(t, Matches("task is overdue", &task, fixedNow))
	})

	t.Run("completed tasks are never overdue", func(t *testing.T) {
		task := model.Task{Title: "File taxes", DueDate: "2024-01-10", Status: model.StatusCompleted}
		assert.False(t, Matches("task is overdue", &task, fixedNow))
	})

	t.Run("due today is not overdue", func(t *testing.T) {
		task := model.Task{Title: "File taxes", DueDate: "2024-01-16", Status: model.StatusPending}
		assert.False(t, Matches("task is overdue", &task, fixedNow))
	})
}

func TestMatchesKeywordCategories(t *testing.T) {
	cases := []struct {
		name      string
		condition string
		title     string
		want      bool
	}{
		{"communication", "task involves calls, communication, or errands", "Phone the plumber", true},
		{"quick", "task is quick or under 15 minutes", "Quick tidy of desk", true},
		{"admin", "task involves admin work, paperwork or coordination", "Organize receipts", true},
		{"health", "task includes grooming, meals, health or reflection", "Prepare breakfast", true},
		{"academic", "task includes learning, university, academia, research", "Study for exam", true},
		{"team", "task includes team instructions or maintenance requests", "Fix the leaking tap", true},
		{"no keyword", "task involves calls, communication, or errands", "Water the plants", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			task := model.Task{Title: tc.title}
			assert.Equal(t, tc.want, Matches(tc.condition, &task, fixedNow))
		})
	}
}

func TestMatchesUnknownConditionFailsClosed(t *testing.T) {
	task := model.Task{
		Title:       "Anything at all",
		Description: "foo bar baz",
		DueDate:     "2024-01-10",
	}
	assert.False(t, Matches("foo bar baz", &task, fixedNow))
	assert.False(t, Matches("", &task, fixedNow))
}

func TestFirstFormWins(t *testing.T) {
	// Condition triggers both contains and "assigned to"; contains comes
	// first in the table and fully decides the outcome.
	task := model.Task{Title: "Plan sprint", AssignedTo: "Carol"}
	assert.False(t, Matches("contains 'bob' when assigned to 'carol'", &task, fixedNow))
	assert.True(t, Matches("contains 'sprint' when assigned to 'nobody'", &task, fixedNow))
}
