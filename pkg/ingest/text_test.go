package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/taskrules/pkg/model"
)

const extractedDoc = `
Task Management Rules and Assignments

Rule 1: If task contains "urgent" then priority = "High"
Rule 2: If task assigned to "John" then department = "Engineering"
Rule 3: If task due on weekend then low priority

Tasks:
- Review code changes (Assigned: Alice, Due: 2024-01-15, Time: 14:00)
- Update documentation (Assigned: Bob, Due: 2024-01-16, Time: 10:00)

People:
- Alice Johnson (alice@company.com, Engineering)
- Bob Smith (bob@company.com, Documentation)
`

func TestParseTextExtractedDocument(t *testing.T) {
	res := Parse(extractedDoc, FormatText)

	require.Empty(t, res.Errors)
	require.Len(t, res.Rules, 3)
	require.Len(t, res.Tasks, 2)
	require.Len(t, res.People, 2)

	assert.Equal(t, `task contains "urgent"`, res.Rules[0].If)
	assert.Equal(t, model.Properties{"priority": "High"}, res.Rules[0].Then)
	assert.True(t, res.Rules[0].Enabled)

	assert.Equal(t, model.Properties{"department": "Engineering"}, res.Rules[1].Then)

	// an effects clause without key=value pairs becomes a single
	// effect under the key "property"
	assert.Equal(t, model.Properties{"property": "low priority"}, res.Rules[2].Then)

	task := res.Tasks[0]
	assert.Equal(t, "Review code changes", task.Title)
	assert.Equal(t, "Alice", task.AssignedTo)
	assert.Equal(t, "2024-01-15", task.DueDate)
	assert.Equal(t, "14:00", task.DueTime)
	assert.Equal(t, model.StatusPending, task.Status)

	person := res.People[0]
	assert.Equal(t, "Alice Johnson", person.Name)
	assert.Equal(t, "alice@company.com", person.Email)
	assert.Equal(t, "Engineering", person.Department)
}

func TestParseTextIgnoresUnmatchedLines(t *testing.T) {
	res := Parse("just some prose\nand another line\n", FormatText)

	assert.Empty(t, res.Rules)
	assert.Empty(t, res.Tasks)
	assert.Empty(t, res.People)
	assert.Empty(t, res.Errors)
}

func TestParseTextRulePreconditions(t *testing.T) {
	t.Run("needs the Rule prefix", func(t *testing.T) {
		res := Parse(`My Rule 1: If task contains "x" then y = "z"`, FormatText)
		assert.Empty(t, res.Rules)
	})

	t.Run("needs a colon", func(t *testing.T) {
		res := Parse(`Rule 1 If task contains "x" then y = "z"`, FormatText)
		assert.Empty(t, res.Rules)
	})
}

func TestParseTextTaskNeedsAssignedAndDue(t *testing.T) {
	res := Parse("- Ship release (Assigned: Carol, Due: 2024-03-01, Time: 09:00)\n- Orphan line (Owner: Dave)\n", FormatText)

	require.Len(t, res.Tasks, 1)
	assert.Equal(t, "Ship release", res.Tasks[0].Title)
}
