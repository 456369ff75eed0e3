package ingest

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/harrisonrobin/taskrules/pkg/model"
)

// parseDelimited handles comma-separated text with a header row. The
// lowercased column set routes the whole file: if+then means rule rows,
// title/task means task rows, name/person means person rows, checked in
// that precedence order. Rows that fail their required field are skipped
// silently, matching the tolerant bulk-import contract.
func parseDelimited(content string) Result {
	res := newResult()

	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if trimmed := strings.TrimRight(line, "\r"); strings.TrimSpace(trimmed) != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) < 2 {
		res.Errors = append(res.Errors, "delimited input needs a header row and at least one data row")
		return res
	}

	headers := splitRow(lines[0])
	for i, h := range headers {
		headers[i] = strings.ToLower(h)
	}

	switch {
	case hasColumn(headers, "if") && hasColumn(headers, "then"):
		parseRuleRows(lines, headers, &res)
	case hasColumn(headers, "title") || hasColumn(headers, "task"):
		parseTaskRows(lines, headers, &res)
	case hasColumn(headers, "name") || hasColumn(headers, "person"):
		parsePersonRows(lines, headers, &res)
	default:
		res.Errors = append(res.Errors, "unrecognized column set: expected rule columns (if, then), task columns (title, assigned_to, due_date) or person columns (name, email, role)")
	}
	return res
}

func parseRuleRows(lines, headers []string, res *Result) {
	for i := 1; i < len(lines); i++ {
		values := splitRow(lines[i])
		if len(values) < 2 {
			continue
		}
		rule := model.Rule{
			ID:      newID("rule"),
			If:      trimQuotes(values[0]),
			Then:    model.Properties{},
			Enabled: true,
		}
		for j := 1; j < len(values) && j < len(headers); j++ {
			header := headers[j]
			value := trimQuotes(values[j])
			if value == "" || header == "if" {
				continue
			}
			if header == "then" && strings.HasPrefix(value, "{") {
				var obj map[string]any
				if err := json.Unmarshal([]byte(value), &obj); err == nil {
					for k, v := range obj {
						rule.Then[k] = coerceString(v)
					}
					continue
				}
				// fall back to a literal pair on parse failure
			}
			rule.Then[header] = value
		}
		res.Rules = append(res.Rules, rule)
	}
}

func parseTaskRows(lines, headers []string, res *Result) {
	for i := 1; i < len(lines); i++ {
		values := splitRow(lines[i])
		now := time.Now()
		task := model.Task{
			ID:                 newID("task"),
			Priority:           model.PriorityMedium,
			Status:             model.StatusPending,
			OriginalProperties: model.Properties{},
			AppliedProperties:  model.Properties{},
			AppliedRules:       []string{},
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		for j, header := range headers {
			if j >= len(values) {
				break
			}
			value := trimQuotes(values[j])
			if value == "" {
				continue
			}
			switch header {
			case "title", "task":
				task.Title = value
			case "description":
				task.Description = value
			case "assigned_to", "assignedto", "assignee":
				task.AssignedTo = value
			case "due_date", "duedate":
				task.DueDate = value
			case "due_time", "duetime":
				task.DueTime = value
			case "priority":
				task.Priority = model.Priority(value)
			case "status":
				task.Status = model.Status(value)
			case "category":
				task.Category = value
			case "tags":
				task.Tags = splitList(value)
			default:
				task.OriginalProperties[header] = value
			}
		}
		if task.Title == "" {
			continue
		}
		res.Tasks = append(res.Tasks, task)
	}
}

func parsePersonRows(lines, headers []string, res *Result) {
	for i := 1; i < len(lines); i++ {
		values := splitRow(lines[i])
		person := model.Person{ID: newID("person")}
		for j, header := range headers {
			if j >= len(values) {
				break
			}
			value := trimQuotes(values[j])
			if value == "" {
				continue
			}
			switch header {
			case "name", "person":
				person.Name = value
			case "email":
				person.Email = value
			case "role":
				person.Role = value
			case "department":
				person.Department = value
			case "availability":
				person.Availability = splitList(value)
			}
		}
		if person.Name == "" {
			continue
		}
		res.People = append(res.People, person)
	}
}

// splitRow splits one comma-separated row. Double quotes toggle a region
// where commas are literal and a doubled quote escapes a literal one; the
// delimiting quote characters themselves are dropped.
func splitRow(line string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				current.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case c == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	fields = append(fields, strings.TrimSpace(current.String()))
	return fields
}

// splitList splits a semicolon-packed cell (tags, availability).
func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ";") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func hasColumn(headers []string, name string) bool {
	for _, h := range headers {
		if h == name {
			return true
		}
	}
	return false
}
