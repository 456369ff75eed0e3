package ingest

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/harrisonrobin/taskrules/pkg/model"
)

// parseTagged decodes the tagged-object container: one JSON object with
// optional rules, tasks and people arrays of loosely typed entries. A broken
// container is the only whole-batch failure; invalid entries are skipped
// with an indexed error.
func parseTagged(content string) Result {
	res := newResult()

	var doc struct {
		Rules  []map[string]any `json:"rules"`
		Tasks  []map[string]any `json:"tasks"`
		People []map[string]any `json:"people"`
	}
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("malformed container: %v", err))
		return res
	}

	for i, obj := range doc.Rules {
		rule, ok := ruleFromObject(obj)
		if !ok {
			res.Errors = append(res.Errors, fmt.Sprintf("invalid rule at index %d: needs a non-empty condition and an effects object", i))
			continue
		}
		res.Rules = append(res.Rules, rule)
	}
	for i, obj := range doc.Tasks {
		task, ok := taskFromObject(obj)
		if !ok {
			res.Errors = append(res.Errors, fmt.Sprintf("invalid task at index %d: missing required title", i))
			continue
		}
		res.Tasks = append(res.Tasks, task)
	}
	for i, obj := range doc.People {
		person, ok := personFromObject(obj)
		if !ok {
			res.Errors = append(res.Errors, fmt.Sprintf("invalid person at index %d: missing required name", i))
			continue
		}
		res.People = append(res.People, person)
	}
	return res
}

func ruleFromObject(obj map[string]any) (model.Rule, bool) {
	condition := stringField(obj, "if")
	then, ok := propsFromValue(obj["then"])
	if strings.TrimSpace(condition) == "" || !ok {
		return model.Rule{}, false
	}

	id := stringField(obj, "id")
	if id == "" {
		id = newID("rule")
	}
	enabled := true
	if b, isBool := obj["enabled"].(bool); isBool {
		enabled = b
	}
	return model.Rule{ID: id, If: condition, Then: then, Enabled: enabled}, true
}

func taskFromObject(obj map[string]any) (model.Task, bool) {
	title := stringField(obj, "title")
	if strings.TrimSpace(title) == "" {
		return model.Task{}, false
	}

	id := stringField(obj, "id")
	if id == "" {
		id = newID("task")
	}
	priority := model.Priority(stringField(obj, "priority"))
	if priority == "" {
		priority = model.PriorityMedium
	}
	status := model.Status(stringField(obj, "status"))
	if status == "" {
		status = model.StatusPending
	}

	original, ok := propsFromValue(obj["originalProperties"])
	if !ok {
		original = model.Properties{}
	}
	applied, ok := propsFromValue(obj["appliedProperties"])
	if !ok {
		applied = model.Properties{}
	}

	return model.Task{
		ID:                 id,
		Title:              title,
		Description:        stringField(obj, "description"),
		AssignedTo:         stringField(obj, "assignedTo", "assigned_to"),
		DueDate:            stringField(obj, "dueDate", "due_date"),
		DueTime:            stringField(obj, "dueTime", "due_time"),
		Priority:           priority,
		Status:             status,
		EstimatedDuration:  stringField(obj, "estimatedDuration", "estimated_duration"),
		Category:           stringField(obj, "category"),
		Tags:               stringsFromValue(obj["tags"]),
		ScheduledFor:       stringField(obj, "scheduledFor", "scheduled_for"),
		OriginalProperties: original,
		AppliedProperties:  applied,
		AppliedRules:       stringsFromValue(obj["appliedRules"]),
		CreatedAt:          timeField(obj, "createdAt"),
		UpdatedAt:          timeField(obj, "updatedAt"),
	}, true
}

func personFromObject(obj map[string]any) (model.Person, bool) {
	name := stringField(obj, "name")
	if strings.TrimSpace(name) == "" {
		return model.Person{}, false
	}

	id := stringField(obj, "id")
	if id == "" {
		id = newID("person")
	}
	return model.Person{
		ID:           id,
		Name:         name,
		Email:        stringField(obj, "email"),
		Role:         stringField(obj, "role"),
		Department:   stringField(obj, "department"),
		Availability: stringsFromValue(obj["availability"]),
	}, true
}

// stringField resolves the first present alias to a string.
func stringField(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := obj[key]; ok {
			if s := coerceString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// coerceString flattens a loosely typed scalar to a string. Nested objects
// and arrays flatten to empty: they never cross the normalizer boundary.
func coerceString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		if x == math.Trunc(x) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return ""
}

// propsFromValue converts a loose JSON object into a Properties bag.
func propsFromValue(v any) (model.Properties, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	props := make(model.Properties, len(obj))
	for k, val := range obj {
		props[k] = coerceString(val)
	}
	return props, true
}

func stringsFromValue(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s := coerceString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func timeField(obj map[string]any, key string) time.Time {
	if s := stringField(obj, key); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
	}
	return time.Now()
}
