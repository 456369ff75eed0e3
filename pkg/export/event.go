// Package export turns processed tasks into Google Calendar events. The
// derived properties and rule provenance produced by the engine travel into
// the event body so the calendar shows why a task looks the way it does.
package export

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/taskrules/pkg/colors"
	"github.com/harrisonrobin/taskrules/pkg/match"
	"github.com/harrisonrobin/taskrules/pkg/model"
)

// TaskIDProperty is the private extended property carrying the task id.
const TaskIDProperty = "taskrules_id"

const defaultDuration = 30 * time.Minute

var isoDurationPart = regexp.MustCompile(`(\d+)([HMS])`)

// ParseDuration accepts ISO 8601 time durations (PT1H30M) and Go duration
// strings (1h30m, 90m). An empty string is zero, not an error.
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	if !strings.HasPrefix(s, "P") {
		return time.ParseDuration(s)
	}

	rest, ok := strings.CutPrefix(s[1:], "T")
	if !ok {
		return 0, fmt.Errorf("invalid ISO 8601 duration (missing T): %s", s)
	}
	var total time.Duration
	for _, m := range isoDurationPart.FindAllStringSubmatch(rest, -1) {
		value, _ := strconv.Atoi(m[1])
		switch m[2] {
		case "H":
			total += time.Duration(value) * time.Hour
		case "M":
			total += time.Duration(value) * time.Minute
		case "S":
			total += time.Duration(value) * time.Second
		}
	}
	if total == 0 {
		return 0, fmt.Errorf("invalid ISO 8601 duration: %s", s)
	}
	return total, nil
}

// Project returns the task's derived project: the rule-applied value first,
// falling back to the ingested category.
func Project(t *model.Task) string {
	if p := t.AppliedProperties["project"]; p != "" {
		return p
	}
	return t.Category
}

// StartTime resolves the event start from scheduledFor, falling back to
// dueDate, combining dueTime when present. Date-only values start at
// midnight local time.
func StartTime(t *model.Task) (time.Time, bool) {
	if ts, ok := combine(t.ScheduledFor, t.DueTime); ok {
		return ts, true
	}
	return combine(t.DueDate, t.DueTime)
}

func combine(dateStr, timeStr string) (time.Time, bool) {
	if dateStr == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04"} {
		if ts, err := time.ParseInLocation(layout, dateStr, time.Local); err == nil {
			return ts, true
		}
	}
	date, ok := model.ParseDate(dateStr, time.Local)
	if !ok {
		return time.Time{}, false
	}
	if timeStr != "" {
		if tt, err := time.Parse("15:04", timeStr); err == nil {
			return date.Add(time.Duration(tt.Hour())*time.Hour + time.Duration(tt.Minute())*time.Minute), true
		}
	}
	return date, true
}

// EventFromTask builds the calendar event for a processed task. Tasks with
// no usable date cannot be placed on a calendar and return an error.
func EventFromTask(t *model.Task, palette *colors.Cache) (*calendar.Event, error) {
	start, ok := StartTime(t)
	if !ok {
		return nil, fmt.Errorf("task %s has no usable date (dueDate or scheduledFor)", t.ID)
	}

	duration, err := ParseDuration(t.EstimatedDuration)
	if err != nil || duration <= 0 {
		duration = defaultDuration
	}
	end := start.Add(duration)

	now := time.Now()
	prefix := ""
	switch {
	case t.Status == model.StatusCompleted:
		prefix = "✓ "
	case match.Overdue(t, now) || (start.Before(now) && t.Status != model.StatusCancelled):
		prefix = "! "
	}

	colorID := ""
	if palette != nil {
		colorID = palette.ColorID(Project(t))
	}

	event := &calendar.Event{
		Summary:     prefix + t.Title,
		ColorId:     colorID,
		Description: describeTask(t),
		Start: &calendar.EventDateTime{
			DateTime: start.UTC().Format(time.RFC3339),
		},
		End: &calendar.EventDateTime{
			DateTime: end.UTC().Format(time.RFC3339),
		},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				TaskIDProperty: t.ID,
			},
		},
	}
	return event, nil
}

func describeTask(t *model.Task) string {
	var b strings.Builder

	if len(t.Tags) > 0 {
		for _, tag := range t.Tags {
			fmt.Fprintf(&b, "#%s ", tag)
		}
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "Status: %s\n", t.Status)
	fmt.Fprintf(&b, "Priority: %s\n", t.Priority)
	if assignee := firstNonEmpty(t.AppliedProperties["assignee"], t.AssignedTo); assignee != "" {
		fmt.Fprintf(&b, "Assignee: %s\n", assignee)
	}
	if project := Project(t); project != "" {
		fmt.Fprintf(&b, "Project: %s\n", project)
	}
	if t.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", t.Description)
	}

	if len(t.AppliedProperties) > 0 {
		b.WriteString("\nDerived properties:\n")
		keys := make([]string, 0, len(t.AppliedProperties))
		for k := range t.AppliedProperties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "• %s: %s\n", k, t.AppliedProperties[k])
		}
	}
	if len(t.AppliedRules) > 0 {
		b.WriteString("\nApplied rules:\n")
		for _, id := range t.AppliedRules {
			fmt.Fprintf(&b, "‣ %s\n", id)
		}
	}

	fmt.Fprintf(&b, "\nID: %s\n", t.ID)
	return b.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// EventNeedsUpdate diffs an existing event against the freshly converted one
// and returns a minimal patch, or nil when nothing changed.
func EventNeedsUpdate(existing, target *calendar.Event) (*calendar.Event, error) {
	patch := &calendar.Event{}
	needsUpdate := false

	if existing.Summary != target.Summary {
		patch.Summary = target.Summary
		needsUpdate = true
	}
	if existing.Description != target.Description {
		patch.Description = target.Description
		needsUpdate = true
	}
	if existing.ColorId != target.ColorId {
		patch.ColorId = target.ColorId
		needsUpdate = true
	}

	existingStart, err := time.Parse(time.RFC3339, existing.Start.DateTime)
	if err != nil {
		return nil, err
	}
	targetStart, err := time.Parse(time.RFC3339, target.Start.DateTime)
	if err != nil {
		return nil, err
	}
	existingEnd, err := time.Parse(time.RFC3339, existing.End.DateTime)
	if err != nil {
		return nil, err
	}
	targetEnd, err := time.Parse(time.RFC3339, target.End.DateTime)
	if err != nil {
		return nil, err
	}
	if !existingStart.Equal(targetStart) || !existingEnd.Equal(targetEnd) {
		patch.Start = target.Start
		patch.End = target.End
		needsUpdate = true
	}

	if needsUpdate {
		return patch, nil
	}
	return nil, nil
}
