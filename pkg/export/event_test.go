package export

import (
	"strings"
	"testing"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/taskrules/pkg/model"
)

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"PT1H30M", 90 * time.Minute, false},
		{"PT45M", 45 * time.Minute, false},
		{"PT90S", 90 * time.Second, false},
		{"1h30m", 90 * time.Minute, false},
		{"45m", 45 * time.Minute, false},
		{"", 0, false},
		{"P1H", 0, true},
		{"PT", 0, true},
		{"bogus", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseDuration(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseDuration(%q): expected error, got %v", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDuration(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestProject(t *testing.T) {
	task := &model.Task{
		Category:          "Meetings",
		AppliedProperties: model.Properties{"project": "Delegated"},
	}
	if got := Project(task); got != "Delegated" {
		t.Errorf("Project = %q, want applied value", got)
	}

	task.AppliedProperties = model.Properties{}
	if got := Project(task); got != "Meetings" {
		t.Errorf("Project = %q, want category fallback", got)
	}
}

func TestStartTime(t *testing.T) {
	task := &model.Task{
		ScheduledFor: "2099-06-02",
		DueDate:      "2099-06-01",
		DueTime:      "14:30",
	}
	start, ok := StartTime(task)
	if !ok {
		t.Fatal("expected a start time")
	}
	if start.Day() != 2 {
		t.Errorf("scheduledFor should win over dueDate, got day %d", start.Day())
	}
	if start.Hour() != 14 || start.Minute() != 30 {
		t.Errorf("dueTime not combined: got %v", start)
	}

	task.ScheduledFor = ""
	start, _ = StartTime(task)
	if start.Day() != 1 {
		t.Errorf("expected dueDate fallback, got day %d", start.Day())
	}

	if _, ok := StartTime(&model.Task{}); ok {
		t.Error("task with no dates should have no start time")
	}
}

func TestStartTimeFullTimestamp(t *testing.T) {
	task := &model.Task{DueDate: "2099-06-01T09:15:00Z"}
	start, ok := StartTime(task)
	if !ok {
		t.Fatal("expected a start time")
	}
	if start.UTC().Hour() != 9 || start.UTC().Minute() != 15 {
		t.Errorf("embedded time lost: got %v", start)
	}
}

func TestEventFromTask(t *testing.T) {
	task := &model.Task{
		ID:                "task-1",
		Title:             "Review code changes",
		AssignedTo:        "Alice",
		DueDate:           "2099-06-01",
		DueTime:           "14:00",
		EstimatedDuration: "PT1H",
		Priority:          model.PriorityHigh,
		Status:            model.StatusPending,
		Tags:              []string{"review"},
		AppliedProperties: model.Properties{"project": "Work", "label": "@Now"},
		AppliedRules:      []string{"rule-2", "rule-7"},
	}

	event, err := EventFromTask(task, nil)
	if err != nil {
		t.Fatal(err)
	}

	if event.Summary != "Review code changes" {
		t.Errorf("unexpected summary %q", event.Summary)
	}
	if event.ExtendedProperties.Private[TaskIDProperty] != "task-1" {
		t.Error("task id not carried in extended properties")
	}

	start, _ := time.Parse(time.RFC3339, event.Start.DateTime)
	end, _ := time.Parse(time.RFC3339, event.End.DateTime)
	if end.Sub(start) != time.Hour {
		t.Errorf("estimated duration not honored: %v", end.Sub(start))
	}

	for _, want := range []string{"#review", "Project: Work", "label: @Now", "rule-2", "rule-7", "ID: task-1"} {
		if !strings.Contains(event.Description, want) {
			t.Errorf("description missing %q:\n%s", want, event.Description)
		}
	}
}

func TestEventFromTaskPrefixes(t *testing.T) {
	done := &model.Task{ID: "t", Title: "Ship", DueDate: "2099-06-01", Status: model.StatusCompleted}
	event, err := EventFromTask(done, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(event.Summary, "✓ ") {
		t.Errorf("completed task should be check-marked: %q", event.Summary)
	}

	late := &model.Task{ID: "t", Title: "Ship", DueDate: "2020-01-01", Status: model.StatusPending}
	event, err = EventFromTask(late, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(event.Summary, "! ") {
		t.Errorf("overdue task should be flagged: %q", event.Summary)
	}
}

func TestEventFromTaskNoDate(t *testing.T) {
	if _, err := EventFromTask(&model.Task{ID: "t", Title: "Floating"}, nil); err == nil {
		t.Error("expected an error for a task with no dates")
	}
}

func TestEventNeedsUpdate(t *testing.T) {
	base := func() *calendar.Event {
		return &calendar.Event{
			Summary:     "Ship release",
			Description: "Status: Pending\n",
			ColorId:     "5",
			Start:       &calendar.EventDateTime{DateTime: "2099-06-01T14:00:00Z"},
			End:         &calendar.EventDateTime{DateTime: "2099-06-01T15:00:00Z"},
		}
	}

	patch, err := EventNeedsUpdate(base(), base())
	if err != nil {
		t.Fatal(err)
	}
	if patch != nil {
		t.Errorf("identical events should not need a patch: %+v", patch)
	}

	target := base()
	target.Summary = "! Ship release"
	patch, err = EventNeedsUpdate(base(), target)
	if err != nil {
		t.Fatal(err)
	}
	if patch == nil || patch.Summary != "! Ship release" {
		t.Errorf("summary change should patch: %+v", patch)
	}
	if patch.Start != nil {
		t.Error("unchanged times should not appear in the patch")
	}

	target = base()
	target.End.DateTime = "2099-06-01T16:00:00Z"
	patch, err = EventNeedsUpdate(base(), target)
	if err != nil {
		t.Fatal(err)
	}
	if patch == nil || patch.End == nil {
		t.Error("time change should patch start and end together")
	}
}
