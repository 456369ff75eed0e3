// Package google syncs processed tasks onto a Google Calendar.
package google

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/taskrules/pkg/export"
	"github.com/harrisonrobin/taskrules/pkg/index"
)

// CalendarClient wraps the Calendar API for one calendar, keeping a local
// task-to-event index so repeat syncs skip the search round trip.
type CalendarClient struct {
	srv        *calendar.Service
	calendarID string
	index      *index.EventIndex
}

func NewCalendarClient(srv *calendar.Service, calendarID string, idx *index.EventIndex) *CalendarClient {
	return &CalendarClient{srv: srv, calendarID: calendarID, index: idx}
}

// SyncEvent creates the event for a task or patch-updates the existing one.
// Only fields that actually differ are sent.
func (c *CalendarClient) SyncEvent(taskID string, event *calendar.Event) (*calendar.Event, error) {
	var existing *calendar.Event

	// Local index first, API search as fallback.
	if c.index != nil {
		if eventID := c.index.Get(taskID); eventID != "" {
			found, err := c.srv.Events.Get(c.calendarID, eventID).Do()
			if err == nil {
				existing = found
			}
		}
	}
	if existing == nil {
		found, err := c.GetEventByTaskID(taskID)
		if err != nil {
			return nil, fmt.Errorf("error searching for event: %w", err)
		}
		existing = found
	}

	if existing != nil {
		patch, err := export.EventNeedsUpdate(existing, event)
		if err != nil {
			log.Warn("could not compare task with its calendar event", "task", taskID, "err", err)
			return nil, err
		}
		if patch == nil {
			return existing, nil
		}
		updated, err := c.PatchEvent(existing.Id, patch)
		if err == nil && c.index != nil {
			c.index.Set(taskID, updated.Id)
		}
		return updated, err
	}

	created, err := c.srv.Events.Insert(c.calendarID, event).Do()
	if err == nil && c.index != nil {
		c.index.Set(taskID, created.Id)
	}
	return created, err
}

// PatchEvent performs a partial update on an event.
func (c *CalendarClient) PatchEvent(eventID string, patch *calendar.Event) (*calendar.Event, error) {
	return c.srv.Events.Patch(c.calendarID, eventID, patch).Do()
}

// DeleteEvent removes an event from the calendar.
func (c *CalendarClient) DeleteEvent(eventID string) error {
	return c.srv.Events.Delete(c.calendarID, eventID).Do()
}

// ListEvents fetches events starting after timeMin.
func (c *CalendarClient) ListEvents(timeMin time.Time) ([]*calendar.Event, error) {
	events, err := c.srv.Events.List(c.calendarID).TimeMin(timeMin.Format(time.RFC3339)).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve events from calendar: %w", err)
	}
	return events.Items, nil
}

// GetEventByTaskID finds the event tagged with the task id in its private
// extended properties.
func (c *CalendarClient) GetEventByTaskID(taskID string) (*calendar.Event, error) {
	events, err := c.srv.Events.List(c.calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", export.TaskIDProperty, taskID)).
		Do()
	if err != nil {
		return nil, err
	}
	if len(events.Items) > 0 {
		return events.Items[0], nil
	}
	return nil, nil
}
