package gcal

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/fastygo/planner/domain"
	plannercal "github.com/fastygo/planner/usecase/calendar"
)

// TaskIDProperty is the private extended property that links an event to its task.
const TaskIDProperty = "planner_task_id"

var priorityColors = map[domain.Priority]string{
	domain.PriorityHigh:   "11",
	domain.PriorityMedium: "5",
	domain.PriorityLow:    "2",
}

// Publisher upserts one all-day event per open task into a Google calendar.
type Publisher struct {
	srv        *calendar.Service
	calendarID string
	logger     *zap.Logger
}

// NewPublisherFromFile authenticates with a service account key file.
func NewPublisherFromFile(ctx context.Context, credentialsFile, calendarID string, logger *zap.Logger) (*Publisher, error) {
	raw, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read calendar credentials %s: %w", credentialsFile, err)
	}
	creds, err := google.CredentialsFromJSON(ctx, raw, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("parse calendar credentials: %w", err)
	}
	srv, err := calendar.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, creds.TokenSource)))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return NewPublisher(srv, calendarID, logger), nil
}

func NewPublisher(srv *calendar.Service, calendarID string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{srv: srv, calendarID: calendarID, logger: logger}
}

// Publish mirrors tasks that are still open. Completed tasks are skipped, not removed.
func (p *Publisher) Publish(ctx context.Context, tasks []domain.Task) (plannercal.SyncResult, error) {
	var result plannercal.SyncResult
	for i := range tasks {
		task := &tasks[i]
		if task.IsCompleted() || task.DueDate.IsZero() {
			result.Skipped++
			continue
		}
		created, err := p.upsert(ctx, task)
		if err != nil {
			return result, fmt.Errorf("publish task %d: %w", task.ID, err)
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}
	return result, nil
}

func (p *Publisher) upsert(ctx context.Context, task *domain.Task) (bool, error) {
	event := EventFromTask(task)
	existing, err := p.findByTask(ctx, task.ID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		_, err = p.srv.Events.Update(p.calendarID, existing.Id, event).Context(ctx).Do()
		return false, err
	}
	_, err = p.srv.Events.Insert(p.calendarID, event).Context(ctx).Do()
	if err == nil {
		p.logger.Debug("calendar event created", zap.Int64("task_id", task.ID))
	}
	return true, err
}

func (p *Publisher) findByTask(ctx context.Context, taskID int64) (*calendar.Event, error) {
	events, err := p.srv.Events.List(p.calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%d", TaskIDProperty, taskID)).
		ShowDeleted(false).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("search calendar event: %w", err)
	}
	if len(events.Items) > 0 {
		return events.Items[0], nil
	}
	return nil, nil
}

// EventFromTask builds the all-day event for a task's due date.
func EventFromTask(task *domain.Task) *calendar.Event {
	summary := task.Title
	if task.Subject != "" {
		summary += " - " + task.Subject
	}
	event := &calendar.Event{
		Summary:     summary,
		Description: task.Description,
		Start:       &calendar.EventDateTime{Date: task.DueDate.String()},
		End:         &calendar.EventDateTime{Date: task.DueDate.AddDays(1).String()},
		ColorId:     priorityColors[task.Priority],
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				TaskIDProperty: strconv.FormatInt(task.ID, 10),
				"status":       string(task.Status),
			},
		},
		Transparency: "transparent",
	}
	return event
}
