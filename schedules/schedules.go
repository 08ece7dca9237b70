// ABOUTME: Work schedule supersede workflow
// ABOUTME: Ends a schedule and creates its replacement when a work item moves off cadence
package schedules

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/avriosolutions/gehn/models"
	"github.com/avriosolutions/gehn/recurrence"
)

// API is the slice of the Karbon client the schedule workflow needs.
type API interface {
	GetEntity(ctx context.Context, entityType models.EntityType, key string, query url.Values) (models.Entity, error)
	CreateEntity(ctx context.Context, entityType models.EntityType, body models.Entity) (models.Entity, error)
	UpdateEntity(ctx context.Context, entityType models.EntityType, key string, body models.Entity) (models.Entity, error)
}

// Update checks whether the work item's start date still falls on its
// schedule's cadence. When it does not, the current schedule is closed with
// an end date and a replacement schedule is created starting at the new date.
// Old schedules are never mutated beyond the end date, preserving history.
func Update(ctx context.Context, api API, item models.Entity, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	scheduleKey := item.String("WorkScheduleKey")
	log := logger.With("work_item", item.String("WorkItemKey"), "schedule", scheduleKey)

	if scheduleKey == "" {
		log.Info("work item has no schedule")
		return nil
	}

	schedule, err := api.GetEntity(ctx, models.EntityWorkSchedule, scheduleKey, nil)
	if err != nil {
		return fmt.Errorf("schedules: fetching %s: %w", scheduleKey, err)
	}

	scheduleStart, ok := models.ParseTime(schedule.String("ScheduleStartDate"))
	if !ok {
		return fmt.Errorf("schedules: %s has unparseable ScheduleStartDate %q", scheduleKey, schedule.String("ScheduleStartDate"))
	}
	workStart, ok := models.ParseTime(item.String("StartDate"))
	if !ok {
		return fmt.Errorf("schedules: work item has unparseable StartDate %q", item.String("StartDate"))
	}

	onSchedule, err := recurrence.Recurs(
		scheduleStart,
		recurrence.Frequency(schedule.String("RecurrenceFrequency")),
		schedule.Int("CustomFrequencyMultiple"),
		workStart,
	)
	if err != nil {
		return fmt.Errorf("schedules: checking cadence of %s: %w", scheduleKey, err)
	}
	if onSchedule {
		log.Info("start date is on cadence, schedule unchanged")
		return nil
	}

	log.Info("start date is off cadence, superseding schedule")

	// The replacement keeps the cadence, re-anchored at the new start date.
	replacement := schedule.Clone()
	replacement["ScheduleStartDate"] = item["StartDate"]
	replacement["CreatedFromWorkItemKey"] = item["WorkItemKey"]
	delete(replacement, "WorkScheduleKey")
	delete(replacement, "ScheduleEndDate")

	// Close the current schedule first so no window exists where both run.
	schedule["ScheduleEndDate"] = item["StartDate"]
	if _, err := api.UpdateEntity(ctx, models.EntityWorkSchedule, scheduleKey, schedule); err != nil {
		return fmt.Errorf("schedules: ending %s: %w", scheduleKey, err)
	}

	created, err := api.CreateEntity(ctx, models.EntityWorkSchedule, replacement)
	if err != nil {
		return fmt.Errorf("schedules: creating replacement for %s: %w", scheduleKey, err)
	}

	log.Info("schedule superseded", "replacement", created.String("WorkScheduleKey"))
	return nil
}
