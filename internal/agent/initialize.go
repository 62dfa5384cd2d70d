package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/talgya/ai-town/internal/classify"
	"github.com/talgya/ai-town/internal/schedule"
)

// ScheduleMode selects where daily schedules come from.
type ScheduleMode string

const (
	ModePreset ScheduleMode = "preset"
	ModeLLM    ScheduleMode = "llm"
)

// Initialize prepares the agent for day one: memory, weekly goals and
// today's schedule. In preset mode everything comes from the store; in llm
// mode everything is generated. Returns an error when the run cannot start.
func (a *Agent) Initialize(ctx context.Context, date time.Time, mode ScheduleMode, store *schedule.Store) error {
	a.EnterThinking()
	defer a.ExitThinking()

	switch mode {
	case ModePreset:
		a.Memory = a.PersonaSummary
		plan, ok := store.Plan(a.Name)
		if !ok {
			return fmt.Errorf("no preset schedule for agent %s", a.Name)
		}
		a.WeeklySchedule = plan.Weekly
		a.applyDailySchedule(plan.Daily)
		return nil

	case ModeLLM:
		memory, ok := a.brain.GenerateInitialMemory(ctx, a.Name, a.MBTI, a.PersonaSummary, a.Home)
		if !ok {
			return fmt.Errorf("agent %s: initial memory generation failed", a.Name)
		}
		a.Memory = memory

		weekly, ok := a.brain.GenerateWeeklySchedule(ctx, a.PersonaSummary)
		if !ok {
			return fmt.Errorf("agent %s: weekly schedule generation failed", a.Name)
		}
		a.WeeklySchedule = weekly

		return a.RefreshDailySchedule(ctx, date)

	default:
		return fmt.Errorf("unknown schedule mode %q", mode)
	}
}

// RefreshDailySchedule regenerates today's schedule from the weekly goal.
// Called at initialization and again at 03:00 each simulated day.
func (a *Agent) RefreshDailySchedule(ctx context.Context, date time.Time) error {
	a.EnterThinking()
	defer a.ExitThinking()

	goal := a.WeeklySchedule[date.Weekday().String()]
	if goal == "" {
		goal = "自由活動"
	}
	day := date.Format("2006-01-02")

	hourly := a.brain.GenerateHourlySchedule(ctx, a.PersonaSummary, day, goal)
	wake := a.brain.WakeUpHour(ctx, a.rng, a.PersonaSummary, day, hourly)

	items, err := schedule.Roll(wake, hourly)
	if err != nil {
		return fmt.Errorf("agent %s: roll schedule: %w", a.Name, err)
	}
	// The day always opens with waking up.
	daily := append([]schedule.Item{{Action: classify.LabelWake, Start: wake, Target: a.Home}}, items...)

	a.DailySchedule = daily
	a.WakeTime = wake
	sleep, err := schedule.AddHM(wake, schedule.TotalMinutes(hourly))
	if err != nil {
		sleep, _ = schedule.AddHM(wake, 16*60)
	}
	a.SleepTime = sleep
	return nil
}

// applyDailySchedule installs a preset daily schedule and derives the waking
// window from it.
func (a *Agent) applyDailySchedule(items []schedule.Item) {
	a.DailySchedule = items
	if wake, ok := schedule.WakeTime(items); ok {
		a.WakeTime = wake
	}
	if sleep, ok := schedule.SleepTime(items); ok {
		a.SleepTime = sleep
	}
}

// CurrentScheduledItem looks up what the agent should be doing at hm.
func (a *Agent) CurrentScheduledItem(hm string) (schedule.Item, bool) {
	return schedule.CurrentItem(a.DailySchedule, hm)
}
