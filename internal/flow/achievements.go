package flow

import "github.com/BTreeMap/WellbeingBot/internal/models"

// Achievement thresholds for a single steps entry.
const (
	LegendOfStepsThreshold = 10000
	ActiveDayThreshold     = 5000
)

// Trigger is an event the achievement engine reacts to.
type Trigger string

const (
	TriggerWaterLogged   Trigger = "water_logged"
	TriggerSleepLogged   Trigger = "sleep_logged"
	TriggerStepsLogged   Trigger = "steps_logged"
	TriggerMoodLogged    Trigger = "mood_logged"
	TriggerTaskCompleted Trigger = "task_completed"
)

// EvaluateAchievements returns the achievements earned by one event. value is the
// logged amount where the trigger has one. It has no side effects.
func EvaluateAchievements(trigger Trigger, value int) []models.AchievementTitle {
	switch trigger {
	case TriggerStepsLogged:
		switch {
		case value >= LegendOfStepsThreshold:
			return []models.AchievementTitle{models.AchievementLegendOfSteps}
		case value >= ActiveDayThreshold:
			return []models.AchievementTitle{models.AchievementActiveDay}
		}
		return nil
	case TriggerTaskCompleted:
		return []models.AchievementTitle{models.AchievementFocusAndDiscipline}
	default:
		return nil
	}
}
