package flow

import (
	"regexp"
	"strings"

	"github.com/BTreeMap/WellbeingBot/internal/models"
)

// The numeric shapes overlap; Classify resolves ties in declaration order.
var (
	waterPattern     = regexp.MustCompile(`^\d{2,4}$`)
	sleepPattern     = regexp.MustCompile(`^\d{1,2}(\.\d)?$`)
	stepsPattern     = regexp.MustCompile(`^\d{3,6}$`)
	taskIndexPattern = regexp.MustCompile(`^\d+$`)
)

// Classify decides how a free-text message is interpreted, first match wins:
//  1. a menu label or command
//  2. any text while a task title is expected
//  3. digits while a task number is expected
//  4. the numeric shapes, water then sleep then steps
//  5. otherwise unrouted
//
// It has no side effects.
func Classify(text string, expectation models.ExpectationKind) models.Classification {
	if cmd, ok := MatchCommand(text); ok {
		return models.Classification{Kind: models.ClassMenuCommand, Text: cmd}
	}
	if label, ok := MatchMenuLabel(text); ok {
		return models.Classification{Kind: models.ClassMenuCommand, Text: label}
	}

	trimmed := strings.TrimSpace(text)
	switch expectation {
	case models.ExpectationTaskTitle:
		return models.Classification{Kind: models.ClassTaskTitle, Text: text}
	case models.ExpectationTaskCompletionIndex:
		if taskIndexPattern.MatchString(trimmed) {
			return models.Classification{Kind: models.ClassTaskCompletionIndex, Text: trimmed}
		}
	}

	switch {
	case waterPattern.MatchString(trimmed):
		return models.Classification{Kind: models.ClassWaterAmount, Text: trimmed}
	case sleepPattern.MatchString(trimmed):
		return models.Classification{Kind: models.ClassSleepHours, Text: trimmed}
	case stepsPattern.MatchString(trimmed):
		return models.Classification{Kind: models.ClassStepsCount, Text: trimmed}
	}
	return models.Classification{Kind: models.ClassUnrouted, Text: text}
}
