// Package schedule holds the pure date and fine arithmetic for the lending
// policy. Every function takes "now" from the caller so the rules stay
// deterministic under test.
package schedule

import (
	"fmt"
	"math"
	"time"

	"booknest/model"
)

// MinPickupDate is the earliest instant a reservation may be picked up.
// The check is a strict 24-hour lead, not a calendar-day floor.
func MinPickupDate(now time.Time) time.Time {
	return now.Add(model.MinPickupHours * time.Hour)
}

func ValidPickupDate(pickup, now time.Time) bool {
	return !pickup.Before(MinPickupDate(now))
}

// DueDate is pickup plus the borrowing duration in calendar days.
func DueDate(pickup time.Time, durationDays int) time.Time {
	return pickup.AddDate(0, 0, durationDays)
}

// RemainingDays is ceil((due - now) / 1 day); negative once overdue.
func RemainingDays(due, now time.Time) int {
	return int(math.Ceil(due.Sub(now).Hours() / 24))
}

func IsOverdue(due, now time.Time) bool {
	return RemainingDays(due, now) < 0
}

// LateFine accrues finePerDay for each whole or partial day past due,
// zero while the borrowing is on time.
func LateFine(due, now time.Time, finePerDay float64) float64 {
	rem := RemainingDays(due, now)
	if rem >= 0 {
		return 0
	}
	return float64(-rem) * finePerDay
}

// ExtendedDue applies the one-time extension to a due date.
func ExtendedDue(due time.Time) time.Time {
	return due.AddDate(0, 0, model.ExtensionDays)
}

func RelativeDue(due, now time.Time) string {
	switch rem := RemainingDays(due, now); {
	case rem < 0:
		return fmt.Sprintf("%d days overdue", -rem)
	case rem == 0:
		return "Due today"
	case rem == 1:
		return "Due tomorrow"
	default:
		return fmt.Sprintf("%d days remaining", rem)
	}
}
