// model/policy.go
package model

// Lending policy. These are library-wide rules; the fine-per-day
// default can be overridden through config.
const (
	MaxBooksPerReservation = 5
	MinPickupHours         = 24
	ExtensionDays          = 7
	DefaultBorrowingDays   = 14
	DefaultFinePerDay      = 2.0
)

// BorrowingDurations are the only durations a reservation item may carry, in days.
var BorrowingDurations = []int{7, 14, 21}

func ValidDuration(days int) bool {
	for _, d := range BorrowingDurations {
		if d == days {
			return true
		}
	}
	return false
}
