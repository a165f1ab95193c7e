package request

import (
	"math"
	"time"
)

// NotBorrowed is the sentinel returned by RemainingDays when the user has no
// active loan for the book.
const NotBorrowed = math.MinInt

// RemainingDays computes the whole days left on a loan. The loan's end date
// already includes every accepted extension (the decision engine advances it
// when an extension is accepted), so the computation is extension-aware by
// construction. Negative values mean the loan is overdue.
func RemainingDays(loan *Request, now time.Time) int {
	if loan == nil || !loan.ActiveLoan() || loan.EndDate == nil {
		return NotBorrowed
	}
	return WholeDays(loan.EndDate.Sub(now))
}

// WholeDays floors a duration to whole days. Flooring, not truncation: a
// loan twelve hours past due is one day overdue, not zero.
func WholeDays(d time.Duration) int {
	return int(math.Floor(d.Hours() / 24))
}
