package request

import (
	"time"
)

// Kind discriminates the request union. Every user-initiated request is one
// row in the requests table; kind-specific fields are nullable columns.
type Kind string

const (
	KindBorrow    Kind = "borrow"
	KindExtension Kind = "extension"
	KindReturn    Kind = "return"
	KindReview    Kind = "review"
)

// Status is the three-state lifecycle shared by all kinds. The only legal
// transition is pending -> accepted or pending -> rejected, applied exactly
// once by the decision engine.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Outcome is what an admin can decide for a pending request.
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
)

var borrowDurations = map[int]bool{14: true, 30: true}
var extensionDurations = map[int]bool{3: true, 5: true, 7: true}

// ValidBorrowDuration reports whether d is an allowed loan length in days.
func ValidBorrowDuration(d int) bool { return borrowDurations[d] }

// ValidExtensionDuration reports whether d is an allowed extension in days.
func ValidExtensionDuration(d int) bool { return extensionDurations[d] }

// Request is the tagged union for all four kinds. Duration is set for borrow
// and extension; StartDate/EndDate/IsFinished for borrow; Score/Description
// for return and review; LoanID links extensions and returns to the borrow
// they act on.
type Request struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	BookID      string     `json:"book_id"`
	Kind        Kind       `json:"kind"`
	Status      Status     `json:"status"`
	Duration    int        `json:"duration,omitempty"`
	LoanID      *string    `json:"loan_id,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	IsFinished  bool       `json:"is_finished,omitempty"`
	Score       *int       `json:"score,omitempty"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ActiveLoan reports whether the request is an accepted, not yet finished
// borrow. Spec term: a loan.
func (r *Request) ActiveLoan() bool {
	return r.Kind == KindBorrow && r.Status == StatusAccepted && !r.IsFinished
}

// Resolved reports whether the request has left pending.
func (r *Request) Resolved() bool {
	return r.Status == StatusAccepted || r.Status == StatusRejected
}
