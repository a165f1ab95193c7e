package request

import "time"

// Effect is one side effect of a decision. Transition returns effects as
// data; the decision engine applies them inside a single transaction so
// the all-or-nothing guarantee is mechanical.
type Effect interface {
	isEffect()
}

// AdjustInventory changes a book's available copies by Delta. The executor
// applies it under a row lock and fails with ErrInventoryUnavailable when a
// decrement would go below zero.
type AdjustInventory struct {
	BookID string
	Delta  int
}

// ExtendLoan pushes the linked borrow's end date forward by Days.
type ExtendLoan struct {
	LoanID string
	Days   int
}

// FinishLoan marks the linked borrow finished with the effective end date.
type FinishLoan struct {
	LoanID  string
	EndedAt time.Time
}

// RestockAlerts fires availability-alert subscriptions for a book that just
// regained stock: one outbound message per subscriber, then the alerts are
// deleted so each fires at most once.
type RestockAlerts struct {
	BookID string
}

// NotifyOutcome records a request-outcome notification for the requester.
// Always the last effect of a decision.
type NotifyOutcome struct {
	UserID  string
	BookID  string
	Kind    Kind
	Outcome Outcome
}

func (AdjustInventory) isEffect() {}
func (ExtendLoan) isEffect()      {}
func (FinishLoan) isEffect()      {}
func (RestockAlerts) isEffect()   {}
func (NotifyOutcome) isEffect()   {}

// Transition is the pure decision function: given a request and an admin
// outcome it returns the updated request and the side effects to apply.
// It fails with ErrInvalidState unless the request is pending.
func Transition(r Request, outcome Outcome, now time.Time) (Request, []Effect, error) {
	if r.Status != StatusPending {
		return r, nil, ErrInvalidState
	}

	r.UpdatedAt = now
	notify := NotifyOutcome{UserID: r.UserID, BookID: r.BookID, Kind: r.Kind, Outcome: outcome}

	if outcome == OutcomeRejected {
		r.Status = StatusRejected
		return r, []Effect{notify}, nil
	}

	r.Status = StatusAccepted
	var effects []Effect

	switch r.Kind {
	case KindBorrow:
		start := now
		end := start.AddDate(0, 0, r.Duration)
		r.StartDate = &start
		r.EndDate = &end
		effects = append(effects, AdjustInventory{BookID: r.BookID, Delta: -1})
	case KindExtension:
		if r.LoanID != nil {
			effects = append(effects, ExtendLoan{LoanID: *r.LoanID, Days: r.Duration})
		}
	case KindReturn:
		if r.LoanID != nil {
			effects = append(effects, FinishLoan{LoanID: *r.LoanID, EndedAt: now})
		}
		effects = append(effects,
			AdjustInventory{BookID: r.BookID, Delta: +1},
			RestockAlerts{BookID: r.BookID},
		)
	case KindReview:
		// Acceptance only flips visibility; no side effect beyond the
		// notification.
	}

	return r, append(effects, notify), nil
}
