package request

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var transitionNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func TestTransition_RejectsNonPending(t *testing.T) {
	for _, status := range []Status{StatusAccepted, StatusRejected} {
		r := Request{ID: "r1", Kind: KindBorrow, Status: status}
		_, _, err := Transition(r, OutcomeAccepted, transitionNow)
		assert.ErrorIs(t, err, ErrInvalidState, "status %s", status)
	}
}

func TestTransition_RejectAnyKind(t *testing.T) {
	for _, kind := range []Kind{KindBorrow, KindExtension, KindReturn, KindReview} {
		r := Request{ID: "r1", UserID: "u1", BookID: "b1", Kind: kind, Status: StatusPending}
		updated, effects, err := Transition(r, OutcomeRejected, transitionNow)
		require.NoError(t, err)

		assert.Equal(t, StatusRejected, updated.Status)
		require.Len(t, effects, 1, "rejection has no side effect beyond the notification")
		notify, ok := effects[0].(NotifyOutcome)
		require.True(t, ok)
		assert.Equal(t, OutcomeRejected, notify.Outcome)
		assert.Equal(t, kind, notify.Kind)
	}
}

func TestTransition_AcceptBorrow(t *testing.T) {
	r := Request{ID: "r1", UserID: "u1", BookID: "b1", Kind: KindBorrow, Status: StatusPending, Duration: 14}

	updated, effects, err := Transition(r, OutcomeAccepted, transitionNow)
	require.NoError(t, err)

	assert.Equal(t, StatusAccepted, updated.Status)
	require.NotNil(t, updated.StartDate)
	require.NotNil(t, updated.EndDate)
	assert.Equal(t, transitionNow, *updated.StartDate)
	assert.Equal(t, transitionNow.AddDate(0, 0, 14), *updated.EndDate)

	require.Len(t, effects, 2)
	assert.Equal(t, AdjustInventory{BookID: "b1", Delta: -1}, effects[0])
	assert.IsType(t, NotifyOutcome{}, effects[1])
}

func TestTransition_AcceptExtension(t *testing.T) {
	loanID := "loan-1"
	r := Request{ID: "r2", UserID: "u1", BookID: "b1", Kind: KindExtension, Status: StatusPending, Duration: 7, LoanID: &loanID}

	updated, effects, err := Transition(r, OutcomeAccepted, transitionNow)
	require.NoError(t, err)

	assert.Equal(t, StatusAccepted, updated.Status)
	require.Len(t, effects, 2)
	assert.Equal(t, ExtendLoan{LoanID: "loan-1", Days: 7}, effects[0])
	assert.IsType(t, NotifyOutcome{}, effects[1])
}

func TestTransition_AcceptReturn(t *testing.T) {
	loanID := "loan-1"
	r := Request{ID: "r3", UserID: "u1", BookID: "b1", Kind: KindReturn, Status: StatusPending, LoanID: &loanID}

	updated, effects, err := Transition(r, OutcomeAccepted, transitionNow)
	require.NoError(t, err)

	assert.Equal(t, StatusAccepted, updated.Status)
	require.Len(t, effects, 4)
	assert.Equal(t, FinishLoan{LoanID: "loan-1", EndedAt: transitionNow}, effects[0])
	assert.Equal(t, AdjustInventory{BookID: "b1", Delta: +1}, effects[1])
	assert.Equal(t, RestockAlerts{BookID: "b1"}, effects[2])
	assert.IsType(t, NotifyOutcome{}, effects[3])
}

func TestTransition_AcceptReview(t *testing.T) {
	score := 4
	r := Request{ID: "r4", UserID: "u1", BookID: "b1", Kind: KindReview, Status: StatusPending, Score: &score}

	updated, effects, err := Transition(r, OutcomeAccepted, transitionNow)
	require.NoError(t, err)

	assert.Equal(t, StatusAccepted, updated.Status)
	require.Len(t, effects, 1)
	assert.IsType(t, NotifyOutcome{}, effects[0])
}

func TestTransition_NotificationAlwaysLast(t *testing.T) {
	loanID := "loan-1"
	for _, kind := range []Kind{KindBorrow, KindExtension, KindReturn, KindReview} {
		r := Request{ID: "r", UserID: "u1", BookID: "b1", Kind: kind, Status: StatusPending, Duration: 14, LoanID: &loanID}
		_, effects, err := Transition(r, OutcomeAccepted, transitionNow)
		require.NoError(t, err)
		require.NotEmpty(t, effects)
		assert.IsType(t, NotifyOutcome{}, effects[len(effects)-1], "kind %s", kind)
	}
}
