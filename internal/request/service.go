package request

import (
	"context"
	"fmt"
	"time"

	"github.com/TheAliBit/codinto-library/internal/book"
	"github.com/TheAliBit/codinto-library/internal/clock"
	"github.com/TheAliBit/codinto-library/internal/notification"
)

// Repository persists requests. WithTx runs fn inside a single database
// transaction; every other method joins an open transaction when one is
// carried by the context. Create and the existence checks are backed by
// partial unique indexes, so a lost race surfaces as a ConflictError
// instead of a duplicate row.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Create(ctx context.Context, r *Request) error
	GetByID(ctx context.Context, id string) (Request, error)
	GetByIDForUpdate(ctx context.Context, id string) (Request, error)
	Update(ctx context.Context, r *Request) error
	Delete(ctx context.Context, id string) error

	FindActiveLoan(ctx context.Context, userID, bookID string) (*Request, error)
	HasPending(ctx context.Context, userID, bookID string, kind Kind) (bool, error)
	HasLiveExtension(ctx context.Context, loanID string) (bool, error)
	HasPendingReturn(ctx context.Context, loanID string) (bool, error)
	HasAcceptedReturn(ctx context.Context, loanID string) (bool, error)
	HasAcceptedReturnForBook(ctx context.Context, userID, bookID string) (bool, error)
	HasReview(ctx context.Context, userID, bookID string) (bool, error)

	ExtendLoan(ctx context.Context, loanID string, days int) error
	FinishLoan(ctx context.Context, loanID string, endedAt time.Time) error

	ListByUser(ctx context.Context, userID string) ([]Request, error)
	ListActiveLoansByUser(ctx context.Context, userID string) ([]Request, error)
	ListByStatus(ctx context.Context, status Status, limit, offset int) ([]Request, int, error)
	ListBorrowHistory(ctx context.Context, bookID, userID string) ([]Request, error)
	ListAcceptedReviews(ctx context.Context, bookID string) ([]Request, error)
}

// BookStore is the slice of the catalog the engine needs. CopiesForUpdate
// takes the row lock that makes the decision-time re-check race-free.
type BookStore interface {
	Get(ctx context.Context, id string) (book.Book, error)
	CopiesForUpdate(ctx context.Context, id string) (int, error)
	AdjustCopies(ctx context.Context, id string, delta int) error
}

// NotificationStore persists notifications and availability-alert
// subscriptions (stored as notifications of kind "available").
type NotificationStore interface {
	Create(ctx context.Context, n *notification.Notification) error
	HasAlert(ctx context.Context, userID, bookID string) (bool, error)
	CreateAlert(ctx context.Context, userID, bookID string) error
	AlertSubscribers(ctx context.Context, bookID string) ([]notification.Subscriber, error)
	DeleteAlerts(ctx context.Context, bookID string) error
}

// Outbox queues an outbound SMS. Enqueue participates in the surrounding
// transaction; delivery happens later, outside it.
type Outbox interface {
	Enqueue(ctx context.Context, phone, body string) error
}

// Service is the workflow engine: it gatekeeps request submission and
// applies admin decisions atomically.
type Service struct {
	repo   Repository
	books  BookStore
	notes  NotificationStore
	outbox Outbox
	clock  clock.Clock
}

func NewService(repo Repository, books BookStore, notes NotificationStore, outbox Outbox, clk clock.Clock) *Service {
	return &Service{repo: repo, books: books, notes: notes, outbox: outbox, clock: clk}
}

// SubmitBorrow creates a pending borrow request. Submission does not check
// stock; availability is re-checked when an admin accepts.
func (s *Service) SubmitBorrow(ctx context.Context, userID, bookID string, duration int) (Request, error) {
	if !ValidBorrowDuration(duration) {
		return Request{}, validation("duration", "loan duration must be 14 or 30 days")
	}

	r := Request{UserID: userID, BookID: bookID, Kind: KindBorrow, Status: StatusPending, Duration: duration}
	err := s.repo.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.books.Get(ctx, bookID); err != nil {
			return err
		}
		loan, err := s.repo.FindActiveLoan(ctx, userID, bookID)
		if err != nil {
			return err
		}
		if loan != nil {
			return conflict("you already have this book on loan")
		}
		if err := s.ensureNoPending(ctx, userID, bookID); err != nil {
			return err
		}
		return s.repo.Create(ctx, &r)
	})
	if err != nil {
		return Request{}, err
	}
	return r, nil
}

// SubmitExtension creates a pending extension for the caller's active loan.
// At most one extension per loan, ever.
func (s *Service) SubmitExtension(ctx context.Context, userID, bookID string, duration int) (Request, error) {
	if !ValidExtensionDuration(duration) {
		return Request{}, validation("duration", "extension must be 3, 5 or 7 days")
	}

	var r Request
	err := s.repo.WithTx(ctx, func(ctx context.Context) error {
		loan, err := s.repo.FindActiveLoan(ctx, userID, bookID)
		if err != nil {
			return err
		}
		if loan == nil {
			return validation("book", "you have no active loan for this book")
		}
		live, err := s.repo.HasLiveExtension(ctx, loan.ID)
		if err != nil {
			return err
		}
		if live {
			return conflict("this loan has already been extended")
		}
		r = Request{UserID: userID, BookID: bookID, Kind: KindExtension, Status: StatusPending, Duration: duration, LoanID: &loan.ID}
		return s.repo.Create(ctx, &r)
	})
	if err != nil {
		return Request{}, err
	}
	return r, nil
}

// SubmitReturn creates a pending return for the caller's active loan and, in
// the same transaction, a companion pending review carrying the attached
// score and description. The companion is skipped when the user has already
// reviewed the book on an earlier loan.
func (s *Service) SubmitReturn(ctx context.Context, userID, bookID string, score int, description string) (Request, error) {
	if err := validateReview(score, description); err != nil {
		return Request{}, err
	}

	var r Request
	err := s.repo.WithTx(ctx, func(ctx context.Context) error {
		loan, err := s.repo.FindActiveLoan(ctx, userID, bookID)
		if err != nil {
			return err
		}
		if loan == nil {
			return validation("book", "you cannot return a book you have not borrowed")
		}
		pending, err := s.repo.HasPendingReturn(ctx, loan.ID)
		if err != nil {
			return err
		}
		if pending {
			return conflict("a return request for this loan is already under review")
		}
		returned, err := s.repo.HasAcceptedReturn(ctx, loan.ID)
		if err != nil {
			return err
		}
		if returned {
			return conflict("this loan has already been returned")
		}

		sc := score
		r = Request{UserID: userID, BookID: bookID, Kind: KindReturn, Status: StatusPending, LoanID: &loan.ID, Score: &sc, Description: description}
		if err := s.repo.Create(ctx, &r); err != nil {
			return err
		}

		reviewed, err := s.repo.HasReview(ctx, userID, bookID)
		if err != nil {
			return err
		}
		if reviewed {
			return nil
		}
		companion := Request{UserID: userID, BookID: bookID, Kind: KindReview, Status: StatusPending, Score: &sc, Description: description}
		return s.repo.Create(ctx, &companion)
	})
	if err != nil {
		return Request{}, err
	}
	return r, nil
}

// SubmitReview creates a standalone pending review. Requires an accepted
// return for the book by the same user; one review per (user, book).
func (s *Service) SubmitReview(ctx context.Context, userID, bookID string, score int, description string) (Request, error) {
	if err := validateReview(score, description); err != nil {
		return Request{}, err
	}

	var r Request
	err := s.repo.WithTx(ctx, func(ctx context.Context) error {
		reviewed, err := s.repo.HasReview(ctx, userID, bookID)
		if err != nil {
			return err
		}
		if reviewed {
			return conflict("you have already reviewed this book")
		}
		returned, err := s.repo.HasAcceptedReturnForBook(ctx, userID, bookID)
		if err != nil {
			return err
		}
		if !returned {
			return validation("book", "you can only review books you have returned")
		}
		sc := score
		r = Request{UserID: userID, BookID: bookID, Kind: KindReview, Status: StatusPending, Score: &sc, Description: description}
		return s.repo.Create(ctx, &r)
	})
	if err != nil {
		return Request{}, err
	}
	return r, nil
}

// EditReview replaces an existing review with a fresh pending one for the
// same (user, book): the old record is deleted and a new one created, so an
// edited review goes through moderation again.
func (s *Service) EditReview(ctx context.Context, userID, reviewID string, score int, description string) (Request, error) {
	if err := validateReview(score, description); err != nil {
		return Request{}, err
	}

	var fresh Request
	err := s.repo.WithTx(ctx, func(ctx context.Context) error {
		old, err := s.repo.GetByID(ctx, reviewID)
		if err != nil {
			return err
		}
		if old.Kind != KindReview || old.UserID != userID {
			return ErrNotFound
		}
		if err := s.repo.Delete(ctx, old.ID); err != nil {
			return err
		}
		sc := score
		fresh = Request{UserID: userID, BookID: old.BookID, Kind: KindReview, Status: StatusPending, Score: &sc, Description: description}
		return s.repo.Create(ctx, &fresh)
	})
	if err != nil {
		return Request{}, err
	}
	return fresh, nil
}

// SubmitAvailabilityAlert subscribes the user to a restock notification for
// an out-of-stock book. Each subscription fires at most once.
func (s *Service) SubmitAvailabilityAlert(ctx context.Context, userID, bookID string) error {
	return s.repo.WithTx(ctx, func(ctx context.Context) error {
		b, err := s.books.Get(ctx, bookID)
		if err != nil {
			return err
		}
		if b.AvailableCopies > 0 {
			return conflict("this book is still in stock")
		}
		exists, err := s.notes.HasAlert(ctx, userID, bookID)
		if err != nil {
			return err
		}
		if exists {
			return conflict("you already have an availability alert for this book")
		}
		return s.notes.CreateAlert(ctx, userID, bookID)
	})
}

// Decide applies an admin outcome to a pending request and all of its side
// effects in one transaction. A borrow accepted against an empty book fails
// with ErrInventoryUnavailable and the request stays pending so the admin
// can retry once stock frees up.
func (s *Service) Decide(ctx context.Context, requestID string, outcome Outcome) (Request, error) {
	if outcome != OutcomeAccepted && outcome != OutcomeRejected {
		return Request{}, validation("outcome", "outcome must be accepted or rejected")
	}

	var decided Request
	err := s.repo.WithTx(ctx, func(ctx context.Context) error {
		r, err := s.repo.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}

		updated, effects, err := Transition(r, outcome, s.clock.Now())
		if err != nil {
			return err
		}

		if err := s.applyEffects(ctx, effects); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, &updated); err != nil {
			return err
		}
		decided = updated
		return nil
	})
	if err != nil {
		return Request{}, err
	}
	return decided, nil
}

// applyEffects executes the effect list produced by Transition. All of it
// runs inside the caller's transaction; any failure rolls back the whole
// decision, status write included.
func (s *Service) applyEffects(ctx context.Context, effects []Effect) error {
	copiesBefore := -1

	for _, e := range effects {
		switch eff := e.(type) {
		case AdjustInventory:
			n, err := s.books.CopiesForUpdate(ctx, eff.BookID)
			if err != nil {
				return err
			}
			if eff.Delta < 0 && n+eff.Delta < 0 {
				return ErrInventoryUnavailable
			}
			copiesBefore = n
			if err := s.books.AdjustCopies(ctx, eff.BookID, eff.Delta); err != nil {
				return err
			}
		case ExtendLoan:
			if err := s.repo.ExtendLoan(ctx, eff.LoanID, eff.Days); err != nil {
				return err
			}
		case FinishLoan:
			if err := s.repo.FinishLoan(ctx, eff.LoanID, eff.EndedAt); err != nil {
				return err
			}
		case RestockAlerts:
			if copiesBefore != 0 {
				continue
			}
			if err := s.fireAlerts(ctx, eff.BookID); err != nil {
				return err
			}
		case NotifyOutcome:
			if err := s.notifyOutcome(ctx, eff); err != nil {
				return err
			}
		}
	}
	return nil
}

// fireAlerts enqueues one SMS per availability-alert subscriber and consumes
// the subscriptions. Queued messages are delivered by the outbox worker
// after the decision commits.
func (s *Service) fireAlerts(ctx context.Context, bookID string) error {
	b, err := s.books.Get(ctx, bookID)
	if err != nil {
		return err
	}
	subs, err := s.notes.AlertSubscribers(ctx, bookID)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		return nil
	}
	for _, sub := range subs {
		if sub.PhoneNumber == "" {
			continue
		}
		body := fmt.Sprintf("Hi %s, the book %q is back in stock", sub.Username, b.Title)
		if err := s.outbox.Enqueue(ctx, sub.PhoneNumber, body); err != nil {
			return err
		}
	}
	return s.notes.DeleteAlerts(ctx, bookID)
}

func (s *Service) notifyOutcome(ctx context.Context, eff NotifyOutcome) error {
	b, err := s.books.Get(ctx, eff.BookID)
	if err != nil {
		return err
	}
	n := notification.Notification{
		UserID:      &eff.UserID,
		BookID:      &eff.BookID,
		Kind:        notification.KindRequest,
		Title:       fmt.Sprintf("Your %s request was %s", eff.Kind, eff.Outcome),
		Description: fmt.Sprintf("Your %s request for the book %q was %s by an admin", eff.Kind, b.Title, eff.Outcome),
	}
	return s.notes.Create(ctx, &n)
}

// DaysRemaining reports the whole days left on the caller's loan for the
// book, or NotBorrowed when there is no active loan.
func (s *Service) DaysRemaining(ctx context.Context, userID, bookID string) (int, error) {
	loan, err := s.repo.FindActiveLoan(ctx, userID, bookID)
	if err != nil {
		return 0, err
	}
	return RemainingDays(loan, s.clock.Now()), nil
}

// ListUserRequests returns every request the user ever submitted.
func (s *Service) ListUserRequests(ctx context.Context, userID string) ([]Request, error) {
	return s.repo.ListByUser(ctx, userID)
}

// MyBooks returns the user's active loans.
func (s *Service) MyBooks(ctx context.Context, userID string) ([]Request, error) {
	return s.repo.ListActiveLoansByUser(ctx, userID)
}

// ListForAdmin returns the admin request queue, optionally filtered by
// status.
func (s *Service) ListForAdmin(ctx context.Context, status Status, limit, offset int) ([]Request, int, error) {
	return s.repo.ListByStatus(ctx, status, limit, offset)
}

// BorrowHistory returns accepted borrows, optionally filtered by book and
// user.
func (s *Service) BorrowHistory(ctx context.Context, bookID, userID string) ([]Request, error) {
	return s.repo.ListBorrowHistory(ctx, bookID, userID)
}

// BookReviews returns the accepted (publicly visible) reviews for a book.
func (s *Service) BookReviews(ctx context.Context, bookID string) ([]Request, error) {
	return s.repo.ListAcceptedReviews(ctx, bookID)
}

func (s *Service) ensureNoPending(ctx context.Context, userID, bookID string) error {
	for _, k := range []Kind{KindBorrow, KindExtension, KindReturn, KindReview} {
		pending, err := s.repo.HasPending(ctx, userID, bookID, k)
		if err != nil {
			return err
		}
		if pending {
			return conflict("you already have a request under review for this book")
		}
	}
	return nil
}

func validateReview(score int, description string) error {
	if score < 0 || score > 5 {
		return validation("score", "score must be between 0 and 5")
	}
	if description == "" {
		return validation("description", "description is required")
	}
	return nil
}
