package overdue

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/TheAliBit/codinto-library/internal/clock"
	"github.com/TheAliBit/codinto-library/internal/request"
)

// reminderWindow is the band of days-remaining values that trigger a
// reminder: three days before the due date through three days after.
const reminderWindow = 3

// ActiveLoan is the sweep's read model: one accepted, unfinished borrow
// joined with the borrower and the book.
type ActiveLoan struct {
	LoanID      string
	UserID      string
	BookID      string
	Username    string
	PhoneNumber string
	BookTitle   string
	EndDate     time.Time
}

// Repository feeds the sweep. TryMarkReminded claims a
// (book, user, threshold, day) slot and reports whether this run won it,
// which makes overlapping sweeps idempotent.
type Repository interface {
	ListActiveLoans(ctx context.Context) ([]ActiveLoan, error)
	TryMarkReminded(ctx context.Context, bookID, userID string, threshold int, day time.Time) (bool, error)
}

// Outbox queues reminder messages for the SMS worker.
type Outbox interface {
	Enqueue(ctx context.Context, phone, body string) error
}

// Sweeper periodically walks active loans and sends due-date reminders at
// fixed thresholds (+3..-3 days), at most once per loan per threshold per
// day.
type Sweeper struct {
	repo     Repository
	outbox   Outbox
	clock    clock.Clock
	interval time.Duration
}

func NewSweeper(repo Repository, outbox Outbox, clk clock.Clock, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{repo: repo, outbox: outbox, clock: clk, interval: interval}
}

// Run sweeps on a fixed interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				log.Printf("overdue sweep: %v", err)
			}
		}
	}
}

// Sweep processes every active loan once. Exported for tests and for a
// one-shot CLI invocation.
func (s *Sweeper) Sweep(ctx context.Context) error {
	loans, err := s.repo.ListActiveLoans(ctx)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	day := now.Truncate(24 * time.Hour)

	for _, loan := range loans {
		// Same day math the member sees on the book page, so the
		// thresholds line up with the displayed count.
		days := request.WholeDays(loan.EndDate.Sub(now))
		if days > reminderWindow || days < -reminderWindow {
			continue
		}
		if loan.PhoneNumber == "" {
			continue
		}

		claimed, err := s.repo.TryMarkReminded(ctx, loan.BookID, loan.UserID, days, day)
		if err != nil {
			return err
		}
		if !claimed {
			continue
		}
		if err := s.outbox.Enqueue(ctx, loan.PhoneNumber, reminderText(loan, days)); err != nil {
			return err
		}
	}
	return nil
}

func reminderText(loan ActiveLoan, days int) string {
	switch {
	case days > 0:
		return fmt.Sprintf("Hi %s, %d day(s) remain to return the book %q", loan.Username, days, loan.BookTitle)
	case days == 0:
		return fmt.Sprintf("Hi %s, the book %q is due back today", loan.Username, loan.BookTitle)
	default:
		return fmt.Sprintf("Hi %s, the book %q is %d day(s) overdue, please return it", loan.Username, loan.BookTitle, -days)
	}
}
