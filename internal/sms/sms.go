package sms

import (
	"context"
	"time"
)

const (
	StatusPending = "pending"
	StatusSending = "sending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// Message is one queued outbound SMS. Rows are written inside the
// transaction that caused them (the outbox pattern) and delivered by the
// worker after commit, so delivery failures can never roll back a decision.
type Message struct {
	ID          string     `json:"id"`
	PhoneNumber string     `json:"phone_number"`
	Body        string     `json:"body"`
	Status      string     `json:"status"`
	Attempts    int        `json:"attempts"`
	CreatedAt   time.Time  `json:"created_at"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
}

// Repository is the outbox store. Enqueue joins an open transaction when the
// context carries one. NextBatch moves the rows it returns to "sending" so
// concurrent workers never deliver the same row; RecordAttempt puts a row
// back to "pending" for the next pass.
type Repository interface {
	Enqueue(ctx context.Context, phone, body string) error
	NextBatch(ctx context.Context, limit int) ([]Message, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	RecordAttempt(ctx context.Context, id string, attempts int) error
	MarkFailed(ctx context.Context, id string, attempts int) error
}

// Gateway delivers a single message. At-least-once, fire-and-forget: the
// core never sees delivery errors, only the worker's log does.
type Gateway interface {
	SendMessage(ctx context.Context, phoneNumber, text string) error
}
