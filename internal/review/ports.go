package review

import (
	"context"
	"errors"
	"time"
)

const (
	MinRating     = 1
	MaxRating     = 5
	MaxTextLength = 1000
)

var (
	ErrInvalidRating = errors.New("Rating must be between 1 and 5")
	ErrTextTooLong   = errors.New("Review text must be at most 1000 characters")
)

type Review struct {
	ID        string    `json:"_id"`
	Rating    int       `json:"rating"`
	Text      string    `json:"text,omitempty"`
	Approved  bool      `json:"approved"`
	CreatedAt time.Time `json:"createdAt"`
}

type Input struct {
	Rating int
	Text   string
}

// Repo stores reviews. Reject is a hard delete: reviews carry no tombstone.
type Repo interface {
	Create(ctx context.Context, r Review) error
	// FindApproved and FindAll order by CreatedAt, newest first.
	FindApproved(ctx context.Context) ([]Review, error)
	FindAll(ctx context.Context) ([]Review, error)
	Approve(ctx context.Context, id string) (Review, bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Notifier receives best-effort new-review alerts.
type Notifier interface {
	NewReview(ctx context.Context, reviewID string, rating int, text string)
}

type Service interface {
	CreateReview(ctx context.Context, in Input) (Review, error)
	GetApprovedReviews(ctx context.Context) ([]Review, error)
	GetAllReviews(ctx context.Context) ([]Review, error)
	ApproveReview(ctx context.Context, id string) (Review, bool, error)
	RejectReview(ctx context.Context, id string) (bool, error)
}
