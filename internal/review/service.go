package review

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

var _ Service = (*ReviewService)(nil)

type ReviewService struct {
	repo     Repo
	notifier Notifier
	log      *slog.Logger
	nowFn    func() time.Time

	bg sync.WaitGroup
}

type Option func(*ReviewService)

func WithClock(now func() time.Time) Option {
	return func(s *ReviewService) { s.nowFn = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *ReviewService) { s.log = l }
}

func NewService(repo Repo, notifier Notifier, opts ...Option) *ReviewService {
	s := &ReviewService{
		repo:     repo,
		notifier: notifier,
		log:      slog.Default(),
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "review")
	return s
}

// Validate checks the input bounds without touching the store.
func Validate(in Input) error {
	if in.Rating < MinRating || in.Rating > MaxRating {
		return ErrInvalidRating
	}
	if utf8.RuneCountInString(in.Text) > MaxTextLength {
		return ErrTextTooLong
	}
	return nil
}

func (s *ReviewService) CreateReview(ctx context.Context, in Input) (Review, error) {
	if err := Validate(in); err != nil {
		return Review{}, err
	}
	r := Review{
		ID:        uuid.NewString(),
		Rating:    in.Rating,
		Text:      in.Text,
		Approved:  false,
		CreatedAt: s.nowFn(),
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return Review{}, fmt.Errorf("create review: %w", err)
	}
	s.log.Info("review submitted", "review_id", r.ID, "rating", r.Rating)

	if s.notifier != nil {
		bgCtx := context.WithoutCancel(ctx)
		s.bg.Add(1)
		go func() {
			defer s.bg.Done()
			defer func() {
				if p := recover(); p != nil {
					s.log.Error("notification panicked", "panic", p)
				}
			}()
			s.notifier.NewReview(bgCtx, r.ID, r.Rating, r.Text)
		}()
	}
	return r, nil
}

func (s *ReviewService) GetApprovedReviews(ctx context.Context) ([]Review, error) {
	return s.repo.FindApproved(ctx)
}

func (s *ReviewService) GetAllReviews(ctx context.Context) ([]Review, error) {
	return s.repo.FindAll(ctx)
}

func (s *ReviewService) ApproveReview(ctx context.Context, id string) (Review, bool, error) {
	r, ok, err := s.repo.Approve(ctx, id)
	if err != nil {
		return Review{}, false, fmt.Errorf("approve review: %w", err)
	}
	if ok {
		s.log.Info("review approved", "review_id", id)
	}
	return r, ok, nil
}

// RejectReview removes the review permanently.
func (s *ReviewService) RejectReview(ctx context.Context, id string) (bool, error) {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("reject review: %w", err)
	}
	if ok {
		s.log.Info("review rejected", "review_id", id)
	}
	return ok, nil
}

// Wait blocks until every pending notification has returned.
func (s *ReviewService) Wait() {
	s.bg.Wait()
}
