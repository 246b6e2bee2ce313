// Package service implements KYC review: listing, search, status
// transitions, and export.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"opsconsole/internal/audit"
	"opsconsole/internal/kyc/models"
	"opsconsole/internal/kyc/store"
	"opsconsole/internal/platform/metrics"
	dErrors "opsconsole/pkg/domainerrors"
	"opsconsole/pkg/requestcontext"
	"opsconsole/pkg/timestamp"
)

type Service struct {
	submissions store.Store
	publisher   *audit.Publisher
	metrics     *metrics.Metrics
	logger      *slog.Logger
	now         func() timestamp.Timestamp
}

type Option func(*Service)

func WithAuditPublisher(publisher *audit.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithMetrics(metrics *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = metrics }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithClock(now func() timestamp.Timestamp) Option {
	return func(s *Service) { s.now = now }
}

func New(submissions store.Store, opts ...Option) *Service {
	s := &Service{submissions: submissions, now: timestamp.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	sub, err := s.submissions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "KYC submission not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load KYC submission")
	}
	return sub, nil
}

// List returns submissions narrowed by status and an optional search term
// over the personal name and company name. The status filter hits the
// store; the search runs in memory over the filtered set, matching how the
// console's list view works.
func (s *Service) List(ctx context.Context, status, search string) ([]*models.Submission, error) {
	var filter store.Filter
	if status != "" && status != "all" {
		parsed, err := models.ParseStatus(status)
		if err != nil {
			return nil, err
		}
		filter.Status = parsed
	}

	subs, err := s.submissions.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list KYC submissions")
	}
	if search == "" {
		return subs, nil
	}

	matched := subs[:0]
	for _, sub := range subs {
		if sub.Matches(search) {
			matched = append(matched, sub)
		}
	}
	return matched, nil
}

// UpdateStatus applies a review decision. Reapplying the identical decision
// is a no-op and returns the unchanged record.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, rawStatus, remarks string) (*models.Submission, error) {
	status, err := models.ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	sub, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	actor := requestcontext.ActorEmail(ctx)
	if actor == "" {
		actor = requestcontext.ActorID(ctx)
	}

	if !sub.ApplyStatus(status, remarks, actor, s.now()) {
		return sub, nil
	}

	if err := s.submissions.Update(ctx, sub); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update KYC submission")
	}

	s.metrics.IncKycTransition(string(status))
	s.emit(ctx, audit.Event{
		Action:  audit.ActionKycStatusChanged,
		ActorID: requestcontext.ActorID(ctx),
		Subject: sub.ID.String(),
		Detail:  string(status),
	})
	if s.logger != nil {
		s.logger.InfoContext(ctx, "kyc status changed",
			"submission_id", sub.ID.String(),
			"status", string(status),
		)
	}
	return sub, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.publisher != nil {
		_ = s.publisher.Emit(ctx, event)
	}
}
