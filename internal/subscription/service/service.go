package service

import (
	"context"
	"time"

	"github.com/terang55/rainbow-rich-auth-server/internal/subscription"
)

// SubscriptionStore is the storage the state machine runs against. Get
// returns nil, nil for an unknown subject; Patch and Delete return
// subscription.ErrNotFound.
type SubscriptionStore interface {
	Get(ctx context.Context, scope, subjectID string) (*subscription.Record, error)
	Put(ctx context.Context, scope, subjectID string, rec *subscription.Record) error
	Patch(ctx context.Context, scope, subjectID string, p subscription.Patch) error
	Delete(ctx context.Context, scope, subjectID string) error
	List(ctx context.Context, scope string) ([]subscription.Record, error)
}

type Service struct {
	store SubscriptionStore
	loc   *time.Location
	now   func() time.Time
}

func NewService(store SubscriptionStore, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, loc: loc, now: time.Now}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Location is the zone "today" is computed in.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Subscribe creates or fully overwrites the subject's record so that it
// expires durationDays after today.
func (s *Service) Subscribe(ctx context.Context, scope, subject string, durationDays int) (*subscription.Record, error) {
	subjectID, err := s.subject(subject)
	if err != nil {
		return nil, err
	}
	if !subscription.ValidDuration(durationDays) {
		return nil, subscription.ErrInvalidDuration
	}

	now := s.now()
	expiresOn, err := subscription.AddDays(subscription.Today(now, s.loc), durationDays)
	if err != nil {
		return nil, err
	}

	rec := &subscription.Record{
		SubjectID:    subjectID,
		ExpiresOn:    expiresOn,
		CreatedAt:    now.UTC(),
		DurationDays: durationDays,
	}
	if err := s.store.Put(ctx, scope, subjectID, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) Verify(ctx context.Context, scope, subject string) (subscription.State, error) {
	subjectID, err := s.subject(subject)
	if err != nil {
		return subscription.State{}, err
	}

	rec, err := s.store.Get(ctx, scope, subjectID)
	if err != nil {
		return subscription.State{}, err
	}
	if rec == nil {
		return subscription.State{Status: subscription.StatusNoSubscription}, nil
	}

	today := subscription.Today(s.now(), s.loc)
	return subscription.State{
		Status:    subscription.Derive(rec.ExpiresOn, today),
		ExpiresOn: rec.ExpiresOn,
	}, nil
}

// Renew extends an existing record from its current expiry, not from today,
// so an expired license renewed for a short period can stay expired.
// Concurrent renewals of one subject are last-write-wins.
func (s *Service) Renew(ctx context.Context, scope, subject string, durationDays int) (*subscription.Record, error) {
	subjectID, err := s.subject(subject)
	if err != nil {
		return nil, err
	}
	if !subscription.ValidDuration(durationDays) {
		return nil, subscription.ErrInvalidDuration
	}

	rec, err := s.store.Get(ctx, scope, subjectID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, subscription.ErrNotFound
	}

	expiresOn, err := subscription.AddDays(rec.ExpiresOn, durationDays)
	if err != nil {
		return nil, err
	}
	renewedAt := s.now().UTC()

	patch := subscription.Patch{
		ExpiresOn:    &expiresOn,
		RenewedAt:    &renewedAt,
		DurationDays: &durationDays,
	}
	if err := s.store.Patch(ctx, scope, subjectID, patch); err != nil {
		return nil, err
	}
	patch.Apply(rec)
	return rec, nil
}

func (s *Service) Cancel(ctx context.Context, scope, subject string) error {
	subjectID, err := s.subject(subject)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, scope, subjectID)
}

func (s *Service) List(ctx context.Context, scope string) ([]subscription.Entry, error) {
	records, err := s.store.List(ctx, scope)
	if err != nil {
		return nil, err
	}

	today := subscription.Today(s.now(), s.loc)
	entries := make([]subscription.Entry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, subscription.Entry{
			Record: rec,
			Status: subscription.Derive(rec.ExpiresOn, today),
		})
	}
	return entries, nil
}

func (s *Service) Stats(ctx context.Context, scope string) (subscription.Stats, error) {
	records, err := s.store.List(ctx, scope)
	if err != nil {
		return subscription.Stats{}, err
	}

	today := subscription.Today(s.now(), s.loc)
	var stats subscription.Stats
	for _, rec := range records {
		stats.Total++
		if subscription.IsExpired(rec.ExpiresOn, today) {
			stats.Expired++
		} else {
			stats.Active++
		}
	}
	return stats, nil
}

func (s *Service) subject(raw string) (string, error) {
	id := subscription.NormalizeSubject(raw)
	if id == "" {
		return "", subscription.ErrInvalidSubject
	}
	return id, nil
}
