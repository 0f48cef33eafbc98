package driver

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agenthands/posterlens/internal/core/model"
)

// Fixed-width UTC timestamps sort lexically in time order.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(storedTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(storedTimeLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339Nano, s)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored time %q: %w", s, err)
	}
	return t.UTC(), nil
}

// nullableTime returns nil for a missing date so drivers store NULL.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseNullableTime(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := parseTime(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullableHash(fp *model.Fingerprint) any {
	if fp == nil {
		return nil
	}
	return fp.String()
}

func parseNullableHash(s *string) (*model.Fingerprint, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	fp, err := model.ParseFingerprint(*s)
	if err != nil {
		return nil, err
	}
	return &fp, nil
}

// prepareInsert fills in the identity fields a store owns.
func prepareInsert(rec model.CatalogRecord) model.CatalogRecord {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	if rec.Date != nil {
		d := rec.Date.UTC()
		rec.Date = &d
	}
	return rec
}

func readFailed(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", model.ErrCatalogUnavailable, op, err)
}

func writeFailed(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", model.ErrPersistenceFailed, op, err)
}
