package storage

import (
	"context"
	"strings"

	"mysns/internal/config"
	"mysns/internal/logger"
)

// UncheckedStore is used when no bucket is configured. Every key is accepted
// and deletes are dropped, which keeps local development free of R2.
type UncheckedStore struct {
	BaseURL string
}

func (s UncheckedStore) Exists(context.Context, string) (bool, error) { return true, nil }

func (s UncheckedStore) Delete(context.Context, string) error { return nil }

func (s UncheckedStore) PublicURL(key string) string {
	return strings.TrimSuffix(s.BaseURL, "/") + "/" + strings.TrimPrefix(key, "/")
}

// NewMediaStore returns an R2Store when the bucket is configured and an
// UncheckedStore otherwise.
func NewMediaStore(ctx context.Context, cfg *config.Config) (MediaStore, error) {
	if !cfg.MediaConfigured() {
		l := logger.Component("storage")
		l.Warn().Msg("R2 is not configured; media keys are accepted unchecked")
		return UncheckedStore{BaseURL: cfg.R2PublicURL}, nil
	}
	return NewR2Store(ctx, cfg)
}
