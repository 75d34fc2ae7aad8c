// Package store keeps the resume corpus the ranking flow reads through the
// getAllResumes tool.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"careerai/internal/config"
	"careerai/internal/errors"

	"github.com/google/uuid"
)

// Resume is one stored resume.
type Resume struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Source    string    `json:"source,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// ResumeStore is the document store behind resume retrieval. Texts come
// back in insertion order.
type ResumeStore interface {
	SaveResume(ctx context.Context, r *Resume) error
	ListResumes(ctx context.Context) ([]Resume, error)
	ListResumeTexts(ctx context.Context) ([]string, error)
	Close() error
}

// Drivers
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverS3       = "s3"
)

// Open builds the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig, logger *errors.Logger) (ResumeStore, error) {
	var (
		s   ResumeStore
		err error
	)
	switch strings.ToLower(cfg.Driver) {
	case "", DriverMemory:
		s = NewMemory()
	case DriverSQLite:
		s, err = NewSQLite(ctx, cfg.Path)
	case DriverPostgres:
		s, err = NewPostgres(ctx, cfg.DSN)
	case DriverS3:
		s, err = NewObjectStore(ctx, cfg.S3, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("unknown storage driver %q", cfg.Driver), nil)
	}
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeStorageFailed,
			fmt.Sprintf("failed to open %s resume store", cfg.Driver), err)
	}
	logger.Debug("Opened resume store", "driver", cfg.Driver)
	return s, nil
}

// prepare fills in the id and timestamp of a resume about to be saved.
func prepare(r *Resume, now time.Time) error {
	if strings.TrimSpace(r.Text) == "" {
		return fmt.Errorf("resume text is empty")
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now.UTC()
	}
	return nil
}

func texts(resumes []Resume) []string {
	out := make([]string, len(resumes))
	for i, r := range resumes {
		out[i] = r.Text
	}
	return out
}
