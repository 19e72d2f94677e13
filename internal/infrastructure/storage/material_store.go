// Package storage keeps uploaded course materials on the local filesystem.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hcmut-portal/portal-api/internal/core/domain"
	"github.com/hcmut-portal/portal-api/internal/core/ports"
	"github.com/hcmut-portal/portal-api/internal/pkg/metrics"
)

const (
	DefaultURLPrefix = "/materials"
	DefaultMaxBytes  = 20 << 20
)

type Options struct {
	Dir       string
	URLPrefix string
	MaxBytes  int64
}

// MaterialStore writes each upload under a fresh uuid, keeping only the
// lower-cased extension of the client's file name.
type MaterialStore struct {
	opts    Options
	log     zerolog.Logger
	newName func() string
}

var _ ports.MaterialStore = (*MaterialStore)(nil)

func NewMaterialStore(opts Options, log zerolog.Logger) *MaterialStore {
	if opts.URLPrefix == "" {
		opts.URLPrefix = DefaultURLPrefix
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	return &MaterialStore{opts: opts, log: log, newName: uuid.NewString}
}

func (s *MaterialStore) Save(ctx context.Context, originalName string, r io.Reader) (*ports.StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create materials dir: %w", err)
	}

	stored := s.newName() + strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	target := filepath.Join(s.opts.Dir, stored)

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create material: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(r, s.opts.MaxBytes+1))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil && n > s.opts.MaxBytes {
		err = fmt.Errorf("%w: limit is %d bytes", domain.ErrFileTooLarge, s.opts.MaxBytes)
	}
	if err != nil {
		_ = os.Remove(target)
		if !errors.Is(err, domain.ErrFileTooLarge) {
			err = fmt.Errorf("write material: %w", err)
		}
		return nil, err
	}

	metrics.MaterialsUploadedTotal.Inc()
	metrics.MaterialUploadBytes.Observe(float64(n))
	s.log.Info().
		Str("filename", originalName).
		Str("stored_as", stored).
		Int64("bytes", n).
		Msg("material uploaded")

	return &ports.StoredFile{
		Filename: originalName,
		StoredAs: stored,
		URL:      path.Join(s.opts.URLPrefix, stored),
	}, nil
}
