// Package service implements the archive relay logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"pbl-proxy-go/internal/client"
	"pbl-proxy-go/internal/config"
	"pbl-proxy-go/internal/metrics"
	"pbl-proxy-go/internal/model"
)

var (
	// ErrArchiveTooSmall is returned when upstream answered 2xx with a body
	// below the configured floor.
	ErrArchiveTooSmall = errors.New("archive too small")

	// ErrEmptyIdentifier is returned for a blank municipality name.
	ErrEmptyIdentifier = errors.New("identifier is empty")

	// ErrInvalidIdentifier is returned for a name that is not a single path segment.
	ErrInvalidIdentifier = errors.New("identifier must be a single path segment")
)

// segmentEscaper encodes only the characters that would otherwise change
// the structure of the upstream URL. Everything else, apostrophes included,
// is sent as given.
var segmentEscaper = strings.NewReplacer("%", "%25", "?", "%3F", "#", "%23")

// Fetcher retrieves the body at a URL. *client.PBLClient satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

var _ Fetcher = (*client.PBLClient)(nil)

// ArchiveService fetches municipality archives from the upstream data portal.
type ArchiveService struct {
	fetcher  Fetcher
	baseURL  string
	minBytes int
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewArchiveService creates an ArchiveService. The metrics parameter is
// optional; pass nil to disable archive metrics.
func NewArchiveService(c *client.PBLClient, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*ArchiveService, error) {
	return newArchiveService(c, cfg, logger, m)
}

func newArchiveService(f Fetcher, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*ArchiveService, error) {
	if _, err := url.Parse(cfg.Upstream.BaseURL); err != nil {
		return nil, fmt.Errorf("parse upstream base_url: %w", err)
	}

	return &ArchiveService{
		fetcher:  f,
		baseURL:  cfg.Upstream.BaseURL,
		minBytes: cfg.Download.MinBytes,
		logger:   logger.With("component", "archive_service"),
		metrics:  m,
	}, nil
}

// BuildURL returns the upstream location of the archive for identifier.
// The decoded path of the result ends in exactly "/{identifier}.zip".
func (s *ArchiveService) BuildURL(identifier string) string {
	return s.baseURL + "/" + segmentEscaper.Replace(identifier) + ".zip"
}

// Download fetches the archive for identifier with a single upstream GET.
//
// Upstream transport failures, timeouts and non-2xx replies are returned
// wrapped. A 2xx body shorter than the configured floor yields
// ErrArchiveTooSmall.
func (s *ArchiveService) Download(ctx context.Context, identifier string) (*model.Archive, error) {
	if identifier == "" {
		return nil, ErrEmptyIdentifier
	}
	if strings.ContainsRune(identifier, '/') {
		return nil, ErrInvalidIdentifier
	}

	archiveURL := s.BuildURL(identifier)
	s.logger.Info("downloading archive", "url", archiveURL)

	data, err := s.fetcher.Fetch(ctx, archiveURL)
	if err != nil {
		s.observe(metrics.OutcomeUpstreamError, -1)
		s.logger.Error("archive download failed", "url", archiveURL, "err", err)
		return nil, fmt.Errorf("download %s: %w", identifier, err)
	}

	s.logger.Info("archive downloaded",
		"identifier", identifier,
		"bytes", len(data),
		"kb", fmt.Sprintf("%.1f", float64(len(data))/1024),
	)

	if len(data) < s.minBytes {
		s.observe(metrics.OutcomeTooSmall, len(data))
		s.logger.Warn("archive below size floor",
			"identifier", identifier,
			"bytes", len(data),
			"min_bytes", s.minBytes,
		)
		return nil, ErrArchiveTooSmall
	}

	s.observe(metrics.OutcomeRelayed, len(data))
	return &model.Archive{
		Identifier: identifier,
		URL:        archiveURL,
		Data:       data,
	}, nil
}

// observe records the outcome; size < 0 means no body was received.
func (s *ArchiveService) observe(outcome string, size int) {
	if s.metrics == nil {
		return
	}
	s.metrics.ArchivesTotal.WithLabelValues(outcome).Inc()
	if size >= 0 {
		s.metrics.ArchiveBytes.Observe(float64(size))
	}
}
