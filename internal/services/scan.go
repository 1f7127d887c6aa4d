package services

import (
	"context"
	"log/slog"

	"github.com/baharkarakas/checkin-backend/internal/metrics"
	repo "github.com/baharkarakas/checkin-backend/internal/repository"
)

type ScanRecorder struct {
	badges repo.Badges
}

func NewScanRecorder(b repo.Badges) *ScanRecorder { return &ScanRecorder{badges: b} }

// RecordScan bumps the visit counter of the badge. A failed update, including
// a badge removed between lookup and update, is logged and dropped.
func (s *ScanRecorder) RecordScan(ctx context.Context, token string) {
	if err := s.badges.IncrementScan(ctx, token); err != nil {
		metrics.ScanUpdateFailures.Inc()
		if isNotFound(err) {
			slog.WarnContext(ctx, "scan update matched no badge", "token", token)
			return
		}
		slog.ErrorContext(ctx, "scan update failed", "token", token, "err", err)
	}
}
