package reservation

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/heejin0702/anpetna-care/internal/auth"
	"github.com/heejin0702/anpetna-care/internal/pkg/apperror"
)

// BulkResult reports every requested id as either applied or failed with a reason.
type BulkResult struct {
	Applied []string
	Failed  map[string]string
}

// ApplyBulk sets status on each id independently. One failing id never blocks the others, and ids
// already in the target status count as applied.
func (s *service) ApplyBulk(ctx context.Context, p auth.Principal, ids []string, status Status) (*BulkResult, error) {
	if !p.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	unique := dedupe(ids)
	if len(unique) == 0 {
		return nil, ErrInvalidInput.WithDetails(map[string]string{"ids": "required"})
	}

	outcomes := make([]error, len(unique))

	var g errgroup.Group
	g.SetLimit(s.bulkConcurrency)
	for i, id := range unique {
		g.Go(func() error {
			_, outcomes[i] = s.setStatus(ctx, id, status)
			return nil
		})
	}
	_ = g.Wait()

	result := &BulkResult{Applied: []string{}, Failed: map[string]string{}}
	for i, id := range unique {
		err := outcomes[i]
		if err == nil {
			result.Applied = append(result.Applied, id)
			continue
		}
		result.Failed[id] = failureReason(err)

		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			s.logger.Error("bulk status update failed",
				zap.String("reservation_id", id),
				zap.String("to", string(status)),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("bulk status applied",
		zap.String("to", string(status)),
		zap.Int("applied", len(result.Applied)),
		zap.Int("failed", len(result.Failed)),
	)
	return result, nil
}

// failureReason exposes domain messages and hides internal errors.
func failureReason(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal error"
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
