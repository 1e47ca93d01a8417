package closure

import (
	"github.com/heejin0702/anpetna-care/internal/pkg/apperror"
	"github.com/heejin0702/anpetna-care/internal/schedule"
)

var (
	ErrInvalidInput     = apperror.Validation("invalid closure request")
	ErrPermissionDenied = apperror.Forbidden("permission denied")
)

// MergeRequest carries the times an admin flipped during one editing session, not the desired state.
type MergeRequest struct {
	DoctorID string
	Date     schedule.Date
	Toggled  schedule.TimeSet
}

type MergeResult struct {
	// Closed is the stored closed set after the merge.
	Closed schedule.TimeSet
	// Ignored lists toggled times that are pinned by a confirmed or no-show reservation.
	Ignored schedule.TimeSet
}
