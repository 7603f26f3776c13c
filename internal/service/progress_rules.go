package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/ceu-go-api/internal/models"
)

const (
	// UpdateProgressCap is the highest percent reachable through the partial update path.
	UpdateProgressCap = 95
	// MaxTimeSpentPerCall bounds the time_spent_seconds accepted from a single request.
	MaxTimeSpentPerCall = 86400
)

func clampPercent(value float64, max int) int {
	if math.IsNaN(value) || value <= 0 {
		return 0
	}
	rounded := int(math.Round(value))
	if rounded > max {
		return max
	}
	return rounded
}

func clampTimeSpent(value *float64) int64 {
	if value == nil || math.IsNaN(*value) || *value <= 0 {
		return 0
	}
	if *value >= MaxTimeSpentPerCall {
		return MaxTimeSpentPerCall
	}
	return int64(math.Round(*value))
}

func statusForPercent(percent int) models.ProgressStatus {
	if percent > 0 {
		return models.ProgressInProgress
	}
	return models.ProgressNotStarted
}

// normalizeModules accepts a non-negative count or a list. Anything else is ignored.
func normalizeModules(raw json.RawMessage) datatypes.JSON {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	switch trimmed[0] {
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil
		}
		return datatypes.JSON(trimmed)
	default:
		var count float64
		if err := json.Unmarshal(trimmed, &count); err != nil || count < 0 || math.IsNaN(count) {
			return nil
		}
		return datatypes.JSON(fmt.Sprintf("%d", int64(math.Round(count))))
	}
}

// CompletionPolicy holds optional readiness gates checked before a first completion.
// A zero value disables every gate.
type CompletionPolicy struct {
	MinProgressPercent int
	MinTimeRatio       float64
	MinElapsed         time.Duration
}

// Check reports ErrCompletionNotReady when a configured gate is not met.
func (p CompletionPolicy) Check(progress *models.CourseProgress, course models.Course, now time.Time) error {
	var (
		percent int
		spent   int64
		started *time.Time
	)
	if progress != nil {
		percent = progress.ProgressPercent
		spent = progress.TimeSpentSeconds
		started = progress.StartedAt
	}

	if p.MinProgressPercent > 0 && percent < p.MinProgressPercent {
		return fmt.Errorf("%w: progress %d%% is below %d%%", ErrCompletionNotReady, percent, p.MinProgressPercent)
	}

	if p.MinTimeRatio > 0 && course.CEUHours > 0 {
		required := int64(math.Ceil(course.CEUHours * 3600 * p.MinTimeRatio))
		if spent < required {
			return fmt.Errorf("%w: time spent %ds is below %ds", ErrCompletionNotReady, spent, required)
		}
	}

	if p.MinElapsed > 0 {
		if started == nil || now.Sub(*started) < p.MinElapsed {
			return fmt.Errorf("%w: course started less than %s ago", ErrCompletionNotReady, p.MinElapsed)
		}
	}

	return nil
}
