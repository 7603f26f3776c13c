package coursesync

import (
	"context"

	"github.com/rs/zerolog"
)

// Comparison describes local and stored progress for the course on the current page.
type Comparison struct {
	CourseID      string
	LocalPercent  int
	ServerPercent int
	ServerAhead   bool
}

// CompareWithServer loads the stored progress for the course tracked in mirror and
// reports whether the server is ahead. The mirror is never modified. It reports false
// when there is no session, no tracked course or no stored progress.
func CompareWithServer(ctx context.Context, transport Transport, mirror *Mirror, logger zerolog.Logger) (Comparison, bool, error) {
	token := SessionToken(mirror)
	if token == "" {
		return Comparison{}, false, nil
	}
	local, ok := mirror.Current()
	if !ok {
		return Comparison{}, false, nil
	}

	stored, found, err := transport.LoadProgress(ctx, token, local.CourseID)
	if err != nil {
		logger.Warn().Err(err).Str("course_id", local.CourseID).Msg("failed to check server progress")
		return Comparison{}, false, err
	}
	if !found {
		return Comparison{}, false, nil
	}

	result := Comparison{
		CourseID:      local.CourseID,
		LocalPercent:  local.ProgressPercent,
		ServerPercent: stored.ProgressPercent,
		ServerAhead:   stored.ProgressPercent > local.ProgressPercent,
	}
	if result.ServerAhead {
		logger.Info().
			Str("course_id", result.CourseID).
			Int("server_percent", result.ServerPercent).
			Int("local_percent", result.LocalPercent).
			Msg("server holds more progress than the local mirror")
	}
	return result, true, nil
}
