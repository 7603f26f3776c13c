package service

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ceu-go-api/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func TestClampPercent(t *testing.T) {
	cases := []struct {
		in   float64
		want int
	}{
		{-10, 0},
		{0, 0},
		{40.4, 40},
		{94.6, 95},
		{99, 95},
		{1000, 95},
		{math.NaN(), 0},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, clampPercent(tc.in, UpdateProgressCap), "input %v", tc.in)
	}
}

func TestClampTimeSpent(t *testing.T) {
	require.Equal(t, int64(0), clampTimeSpent(nil))
	require.Equal(t, int64(0), clampTimeSpent(floatPtr(-5)))
	require.Equal(t, int64(600), clampTimeSpent(floatPtr(600)))
	require.Equal(t, int64(MaxTimeSpentPerCall), clampTimeSpent(floatPtr(10_000_000)))
}

func TestStatusForPercent(t *testing.T) {
	require.Equal(t, models.ProgressNotStarted, statusForPercent(0))
	require.Equal(t, models.ProgressInProgress, statusForPercent(1))
}

func TestNormalizeModules(t *testing.T) {
	require.Nil(t, normalizeModules(nil))
	require.Nil(t, normalizeModules(json.RawMessage("null")))
	require.Nil(t, normalizeModules(json.RawMessage(`"three"`)))
	require.Nil(t, normalizeModules(json.RawMessage(`-2`)))
	require.Nil(t, normalizeModules(json.RawMessage(`{"a":true}`)))
	require.Equal(t, "4", string(normalizeModules(json.RawMessage(`3.6`))))
	require.JSONEq(t, `["m1","m2"]`, string(normalizeModules(json.RawMessage(` ["m1","m2"] `))))
}

func TestCompletionPolicyDisabledByDefault(t *testing.T) {
	var policy CompletionPolicy
	require.NoError(t, policy.Check(nil, models.Course{CEUHours: 12}, time.Now()))
}

func TestCompletionPolicyGates(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-2 * time.Minute)
	earlier := now.Add(-2 * time.Hour)
	course := models.Course{CEUHours: 2}

	policy := CompletionPolicy{MinProgressPercent: 90, MinTimeRatio: 0.5, MinElapsed: 10 * time.Minute}

	err := policy.Check(&models.CourseProgress{ProgressPercent: 80, TimeSpentSeconds: 7200, StartedAt: &earlier}, course, now)
	require.True(t, errors.Is(err, ErrCompletionNotReady))
	require.Contains(t, err.Error(), "progress")

	err = policy.Check(&models.CourseProgress{ProgressPercent: 95, TimeSpentSeconds: 100, StartedAt: &earlier}, course, now)
	require.ErrorIs(t, err, ErrCompletionNotReady)
	require.Contains(t, err.Error(), "time spent")

	err = policy.Check(&models.CourseProgress{ProgressPercent: 95, TimeSpentSeconds: 3600, StartedAt: &recent}, course, now)
	require.ErrorIs(t, err, ErrCompletionNotReady)

	require.NoError(t, policy.Check(&models.CourseProgress{ProgressPercent: 95, TimeSpentSeconds: 3600, StartedAt: &earlier}, course, now))
}
