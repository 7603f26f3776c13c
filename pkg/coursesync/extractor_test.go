package coursesync

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractRecognizedShapes(t *testing.T) {
	extractor := NewExtractor(nil)

	cases := []struct {
		name    string
		key     string
		raw     string
		done    int
		percent int
		seconds float64
	}{
		{"completed modules list", "pt-msk-001-progress", `{"completedModules":["m1","m2","m3"],"timeSpent":12}`, 3, 25, 720},
		{"modules completed list", "balanceGaitProgress", `{"modulesCompleted":[1,2,3,4,5,6]}`, 6, 50, 0},
		{"completion flags", "otAdlProgress", `{"completed":{"m1":true,"m2":false,"m3":1,"m4":"","m5":"yes"}}`, 3, 25, 0},
		{"module count", "neuroRehabProgress", `{"modulesCompleted":9}`, 9, 75, 0},
		{"total override", "healthTechExpandedProgress", `{"modulesCompleted":[1,2],"totalModules":4}`, 2, 50, 0},
		{"capped at 100", "pt-msk-001-progress", `{"modulesCompleted":20}`, 20, 100, 0},
		{"rounded", "healthTechExpandedProgress", `{"completedModules":[1],"totalModules":3}`, 1, 33, 0},
		{"non numeric time ignored", "pt-msk-001-progress", `{"completedModules":[],"timeSpent":"ten"}`, 0, 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snapshot, ok := extractor.Extract(tc.key, []byte(tc.raw))
			require.True(t, ok)
			require.Equal(t, tc.done, snapshot.ModulesCompleted)
			require.Equal(t, tc.percent, snapshot.ProgressPercent)
			require.InDelta(t, tc.seconds, snapshot.TimeSpentSeconds, 0.001)
		})
	}
}

func TestExtractPrefersListsOverOtherShapes(t *testing.T) {
	snapshot, ok := NewExtractor(nil).Extract("pt-msk-001-progress", []byte(`{"completedModules":["a"],"modulesCompleted":[1,2,3],"completed":{"x":true,"y":true}}`))
	require.True(t, ok)
	require.Equal(t, 1, snapshot.ModulesCompleted)
	require.Equal(t, "pt-msk-001", snapshot.CourseID)
}

func TestExtractNotApplicable(t *testing.T) {
	extractor := NewExtractor(nil)

	for name, input := range map[string]struct{ key, raw string }{
		"unknown key":      {"somethingElse", `{"modulesCompleted":3}`},
		"malformed json":   {"pt-msk-001-progress", `{"modulesCompleted":`},
		"not an object":    {"pt-msk-001-progress", `42`},
		"no module field":  {"pt-msk-001-progress", `{"timeSpent":5}`},
		"string count":     {"pt-msk-001-progress", `{"modulesCompleted":"3"}`},
		"completed array":  {"pt-msk-001-progress", `{"completed":[true]}`},
		"null json object": {"pt-msk-001-progress", `null`},
	} {
		t.Run(name, func(t *testing.T) {
			_, ok := extractor.Extract(input.key, []byte(input.raw))
			require.False(t, ok)
		})
	}
}

func TestZeroTotalModulesYieldsZeroPercent(t *testing.T) {
	extractor := NewExtractor(map[string]CourseKey{"k": {CourseID: "c", TotalModules: 0}})
	snapshot, ok := extractor.Extract("k", []byte(`{"modulesCompleted":4}`))
	require.True(t, ok)
	require.Zero(t, snapshot.ProgressPercent)
}

func TestDefaultCourseKeys(t *testing.T) {
	keys := DefaultCourseKeys()
	require.Len(t, keys, 13)
	require.Equal(t, CourseKey{CourseID: "core-tech-001", TotalModules: 10}, keys["healthTechExpandedProgress"])
}
