// Package coursesync mirrors course progress recorded by course pages and forwards it to
// the progress API.
package coursesync

import (
	"bytes"
	"encoding/json"
	"math"
)

// CourseKey maps a mirror key to the course it tracks.
type CourseKey struct {
	CourseID     string
	TotalModules int
}

// DefaultCourseKeys returns the mirror keys course pages write progress under.
func DefaultCourseKeys() map[string]CourseKey {
	return map[string]CourseKey{
		"pt-msk-001-progress":        {CourseID: "pt-msk-001", TotalModules: 12},
		"balanceGaitProgress":        {CourseID: "core-balance-001", TotalModules: 12},
		"documentationProgress":      {CourseID: "core-doc-001", TotalModules: 12},
		"geriatricCareProgress":      {CourseID: "core-geriatric-001", TotalModules: 12},
		"healthTechExpandedProgress": {CourseID: "core-tech-001", TotalModules: 10},
		"infectionControlProgress":   {CourseID: "core-infection-001", TotalModules: 12},
		"jointReplacementProgress":   {CourseID: "core-joint-001", TotalModules: 12},
		"mobility-fall-001-progress": {CourseID: "core-mobility-001", TotalModules: 12},
		"otAdlProgress":              {CourseID: "ot-adl-001", TotalModules: 12},
		"patientEducationProgress":   {CourseID: "core-education-001", TotalModules: 12},
		"physicalAgentsProgress":     {CourseID: "core-agents-001", TotalModules: 12},
		"postSurgicalProgress":       {CourseID: "core-postsurg-001", TotalModules: 12},
		"neuroRehabProgress":         {CourseID: "core-neuro-001", TotalModules: 12},
	}
}

// Snapshot is the normalized progress of one course.
type Snapshot struct {
	CourseID         string  `json:"courseId"`
	ProgressPercent  int     `json:"progressPercent"`
	ModulesCompleted int     `json:"modulesCompleted"`
	TimeSpentSeconds float64 `json:"timeSpentSeconds"`
}

// moduleRecord is the decoded form of the completed-modules field. Course pages have
// written it in several shapes over time.
type moduleRecord interface {
	completed() int
}

type completedModulesList []json.RawMessage

type modulesCompletedList []json.RawMessage

type completedFlags map[string]json.RawMessage

type modulesCompletedCount float64

type unrecognizedRecord struct{}

func (l completedModulesList) completed() int { return len(l) }

func (l modulesCompletedList) completed() int { return len(l) }

func (f completedFlags) completed() int {
	count := 0
	for _, value := range f {
		if truthy(value) {
			count++
		}
	}
	return count
}

func (c modulesCompletedCount) completed() int {
	if c <= 0 || math.IsNaN(float64(c)) || math.IsInf(float64(c), 0) {
		return 0
	}
	return int(c)
}

func (unrecognizedRecord) completed() int { return 0 }

// Extractor turns raw mirror values into snapshots for known course keys.
type Extractor struct {
	keys map[string]CourseKey
}

// NewExtractor builds an extractor over keys. A nil map uses DefaultCourseKeys.
func NewExtractor(keys map[string]CourseKey) *Extractor {
	if keys == nil {
		keys = DefaultCourseKeys()
	}
	return &Extractor{keys: keys}
}

// Tracks reports whether key holds course progress.
func (e *Extractor) Tracks(key string) bool {
	_, ok := e.keys[key]
	return ok
}

// Extract normalizes the value stored under key. It reports false for unknown keys,
// malformed values and values whose module field has no recognized shape.
func (e *Extractor) Extract(key string, raw []byte) (Snapshot, bool) {
	mapping, ok := e.keys[key]
	if !ok {
		return Snapshot{}, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Snapshot{}, false
	}

	record := decodeModules(fields)
	if _, unknown := record.(unrecognizedRecord); unknown {
		return Snapshot{}, false
	}

	total := mapping.TotalModules
	if override, ok := number(fields["totalModules"]); ok && override > 0 {
		total = int(override)
	}

	var seconds float64
	if minutes, ok := number(fields["timeSpent"]); ok && minutes > 0 {
		seconds = minutes * 60
	}

	done := record.completed()
	return Snapshot{
		CourseID:         mapping.CourseID,
		ProgressPercent:  percentOf(done, total),
		ModulesCompleted: done,
		TimeSpentSeconds: seconds,
	}, true
}

func decodeModules(fields map[string]json.RawMessage) moduleRecord {
	if list, ok := array(fields["completedModules"]); ok {
		return completedModulesList(list)
	}
	if list, ok := array(fields["modulesCompleted"]); ok {
		return modulesCompletedList(list)
	}
	if raw := bytes.TrimSpace(fields["completed"]); len(raw) > 0 && raw[0] == '{' {
		var flags map[string]json.RawMessage
		if err := json.Unmarshal(raw, &flags); err == nil {
			return completedFlags(flags)
		}
	}
	if count, ok := number(fields["modulesCompleted"]); ok {
		return modulesCompletedCount(count)
	}
	return unrecognizedRecord{}
}

func percentOf(done, total int) int {
	if total <= 0 {
		return 0
	}
	percent := int(math.Round(100 * float64(done) / float64(total)))
	if percent > 100 {
		return 100
	}
	if percent < 0 {
		return 0
	}
	return percent
}

func array(raw json.RawMessage) ([]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}
	var list []json.RawMessage
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, false
	}
	return list, true
}

func number(raw json.RawMessage) (float64, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || (trimmed[0] != '-' && (trimmed[0] < '0' || trimmed[0] > '9')) {
		return 0, false
	}
	var value float64
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return 0, false
	}
	return value, true
}

func truthy(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0:
		return false
	case bytes.Equal(trimmed, []byte("true")):
		return true
	case bytes.Equal(trimmed, []byte("false")), bytes.Equal(trimmed, []byte("null")), bytes.Equal(trimmed, []byte(`""`)):
		return false
	case trimmed[0] == '-' || (trimmed[0] >= '0' && trimmed[0] <= '9'):
		value, ok := number(trimmed)
		return ok && value != 0
	default:
		return true
	}
}
