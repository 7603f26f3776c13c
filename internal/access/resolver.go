package access

import (
	"path"
	"strings"
)

// DefaultSuffixes are the page-variant suffixes stripped from course filenames.
var DefaultSuffixes = []string{"-progressive", "-feedback", "-certificate", "-quiz"}

// Resolver maps course page filenames to course ids.
type Resolver struct {
	fileByCourse map[string]string
	courseByFile map[string]string
	suffixes     []string
}

// NewResolver builds a resolver from course id to filename prefix.
func NewResolver(fileByCourse map[string]string) *Resolver {
	r := &Resolver{
		fileByCourse: make(map[string]string, len(fileByCourse)),
		courseByFile: make(map[string]string, len(fileByCourse)),
		suffixes:     DefaultSuffixes,
	}
	for courseID, prefix := range fileByCourse {
		courseID = strings.TrimSpace(courseID)
		prefix = strings.TrimSpace(prefix)
		if courseID == "" || prefix == "" {
			continue
		}
		r.fileByCourse[courseID] = prefix
		r.courseByFile[strings.ToLower(prefix)] = courseID
	}
	return r
}

// Prefix returns the course portion of ref: the basename without extension or page suffix.
func (r *Resolver) Prefix(ref string) string {
	base := strings.TrimSuffix(fileName(ref), ".html")
	if base == "" {
		return ""
	}
	for _, suffix := range r.suffixes {
		if strings.HasSuffix(base, suffix) {
			return strings.TrimSuffix(base, suffix)
		}
	}
	return base
}

// Candidates lists the course ids ref may refer to: the prefix itself, its reverse-mapped
// course id and its lowercase form.
func (r *Resolver) Candidates(ref string) []string {
	prefix := r.Prefix(ref)
	if prefix == "" {
		return nil
	}
	out := []string{prefix}
	if courseID, ok := r.courseByFile[strings.ToLower(prefix)]; ok {
		out = appendUnique(out, courseID)
	}
	return appendUnique(out, strings.ToLower(prefix))
}

// Match reports which enrolled course, if any, ref belongs to.
func (r *Resolver) Match(ref string, enrolled []string) (string, bool) {
	candidates := r.Candidates(ref)
	if len(candidates) == 0 {
		return "", false
	}

	for _, courseID := range enrolled {
		for _, candidate := range candidates {
			if strings.EqualFold(courseID, candidate) {
				return courseID, true
			}
		}
	}

	file := strings.ToLower(fileName(ref))
	for _, courseID := range enrolled {
		if courseID == "" {
			continue
		}
		if prefix, ok := r.fileByCourse[courseID]; ok && strings.Contains(file, strings.ToLower(prefix)) {
			return courseID, true
		}
		if strings.Contains(file, strings.ToLower(courseID)) {
			return courseID, true
		}
	}
	return "", false
}

func fileName(ref string) string {
	ref = strings.TrimSpace(ref)
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	base := path.Base(ref)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}
