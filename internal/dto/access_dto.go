package dto

// AccessCheckResponse is returned by the page-embedded course access check.
type AccessCheckResponse struct {
	Allowed  bool   `json:"allowed"`
	Reason   string `json:"reason"`
	CourseID string `json:"courseId,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}
