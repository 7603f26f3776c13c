package models

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&Course{},
		&Profile{},
		&Enrollment{},
		&CourseProgress{},
		&Certificate{},
	}
}
