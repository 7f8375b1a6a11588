package models

// All lists every persisted model in migration order.
func All() []any {
	return []any{
		&User{},
		&Manager{},
		&Facilitator{},
		&Module{},
		&Cohort{},
		&Class{},
		&Mode{},
		&Student{},
		&CourseOffering{},
		&ActivityTracker{},
		&Notification{},
		&AuditEntry{},
	}
}
