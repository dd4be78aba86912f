package models

// MaxReportPhotos caps the number of photos attached to one daily report.
const MaxReportPhotos = 10

// DailyReport represents one day's activity log on a project.
type DailyReport struct {
	// ID is the unique identifier for the report (UUID format).
	ID string

	// OwnerID is the session identity the report is scoped under.
	OwnerID string

	// ProjectID is the project this report belongs to. Required.
	ProjectID string

	// Date is the calendar date the report covers, RFC 3339.
	Date string

	// Participants is a free-text list of who took part.
	Participants string

	// WhatWeDid describes the day's activities.
	WhatWeDid string

	// SpecialNote is an optional extra note.
	SpecialNote string

	// Photos is the ordered list of attached photo URIs, at most
	// MaxReportPhotos. Persisted as a JSON-encoded string in the store.
	Photos []string

	// Timestamp is the creation time, RFC 3339.
	Timestamp string
}

// Validate checks the fields required before a report can be persisted.
func (r *DailyReport) Validate() error {
	if r.ProjectID == "" {
		return validationError("projectId", "required")
	}
	if r.Date == "" {
		return validationError("date", "required")
	}
	if r.Participants == "" {
		return validationError("participants", "required")
	}
	if r.WhatWeDid == "" {
		return validationError("whatWeDid", "required")
	}
	if len(r.Photos) > MaxReportPhotos {
		return validationError("photos", "at most 10 photos")
	}
	return nil
}

// DailyReportUpdate carries the fields an edit may change. Nil fields are
// left untouched.
type DailyReportUpdate struct {
	Date         *string
	Participants *string
	WhatWeDid    *string
	SpecialNote  *string
	Photos       *[]string
}
