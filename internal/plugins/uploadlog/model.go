// Package uploadlog records the outcome of every upload attempt and serves
// the admin log views. Exactly one entry is written per attempt, whatever
// the outcome; the log is the audit trail the auto-block escalation and the
// admin dashboard are built on.
package uploadlog

import "time"

// Entry outcome states.
const (
	// StatusSuccess marks an upload that was stored and kept.
	StatusSuccess = "success"

	// StatusBlocked marks an upload refused by policy: blocked IP, quota
	// exhausted, or a moderation violation.
	StatusBlocked = "blocked"

	// StatusError marks an upload that failed for technical reasons.
	StatusError = "error"
)

// Entry is one upload attempt.
type Entry struct {
	ID       int64  `json:"id"`
	FileName string `json:"fileName"`
	Storage  string `json:"storage"`
	IP       string `json:"ip"`
	Referer  string `json:"referer"`

	// Rating is the moderation rating: 0 when moderation never ran or the
	// content is clean, -1 when a rating attempt failed. Nullable because
	// policy rejections never reach the rating step.
	Rating *int `json:"rating"`

	// Compliant is false for policy rejections (blocked IP, quota,
	// moderation) and invalid input. Transport and storage failures stay
	// compliant: a broken upload is not evidence of abuse.
	Compliant bool `json:"compliant"`

	Status    string    `json:"status"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Filter narrows the admin log listing. Zero values mean "no constraint".
type Filter struct {
	IP      string
	Status  string
	Storage string

	// Search matches free text against file name, message, and referer.
	Search string

	// Compliant filters on the compliance flag when non-nil.
	Compliant *bool

	// Start and End bound the entry creation time, both inclusive.
	Start time.Time
	End   time.Time

	Page     int
	PageSize int
}

// Stats aggregates entry counts by outcome.
type Stats struct {
	Total      int64 `json:"total"`
	Success    int64 `json:"success"`
	Blocked    int64 `json:"blocked"`
	Failed     int64 `json:"failed"`
	Violations int64 `json:"violations"`
}

// DayCount is one day's upload volume for the activity chart.
type DayCount struct {
	Day        string `json:"day"`
	Total      int64  `json:"total"`
	Violations int64  `json:"violations"`
}

// IPCount is one client's upload volume for the top-offenders table.
type IPCount struct {
	IP         string `json:"ip"`
	Total      int64  `json:"total"`
	Violations int64  `json:"violations"`
}

// Pagination describes the returned page of a filtered listing.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// Overview is the full admin log view: one page of entries plus the
// aggregates rendered around it.
type Overview struct {
	Pagination Pagination `json:"pagination"`
	Logs       []Entry    `json:"logs"`
	Stats      Stats      `json:"stats"`
	Recent     []DayCount `json:"recent"`
	TopIPs     []IPCount  `json:"topIps"`
}
