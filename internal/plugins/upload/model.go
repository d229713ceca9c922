// Package upload implements the intake pipeline: every upload passes the IP
// deny list, the daily quota, the chosen storage backend, and (when enabled)
// content moderation before its reference is returned to the client. Each
// attempt leaves exactly one upload log entry, whatever the outcome.
package upload

import "time"

// Request is one upload attempt as seen by the pipeline.
type Request struct {
	FileName    string
	ContentType string
	Data        []byte

	// HasFile is false when the multipart form carried no file. The pipeline
	// still runs the deny-list check before rejecting, so blocked clients
	// learn they are blocked rather than probing validation.
	HasFile bool

	// Invalid carries a validation failure found while reading the multipart
	// payload (oversized, unreadable). The pipeline logs and rejects it on
	// the same path as a missing file, so the attempt still leaves its row.
	Invalid string

	IP      string
	Referer string

	// Role and Key identify the client for quota accounting: the user ID
	// for authenticated clients, the IP for anonymous ones.
	Role string
	Key  string
}

// Result is the success response body. Field names match what the upload
// clients in the wild already parse.
type Result struct {
	URL     string `json:"url"`
	Code    int    `json:"code"`
	Name    string `json:"name"`
	Msg     string `json:"msg"`
	Referer string `json:"Referer"`
	IP      string `json:"clientIp"`

	// Rating is the moderation rating: 0 when moderation is off or the
	// content is clean, -1 when rating failed.
	Rating int `json:"rating_index"`

	Time time.Time `json:"nowTime"`
}

// resultMsgOK is the legacy success marker clients check for.
const resultMsgOK = "2"
