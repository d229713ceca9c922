// Package assets maintains the index of successfully stored uploads. Each
// row maps the canonical reference (URL or backend file identifier) to where
// and how the file was stored, so the admin API can list and withdraw assets
// after the fact.
package assets

import "time"

// Asset is one stored upload.
type Asset struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Storage string `json:"storage"`

	FileName string `json:"fileName"`

	// FileID and MessageID locate the file on the bot backend; nil for the
	// other backends.
	FileID    *string `json:"fileId"`
	MessageID *int64  `json:"messageId"`

	IP      string `json:"ip"`
	Referer string `json:"referer"`

	// Rating is the moderation rating recorded at intake, -1 when rating
	// failed, 0 when moderation was off.
	Rating int `json:"rating"`

	CreatedAt time.Time `json:"createdAt"`
}
