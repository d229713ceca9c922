// Package quota enforces daily upload caps per client. Anonymous clients are
// identified by IP, authenticated clients by user ID, and each role carries
// its own configurable daily limit. Usage counters live in the quota_usage
// table, one row per identity and day, plus a lifetime row per identity.
package quota

import (
	"time"

	"github.com/halcyonlab/imgstash/internal/plugins/settings"
)

// Client roles. The role decides which limit applies and prefixes the
// identity key, so per-role aggregation is a prefix match.
const (
	RoleAnonymous = "anonymous"
	RoleUser      = "user"
)

// Counter scopes in the quota_usage table.
const (
	ScopeDaily    = "daily"
	ScopeLifetime = "lifetime"
)

// Usage is one counter row.
type Usage struct {
	Identity string    `json:"identity"`
	Scope    string    `json:"scope"`
	Day      time.Time `json:"day"`
	Count    int64     `json:"count"`
}

// RoleDayCount is one role's upload volume for a single day.
type RoleDayCount struct {
	Role  string `json:"role"`
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// RoleTotals pairs per-role upload counts.
type RoleTotals struct {
	Anonymous int64 `json:"anonymous"`
	User      int64 `json:"user"`
}

// Snapshot is the admin view of quota state: the configured limits plus
// current consumption.
type Snapshot struct {
	Limits            settings.QuotaLimits `json:"limits"`
	Today             RoleTotals           `json:"today"`
	LifetimeAnonymous int64                `json:"lifetimeAnonymous"`
	LifetimeUser      int64                `json:"lifetimeUser"`
	Recent            []RoleDayCount       `json:"recent"`
}
