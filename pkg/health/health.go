// Package health aggregates the server-side readiness summary reported on
// the unauthenticated health endpoint and in the CLI status view.
package health

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// SuitePinger checks the external VPN security suite, nil when the suite is
// not configured.
type SuitePinger interface {
	Ping(ctx context.Context) error
}

// Summary is the point-in-time health report.
type Summary struct {
	Status      string    `json:"status"`
	Database    string    `json:"database"`
	VpnSuite    string    `json:"vpnSuite"`
	Maintenance bool      `json:"maintenance"`
	Version     string    `json:"version"`
	Uptime      string    `json:"uptime"`
	Timestamp   time.Time `json:"timestamp"`
}

// Healthy reports whether the summary warrants a 200.
func (s Summary) Healthy() bool {
	return s.Database == StatusOK
}

const (
	StatusOK            = "ok"
	StatusUnavailable   = "unavailable"
	StatusNotConfigured = "notConfigured"
	StatusBlocked       = "blocked"
)

type Checker struct {
	db          *gorm.DB
	suite       SuitePinger
	blocked     bool
	maintenance bool
	version     string
	started     time.Time
}

func NewChecker(db *gorm.DB, suite SuitePinger, blocked, maintenance bool, version string, started time.Time) *Checker {
	return &Checker{
		db:          db,
		suite:       suite,
		blocked:     blocked,
		maintenance: maintenance,
		version:     version,
		started:     started,
	}
}

// Collect runs every check and assembles the summary. The database check is
// the only one that degrades overall status; the suite state is advisory.
func (c *Checker) Collect(ctx context.Context) Summary {
	summary := Summary{
		Status:      StatusOK,
		Database:    c.checkDatabase(ctx),
		VpnSuite:    c.checkSuite(ctx),
		Maintenance: c.maintenance,
		Version:     c.version,
		Uptime:      time.Since(c.started).Round(time.Second).String(),
		Timestamp:   time.Now(),
	}
	if summary.Database != StatusOK {
		summary.Status = StatusUnavailable
	}
	return summary
}

func (c *Checker) checkDatabase(ctx context.Context) string {
	sqlDB, err := c.db.DB()
	if err != nil {
		return StatusUnavailable
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return StatusUnavailable
	}
	return StatusOK
}

func (c *Checker) checkSuite(ctx context.Context) string {
	if c.blocked {
		return StatusBlocked
	}
	if c.suite == nil {
		return StatusNotConfigured
	}
	if err := c.suite.Ping(ctx); err != nil {
		return StatusUnavailable
	}
	return StatusOK
}
