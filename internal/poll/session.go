package poll

import (
	"time"

	"github.com/danielhfingal/tesla-powerwall-fingal/internal/device"
)

// Session is the long-lived state of one monitored site. Its mutable
// fields (last canonical snapshot) are touched only by the site's own
// loop; the liveness tracker is safe for concurrent reads from the
// health handler.
type Session struct {
	SiteID string
	Mode   device.Mode

	liveness *LivenessTracker

	// lastCanonical is retained for change detection only and never
	// exposed outside the package.
	lastCanonical []byte
}

func NewSession(siteID string, mode device.Mode, now time.Time) *Session {
	return &Session{
		SiteID:   siteID,
		Mode:     mode,
		liveness: NewLivenessTracker(now),
	}
}

// Liveness exposes the tracker for health checks.
func (s *Session) Liveness() *LivenessTracker {
	return s.liveness
}
