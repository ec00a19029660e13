package device

import "context"

// State is one point-in-time snapshot of the device. No schema is
// assumed; values mirror whatever the API returned.
type State = map[string]interface{}

// Client fetches current device state over one of the supported
// transports.
type Client interface {
	// FetchStatus returns the primary status document.
	FetchStatus(ctx context.Context) (State, error)

	// FetchVitals returns the secondary vitals document.
	FetchVitals(ctx context.Context) (State, error)
}

// Mode selects how the device is reached.
type Mode string

const (
	ModeLocal Mode = "local"
	ModeFleet Mode = "fleet"
	ModeCloud Mode = "cloud"
)

func (m Mode) String() string {
	return string(m)
}

// IsValid returns whether the mode is one of the supported transports.
func (m Mode) IsValid() bool {
	switch m {
	case ModeLocal, ModeFleet, ModeCloud:
		return true
	default:
		return false
	}
}
