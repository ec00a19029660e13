// Package device reaches a Tesla Powerwall over one of three
// transports: the local gateway API, the Fleet API or the owner cloud
// API. Callers only see the Client interface.
package device

import "github.com/danielhfingal/tesla-powerwall-fingal/internal/errors"

// Options carries the construction parameters shared by all transports.
type Options struct {
	Mode     Mode
	Host     string
	Email    string
	Password string
	Token    string
	SiteID   string
}

// New builds a Client for the configured transport mode.
func New(opts Options) (Client, error) {
	errFactory := errors.New()

	switch opts.Mode {
	case ModeLocal:
		if opts.Host == "" || opts.Password == "" {
			return nil, errFactory.WithData(ErrMissingCredentials, "local mode requires host and password")
		}
		return newLocalClient(opts.Host, opts.Email, opts.Password), nil
	case ModeFleet:
		if opts.Token == "" || opts.SiteID == "" {
			return nil, errFactory.WithData(ErrMissingCredentials, "fleet mode requires token and site id")
		}
		return newFleetClient(opts.Token, opts.SiteID), nil
	case ModeCloud:
		if opts.Token == "" || opts.SiteID == "" {
			return nil, errFactory.WithData(ErrMissingCredentials, "cloud mode requires token and site id")
		}
		return newCloudClient(opts.Token, opts.SiteID), nil
	default:
		return nil, errFactory.WithData(ErrInvalidMode, string(opts.Mode))
	}
}
