package device

import "github.com/danielhfingal/tesla-powerwall-fingal/internal/errors"

const (
	// Configuration errors
	ErrInvalidMode        = errors.ErrorCode("device_invalid_mode")
	ErrMissingCredentials = errors.ErrorCode("device_missing_credentials")

	// Transport errors
	ErrTransport      = errors.ErrorCode("device_transport_failed")
	ErrAuthFailed     = errors.ErrorCode("device_auth_failed")
	ErrDecodeResponse = errors.ErrorCode("device_decode_response_failed")
	ErrStatusCode     = errors.ErrorCode("device_unexpected_status")
)
