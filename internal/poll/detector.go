package poll

import (
	"bytes"

	"github.com/danielhfingal/tesla-powerwall-fingal/internal/canonical"
	"github.com/danielhfingal/tesla-powerwall-fingal/internal/device"
)

// Classify canonicalizes state and compares it to the previous canonical
// snapshot. A nil previous snapshot always classifies as a delta (first
// poll). The returned bytes become the caller's new previous snapshot;
// on encoding failure nothing is returned so the old snapshot survives.
func Classify(state device.State, previous []byte) (Outcome, []byte, error) {
	canon, err := canonical.Encode(state)
	if err != nil {
		return OutcomeError, nil, err
	}

	if previous == nil {
		return OutcomeDelta, canon, nil
	}

	if bytes.Equal(previous, canon) {
		return OutcomeNoChange, canon, nil
	}

	return OutcomeDelta, canon, nil
}
