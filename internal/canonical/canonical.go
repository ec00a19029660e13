// Package canonical produces a deterministic byte encoding of polled
// device state so that logically equal snapshots compare byte-equal.
package canonical

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/danielhfingal/tesla-powerwall-fingal/internal/errors"
)

const ErrEncodeFailed = errors.ErrorCode("canonical_encode_failed")

// encMode sorts map keys bytewise-lexicographically at every nesting
// level (CBOR core deterministic encoding), so key order in the input
// never affects the output.
var encMode cbor.EncMode

func init() {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	encMode = em
}

// Encode serializes state into its canonical byte representation.
func Encode(state map[string]interface{}) ([]byte, error) {
	out, err := encMode.Marshal(state)
	if err != nil {
		return nil, errors.New().Wrap(ErrEncodeFailed, err)
	}

	return out, nil
}
