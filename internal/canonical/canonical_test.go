package canonical_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhfingal/tesla-powerwall-fingal/internal/canonical"
)

func TestEncodeIgnoresKeyOrder(t *testing.T) {
	a := map[string]interface{}{
		"soe": 80.0,
		"vitals": map[string]interface{}{
			"b": 2.0,
			"a": 1.0,
		},
	}
	b := map[string]interface{}{
		"vitals": map[string]interface{}{
			"a": 1.0,
			"b": 2.0,
		},
		"soe": 80.0,
	}

	encA, err := canonical.Encode(a)
	require.NoError(t, err)
	encB, err := canonical.Encode(b)
	require.NoError(t, err)

	assert.Equal(t, encA, encB, "logically equal states must encode identically")
}

func TestEncodeDeepNesting(t *testing.T) {
	a := map[string]interface{}{
		"x": map[string]interface{}{
			"y": map[string]interface{}{"p": 1.0, "q": 2.0},
			"z": "s",
		},
	}
	b := map[string]interface{}{
		"x": map[string]interface{}{
			"z": "s",
			"y": map[string]interface{}{"q": 2.0, "p": 1.0},
		},
	}

	encA, err := canonical.Encode(a)
	require.NoError(t, err)
	encB, err := canonical.Encode(b)
	require.NoError(t, err)

	assert.Equal(t, encA, encB)
}

func TestEncodeDetectsLeafDifference(t *testing.T) {
	a := map[string]interface{}{
		"soe":    80.0,
		"vitals": map[string]interface{}{"a": 1.0},
	}
	b := map[string]interface{}{
		"soe":    80.0,
		"vitals": map[string]interface{}{"a": 2.0},
	}

	encA, err := canonical.Encode(a)
	require.NoError(t, err)
	encB, err := canonical.Encode(b)
	require.NoError(t, err)

	assert.NotEqual(t, encA, encB, "differing leaf values must encode differently")
}

func TestEncodeDetectsMissingKey(t *testing.T) {
	a := map[string]interface{}{"soe": 80.0, "grid": "up"}
	b := map[string]interface{}{"soe": 80.0}

	encA, err := canonical.Encode(a)
	require.NoError(t, err)
	encB, err := canonical.Encode(b)
	require.NoError(t, err)

	assert.NotEqual(t, encA, encB)
}
