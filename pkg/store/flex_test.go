package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexStringsArrayForm(t *testing.T) {
	var f FlexStrings
	require.NoError(t, json.Unmarshal([]byte(`["a","b","c"]`), &f))
	assert.Equal(t, FlexStrings{"a", "b", "c"}, f)
}

func TestFlexStringsSparseObjectForm(t *testing.T) {
	var f FlexStrings
	require.NoError(t, json.Unmarshal([]byte(`{"2":"third","0":"first","10":"last"}`), &f))
	assert.Equal(t, FlexStrings{"first", "third", "last"}, f)
}

func TestFlexStringsNonNumericKeysSortLast(t *testing.T) {
	var f FlexStrings
	require.NoError(t, json.Unmarshal([]byte(`{"1":"b","0":"a","junk":"z"}`), &f))
	assert.Equal(t, FlexStrings{"a", "b", "z"}, f)
}

func TestFlexStringsMarshalAlwaysArray(t *testing.T) {
	out, err := json.Marshal(FlexStrings{"x", "y"})
	require.NoError(t, err)
	assert.JSONEq(t, `["x","y"]`, string(out))

	out, err = json.Marshal(FlexStrings(nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))
}

func TestFlexStringsRejectsScalars(t *testing.T) {
	var f FlexStrings
	assert.Error(t, json.Unmarshal([]byte(`42`), &f))
}
