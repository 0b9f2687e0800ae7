package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDrawFunction(t *testing.T) {
	cases := []struct {
		in   string
		want DrawFunction
	}{
		{"DrawRed", DrawRed},
		{"drawgreen", DrawGreen},
		{"blue", DrawBlue},
		{"  Yellow ", DrawYellow},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			got, err := ParseDrawFunction(c.in)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}

	_, err := ParseDrawFunction("purple")
	assert.Error(t, err)
}

func TestStatusKindTerminal(t *testing.T) {
	assert.False(t, StatusStarted.Terminal())
	assert.False(t, StatusInProgress.Terminal())
	assert.False(t, StatusUnrecognized.Terminal())
	for _, k := range []StatusKind{StatusDone, StatusPathInUseTooOften, StatusNoPathFound, StatusPlottingFailed, StatusTransportFailed} {
		assert.True(t, k.Terminal(), k.String())
	}
	assert.False(t, StatusDone.Failure())
	assert.True(t, StatusNoPathFound.Failure())
}

func TestStatusEventJSONUnknownState(t *testing.T) {
	var ev StatusEvent
	require.NoError(t, json.Unmarshal([]byte(`{"state":"Teleported","next_function":"DrawBlue"}`), &ev))
	assert.Equal(t, StatusUnrecognized, ev.State)
	assert.Equal(t, DrawBlue, ev.NextFunction)

	require.NoError(t, json.Unmarshal([]byte(`{"state":42}`), &ev))
	assert.Equal(t, StatusUnrecognized, ev.State)
}

func TestOrderRequestJSON(t *testing.T) {
	data, err := json.Marshal(OrderRequest{Customer: "Martin", Functions: []DrawFunction{DrawBlue, DrawRed}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"customer":"Martin","functions":["DrawBlue","DrawRed"]}`, string(data))
}

func TestDrawFunctionJSONRejectsUnknownNumbers(t *testing.T) {
	var f DrawFunction
	require.NoError(t, json.Unmarshal([]byte(`2`), &f))
	assert.Equal(t, DrawBlue, f)

	var ev StatusEvent
	assert.Error(t, json.Unmarshal([]byte(`{"state":"InProgress","next_function":42}`), &ev))
	assert.Error(t, json.Unmarshal([]byte(`-1`), &f))
	assert.Equal(t, DrawBlue, f)
}
