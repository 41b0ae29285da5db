package gazeline

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerKind(t *testing.T) {
	assert.Equal(t, "cascade", TriggerCascade.String())
	assert.Equal(t, "pending", TriggerPending.String())

	data, err := json.Marshal(LineAdvanceEvent{Time: 132, Line: 0, Trigger: TriggerPending, Velocity: -1.5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"t":132,"line":0,"trigger":"pending","velocity":-1.5}`, string(data))

	var ev LineAdvanceEvent
	require.NoError(t, json.Unmarshal(data, &ev))
	assert.Equal(t, TriggerPending, ev.Trigger)
}
