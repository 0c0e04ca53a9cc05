package audit_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geovalida/geovalida/audit"
)

func TestLog_RecordAndFilter(t *testing.T) {
	trail := audit.NewLog(nil)

	e1 := trail.Accept("functional", 100, "U1", "U2", "principal-flow",
		map[string]float64{"trips": 120})
	e2 := trail.Reject("functional", 101, "U1", "U3", "region", nil)
	trail.Accept("borders", 102, "U2", "U1", "principal-flow", nil)

	assert.NotEqual(t, uuid.Nil, e1.ID)
	assert.NotEqual(t, e1.ID, e2.ID)
	assert.False(t, e1.At.IsZero())

	assert.Len(t, trail.Entries(), 3)
	assert.Len(t, trail.ByStage("functional"), 2)
	assert.Equal(t, 2, trail.AcceptedCount())

	assert.Equal(t, map[string]int{
		"principal-flow":  2,
		"rejected:region": 1,
	}, trail.Summary())
	assert.Equal(t, []string{"principal-flow", "rejected:region"}, trail.Reasons())
}

func TestLog_Encode(t *testing.T) {
	trail := audit.NewLog(nil)
	trail.Accept("seats", 7, "A", "B", "seat-dependency", map[string]float64{"hours": 1.4})

	var buf bytes.Buffer
	require.NoError(t, trail.Encode(&buf))

	var decoded []audit.Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "seats", decoded[0].Stage)
	assert.Equal(t, 1.4, decoded[0].Evidence["hours"])
	assert.True(t, decoded[0].Accepted)
}
