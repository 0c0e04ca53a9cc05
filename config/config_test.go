package config_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geovalida/geovalida/config"
)

func TestDefault_IsValid(t *testing.T) {
	c := config.Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, 0.03, c.FlowShareThreshold)
	assert.Equal(t, 5, c.MovementCap)
	assert.Equal(t, 10, c.MaxIterations)
	assert.Equal(t, 2.0, c.TravelTimeLimitHours)
}

func TestLoad_PartialOverride(t *testing.T) {
	c, err := config.Load(strings.NewReader("flow_share_threshold: 0.05\nmax_iterations: 3\n"))
	require.NoError(t, err)
	assert.Equal(t, 0.05, c.FlowShareThreshold)
	assert.Equal(t, 3, c.MaxIterations)
	// untouched fields keep defaults
	assert.Equal(t, 5, c.MovementCap)
	assert.Equal(t, 50, c.ChainDepthLimit)
}

func TestLoad_Empty(t *testing.T) {
	c, err := config.Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), c)
}

func TestLoad_Rejects(t *testing.T) {
	_, err := config.Load(strings.NewReader("movement_cap: 0\n"))
	require.ErrorIs(t, err, config.ErrInvalid)

	_, err = config.Load(strings.NewReader("no_such_field: 1\n"))
	require.Error(t, err, "unknown fields are a config mistake, not a default")
}
