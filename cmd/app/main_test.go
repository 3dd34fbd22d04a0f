package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NatalChart/internal/handler/api"
)

func TestChartCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{
		"chart",
		"--date", "05/02/1993", "--time", "15:30", "--tz", "Europe/Madrid",
		"--lat", "41.6561", "--lon", "-0.8773",
		"--house-system", "whole_sign", "--nodes",
	})
	require.NoError(t, cmd.Execute())

	var v api.ChartView
	require.NoError(t, json.Unmarshal(out.Bytes(), &v))
	assert.Equal(t, "1993-02-05T14:30:00Z", v.Instant)
	assert.Equal(t, "whole_sign", v.HouseSystem)
	assert.Len(t, v.Planets, 12)
	assert.Equal(t, "Cancer", v.Houses[0].Sign)
	assert.Equal(t, 0.0, v.Houses[0].Degrees)
}

func TestChartCommandRejectsMissingCoordinates(t *testing.T) {
	cmd := rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"chart", "--instant", "1993-02-05T14:30:00Z"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "latitude")
}
