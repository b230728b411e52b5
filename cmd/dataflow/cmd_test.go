package main

import (
	"testing"

	"github.com/aretw0/dataflow"
	"github.com/aretw0/dataflow/pkg/domain"
	"github.com/aretw0/dataflow/pkg/plugins/basic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDemo(t *testing.T) {
	engine, err := dataflow.New(dataflow.WithPlugins(basic.New()))
	require.NoError(t, err)

	display, err := buildDemo(engine)
	require.NoError(t, err)

	value, _ := display.Last()
	assert.Equal(t, 5.0, value)

	stats := engine.Stats()
	assert.Equal(t, 4, stats.Nodes)
	assert.Equal(t, 3, stats.Connections)
}

func TestParseOverlay(t *testing.T) {
	overlay, err := parseOverlay("")
	require.NoError(t, err)
	assert.Nil(t, overlay)

	overlay, err = parseOverlay("4, 0")
	require.NoError(t, err)
	assert.Equal(t, []domain.NodeID{4, 0}, overlay.Highlighted)
	assert.True(t, overlay.HasSelected)
	assert.Equal(t, domain.NodeID(4), overlay.Selected)

	_, err = parseOverlay("4,x")
	assert.Error(t, err)
}
