package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/dataflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDocument_UnmarshalJSON_KeepsGoodEntries(t *testing.T) {
	data := []byte(`{"version":"1","nodes":[{"key":"a","id":0},{"key":"b","id":"two"},{"key":"c","id":2}],"links":[[0,2],{"from":0}]}`)

	var doc domain.Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "1", doc.Version)
	require.Len(t, doc.Nodes, 2)
	assert.Equal(t, domain.NodeKey("a"), doc.Nodes[0].Key)
	assert.Equal(t, domain.NodeKey("c"), doc.Nodes[1].Key)
	assert.Equal(t, [][]int{{0, 2}}, doc.Links)

	errs := doc.DecodeErrors()
	require.Len(t, errs, 2)
	for _, err := range errs {
		assert.ErrorIs(t, err, domain.ErrMalformedDocument)
	}
	assert.Len(t, doc.Clone().DecodeErrors(), 2)
}

func TestDocument_UnmarshalYAML_KeepsGoodEntries(t *testing.T) {
	data := []byte("version: \"1\"\nnodes:\n  - {key: a, id: 0}\n  - {key: b, id: two}\nlinks:\n  - [0, 1]\n  - nope\n")

	var doc domain.Document
	require.NoError(t, yaml.Unmarshal(data, &doc))
	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, [][]int{{0, 1}}, doc.Links)
	assert.Len(t, doc.DecodeErrors(), 2)
}

func TestDocument_UnmarshalJSON_BrokenDocument(t *testing.T) {
	var doc domain.Document
	assert.Error(t, json.Unmarshal([]byte(`{"nodes": {}}`), &doc))
	assert.Error(t, json.Unmarshal([]byte(`{"version": 1}`), &doc))
}

func TestDocument_RoundTripHasNoDecodeErrors(t *testing.T) {
	in := domain.Document{
		Version: domain.DocumentVersion,
		Nodes:   []domain.NodeRecord{{Key: "a", ID: 0, Outputs: []domain.SlotRecord{{Key: "f", ID: 1}}}},
		Links:   [][]int{},
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out domain.Document
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Empty(t, out.DecodeErrors())
	assert.Equal(t, in.Nodes, out.Nodes)
	assert.Equal(t, in.Links, out.Links)
}
