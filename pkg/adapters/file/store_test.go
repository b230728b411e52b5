package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/dataflow/pkg/adapters/file"
	"github.com/aretw0/dataflow/pkg/domain"
	"github.com/aretw0/dataflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract_JSON(t *testing.T) {
	ports.RunGraphStoreContract(t, file.NewStore(t.TempDir(), file.JSON))
}

func TestFileStore_Contract_YAML(t *testing.T) {
	ports.RunGraphStoreContract(t, file.NewStore(t.TempDir(), file.YAML))
}

func TestFileStore_FormatSwitchReplacesOldFile(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	require.NoError(t, file.NewStore(dir, file.JSON).Save(ctx, "g", ports.SampleDocument()))
	require.NoError(t, file.NewStore(dir, file.YAML).Save(ctx, "g", ports.SampleDocument()))

	_, err := os.Stat(filepath.Join(dir, "g.json"))
	assert.True(t, os.IsNotExist(err), "the JSON copy is dropped")
	_, err = os.Stat(filepath.Join(dir, "g.yaml"))
	assert.NoError(t, err)

	names, err := file.NewStore(dir, file.JSON).List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"g"}, names)
}

func TestReadDocument_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := file.ReadDocument(path)
	assert.ErrorIs(t, err, domain.ErrMalformedDocument)

	_, err = file.ReadDocument(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, domain.ErrGraphNotFound)
}

func TestReadDocument_HandWrittenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g.yml")
	content := `
version: "1"
nodes:
  - key: basic.constant
    id: 0
    outputs: [{key: float, id: 1}]
    state: {value: 3}
links:
  - [1, 3]
  - [7]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	doc, err := file.ReadDocument(path)
	require.NoError(t, err)
	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, domain.SlotID(1), doc.Nodes[0].Outputs[0].ID)
	assert.Equal(t, [][]int{{1, 3}, {7}}, doc.Links)
}
