package persist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/cardselfplay/internal/nn"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dims := nn.SmallDims()
	m := nn.NewModel(dims, 6, 4)
	doc := EncodeModel(m, "gen-7", 7)

	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, Save(path, doc))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gen-7", loaded.Name)
	assert.Equal(t, 7, loaded.Generation)
	assert.Equal(t, doc.CardOutWidth, loaded.CardOutWidth)

	restored, err := DecodeModel(loaded)
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, dims.CardOutWidth, restored.Dims().CardOutWidth)
	assert.Equal(t, dims.BoardOutWidth, restored.Dims().BoardOutWidth)
	assert.Equal(t, dims.TrunkOutWidth, restored.Dims().TrunkOutWidth)

	originalPass := EncodeLayer(m.Pass)
	restoredPass := EncodeLayer(restored.Pass)
	assert.Equal(t, originalPass.Data, restoredPass.Data)
}

func TestLoadRejectsWrongVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":99,"model":{"type":"Model"}}`), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "unsupported checkpoint version")
}

func TestLoadRejectsUnknownType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1,"model":{"type":"NotAModel"}}`), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, `expected type "Model"`)
}

func TestLoadRejectsUnknownLayerType(t *testing.T) {
	dims := nn.SmallDims()
	m := nn.NewModel(dims, 6, 4)
	doc := EncodeModel(m, "broken", 1)
	doc.Pass.Type = "NotALayer"

	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, Save(path, doc))

	_, err := Load(path)
	assert.ErrorContains(t, err, `p: expected type "Layer"`)
}
