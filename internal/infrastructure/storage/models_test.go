package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func makeArtifact(t *testing.T, root, dirName string, withWeights bool) {
	t.Helper()
	dir := filepath.Join(root, dirName, "weights")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	if withWeights {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "best.onnx"), []byte("weights"), 0o644))
	}
}

func TestModelStoreLatestWeights(t *testing.T) {
	root := t.TempDir()
	makeArtifact(t, root, "model_a_20240101_010101", true)
	makeArtifact(t, root, "model_b_20240615_120000", true)
	makeArtifact(t, root, "model_c_20240301_000000", true)

	store := NewModelStore(root, "best.onnx")
	weights, err := store.LatestWeights()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "model_b_20240615_120000", "weights", "best.onnx"), weights)
}

func TestModelStoreVersionsDescending(t *testing.T) {
	root := t.TempDir()
	makeArtifact(t, root, "model_a_20240101_010101", true)
	makeArtifact(t, root, "model_b_20240615_120000", true)
	// Каталог без метки-версии игнорируется.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "scratch"), 0o755))

	store := NewModelStore(root, "best.onnx")
	versions, err := store.Versions()
	require.NoError(t, err)
	require.Equal(t, []string{"20240615_120000", "20240101_010101"}, versions)
}

func TestModelStoreResolveWeights(t *testing.T) {
	root := t.TempDir()
	makeArtifact(t, root, "model_a_20240101_010101", true)
	makeArtifact(t, root, "model_b_20240615_120000", false)

	store := NewModelStore(root, "best.onnx")

	weights, err := store.ResolveWeights("20240101_010101")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "model_a_20240101_010101", "weights", "best.onnx"), weights)

	// Каталог есть, весов нет.
	_, err = store.ResolveWeights("20240615_120000")
	require.Error(t, err)

	// Версии нет вовсе.
	_, err = store.ResolveWeights("19990101_000000")
	require.ErrorIs(t, err, ErrNoModels)
}

func TestModelStoreEmptyRoot(t *testing.T) {
	store := NewModelStore(t.TempDir(), "best.onnx")
	_, err := store.LatestWeights()
	require.ErrorIs(t, err, ErrNoModels)
}
