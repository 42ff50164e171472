package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Quit123/PCB-Detection/internal/infrastructure/storage"
)

func newLifecycleFixture(t *testing.T, allowOrphans bool) *LifecycleService {
	t.Helper()
	return NewLifecycleService(t.TempDir(), filepath.Join(t.TempDir(), "next_train"), t.TempDir(), allowOrphans)
}

func put(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestTransferImages(t *testing.T) {
	svc := newLifecycleFixture(t, false)
	put(t, filepath.Join(svc.LowConfDir, "tmp", "a.jpg"), "a")
	put(t, filepath.Join(svc.LowConfDir, "tmp", "b.jpg"), "b")

	moved, err := svc.TransferImages(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"a.jpg", "b.jpg"}, moved)

	raw, err := storage.ListImages(filepath.Join(svc.LowConfDir, "raw"))
	require.NoError(t, err)
	require.Equal(t, []string{"a.jpg", "b.jpg"}, raw)

	tmp, err := storage.ListImages(filepath.Join(svc.LowConfDir, "tmp"))
	require.NoError(t, err)
	require.Empty(t, tmp)
}

func TestTransferImagesEmpty(t *testing.T) {
	svc := newLifecycleFixture(t, false)
	_, err := svc.TransferImages(context.Background())
	require.ErrorIs(t, err, ErrNoImages)
}

func TestExportLabels(t *testing.T) {
	svc := newLifecycleFixture(t, false)

	err := svc.ExportLabels([]LabelExport{
		{Filename: "a", Labels: []string{"0 0.5 0.5 0.1 0.1", "1 0.2 0.2 0.05 0.05"}},
		{Filename: "b", Labels: []string{"2 0.7 0.7 0.2 0.2"}},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(svc.LowConfDir, "labels", "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "0 0.5 0.5 0.1 0.1\n1 0.2 0.2 0.05 0.05", string(data))
}

func TestExportLabelsStripsImageExtension(t *testing.T) {
	svc := newLifecycleFixture(t, false)
	put(t, filepath.Join(svc.LowConfDir, "raw", "a.jpg"), "ia")

	// Фронтенд присылает имя с расширением, как его вернул transfer-images.
	err := svc.ExportLabels([]LabelExport{
		{Filename: "a.jpg", Labels: []string{"0 0.5 0.5 0.1 0.1"}},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(svc.LowConfDir, "labels", "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "0 0.5 0.5 0.1 0.1", string(data))

	// Пара сходится по имени без расширения, слияние проходит целиком.
	summary, err := svc.MergeLabeledBatch(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"a.txt"}, summary.Labels)
	require.Equal(t, []string{"a.jpg"}, summary.Images)
	require.Empty(t, summary.Orphans)
}

func TestMergeLabeledBatch_ReplacesPoolAndSnapshotsHistory(t *testing.T) {
	svc := newLifecycleFixture(t, false)

	put(t, filepath.Join(svc.LowConfDir, "labels", "a.txt"), "la")
	put(t, filepath.Join(svc.LowConfDir, "labels", "b.txt"), "lb")
	put(t, filepath.Join(svc.LowConfDir, "raw", "a.jpg"), "ia")
	put(t, filepath.Join(svc.LowConfDir, "raw", "b.jpg"), "ib")
	put(t, filepath.Join(svc.LowConfDir, "marked", "a.jpg"), "ma")

	// Устаревшее содержимое пула полностью замещается.
	put(t, filepath.Join(svc.TrainPool, "labels", "c.txt"), "stale")
	put(t, filepath.Join(svc.TrainPool, "images", "c.jpg"), "stale")

	summary, err := svc.MergeLabeledBatch(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"a.txt", "b.txt"}, summary.Labels)
	require.Equal(t, []string{"a.jpg", "b.jpg"}, summary.Images)
	require.Empty(t, summary.Orphans)

	poolLabels, err := storage.ListFiles(filepath.Join(svc.TrainPool, "labels"), ".txt")
	require.NoError(t, err)
	require.Equal(t, []string{"a.txt", "b.txt"}, poolLabels)

	poolImages, err := storage.ListImages(filepath.Join(svc.TrainPool, "images"))
	require.NoError(t, err)
	require.Equal(t, []string{"a.jpg", "b.jpg"}, poolImages)

	// Превью очищены, источники пусты.
	marked, err := storage.ListImages(filepath.Join(svc.LowConfDir, "marked"))
	require.NoError(t, err)
	require.Empty(t, marked)

	srcLabels, err := storage.ListFiles(filepath.Join(svc.LowConfDir, "labels"), ".txt")
	require.NoError(t, err)
	require.Empty(t, srcLabels)

	// История получила снапшот batch_<метка> с копиями.
	entries, err := os.ReadDir(svc.HistoryDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, summary.BatchDir, entries[0].Name())

	data, err := os.ReadFile(filepath.Join(svc.HistoryDir, summary.BatchDir, "labels", "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "la", string(data))
	data, err = os.ReadFile(filepath.Join(svc.HistoryDir, summary.BatchDir, "images", "b.jpg"))
	require.NoError(t, err)
	require.Equal(t, "ib", string(data))
}

func TestMergeLabeledBatch_OrphansFailWholeBatch(t *testing.T) {
	svc := newLifecycleFixture(t, false)

	put(t, filepath.Join(svc.LowConfDir, "labels", "a.txt"), "la")
	put(t, filepath.Join(svc.LowConfDir, "raw", "a.jpg"), "ia")
	put(t, filepath.Join(svc.LowConfDir, "labels", "lonely.txt"), "orphan")
	put(t, filepath.Join(svc.TrainPool, "labels", "c.txt"), "stale")

	_, err := svc.MergeLabeledBatch(context.Background())
	require.ErrorIs(t, err, ErrOrphanedFiles)
	require.Contains(t, err.Error(), "lonely.txt")

	// Отказ до первой мутации: пул не тронут.
	stale, err := storage.ListFiles(filepath.Join(svc.TrainPool, "labels"), ".txt")
	require.NoError(t, err)
	require.Equal(t, []string{"c.txt"}, stale)
}

func TestMergeLabeledBatch_OrphansSkippedWhenAllowed(t *testing.T) {
	svc := newLifecycleFixture(t, true)

	put(t, filepath.Join(svc.LowConfDir, "labels", "a.txt"), "la")
	put(t, filepath.Join(svc.LowConfDir, "raw", "a.jpg"), "ia")
	put(t, filepath.Join(svc.LowConfDir, "raw", "nolabel.jpg"), "x")

	summary, err := svc.MergeLabeledBatch(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"a.txt"}, summary.Labels)
	require.Equal(t, []string{"nolabel.jpg"}, summary.Orphans)
}

func TestMergeLabeledBatch_EmptyBatchIsNoop(t *testing.T) {
	svc := newLifecycleFixture(t, false)

	// Пустые каталоги: слияние проходит, пул очищен, история пуста.
	summary, err := svc.MergeLabeledBatch(context.Background())
	require.NoError(t, err)
	require.Empty(t, summary.Labels)
	require.Empty(t, summary.Images)

	// Повторная очистка уже пустых каталогов — не ошибка.
	_, err = svc.MergeLabeledBatch(context.Background())
	require.NoError(t, err)
}
