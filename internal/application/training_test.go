package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Quit123/PCB-Detection/internal/domain/entity"
	"github.com/Quit123/PCB-Detection/internal/infrastructure/storage"
)

func newTrainingFixture(t *testing.T, trainer *fakeTrainer, uploader *fakeUploader) *TrainingService {
	t.Helper()

	modelsRoot := t.TempDir()
	weights := filepath.Join(modelsRoot, "model_a_20240101_010101", "weights")
	require.NoError(t, os.MkdirAll(weights, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(weights, "best.onnx"), []byte("base"), 0o644))

	pool := t.TempDir()
	put(t, filepath.Join(pool, "labels", "a.txt"), "0 0.5 0.5 0.1 0.1")
	put(t, filepath.Join(pool, "images", "a.jpg"), "ia")
	put(t, filepath.Join(pool, "labels", "b.txt"), "1 0.2 0.2 0.1 0.1")
	put(t, filepath.Join(pool, "images", "b.jpg"), "ib")

	datasetRoot := t.TempDir()
	svc := NewTrainingService(storage.NewModelStore(modelsRoot, "best.onnx"), trainer, uploader, nil)
	svc.TrainPool = pool
	svc.DatasetDir = filepath.Join(datasetRoot, "dataset")
	svc.DescriptorPath = filepath.Join(datasetRoot, "next_train.yaml")
	svc.SplitRatio = 0.5
	return svc
}

func TestRetrain_FullCycle(t *testing.T) {
	trainer := &fakeTrainer{}
	uploader := &fakeUploader{}
	svc := newTrainingFixture(t, trainer, uploader)

	artifactDir, err := svc.Retrain(context.Background(), entity.DefaultHyperparameters())
	require.NoError(t, err)

	// Датасет описан и разбит на train/val.
	data, err := os.ReadFile(svc.DescriptorPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "nc: 6")
	require.DirExists(t, filepath.Join(svc.DatasetDir, "train", "images"))
	require.DirExists(t, filepath.Join(svc.DatasetDir, "val", "labels"))

	// Тренеру ушли базовые веса и дескриптор.
	require.True(t, strings.HasSuffix(trainer.spec.BaseWeights, filepath.Join("weights", "best.onnx")))
	require.Equal(t, svc.DescriptorPath, trainer.spec.DataYAML)
	require.Equal(t, 5, trainer.spec.Epochs)
	require.True(t, strings.HasPrefix(trainer.spec.Name, "model_"))

	// Артефакт упакован и отгружен, уведомление отправлено.
	require.FileExists(t, artifactDir+".zip")
	require.Equal(t, []string{artifactDir + ".zip"}, uploader.uploaded)
	require.Equal(t, 1, uploader.notified)
}

func TestRetrain_NoBaseWeights(t *testing.T) {
	svc := newTrainingFixture(t, &fakeTrainer{}, &fakeUploader{})
	svc.models = storage.NewModelStore(t.TempDir(), "best.onnx")

	_, err := svc.Retrain(context.Background(), entity.DefaultHyperparameters())
	require.ErrorIs(t, err, storage.ErrNoModels)
}

func TestRetrain_TrainerFailureStopsUpload(t *testing.T) {
	trainer := &fakeTrainer{err: errors.New("train exploded")}
	uploader := &fakeUploader{}
	svc := newTrainingFixture(t, trainer, uploader)

	_, err := svc.Retrain(context.Background(), entity.DefaultHyperparameters())
	require.ErrorContains(t, err, "train exploded")
	require.Empty(t, uploader.uploaded)
	require.Zero(t, uploader.notified)
}

func TestRetrain_UploadFailureIsFatal(t *testing.T) {
	uploader := &fakeUploader{uploadErr: errors.New("detect side down")}
	svc := newTrainingFixture(t, &fakeTrainer{}, uploader)

	_, err := svc.Retrain(context.Background(), entity.DefaultHyperparameters())
	require.ErrorContains(t, err, "upload artifact")
	require.Zero(t, uploader.notified)
}

func TestRetrain_NotifyFailureIsNotFatal(t *testing.T) {
	uploader := &fakeUploader{notifyErr: errors.New("sse down")}
	svc := newTrainingFixture(t, &fakeTrainer{}, uploader)

	_, err := svc.Retrain(context.Background(), entity.DefaultHyperparameters())
	require.NoError(t, err)
	require.Len(t, uploader.uploaded, 1)
}

func TestStartJob_ReportsCompletion(t *testing.T) {
	uploader := &fakeUploader{}
	svc := newTrainingFixture(t, &fakeTrainer{}, uploader)

	job := svc.StartJob(context.Background(), entity.DefaultHyperparameters())
	require.NotEmpty(t, job.ID)

	select {
	case <-job.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("training job did not finish")
	}
	require.NoError(t, job.Err)
	require.NotEmpty(t, job.ArtifactDir)

	got, ok := svc.Job(job.ID)
	require.True(t, ok)
	require.Equal(t, job, got)
}
