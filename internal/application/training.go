package app

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Quit123/PCB-Detection/internal/domain/entity"
	"github.com/Quit123/PCB-Detection/internal/domain/port"
	"github.com/Quit123/PCB-Detection/internal/infrastructure/storage"
)

// TrainingJob — наблюдаемый запуск обучения: вместо fire-and-forget
// процесса вызывающая сторона видит завершение и ошибку.
type TrainingJob struct {
	ID          string
	StartedAt   time.Time
	ArtifactDir string
	Err         error

	done chan struct{}
}

// Done возвращает канал, закрываемый по завершении задачи.
func (j *TrainingJob) Done() <-chan struct{} {
	return j.done
}

// TrainingService собирает датасет из свежеразмеченных данных,
// дообучает модель и отгружает артефакт стороне детекции.
type TrainingService struct {
	models   *storage.ModelStore
	trainer  port.Trainer
	uploader port.Uploader
	alerts   port.AlertNotifier // может быть nil

	TrainPool      string  // пул images/ + labels/
	DatasetDir     string  // материализованный train/val датасет
	DescriptorPath string  // путь next_train.yaml
	SplitRatio     float64
	SplitSeed      int64
	Epochs         int
	BatchSize      int

	mu   sync.Mutex
	jobs map[string]*TrainingJob
}

// NewTrainingService создаёт оркестратор обучения.
func NewTrainingService(models *storage.ModelStore, trainer port.Trainer, uploader port.Uploader, alerts port.AlertNotifier) *TrainingService {
	return &TrainingService{
		models:     models,
		trainer:    trainer,
		uploader:   uploader,
		alerts:     alerts,
		SplitRatio: 0.8,
		SplitSeed:  1,
		Epochs:     5,
		BatchSize:  2,
		jobs:       make(map[string]*TrainingJob),
	}
}

// Retrain выполняет полный цикл: свежайшие веса, описание датасета,
// разбиение, обучение, упаковка, отгрузка, уведомление.
func (s *TrainingService) Retrain(ctx context.Context, hp entity.Hyperparameters) (string, error) {
	baseWeights, err := s.models.LatestWeights()
	if err != nil {
		return "", fmt.Errorf("resolve base weights: %w", err)
	}

	trainImages := filepath.Join(s.DatasetDir, "train", "images")
	valImages := filepath.Join(s.DatasetDir, "val", "images")
	if err := storage.WriteDescriptor(s.DescriptorPath, trainImages, valImages); err != nil {
		return "", err
	}

	if err := storage.SplitDataset(s.TrainPool, s.DatasetDir, s.SplitRatio, s.SplitSeed); err != nil {
		return "", fmt.Errorf("split dataset: %w", err)
	}

	spec := entity.TrainSpec{
		BaseWeights:  baseWeights,
		DataYAML:     s.DescriptorPath,
		ProjectDir:   s.models.Root,
		Name:         hp.ArtifactName(time.Now()),
		Epochs:       s.Epochs,
		BatchSize:    s.BatchSize,
		Augmentation: hp,
	}

	artifactDir, err := s.trainer.Train(ctx, spec)
	if err != nil {
		return "", err
	}

	zipPath := artifactDir + ".zip"
	if err := storage.ZipDir(artifactDir, zipPath); err != nil {
		return "", err
	}
	if err := s.uploader.UploadZip(ctx, zipPath); err != nil {
		return "", fmt.Errorf("upload artifact: %w", err)
	}

	// Сбой уведомления не отменяет состоявшееся обучение.
	if err := s.uploader.NotifyTrainingFinished(ctx); err != nil {
		log.Printf("Failed to notify training finished: %v", err)
	}
	if s.alerts != nil {
		if err := s.alerts.Alert(ctx, "Training finished: "+spec.Name); err != nil {
			log.Printf("Failed to send training alert: %v", err)
		}
	}

	return artifactDir, nil
}

// StartJob запускает Retrain в фоне и возвращает наблюдаемую задачу.
func (s *TrainingService) StartJob(ctx context.Context, hp entity.Hyperparameters) *TrainingJob {
	job := &TrainingJob{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		done:      make(chan struct{}),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	go func() {
		defer close(job.done)
		job.ArtifactDir, job.Err = s.Retrain(ctx, hp)
		if job.Err != nil {
			log.Printf("Training job %s failed: %v", job.ID, job.Err)
			return
		}
		log.Printf("Training job %s finished: %s", job.ID, job.ArtifactDir)
	}()
	return job
}

// Job возвращает задачу по идентификатору.
func (s *TrainingService) Job(id string) (*TrainingJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	return job, ok
}
