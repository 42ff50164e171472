package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/Quit123/PCB-Detection/internal/domain/entity"
	"github.com/Quit123/PCB-Detection/internal/domain/port"
	"github.com/Quit123/PCB-Detection/internal/infrastructure/storage"
)

// TriageService крутит цикл триажа: забирает изображения из входящей
// очереди, прогоняет детектор и раскладывает неуверенные снимки
// на разметку.
type TriageService struct {
	detector port.Detector
	alerts   port.AlertNotifier // может быть nil

	InboundDir     string
	LowConfDir     string // корень low_conf_images; tmp/ и marked/ внутри
	HighConfidence float64

	EmptyPoll        time.Duration // пауза при пустой очереди
	BatchPause       time.Duration // пауза после обработанной партии
	InferenceTimeout time.Duration // предел на один инференс
}

// NewTriageService создаёт сервис триажа.
func NewTriageService(detector port.Detector, alerts port.AlertNotifier, inboundDir, lowConfDir string, highConfidence float64) *TriageService {
	return &TriageService{
		detector:         detector,
		alerts:           alerts,
		InboundDir:       inboundDir,
		LowConfDir:       lowConfDir,
		HighConfidence:   highConfidence,
		EmptyPoll:        time.Second,
		BatchPause:       50 * time.Millisecond,
		InferenceTimeout: 30 * time.Second,
	}
}

// Run опрашивает входящий каталог до отмены контекста.
// Простое поллинг-решение: пропускная способность ограничена камерой,
// а не процессором.
func (s *TriageService) Run(ctx context.Context) error {
	log.Printf("Watching inbound directory %s", s.InboundDir)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		names, err := storage.ListImages(s.InboundDir)
		if err != nil {
			return err
		}

		if len(names) == 0 {
			if !sleep(ctx, s.EmptyPoll) {
				return ctx.Err()
			}
			continue
		}

		for _, name := range names {
			if err := ctx.Err(); err != nil {
				return err
			}
			verdict, err := s.TriageOne(ctx, name)
			if err != nil {
				// Ошибка фатальна только для этого файла, цикл продолжается.
				log.Printf("Triage of %s failed: %v", name, err)
				continue
			}
			log.Printf("Triaged %s: %s", name, verdict)
		}

		if !sleep(ctx, s.BatchPause) {
			return ctx.Err()
		}
	}
}

// TriageOne обрабатывает одно изображение и удаляет его из очереди
// независимо от вердикта.
func (s *TriageService) TriageOne(ctx context.Context, name string) (entity.Verdict, error) {
	imagePath := filepath.Join(s.InboundDir, name)
	// Файл потребляется однократно: из очереди он уходит в любом случае.
	defer func() {
		if err := os.Remove(imagePath); err != nil {
			log.Printf("Failed to remove %s from inbound queue: %v", name, err)
		}
	}()

	ictx, cancel := context.WithTimeout(ctx, s.InferenceTimeout)
	defer cancel()

	started := time.Now()
	detections, err := s.detector.Predict(ictx, imagePath)
	if err != nil {
		return "", fmt.Errorf("predict %s: %w", name, err)
	}
	log.Printf("Inference of %s took %.3fs", name, time.Since(started).Seconds())

	verdict := entity.Classify(detections, s.HighConfidence)
	switch verdict {
	case entity.VerdictLowConfidence:
		if err := s.stashLowConfidence(ctx, imagePath, name, detections); err != nil {
			return verdict, err
		}
		log.Printf("Low confidence sample saved: %s", name)
	case entity.VerdictFail:
		s.emitAlert(ctx, fmt.Sprintf("FAIL: defect detected on %s", name))
	case entity.VerdictPass:
		// Ничего не найдено, артефактов не остаётся.
	}
	return verdict, nil
}

// stashLowConfidence кладёт оригинал в tmp/ и размеченную копию в marked/
// под одним именем. Запись идёт под блокировкой каталога, чтобы не
// пересечься с clear-then-fill слиянием.
func (s *TriageService) stashLowConfidence(ctx context.Context, imagePath, name string, detections []entity.Detection) error {
	lock, err := storage.AcquireLock(ctx, s.LowConfDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	tmpDir := filepath.Join(s.LowConfDir, "tmp")
	markedDir := filepath.Join(s.LowConfDir, "marked")
	if err := storage.EnsureDir(tmpDir); err != nil {
		return err
	}
	if err := storage.EnsureDir(markedDir); err != nil {
		return err
	}

	if err := storage.CopyFile(imagePath, filepath.Join(tmpDir, name)); err != nil {
		return err
	}
	return s.detector.Annotate(imagePath, detections, filepath.Join(markedDir, name))
}

func (s *TriageService) emitAlert(ctx context.Context, text string) {
	if s.alerts == nil {
		return
	}
	if err := s.alerts.Alert(ctx, text); err != nil {
		log.Printf("Failed to send alert: %v", err)
	}
}

// sleep ждёт интервал либо отмену контекста.
func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
