package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Quit123/PCB-Detection/internal/domain/entity"
	"github.com/Quit123/PCB-Detection/internal/infrastructure/storage"
)

// ErrNoImages возвращается, когда в tmp/ нет изображений для передачи.
var ErrNoImages = errors.New("no images to transfer")

// ErrOrphanedFiles возвращается при слиянии партии с непарными файлами.
var ErrOrphanedFiles = errors.New("orphaned files in labeled batch")

// LabelExport — разметка одного изображения, присланная с фронтенда.
type LabelExport struct {
	Filename string   `json:"filename"`
	Labels   []string `json:"labels"`
}

// LifecycleService ведёт файл изображения по стадиям жизненного цикла:
// от ожидания разметки до слияния в тренировочный пул и архива истории.
type LifecycleService struct {
	LowConfDir   string // корень low_conf_images
	TrainPool    string // пул следующей тренировки
	HistoryDir   string // append-only архив партий
	AllowOrphans bool   // пропускать непарные файлы вместо отказа всей партии

	mu sync.Mutex
}

// NewLifecycleService создаёт координатор жизненного цикла.
func NewLifecycleService(lowConfDir, trainPool, historyDir string, allowOrphans bool) *LifecycleService {
	return &LifecycleService{
		LowConfDir:   lowConfDir,
		TrainPool:    trainPool,
		HistoryDir:   historyDir,
		AllowOrphans: allowOrphans,
	}
}

// TransferImages перемещает изображения из tmp/ в raw/ для показа
// разметчику. Возвращает перенесённые имена.
func (s *LifecycleService) TransferImages(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, err := storage.AcquireLock(ctx, s.LowConfDir)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	tmpDir := filepath.Join(s.LowConfDir, "tmp")
	rawDir := filepath.Join(s.LowConfDir, "raw")
	if err := storage.EnsureDir(rawDir); err != nil {
		return nil, err
	}

	names, err := storage.ListImages(tmpDir)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, ErrNoImages
	}

	var moved []string
	for _, name := range names {
		if err := storage.MoveFile(filepath.Join(tmpDir, name), filepath.Join(rawDir, name)); err != nil {
			return moved, err
		}
		moved = append(moved, name)
	}
	return moved, nil
}

// ExportLabels сохраняет присланную разметку в labels/ по одному
// файлу на изображение.
func (s *LifecycleService) ExportLabels(items []LabelExport) error {
	labelsDir := filepath.Join(s.LowConfDir, "labels")
	if err := storage.EnsureDir(labelsDir); err != nil {
		return err
	}

	for _, item := range items {
		// Фронтенд знает снимки по полным именам из transfer-images,
		// файл разметки именуется по имени без расширения.
		name := stem(filepath.Base(item.Filename)) + ".txt"
		content := strings.Join(item.Labels, "\n")
		if err := os.WriteFile(filepath.Join(labelsDir, name), []byte(content), 0o644); err != nil {
			return fmt.Errorf("export labels for %s: %w", item.Filename, err)
		}
	}
	return nil
}

// MergeLabeledBatch сливает размеченную партию в тренировочный пул.
// Порядок шагов важен: пул полностью замещается именно этой партией,
// история получает копию каждого файла.
func (s *LifecycleService) MergeLabeledBatch(ctx context.Context) (*entity.BatchSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, err := storage.AcquireLock(ctx, s.LowConfDir)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	labelsSrc := filepath.Join(s.LowConfDir, "labels")
	imagesSrc := filepath.Join(s.LowConfDir, "raw")
	markedDir := filepath.Join(s.LowConfDir, "marked")
	labelsDst := filepath.Join(s.TrainPool, "labels")
	imagesDst := filepath.Join(s.TrainPool, "images")

	labels, images, orphans, err := pairBatch(labelsSrc, imagesSrc)
	if err != nil {
		return nil, err
	}
	if len(orphans) > 0 {
		if !s.AllowOrphans {
			// Партия отклоняется целиком до первой мутации каталогов.
			return nil, fmt.Errorf("%w: %s", ErrOrphanedFiles, strings.Join(orphans, ", "))
		}
		log.Printf("Merging batch with %d orphaned files: %s", len(orphans), strings.Join(orphans, ", "))
	}

	for _, dir := range []string{labelsDst, imagesDst} {
		if err := storage.EnsureDir(dir); err != nil {
			return nil, err
		}
		if err := storage.ClearDir(dir); err != nil {
			return nil, err
		}
	}
	// Превью одноразовые: после разметки они больше не нужны.
	if err := storage.ClearDir(markedDir); err != nil {
		return nil, err
	}

	batchName := "batch_" + time.Now().Format("20060102_150405")
	historyLabels := filepath.Join(s.HistoryDir, batchName, "labels")
	historyImages := filepath.Join(s.HistoryDir, batchName, "images")
	for _, dir := range []string{historyLabels, historyImages} {
		if err := storage.EnsureDir(dir); err != nil {
			return nil, err
		}
	}

	summary := &entity.BatchSummary{BatchDir: batchName, Orphans: orphans}
	for _, name := range labels {
		dst := filepath.Join(labelsDst, name)
		if err := storage.MoveFile(filepath.Join(labelsSrc, name), dst); err != nil {
			return nil, err
		}
		if err := storage.CopyFile(dst, filepath.Join(historyLabels, name)); err != nil {
			return nil, err
		}
		summary.Labels = append(summary.Labels, name)
	}
	for _, name := range images {
		dst := filepath.Join(imagesDst, name)
		if err := storage.MoveFile(filepath.Join(imagesSrc, name), dst); err != nil {
			return nil, err
		}
		if err := storage.CopyFile(dst, filepath.Join(historyImages, name)); err != nil {
			return nil, err
		}
		summary.Images = append(summary.Images, name)
	}

	log.Printf("Merged batch %s: %d labels, %d images", batchName, len(summary.Labels), len(summary.Images))
	return summary, nil
}

// pairBatch сверяет файлы разметки с изображениями по имени без
// расширения и возвращает парные списки плюс сирот.
func pairBatch(labelsDir, imagesDir string) (labels, images, orphans []string, err error) {
	labelFiles, err := storage.ListFiles(labelsDir, ".txt")
	if err != nil {
		return nil, nil, nil, err
	}
	imageFiles, err := storage.ListImages(imagesDir)
	if err != nil {
		return nil, nil, nil, err
	}

	imageByStem := make(map[string]string, len(imageFiles))
	for _, name := range imageFiles {
		imageByStem[stem(name)] = name
	}

	matchedImages := make(map[string]bool, len(labelFiles))
	for _, label := range labelFiles {
		image, ok := imageByStem[stem(label)]
		if !ok {
			orphans = append(orphans, label)
			continue
		}
		labels = append(labels, label)
		images = append(images, image)
		matchedImages[image] = true
	}
	for _, image := range imageFiles {
		if !matchedImages[image] {
			orphans = append(orphans, image)
		}
	}
	sort.Strings(orphans)
	return labels, images, orphans, nil
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
