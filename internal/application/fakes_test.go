package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/Quit123/PCB-Detection/internal/domain/entity"
)

// fakeDetector возвращает заранее заданные детекции по имени файла.
type fakeDetector struct {
	detections map[string][]entity.Detection
	err        error
}

func (d *fakeDetector) Predict(ctx context.Context, imagePath string) ([]entity.Detection, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.detections[filepath.Base(imagePath)], nil
}

func (d *fakeDetector) Annotate(imagePath string, detections []entity.Detection, dstPath string) error {
	return os.WriteFile(dstPath, []byte("marked"), 0o644)
}

// fakeAlerts записывает отправленные уведомления.
type fakeAlerts struct {
	mu    sync.Mutex
	texts []string
}

func (a *fakeAlerts) Alert(ctx context.Context, text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.texts = append(a.texts, text)
	return nil
}

func (a *fakeAlerts) sent() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.texts...)
}

// fakeTrainer создаёт каталог артефакта с файлом весов.
type fakeTrainer struct {
	spec entity.TrainSpec
	err  error
}

func (t *fakeTrainer) Train(ctx context.Context, spec entity.TrainSpec) (string, error) {
	t.spec = spec
	if t.err != nil {
		return "", t.err
	}
	dir := filepath.Join(spec.ProjectDir, spec.Name)
	if err := os.MkdirAll(filepath.Join(dir, "weights"), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, "weights", "best.onnx"), []byte("new"), 0o644); err != nil {
		return "", err
	}
	return dir, nil
}

// fakeUploader записывает загрузки и умеет имитировать сбой уведомления.
type fakeUploader struct {
	uploaded  []string
	notified  int
	uploadErr error
	notifyErr error
}

func (u *fakeUploader) UploadZip(ctx context.Context, zipPath string) error {
	if u.uploadErr != nil {
		return u.uploadErr
	}
	u.uploaded = append(u.uploaded, zipPath)
	return nil
}

func (u *fakeUploader) NotifyTrainingFinished(ctx context.Context) error {
	u.notified++
	return u.notifyErr
}
