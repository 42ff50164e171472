package port

import (
	"context"

	"github.com/Quit123/PCB-Detection/internal/domain/entity"
)

// Detector интерфейс детектора дефектов
type Detector interface {
	// Predict анализирует изображение по пути и возвращает список детекций
	Predict(ctx context.Context, imagePath string) ([]entity.Detection, error)

	// Annotate сохраняет копию изображения с нарисованными рамками
	Annotate(imagePath string, detections []entity.Detection, dstPath string) error
}
