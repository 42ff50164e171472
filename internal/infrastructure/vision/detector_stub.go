//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"

	"github.com/Quit123/PCB-Detection/internal/domain/entity"
)

// YOLODetector — заглушка детектора для сборки без OpenCV.
type YOLODetector struct {
	InputSize int
	MinConf   float32
	IoU       float32
}

// NewYOLODetector возвращает заглушку, если сборка без тега gocv.
func NewYOLODetector(weightsPath string, minConf float64) (*YOLODetector, error) {
	_ = weightsPath
	return &YOLODetector{InputSize: 640, MinConf: float32(minConf), IoU: 0.45}, nil
}

// Close ничего не освобождает в заглушке.
func (d *YOLODetector) Close() error {
	return nil
}

// Predict возвращает ошибку, если сборка без тега gocv.
func (d *YOLODetector) Predict(ctx context.Context, imagePath string) ([]entity.Detection, error) {
	_ = ctx
	_ = imagePath
	return nil, errors.New("gocv build tag is not enabled")
}

// Annotate возвращает ошибку, если сборка без тега gocv.
func (d *YOLODetector) Annotate(imagePath string, detections []entity.Detection, dstPath string) error {
	_ = imagePath
	_ = detections
	_ = dstPath
	return errors.New("gocv build tag is not enabled")
}
