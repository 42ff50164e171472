//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/Quit123/PCB-Detection/internal/domain/entity"
)

// YOLODetector выполняет инференс ONNX-модели YOLO через OpenCV DNN.
type YOLODetector struct {
	net       gocv.Net
	InputSize int     // сторона квадратного входа сети
	MinConf   float32 // минимальный порог детекции
	IoU       float32 // порог NMS
}

// NewYOLODetector загружает веса и настраивает сеть.
func NewYOLODetector(weightsPath string, minConf float64) (*YOLODetector, error) {
	net := gocv.ReadNetFromONNX(weightsPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load model %s", weightsPath)
	}

	return &YOLODetector{
		net:       net,
		InputSize: 640,
		MinConf:   float32(minConf),
		IoU:       0.45,
	}, nil
}

// Close освобождает ресурсы сети.
func (d *YOLODetector) Close() error {
	return d.net.Close()
}

// Predict анализирует изображение и возвращает найденные объекты.
func (d *YOLODetector) Predict(ctx context.Context, imagePath string) ([]entity.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat := gocv.IMRead(imagePath, gocv.IMReadColor)
	if mat.Empty() {
		return nil, fmt.Errorf("failed to decode image %s", imagePath)
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, 1.0/255.0,
		image.Pt(d.InputSize, d.InputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	return d.decode(output, mat.Cols(), mat.Rows())
}

// decode разбирает выход YOLO: [1, 4+nc, anchors], координаты центра
// и размеры в масштабе входа сети.
func (d *YOLODetector) decode(output gocv.Mat, imgWidth, imgHeight int) ([]entity.Detection, error) {
	sizes := output.Size()
	if len(sizes) != 3 {
		return nil, errors.New("unexpected model output shape")
	}
	rows := sizes[1]
	anchors := sizes[2]
	numClasses := rows - 4
	if numClasses < 1 {
		return nil, errors.New("unexpected model output shape")
	}

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read model output: %w", err)
	}

	xFactor := float32(imgWidth) / float32(d.InputSize)
	yFactor := float32(imgHeight) / float32(d.InputSize)

	var boxes []image.Rectangle
	var scores []float32
	var classIDs []int

	for i := 0; i < anchors; i++ {
		bestClass := 0
		bestScore := float32(0)
		for c := 0; c < numClasses; c++ {
			score := data[(4+c)*anchors+i]
			if score > bestScore {
				bestScore = score
				bestClass = c
			}
		}
		if bestScore < d.MinConf {
			continue
		}

		cx := data[0*anchors+i] * xFactor
		cy := data[1*anchors+i] * yFactor
		w := data[2*anchors+i] * xFactor
		h := data[3*anchors+i] * yFactor

		boxes = append(boxes, image.Rect(
			int(cx-w/2), int(cy-h/2),
			int(cx+w/2), int(cy+h/2)))
		scores = append(scores, bestScore)
		classIDs = append(classIDs, bestClass)
	}

	if len(boxes) == 0 {
		return nil, nil
	}

	kept := gocv.NMSBoxes(boxes, scores, d.MinConf, d.IoU)
	detections := make([]entity.Detection, 0, len(kept))
	for _, idx := range kept {
		r := boxes[idx]
		detections = append(detections, entity.Detection{
			ClassID:    classIDs[idx],
			Confidence: float64(scores[idx]),
			Box: entity.Box{
				X:      r.Min.X,
				Y:      r.Min.Y,
				Width:  r.Dx(),
				Height: r.Dy(),
			},
		})
	}
	return detections, nil
}

// Annotate сохраняет копию изображения с рамками и подписями классов.
func (d *YOLODetector) Annotate(imagePath string, detections []entity.Detection, dstPath string) error {
	mat := gocv.IMRead(imagePath, gocv.IMReadColor)
	if mat.Empty() {
		return fmt.Errorf("failed to decode image %s", imagePath)
	}
	defer mat.Close()

	red := color.RGBA{R: 255, A: 255}
	for _, det := range detections {
		rect := image.Rect(det.Box.X, det.Box.Y, det.Box.X+det.Box.Width, det.Box.Y+det.Box.Height)
		gocv.Rectangle(&mat, rect, red, 2)

		name := fmt.Sprintf("class_%d", det.ClassID)
		if det.ClassID >= 0 && det.ClassID < len(entity.ClassNames) {
			name = entity.ClassNames[det.ClassID]
		}
		caption := fmt.Sprintf("%s %.2f", name, det.Confidence)
		gocv.PutText(&mat, caption, image.Pt(det.Box.X, det.Box.Y-4),
			gocv.FontHersheySimplex, 0.5, red, 1)
	}

	if ok := gocv.IMWrite(dstPath, mat); !ok {
		return fmt.Errorf("failed to write annotated image %s", dstPath)
	}
	return nil
}
