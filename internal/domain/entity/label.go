package entity

import (
	"fmt"
	"math"
	"strings"
)

// ClassNames — фиксированная таксономия дефектов печатных плат.
var ClassNames = []string{
	"Missing_hole",
	"Mouse_bite",
	"Open_circuit",
	"Short",
	"Spur",
	"Spurious_copper",
}

// NumClasses — количество классов дефектов.
const NumClasses = 6

// Label — одна строка YOLO-разметки: класс и нормализованная рамка.
type Label struct {
	ClassID int
	XCenter float64 // центр по X, [0, 1]
	YCenter float64 // центр по Y, [0, 1]
	Width   float64 // ширина, [0, 1]
	Height  float64 // высота, [0, 1]
}

// NormalizeBox переводит пиксельную рамку (xmin, ymin, xmax, ymax)
// в нормализованную запись разметки.
func NormalizeBox(classID, xmin, ymin, xmax, ymax, imgWidth, imgHeight int) Label {
	return Label{
		ClassID: classID,
		XCenter: (float64(xmin) + float64(xmax)) / 2.0 / float64(imgWidth),
		YCenter: (float64(ymin) + float64(ymax)) / 2.0 / float64(imgHeight),
		Width:   float64(xmax-xmin) / float64(imgWidth),
		Height:  float64(ymax-ymin) / float64(imgHeight),
	}
}

// Denormalize восстанавливает пиксельную рамку по размерам изображения.
func (l Label) Denormalize(imgWidth, imgHeight int) (xmin, ymin, xmax, ymax int) {
	w := l.Width * float64(imgWidth)
	h := l.Height * float64(imgHeight)
	cx := l.XCenter * float64(imgWidth)
	cy := l.YCenter * float64(imgHeight)

	xmin = int(math.Round(cx - w/2))
	ymin = int(math.Round(cy - h/2))
	xmax = int(math.Round(cx + w/2))
	ymax = int(math.Round(cy + h/2))
	return xmin, ymin, xmax, ymax
}

// String форматирует запись в строку файла разметки (6 знаков после запятой).
func (l Label) String() string {
	return fmt.Sprintf("%d %.6f %.6f %.6f %.6f", l.ClassID, l.XCenter, l.YCenter, l.Width, l.Height)
}

// ParseLabel разбирает одну строку файла разметки.
func ParseLabel(line string) (Label, error) {
	var l Label
	n, err := fmt.Sscanf(strings.TrimSpace(line), "%d %f %f %f %f",
		&l.ClassID, &l.XCenter, &l.YCenter, &l.Width, &l.Height)
	if err != nil {
		return Label{}, fmt.Errorf("parse label line %q: %w", line, err)
	}
	if n != 5 {
		return Label{}, fmt.Errorf("parse label line %q: expected 5 fields, got %d", line, n)
	}
	return l, nil
}
