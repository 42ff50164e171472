package entity

// Box представляет прямоугольную область на изображении
type Box struct {
	X      int // координата X левого верхнего угла
	Y      int // координата Y левого верхнего угла
	Width  int // ширина области в пикселях
	Height int // высота области в пикселях
}

// Center возвращает координаты центра области
func (b Box) Center() (x, y int) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Detection — один найденный объект: класс, уверенность и рамка.
type Detection struct {
	ClassID    int     // индекс класса дефекта
	Confidence float64 // уверенность модели, [0, 1]
	Box        Box     // рамка объекта
}

// Verdict — итог триажа одного изображения.
type Verdict string

const (
	VerdictPass          Verdict = "pass"           // объектов не найдено
	VerdictFail          Verdict = "fail"           // найден уверенный дефект
	VerdictLowConfidence Verdict = "low_confidence" // есть неуверенная детекция, нужна разметка
)

// Classify определяет вердикт по списку детекций и порогу уверенности.
// Нет рамок — PASS; хотя бы одна рамка ниже порога — LOW_CONFIDENCE;
// иначе все рамки уверенные — FAIL.
func Classify(detections []Detection, highConfidence float64) Verdict {
	if len(detections) == 0 {
		return VerdictPass
	}
	for _, d := range detections {
		if d.Confidence < highConfidence {
			return VerdictLowConfidence
		}
	}
	return VerdictFail
}
