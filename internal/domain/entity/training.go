package entity

import (
	"fmt"
	"time"
)

// Hyperparameters — профиль аугментации для дообучения модели.
type Hyperparameters struct {
	HSVHue        float64
	HSVSaturation float64
	HSVValue      float64
	Degrees       float64
	Translate     float64
	Scale         float64
	Shear         float64
	Perspective   float64
	Mosaic        bool
}

// DefaultHyperparameters возвращает профиль аугментации по умолчанию.
func DefaultHyperparameters() Hyperparameters {
	return Hyperparameters{
		HSVHue:        0.015,
		HSVSaturation: 0.5,
		HSVValue:      0.4,
		Degrees:       15,
		Translate:     0.1,
		Scale:         0.5,
		Shear:         2.5,
		Perspective:   0.001,
		Mosaic:        true,
	}
}

// ArtifactName строит имя каталога артефакта: значения профиля
// плюс временная метка последними двумя сегментами.
func (h Hyperparameters) ArtifactName(at time.Time) string {
	return fmt.Sprintf("model_%v_%v_%v_%v_%v_%v_%v_%v_%v_%s",
		h.HSVHue, h.HSVSaturation, h.HSVValue,
		h.Degrees, h.Translate, h.Scale, h.Shear, h.Perspective,
		h.Mosaic, at.Format("20060102_150405"))
}

// TrainSpec описывает один запуск обучения.
type TrainSpec struct {
	BaseWeights  string // путь к весам, с которых продолжается обучение
	DataYAML     string // путь к описанию датасета
	ProjectDir   string // корень каталогов артефактов
	Name         string // имя каталога нового артефакта
	Epochs       int
	BatchSize    int
	Augmentation Hyperparameters
}

// BatchSummary — итог слияния размеченной партии в тренировочный пул.
type BatchSummary struct {
	BatchDir string   // имя каталога снапшота в истории, batch_<метка>
	Labels   []string // перенесённые файлы разметки
	Images   []string // перенесённые изображения
	Orphans  []string // файлы без пары (разметка без картинки или наоборот)
}
