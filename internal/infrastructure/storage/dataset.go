package storage

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Quit123/PCB-Detection/internal/domain/entity"
)

// Descriptor — описание датасета для тренера.
type Descriptor struct {
	Train string   `yaml:"train"`
	Val   string   `yaml:"val"`
	NC    int      `yaml:"nc"`
	Names []string `yaml:"names"`
}

// WriteDescriptor записывает YAML-описание датасета с фиксированной
// таксономией классов.
func WriteDescriptor(path, trainImages, valImages string) error {
	d := Descriptor{
		Train: filepath.ToSlash(trainImages),
		Val:   filepath.ToSlash(valImages),
		NC:    entity.NumClasses,
		Names: entity.ClassNames,
	}

	data, err := yaml.Marshal(&d)
	if err != nil {
		return fmt.Errorf("marshal dataset descriptor: %w", err)
	}
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write dataset descriptor %s: %w", path, err)
	}
	return nil
}

// SplitDataset делит пул images/labels на train/val по заданной доле.
// Существующий каталог назначения означает, что датасет уже
// материализован — шаг пропускается целиком.
func SplitDataset(poolDir, outRoot string, trainRatio float64, seed int64) error {
	if _, err := os.Stat(outRoot); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("check dataset root %s: %w", outRoot, err)
	}

	labelsDir := filepath.Join(poolDir, "labels")
	imagesDir := filepath.Join(poolDir, "images")

	labels, err := ListFiles(labelsDir, ".txt")
	if err != nil {
		return err
	}
	if len(labels) == 0 {
		return fmt.Errorf("split dataset: no labels in %s", labelsDir)
	}

	// Сопоставление по фактическому листингу: регистр расширения
	// не влияет на поиск пары.
	images, err := ListImages(imagesDir)
	if err != nil {
		return err
	}
	imageByStem := make(map[string]string, len(images))
	for _, name := range images {
		imageByStem[strings.TrimSuffix(name, filepath.Ext(name))] = name
	}

	for _, sub := range []string{"train", "val"} {
		if err := EnsureDir(filepath.Join(outRoot, sub, "labels")); err != nil {
			return err
		}
		if err := EnsureDir(filepath.Join(outRoot, sub, "images")); err != nil {
			return err
		}
	}

	// Перемешивание с явным зерном: разбиение воспроизводимо между запусками.
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(labels), func(i, j int) { labels[i], labels[j] = labels[j], labels[i] })

	splitIdx := int(float64(len(labels)) * trainRatio)
	for i, label := range labels {
		sub := "train"
		if i >= splitIdx {
			sub = "val"
		}

		image, ok := imageByStem[strings.TrimSuffix(label, filepath.Ext(label))]
		if !ok {
			return fmt.Errorf("no image for label %s in %s", label, imagesDir)
		}

		if err := CopyFile(filepath.Join(labelsDir, label), filepath.Join(outRoot, sub, "labels", label)); err != nil {
			return err
		}
		if err := CopyFile(filepath.Join(imagesDir, image), filepath.Join(outRoot, sub, "images", image)); err != nil {
			return err
		}
	}
	return nil
}
