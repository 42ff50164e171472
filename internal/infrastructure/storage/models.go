package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Quit123/PCB-Detection/internal/domain/entity"
)

// ErrNoModels возвращается, когда в корне артефактов нет ни одной модели.
var ErrNoModels = errors.New("no model artifacts found")

// ModelStore находит артефакты модели в корневом каталоге.
type ModelStore struct {
	Root        string // корень каталогов артефактов
	WeightsName string // имя файла весов, например best.onnx
}

// NewModelStore создаёт хранилище артефактов.
func NewModelStore(root, weightsName string) *ModelStore {
	return &ModelStore{Root: root, WeightsName: weightsName}
}

// Artifacts возвращает все каталоги артефактов с их версиями.
func (s *ModelStore) Artifacts() ([]entity.ModelArtifact, error) {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		return nil, fmt.Errorf("read models root %s: %w", s.Root, err)
	}

	var artifacts []entity.ModelArtifact
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		// Посторонние каталоги без метки-версии не считаются артефактами.
		version, ok := entity.VersionFromDirName(e.Name())
		if !ok {
			continue
		}
		artifacts = append(artifacts, entity.ModelArtifact{DirName: e.Name(), Version: version})
	}
	return artifacts, nil
}

// Versions возвращает версии всех артефактов по убыванию.
func (s *ModelStore) Versions() ([]string, error) {
	artifacts, err := s.Artifacts()
	if err != nil {
		return nil, err
	}

	versions := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		versions = append(versions, a.Version)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(versions)))
	return versions, nil
}

// LatestWeights возвращает путь к весам самого свежего артефакта.
func (s *ModelStore) LatestWeights() (string, error) {
	artifacts, err := s.Artifacts()
	if err != nil {
		return "", err
	}

	latest, ok := entity.LatestArtifact(artifacts)
	if !ok {
		return "", ErrNoModels
	}
	return s.weightsPath(latest.DirName)
}

// ResolveWeights находит веса артефакта по версии (последним двум
// сегментам имени каталога).
func (s *ModelStore) ResolveWeights(version string) (string, error) {
	artifacts, err := s.Artifacts()
	if err != nil {
		return "", err
	}

	for _, a := range artifacts {
		if a.Version == version {
			return s.weightsPath(a.DirName)
		}
	}
	return "", fmt.Errorf("model %s: %w", version, ErrNoModels)
}

func (s *ModelStore) weightsPath(dirName string) (string, error) {
	path := filepath.Join(s.Root, dirName, "weights", s.WeightsName)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("weights file %s: %w", path, err)
	}
	return path, nil
}
