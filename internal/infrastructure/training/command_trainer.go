package training

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/Quit123/PCB-Detection/internal/domain/entity"
	"github.com/Quit123/PCB-Detection/internal/domain/port"
)

// CommandTrainer запускает внешнюю команду обучения и ждёт её завершения.
// Конвейеру важен только появившийся каталог артефакта, сама тренировка —
// внешняя способность.
type CommandTrainer struct {
	Command string // исполняемый файл тренера
}

// NewCommandTrainer создаёт тренер поверх внешней команды.
func NewCommandTrainer(command string) *CommandTrainer {
	return &CommandTrainer{Command: command}
}

// Train запускает обучение и возвращает путь к каталогу артефакта.
func (t *CommandTrainer) Train(ctx context.Context, spec entity.TrainSpec) (string, error) {
	hp := spec.Augmentation
	args := []string{
		"--model", spec.BaseWeights,
		"--data", spec.DataYAML,
		"--epochs", strconv.Itoa(spec.Epochs),
		"--batch", strconv.Itoa(spec.BatchSize),
		"--project", spec.ProjectDir,
		"--name", spec.Name,
		"--hsv_h", formatFloat(hp.HSVHue),
		"--hsv_s", formatFloat(hp.HSVSaturation),
		"--hsv_v", formatFloat(hp.HSVValue),
		"--degrees", formatFloat(hp.Degrees),
		"--translate", formatFloat(hp.Translate),
		"--scale", formatFloat(hp.Scale),
		"--shear", formatFloat(hp.Shear),
		"--perspective", formatFloat(hp.Perspective),
		"--mosaic", strconv.FormatBool(hp.Mosaic),
	}

	cmd := exec.CommandContext(ctx, t.Command, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	log.Printf("Starting training run %s (base %s)", spec.Name, spec.BaseWeights)
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("training command failed: %w", err)
	}

	artifactDir := filepath.Join(spec.ProjectDir, spec.Name)
	if _, err := os.Stat(artifactDir); err != nil {
		return "", fmt.Errorf("training finished but artifact dir is missing: %w", err)
	}
	return artifactDir, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Проверка реализации интерфейса
var _ port.Trainer = (*CommandTrainer)(nil)
