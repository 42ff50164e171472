package port

import (
	"context"

	"github.com/Quit123/PCB-Detection/internal/domain/entity"
)

// Trainer интерфейс запуска обучения модели
type Trainer interface {
	// Train дообучает модель по спецификации и возвращает путь
	// к каталогу нового артефакта
	Train(ctx context.Context, spec entity.TrainSpec) (string, error)
}
