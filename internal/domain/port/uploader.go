package port

import "context"

// Uploader интерфейс доставки артефактов на сторону детекции
type Uploader interface {
	// UploadZip загружает zip-архив на принимающий сервис
	UploadZip(ctx context.Context, zipPath string) error

	// NotifyTrainingFinished посылает сигнал о завершении обучения
	NotifyTrainingFinished(ctx context.Context) error
}
