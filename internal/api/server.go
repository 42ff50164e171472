package api

import (
	"log"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	app "github.com/Quit123/PCB-Detection/internal/application"
	"github.com/Quit123/PCB-Detection/internal/domain/port"
	"github.com/Quit123/PCB-Detection/internal/infrastructure/storage"
)

// DetectServer — HTTP-сервис стороны детекции: приём артефактов модели,
// управление процессами детекции, жизненный цикл неуверенных снимков и
// SSE-канал событий обучения.
type DetectServer struct {
	hub       *Hub
	lifecycle *app.LifecycleService
	process   *app.ProcessService
	models    *storage.ModelStore
	uploader  port.Uploader // клиент стороны обучения, может быть nil

	LowConfDir string
	TrainPool  string
}

// NewDetectServer собирает сервис детекции.
func NewDetectServer(hub *Hub, lifecycle *app.LifecycleService, process *app.ProcessService, models *storage.ModelStore, uploader port.Uploader, lowConfDir, trainPool string) *DetectServer {
	return &DetectServer{
		hub:        hub,
		lifecycle:  lifecycle,
		process:    process,
		models:     models,
		uploader:   uploader,
		LowConfDir: lowConfDir,
		TrainPool:  trainPool,
	}
}

// Router настраивает маршруты сервиса детекции.
func (s *DetectServer) Router() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	e.POST("/upload/", s.handleUploadModel)
	e.POST("/api/training-finished", s.handleTrainingFinished)
	e.GET("/api/return_model", s.handleReturnModel)
	e.POST("/api/start-detecting", s.handleStartDetecting)
	e.POST("/api/stop-detecting", s.handleStopDetecting)
	e.GET("/api/transfer-images", s.handleTransferImages)
	e.POST("/api/export_data", s.handleExportData)
	e.POST("/api/managing-data", s.handleManagingData)
	e.GET("/api/events", s.hub.ServeSSE)
	e.GET("/api/training-status", s.handleTrainingStatus)
	e.Static("/static/low_conf_images", s.LowConfDir)
	return e
}

// Start запускает сервис детекции и блокируется до остановки.
func (s *DetectServer) Start(addr string) error {
	log.Printf("Detect service listening on %s", addr)
	return s.Router().Start(addr)
}

// ModelServer — HTTP-сервис стороны обучения: приём датасета и запуск
// наблюдаемых задач дообучения.
type ModelServer struct {
	training *app.TrainingService

	TrainPool string
}

// NewModelServer собирает сервис обучения.
func NewModelServer(training *app.TrainingService, trainPool string) *ModelServer {
	return &ModelServer{training: training, TrainPool: trainPool}
}

// Router настраивает маршруты сервиса обучения.
func (s *ModelServer) Router() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	e.POST("/upload/", s.handleUploadDataset)
	e.POST("/api/managing-training", s.handleManagingTraining)
	e.GET("/api/training-job/:id", s.handleTrainingJob)
	return e
}

// Start запускает сервис обучения и блокируется до остановки.
func (s *ModelServer) Start(addr string) error {
	log.Printf("Model service listening on %s", addr)
	return s.Router().Start(addr)
}
