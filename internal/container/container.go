package container

import (
	"log"
	"os"
	"path/filepath"

	"github.com/Quit123/PCB-Detection/config"
	"github.com/Quit123/PCB-Detection/internal/api"
	app "github.com/Quit123/PCB-Detection/internal/application"
	"github.com/Quit123/PCB-Detection/internal/domain/port"
	"github.com/Quit123/PCB-Detection/internal/infrastructure/notify"
	"github.com/Quit123/PCB-Detection/internal/infrastructure/storage"
	"github.com/Quit123/PCB-Detection/internal/infrastructure/training"
)

// Container собирает сервисы обеих сторон из конфигурации.
type Container struct {
	Hub       *api.Hub
	Models    *storage.ModelStore
	Lifecycle *app.LifecycleService
	Process   *app.ProcessService
	Training  *app.TrainingService
	Alerts    port.AlertNotifier

	DetectServer *api.DetectServer
	ModelServer  *api.ModelServer
}

// New строит граф зависимостей. Telegram-канал опционален: без токена
// уведомления просто не отправляются.
func New(cfg *config.Config) *Container {
	models := storage.NewModelStore(cfg.ModelsDir, cfg.WeightsName)

	var alerts port.AlertNotifier
	if cfg.TelegramToken != "" {
		notifier, err := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Printf("Telegram notifier disabled: %v", err)
		} else {
			alerts = notifier
		}
	}

	hub := api.NewHub()
	lifecycle := app.NewLifecycleService(cfg.LowConfDir, cfg.TrainPool, cfg.HistoryDir, cfg.MergeAllowOrphans)

	selfPath, err := os.Executable()
	if err != nil {
		selfPath = os.Args[0]
	}
	process := app.NewProcessService(models, selfPath)
	process.StopGrace = cfg.StopGrace

	// Артефакты обучения уезжают на сторону детекции, пул данных — на
	// сторону обучения.
	detectClient := api.NewClient(cfg.DetectBaseURL())
	modelClient := api.NewClient(cfg.ModelBaseURL())

	trainingSvc := app.NewTrainingService(models, &training.CommandTrainer{Command: cfg.TrainCommand}, detectClient, alerts)
	trainingSvc.TrainPool = cfg.TrainPool
	trainingSvc.DatasetDir = cfg.DatasetDir
	trainingSvc.DescriptorPath = filepath.Join(filepath.Dir(cfg.DatasetDir), filepath.Base(cfg.DatasetDir)+".yaml")
	trainingSvc.SplitRatio = cfg.SplitRatio
	trainingSvc.SplitSeed = cfg.SplitSeed
	trainingSvc.Epochs = cfg.Epochs
	trainingSvc.BatchSize = cfg.BatchSize

	return &Container{
		Hub:          hub,
		Models:       models,
		Lifecycle:    lifecycle,
		Process:      process,
		Training:     trainingSvc,
		Alerts:       alerts,
		DetectServer: api.NewDetectServer(hub, lifecycle, process, models, modelClient, cfg.LowConfDir, cfg.TrainPool),
		ModelServer:  api.NewModelServer(trainingSvc, cfg.TrainPool),
	}
}
