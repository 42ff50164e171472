package main

import (
	"context"
	"log"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"github.com/Quit123/PCB-Detection/config"
	"github.com/Quit123/PCB-Detection/internal/api"
	app "github.com/Quit123/PCB-Detection/internal/application"
	"github.com/Quit123/PCB-Detection/internal/container"
	"github.com/Quit123/PCB-Detection/internal/domain/entity"
	"github.com/Quit123/PCB-Detection/internal/domain/port"
	"github.com/Quit123/PCB-Detection/internal/infrastructure/notify"
	"github.com/Quit123/PCB-Detection/internal/infrastructure/storage"
	"github.com/Quit123/PCB-Detection/internal/infrastructure/vision"
)

func main() {
	root := &cobra.Command{
		Use:           "pcb-detection",
		Short:         "Active-learning loop for PCB defect detection",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		detectServerCommand(),
		modelServerCommand(),
		watchCommand(),
		trainCommand(),
		mergeCommand(),
		simulateCommand(),
	)

	if err := root.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

// signalContext отменяется по SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// serve держит echo-сервер до сигнала, затем гасит его мягко.
func serve(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	}
}

func detectServerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "detect-server",
		Short: "HTTP service of the detection side",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			c := container.New(cfg)

			ctx, cancel := signalContext()
			defer cancel()
			// Дочерние процессы детекции не должны переживать сервис.
			defer c.Process.StopAll()

			addr := net.JoinHostPort(cfg.DetectHost, cfg.DetectPort)
			log.Printf("Detect service listening on %s", addr)
			return serve(ctx, c.DetectServer.Router(), addr)
		},
	}
}

func modelServerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "model-server",
		Short: "HTTP service of the training side",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			c := container.New(cfg)

			ctx, cancel := signalContext()
			defer cancel()

			addr := net.JoinHostPort(cfg.ModelHost, cfg.ModelPort)
			log.Printf("Model service listening on %s", addr)
			return serve(ctx, c.ModelServer.Router(), addr)
		},
	}
}

func watchCommand() *cobra.Command {
	var modelPath string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the triage loop against the inbound directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			detector, err := vision.NewYOLODetector(modelPath, cfg.MinConfidence)
			if err != nil {
				return err
			}
			defer detector.Close()

			var alerts port.AlertNotifier
			if cfg.TelegramToken != "" {
				notifier, err := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID)
				if err != nil {
					log.Printf("Telegram notifier disabled: %v", err)
				} else {
					alerts = notifier
				}
			}

			triage := app.NewTriageService(detector, alerts, cfg.InboundDir, cfg.LowConfDir, cfg.HighConfidence)
			triage.EmptyPoll = cfg.EmptyPoll
			triage.BatchPause = cfg.BatchPause
			triage.InferenceTimeout = cfg.InferenceTimeout

			ctx, cancel := signalContext()
			defer cancel()

			if err := triage.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			log.Println("Triage loop stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&modelPath, "model", "", "path to the ONNX weights file")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}

func trainCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Run one retraining cycle and ship the artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			c := container.New(cfg)

			ctx, cancel := signalContext()
			defer cancel()

			artifactDir, err := c.Training.Retrain(ctx, entity.DefaultHyperparameters())
			if err != nil {
				return err
			}
			log.Printf("Training finished: %s", filepath.Base(artifactDir))
			return nil
		},
	}
}

func mergeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "merge",
		Short: "Merge the labeled batch into the training pool and ship it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			c := container.New(cfg)

			ctx, cancel := signalContext()
			defer cancel()

			summary, err := c.Lifecycle.MergeLabeledBatch(ctx)
			if err != nil {
				return err
			}
			if len(summary.Labels) == 0 {
				log.Println("Nothing to merge")
				return nil
			}

			if err := storage.ZipDir(cfg.TrainPool, cfg.DatasetZip); err != nil {
				return err
			}
			if err := api.NewClient(cfg.ModelBaseURL()).UploadZip(ctx, cfg.DatasetZip); err != nil {
				return err
			}
			log.Printf("Merged and shipped batch %s (%d pairs)", summary.BatchDir, len(summary.Labels))
			return nil
		},
	}
}

func simulateCommand() *cobra.Command {
	var srcDir string
	var shuffle bool
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Push images from a directory into the inbound queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			names, err := storage.ListImages(srcDir)
			if err != nil {
				return err
			}
			if shuffle {
				rand.Shuffle(len(names), func(i, j int) {
					names[i], names[j] = names[j], names[i]
				})
			}
			if err := storage.EnsureDir(cfg.InboundDir); err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			for _, name := range names {
				if err := ctx.Err(); err != nil {
					return nil
				}
				if err := storage.CopyFile(filepath.Join(srcDir, name), filepath.Join(cfg.InboundDir, name)); err != nil {
					return err
				}
				log.Printf("Pushed %s", name)

				pause := time.Duration(rand.Int63n(int64(time.Second)))
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(pause):
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&srcDir, "src", "", "directory with sample images")
	cmd.Flags().BoolVar(&shuffle, "shuffle", false, "push in random order")
	_ = cmd.MarkFlagRequired("src")
	return cmd
}
