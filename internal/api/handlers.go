package api

import (
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	app "github.com/Quit123/PCB-Detection/internal/application"
	"github.com/Quit123/PCB-Detection/internal/domain/entity"
	"github.com/Quit123/PCB-Detection/internal/infrastructure/storage"
)

// trainingCompleteEvent — токен, который сторона обучения шлёт по
// завершении дообучения, а SSE-клиенты ждут для обновления списка моделей.
const trainingCompleteEvent = "training_complete"

type modelRequest struct {
	ModelName string `json:"model_name"`
}

func errorResponse(c echo.Context, code int, err error) error {
	return c.JSON(code, echo.Map{"status": "error", "message": err.Error()})
}

// handleUploadModel принимает zip-архив артефакта и распаковывает его в
// корень моделей, замещая одноимённый каталог.
func (s *DetectServer) handleUploadModel(c echo.Context) error {
	dirName, err := receiveZip(c, s.models.Root, s.models.Root)
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	log.Printf("Received model artifact %s", dirName)
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "unzipped_to": dirName})
}

// handleTrainingFinished рассылает событие о готовой модели SSE-клиентам.
func (s *DetectServer) handleTrainingFinished(c echo.Context) error {
	s.hub.Broadcast(trainingCompleteEvent)
	return c.JSON(http.StatusOK, echo.Map{"status": "notified"})
}

// handleReturnModel возвращает версии доступных моделей по убыванию.
func (s *DetectServer) handleReturnModel(c echo.Context) error {
	versions, err := s.models.Versions()
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	if versions == nil {
		versions = []string{}
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "model_dirs": versions})
}

func (s *DetectServer) handleStartDetecting(c echo.Context) error {
	var req modelRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	info, err := s.process.Start(req.ModelName)
	if err != nil {
		return errorResponse(c, http.StatusNotFound, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":     string(info.Status),
		"pid":        info.PID,
		"model_path": info.ModelPath,
	})
}

func (s *DetectServer) handleStopDetecting(c echo.Context) error {
	var req modelRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	info, err := s.process.Stop(req.ModelName)
	if errors.Is(err, app.ErrNoRunningProcess) {
		return c.JSON(http.StatusOK, echo.Map{"status": "no_running_process"})
	}
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": string(info.Status), "pid": info.PID})
}

// handleTransferImages переносит накопленные неуверенные снимки из tmp
// в raw, открывая их для разметки.
func (s *DetectServer) handleTransferImages(c echo.Context) error {
	moved, err := s.lifecycle.TransferImages(c.Request().Context())
	if errors.Is(err, app.ErrNoImages) {
		return c.JSON(http.StatusOK, echo.Map{"status": "no_image"})
	}
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "files": moved})
}

// handleExportData сохраняет разметку, присланную интерфейсом разметчика.
func (s *DetectServer) handleExportData(c echo.Context) error {
	var payload []app.LabelExport
	if err := c.Bind(&payload); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if err := s.lifecycle.ExportLabels(payload); err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success"})
}

// handleManagingData вливает размеченную партию в пул обучения и, если
// настроен клиент стороны обучения, отгружает пул архивом.
func (s *DetectServer) handleManagingData(c echo.Context) error {
	summary, err := s.lifecycle.MergeLabeledBatch(c.Request().Context())
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	if s.uploader != nil && len(summary.Labels) > 0 {
		zipPath := s.TrainPool + ".zip"
		if err := storage.ZipDir(s.TrainPool, zipPath); err != nil {
			return errorResponse(c, http.StatusInternalServerError, err)
		}
		if err := s.uploader.UploadZip(c.Request().Context(), zipPath); err != nil {
			return errorResponse(c, http.StatusBadGateway, err)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"batch":   summary.BatchDir,
		"labels":  summary.Labels,
		"images":  summary.Images,
		"orphans": summary.Orphans,
	})
}

// handleTrainingStatus отдаёт последнее событие обучения опоздавшим
// подписчикам.
func (s *DetectServer) handleTrainingStatus(c echo.Context) error {
	event, at := s.hub.LastEvent()
	if event == "" {
		return c.JSON(http.StatusOK, echo.Map{"status": "idle"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "last_event": event, "at": at})
}

// handleUploadDataset принимает архив пула обучения и распаковывает его
// на место текущего пула.
func (s *ModelServer) handleUploadDataset(c echo.Context) error {
	dirName, err := receiveZip(c, filepath.Dir(s.TrainPool), s.TrainPool)
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	log.Printf("Received training pool archive %s", dirName)
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "unzipped_to": dirName})
}

// handleManagingTraining запускает наблюдаемую задачу дообучения.
func (s *ModelServer) handleManagingTraining(c echo.Context) error {
	job := s.training.StartJob(c.Request().Context(), entity.DefaultHyperparameters())
	return c.JSON(http.StatusOK, echo.Map{"status": "training_started", "job_id": job.ID})
}

// handleTrainingJob сообщает состояние задачи дообучения.
func (s *ModelServer) handleTrainingJob(c echo.Context) error {
	job, ok := s.training.Job(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"status": "not_found"})
	}

	select {
	case <-job.Done():
		if job.Err != nil {
			return c.JSON(http.StatusOK, echo.Map{"status": "failed", "message": job.Err.Error()})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "finished", "artifact": filepath.Base(job.ArtifactDir)})
	default:
		return c.JSON(http.StatusOK, echo.Map{"status": "running", "started_at": job.StartedAt})
	}
}

// receiveZip сохраняет multipart-файл во временный архив и распаковывает
// его: при dest==root каталог берётся из имени файла (без .zip), иначе
// содержимое ложится ровно в dest.
func receiveZip(c echo.Context, root, dest string) (string, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return "", err
	}
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := storage.EnsureDir(root); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(root, "upload-*.zip")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	target := dest
	if target == root {
		target = filepath.Join(root, strings.TrimSuffix(filepath.Base(fh.Filename), ".zip"))
	}
	if err := storage.Unzip(tmp.Name(), target); err != nil {
		return "", err
	}
	return filepath.Base(target), nil
}
