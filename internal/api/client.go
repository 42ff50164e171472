package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/Quit123/PCB-Detection/internal/domain/port"
)

// Client — HTTP-клиент стороны детекции для обмена артефактами и
// датасетами между сервисами.
type Client struct {
	BaseURL string
	HTTP    *http.Client

	// Retries — число повторов при временных сбоях загрузки.
	Retries int
	Backoff time.Duration
}

var _ port.Uploader = (*Client)(nil)

// NewClient создаёт клиент для сервиса по базовому адресу.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 5 * time.Minute},
		Retries: 3,
		Backoff: 2 * time.Second,
	}
}

// UploadZip отправляет архив на /upload/ multipart-запросом.
// Временные сбои повторяются с паузой.
func (c *Client) UploadZip(ctx context.Context, zipPath string) error {
	var lastErr error
	for attempt := 0; attempt <= c.Retries; attempt++ {
		if attempt > 0 {
			log.Printf("Retrying upload of %s (attempt %d/%d): %v", filepath.Base(zipPath), attempt, c.Retries, lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.Backoff):
			}
		}
		if lastErr = c.uploadOnce(ctx, zipPath); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("upload %s: %w", filepath.Base(zipPath), lastErr)
}

func (c *Client) uploadOnce(ctx context.Context, zipPath string) error {
	file, err := os.Open(zipPath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(zipPath))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/upload/", &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upload rejected: %s", resp.Status)
	}
	return nil
}

// NotifyTrainingFinished сообщает стороне детекции о готовой модели.
func (c *Client) NotifyTrainingFinished(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/training-finished", nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notify rejected: %s", resp.Status)
	}
	return nil
}
