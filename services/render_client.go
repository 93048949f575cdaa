package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// RenderClient вызывает внешний сервис рендеринга PDF (headless-браузер):
// принимает HTML и опции, возвращает байты документа. Ошибки восходящего
// сервиса передаются вызывающему как есть, автоматических повторов нет.
type RenderClient struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *log.Logger
}

// RenderRequest описывает запрос к сервису рендеринга.
type RenderRequest struct {
	HTML    string                 `json:"html"`
	Options map[string]interface{} `json:"options,omitempty"`
}

// NewRenderClient создает новый клиент сервиса рендеринга
func NewRenderClient(baseURL string, timeout time.Duration, logger *log.Logger) *RenderClient {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RenderClient{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		Logger: logger,
	}
}

// Available сообщает, настроен ли внешний сервис рендеринга.
func (rc *RenderClient) Available() bool {
	return rc.BaseURL != ""
}

// RenderHTML отправляет HTML на рендеринг и возвращает PDF-байты.
func (rc *RenderClient) RenderHTML(ctx context.Context, html string, options map[string]interface{}) ([]byte, error) {
	if !rc.Available() {
		return nil, fmt.Errorf("render service is not configured")
	}

	payload, err := json.Marshal(RenderRequest{HTML: html, Options: options})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize render request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rc.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := rc.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render service request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read render response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		rc.Logger.Printf("❌ Сервис рендеринга вернул %d: %s", resp.StatusCode, string(body))
		return nil, fmt.Errorf("render service returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
