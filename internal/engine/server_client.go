package engine

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Glyph/internal/domain"
)

const (
	// RecognizePath — endpoint распознавания на сервере.
	RecognizePath = "/api/v1/ocr"

	// HealthPath — endpoint проверки готовности сервера.
	HealthPath = "/api/v1/health"

	// DefaultHealthTimeout — таймаут health-проверки.
	DefaultHealthTimeout = 2 * time.Second

	maxResponseBody = 64 * 1024 * 1024
)

// recognizeRequest — тело POST /api/v1/ocr.
type recognizeRequest struct {
	Image     string   `json:"image"`
	Languages []string `json:"languages"`
	Detail    int      `json:"detail"`
	GPU       bool     `json:"gpu"`
}

// recognizeResponse — ответ сервера.
type recognizeResponse struct {
	Results          []wireRegion `json:"results"`
	ProcessingTimeMS float64      `json:"processing_time_ms"`
	ModelLoadTimeMS  *float64     `json:"model_load_time_ms"`
}

// ServerClient отправляет изображения на долгоживущий сервер движка.
type ServerClient struct {
	BaseURL string
	HTTP    *http.Client
	Logger  *slog.Logger
}

// NewServerClient создаёт ServerClient.
func NewServerClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *ServerClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ServerClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    httpClient,
		Logger:  logger,
	}
}

// Invoke отправляет изображение на сервер и разбирает ответ.
func (c *ServerClient) Invoke(ctx context.Context, req domain.Request) ([]domain.Region, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	image := req.Image
	if len(image) == 0 {
		data, err := os.ReadFile(req.ImagePath)
		if err != nil {
			return nil, domain.NewValidationError("image", fmt.Sprintf("read %s: %v", req.ImagePath, err))
		}
		image = data
	}

	body, err := json.Marshal(recognizeRequest{
		Image:     base64.StdEncoding.EncodeToString(image),
		Languages: req.Languages,
		Detail:    int(req.Detail),
		GPU:       req.GPU,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	requestID := uuid.NewString()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+RecognizePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, c.BaseURL, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrProtocol, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ExecutionError{
			Strategy:   StrategyServer,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(payload),
		}
	}

	var decoded recognizeResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	if decoded.Results == nil {
		return nil, fmt.Errorf("%w: response has no results", ErrProtocol)
	}

	attrs := []any{
		"request_id", requestID,
		"image", req.Source(),
		"processing_time_ms", decoded.ProcessingTimeMS,
	}
	if decoded.ModelLoadTimeMS != nil {
		attrs = append(attrs, "model_load_time_ms", *decoded.ModelLoadTimeMS)
	}
	c.Logger.Info("engine server timings", attrs...)

	return normalize(decoded.Results, req.Detail)
}

// Health проверяет готовность сервера.
func (c *ServerClient) Health(ctx context.Context) bool {
	return HealthCheck(ctx, c.HTTP, c.BaseURL)
}

// HealthCheck возвращает true, если GET baseURL/api/v1/health ответил 2xx за DefaultHealthTimeout.
// Любая ошибка (отказ соединения, таймаут, иной статус) — false.
func HealthCheck(ctx context.Context, httpClient *http.Client, baseURL string) bool {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultHealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+HealthPath, nil)
	if err != nil {
		return false
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
