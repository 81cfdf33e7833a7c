package detector

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/f3rmion/posekit/internal/pose"
)

// maxResponseBytes caps how much of an inference response is read.
const maxResponseBytes = 4 << 20

// HTTP posts images to a landmark inference endpoint.
type HTTP struct {
	endpoint      string
	token         string
	minConfidence float64
	httpClient    *http.Client
	logger        *zap.Logger
}

type request struct {
	Image         string  `json:"image"`
	MIME          string  `json:"mime"`
	MinConfidence float64 `json:"min_confidence"`
}

type response struct {
	Landmarks json.RawMessage `json:"landmarks"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewHTTP creates an HTTP detector from cfg.
func NewHTTP(cfg Config, logger *zap.Logger) (*HTTP, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("detector endpoint not set")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultConfig().Timeout
	}

	return &HTTP{
		endpoint:      endpoint,
		token:         strings.TrimSpace(cfg.Token),
		minConfidence: cfg.MinConfidence,
		httpClient:    &http.Client{Timeout: timeout},
		logger:        logger,
	}, nil
}

// Detect sends the image bytes and parses the returned landmarks.
func (c *HTTP) Detect(ctx context.Context, in Input) ([]pose.Landmark, error) {
	if len(in.Data) == 0 {
		return nil, fmt.Errorf("no image data for %s", in.Path)
	}

	body, err := json.Marshal(request{
		Image:         base64.StdEncoding.EncodeToString(in.Data),
		MIME:          in.MIME,
		MinConfidence: c.minConfidence,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug("requesting landmarks",
		zap.String("endpoint", c.endpoint),
		zap.String("request_id", requestID),
		zap.String("image", in.Path))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var apiResp response
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode/100 != 2 {
			return nil, fmt.Errorf("detector returned %s", resp.Status)
		}
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}
	if apiResp.Error != nil {
		return nil, fmt.Errorf("detector error: %s", apiResp.Error.Message)
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("detector returned %s", resp.Status)
	}

	if len(apiResp.Landmarks) == 0 || string(apiResp.Landmarks) == "null" {
		return nil, nil
	}
	return ParseLandmarks(apiResp.Landmarks)
}

// Close releases idle connections.
func (c *HTTP) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
