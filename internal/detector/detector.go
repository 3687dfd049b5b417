// Package detector adapts garment detection services to the analyzer's
// ObjectDetector contract.
package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/anime-shed/clothing-inspector-go/internal/imaging"
	"github.com/anime-shed/clothing-inspector-go/internal/logger"
	"github.com/anime-shed/clothing-inspector-go/pkg/models"
)

// DefaultMinConfidence is the score below which detections are dropped
const DefaultMinConfidence = 0.4

// ErrDisabled is returned by a detector that has no backing service
var ErrDisabled = errors.New("object detection is not configured")

// Detector finds clothing items in an image
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]models.ClothingItem, error)
}

// DisabledDetector always fails, which the coordinator turns into an
// empty item list
type DisabledDetector struct{}

// Detect implements Detector
func (DisabledDetector) Detect(context.Context, image.Image) ([]models.ClothingItem, error) {
	return nil, ErrDisabled
}

// HTTPDetector posts the image to a detection service. The service answers
// with either {"items": [...]} or a bare JSON array of items.
type HTTPDetector struct {
	endpoint      string
	minConfidence float64
	client        *http.Client
}

// NewHTTPDetector creates a detector for the service at endpoint
func NewHTTPDetector(endpoint string, minConfidence float64, timeout time.Duration) *HTTPDetector {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPDetector{
		endpoint:      endpoint,
		minConfidence: minConfidence,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:          10,
				MaxIdleConnsPerHost:   4,
				IdleConnTimeout:       90 * time.Second,
				ResponseHeaderTimeout: timeout,
			},
		},
	}
}

type rawDetection struct {
	ItemType    string    `json:"item_type"`
	Label       string    `json:"label"`
	Confidence  float64   `json:"confidence"`
	BoundingBox []float64 `json:"bounding_box"`
}

type detectionEnvelope struct {
	Items []rawDetection `json:"items"`
}

// Detect implements Detector
func (d *HTTPDetector) Detect(ctx context.Context, img image.Image) ([]models.ClothingItem, error) {
	payload, err := imaging.EncodePNG(img)
	if err != nil {
		return nil, err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "image.png")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(payload); err != nil {
		return nil, fmt.Errorf("failed to write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("invalid detector URL: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detector request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read detector response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detector returned status code %d", resp.StatusCode)
	}

	detections, err := parseDetections(raw)
	if err != nil {
		return nil, err
	}
	items, err := d.filter(detections)
	if err != nil {
		return nil, err
	}

	logger.Component("detector").WithFields(map[string]interface{}{
		"items":              len(items),
		"raw_items":          len(detections),
		"processing_time_ms": time.Since(start).Milliseconds(),
	}).Debug("Detection completed")
	return items, nil
}

func parseDetections(raw []byte) ([]rawDetection, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("empty detector response")
	}

	if trimmed[0] == '[' {
		var list []rawDetection
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("malformed detector response: %w", err)
		}
		return list, nil
	}

	var env detectionEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("malformed detector response: %w", err)
	}
	return env.Items, nil
}

func (d *HTTPDetector) filter(detections []rawDetection) ([]models.ClothingItem, error) {
	items := make([]models.ClothingItem, 0, len(detections))
	for i, det := range detections {
		if det.Confidence < d.minConfidence {
			continue
		}
		name := det.ItemType
		if name == "" {
			name = det.Label
		}
		if name == "" {
			return nil, fmt.Errorf("detection %d has no item type", i)
		}
		if len(det.BoundingBox) != 4 {
			return nil, fmt.Errorf("detection %d has %d bounding box values, expected 4", i, len(det.BoundingBox))
		}

		var box [4]int
		for j, v := range det.BoundingBox {
			box[j] = int(math.Round(v))
		}
		items = append(items, models.ClothingItem{
			ItemType:    name,
			Confidence:  math.Round(det.Confidence*1000) / 1000,
			BoundingBox: box,
		})
	}
	return items, nil
}
