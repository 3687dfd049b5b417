package observer

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/anime-shed/clothing-inspector-go/internal/logger"
)

// AnalysisEvent represents an analysis event
type AnalysisEvent struct {
	EventType      EventType              `json:"event_type"`
	RequestID      string                 `json:"request_id,omitempty"`
	Timestamp      time.Time              `json:"timestamp"`
	Source         string                 `json:"source,omitempty"`
	ImageURL       string                 `json:"image_url,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	Degraded       bool                   `json:"degraded,omitempty"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of analysis event
type EventType string

const (
	// AnalysisStarted when analysis begins
	AnalysisStarted EventType = "analysis_started"
	// AnalysisCompleted when analysis finishes successfully
	AnalysisCompleted EventType = "analysis_completed"
	// AnalysisFailed when analysis fails
	AnalysisFailed EventType = "analysis_failed"
	// ImageFetched when a remote image is downloaded
	ImageFetched EventType = "image_fetched"
	// ImageFetchFailed when a remote image download fails
	ImageFetchFailed EventType = "image_fetch_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event AnalysisEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event AnalysisEvent)
}

// LoggingObserver logs analysis events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(l *logrus.Logger) *LoggingObserver {
	if l == nil {
		l = logger.Logger
	}
	return &LoggingObserver{logger: l}
}

// OnEvent handles analysis events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	fields := logrus.Fields{
		"event_type":         event.EventType,
		"request_id":         event.RequestID,
		"source":             event.Source,
		"processing_time_ms": event.ProcessingTime.Milliseconds(),
		"success":            event.Success,
	}
	if event.ImageURL != "" {
		fields["image_url"] = event.ImageURL
	}
	if event.Degraded {
		fields["degraded"] = true
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case AnalysisStarted:
		entry.Debug("Clothing analysis started")
	case AnalysisCompleted:
		entry.Info("Clothing analysis completed")
	case AnalysisFailed:
		entry.Error("Clothing analysis failed")
	case ImageFetched:
		entry.Debug("Image fetched successfully")
	case ImageFetchFailed:
		entry.Error("Image fetch failed")
	default:
		entry.Info("Analysis event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// latencyWindow is the number of recent completions kept for percentiles
const latencyWindow = 1000

// Metrics is a snapshot of the metrics observer
type Metrics struct {
	TotalAnalyses      int64   `json:"total_analyses"`
	SuccessfulAnalyses int64   `json:"successful_analyses"`
	FailedAnalyses     int64   `json:"failed_analyses"`
	DegradedAnalyses   int64   `json:"degraded_analyses"`
	ImageFetches       int64   `json:"image_fetches"`
	ImageFetchFailures int64   `json:"image_fetch_failures"`
	AvgProcessingMs    float64 `json:"avg_processing_ms"`
	P95ProcessingMs    float64 `json:"p95_processing_ms"`
}

// MetricsObserver collects metrics from analysis events
type MetricsObserver struct {
	mu      sync.RWMutex
	metrics Metrics
	// ring buffer of recent processing times in milliseconds
	latencies []float64
	next      int
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{latencies: make([]float64, 0, latencyWindow)}
}

// OnEvent handles analysis events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case AnalysisStarted:
		o.metrics.TotalAnalyses++
	case AnalysisCompleted:
		o.metrics.SuccessfulAnalyses++
		if event.Degraded {
			o.metrics.DegradedAnalyses++
		}
		o.record(float64(event.ProcessingTime) / float64(time.Millisecond))
	case AnalysisFailed:
		o.metrics.FailedAnalyses++
	case ImageFetched:
		o.metrics.ImageFetches++
	case ImageFetchFailed:
		o.metrics.ImageFetchFailures++
	}
}

func (o *MetricsObserver) record(ms float64) {
	if len(o.latencies) < latencyWindow {
		o.latencies = append(o.latencies, ms)
		return
	}
	o.latencies[o.next] = ms
	o.next = (o.next + 1) % latencyWindow
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() Metrics {
	o.mu.RLock()
	defer o.mu.RUnlock()

	m := o.metrics
	if len(o.latencies) > 0 {
		sorted := make([]float64, len(o.latencies))
		copy(sorted, o.latencies)
		sort.Float64s(sorted)
		m.AvgProcessingMs = stat.Mean(sorted, nil)
		m.P95ProcessingMs = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	}
	return m
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	pending   sync.WaitGroup
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers delivers event to every observer on its own goroutine.
// The request context is not propagated; delivery outlives the request.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event AnalysisEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	deliveryCtx := context.WithoutCancel(ctx)
	for _, obs := range observers {
		p.pending.Add(1)
		go func() {
			defer p.pending.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.WithField("observer", obs.GetObserverName()).
						WithField("panic", fmt.Sprint(r)).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(deliveryCtx, event)
		}()
	}
}

// Wait blocks until every event delivered so far has been handled
func (p *EventPublisher) Wait() {
	p.pending.Wait()
}
