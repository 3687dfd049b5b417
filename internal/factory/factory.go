package factory

import (
	"context"
	"fmt"

	"github.com/anime-shed/clothing-inspector-go/internal/captioner"
	"github.com/anime-shed/clothing-inspector-go/internal/config"
	"github.com/anime-shed/clothing-inspector-go/internal/detector"
	"github.com/anime-shed/clothing-inspector-go/internal/logger"
	"github.com/anime-shed/clothing-inspector-go/internal/observer"
	"github.com/anime-shed/clothing-inspector-go/internal/repository"
	"github.com/anime-shed/clothing-inspector-go/internal/storage"
	"github.com/anime-shed/clothing-inspector-go/pkg/validation"
)

// StorageType represents different types of image sources
type StorageType string

const (
	// HTTPStorage for HTTP-based image fetching
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
)

// CaptionerFactory creates caption generators
type CaptionerFactory interface {
	CreateCaptioner(ctx context.Context, backend string) (captioner.Captioner, error)
}

// StorageFactory creates image sources
type StorageFactory interface {
	CreateFetcher() storage.ImageFetcher
	CreateBlobStorage() (storage.BlobStorage, error)
}

// captionerFactory implements CaptionerFactory
type captionerFactory struct {
	cfg *config.Config
}

// NewCaptionerFactory creates a new captioner factory
func NewCaptionerFactory(cfg *config.Config) CaptionerFactory {
	return &captionerFactory{cfg: cfg}
}

// CreateCaptioner creates a captioner for the named backend
func (f *captionerFactory) CreateCaptioner(ctx context.Context, backend string) (captioner.Captioner, error) {
	switch backend {
	case config.CaptionerOllama:
		c, err := captioner.NewOllamaCaptioner(f.cfg.OllamaURL, f.cfg.OllamaModel)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.CaptionerGemini:
		c, err := captioner.NewGeminiCaptioner(ctx, f.cfg.GeminiAPIKey, f.cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.CaptionerDisabled:
		return captioner.Disabled{}, nil
	default:
		return nil, fmt.Errorf("unsupported captioner backend: %s", backend)
	}
}

// storageFactory implements StorageFactory
type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateFetcher creates the HTTP image fetcher
func (f *storageFactory) CreateFetcher() storage.ImageFetcher {
	return storage.NewHTTPImageFetcher(f.cfg.ImageFetchTimeout, f.cfg.MaxRequestBodySize)
}

// CreateBlobStorage creates the Azure blob source. It returns nil when no
// credentials are configured.
func (f *storageFactory) CreateBlobStorage() (storage.BlobStorage, error) {
	if !f.cfg.AzureEnabled() {
		return nil, nil
	}
	return storage.NewAzureStorage(f.cfg.AzureStorageAccount, f.cfg.AzureStorageKey, f.cfg.MaxRequestBodySize)
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	CaptionerFactory CaptionerFactory
	StorageFactory   StorageFactory
	cfg              *config.Config
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		CaptionerFactory: NewCaptionerFactory(cfg),
		StorageFactory:   NewStorageFactory(cfg),
		cfg:              cfg,
	}
}

// CreateCaptioner creates the configured captioner
func (f *ComponentFactory) CreateCaptioner(ctx context.Context) (captioner.Captioner, error) {
	return f.CaptionerFactory.CreateCaptioner(ctx, f.cfg.CaptionerBackend)
}

// CreateDetector returns the HTTP detector, or a disabled one when no
// endpoint is configured
func (f *ComponentFactory) CreateDetector() detector.Detector {
	if f.cfg.DetectorURL == "" {
		logger.Warn("DETECTOR_URL not set; clothing item detection is disabled")
		return detector.DisabledDetector{}
	}
	return detector.NewHTTPDetector(f.cfg.DetectorURL, f.cfg.DetectorMinConfidence, f.cfg.DetectorTimeout)
}

// CreateImageRepository wires the HTTP fetcher and, when configured, Azure
// blob storage behind one repository
func (f *ComponentFactory) CreateImageRepository() (*repository.RemoteImageRepository, error) {
	blobs, err := f.StorageFactory.CreateBlobStorage()
	if err != nil {
		return nil, fmt.Errorf("failed to create %s storage: %w", AzureStorage, err)
	}
	return repository.NewRemoteImageRepository(f.StorageFactory.CreateFetcher(), blobs, validation.NewURLValidator()), nil
}

// Observers holds the observers subscribed at startup
type Observers struct {
	Logging *observer.LoggingObserver
	Metrics *observer.MetricsObserver
	Kafka   *observer.KafkaObserver // nil unless KAFKA_BROKERS is set
}

// All returns the non-nil observers
func (o Observers) All() []observer.Observer {
	all := []observer.Observer{o.Logging, o.Metrics}
	if o.Kafka != nil {
		all = append(all, o.Kafka)
	}
	return all
}

// CreateObservers creates the logging and metrics observers plus the Kafka
// observer when brokers are configured
func (f *ComponentFactory) CreateObservers() Observers {
	obs := Observers{
		Logging: observer.NewLoggingObserver(logger.Logger),
		Metrics: observer.NewMetricsObserver(),
	}
	if len(f.cfg.KafkaBrokers) > 0 {
		obs.Kafka = observer.NewKafkaObserver(f.cfg.KafkaBrokers, f.cfg.KafkaTopic)
	}
	return obs
}
