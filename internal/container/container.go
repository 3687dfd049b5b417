package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/anime-shed/clothing-inspector-go/internal/analyzer"
	"github.com/anime-shed/clothing-inspector-go/internal/captioner"
	"github.com/anime-shed/clothing-inspector-go/internal/config"
	"github.com/anime-shed/clothing-inspector-go/internal/factory"
	"github.com/anime-shed/clothing-inspector-go/internal/observer"
	"github.com/anime-shed/clothing-inspector-go/internal/repository"
	"github.com/anime-shed/clothing-inspector-go/internal/service"
	"github.com/anime-shed/clothing-inspector-go/internal/transport"
	"github.com/anime-shed/clothing-inspector-go/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config          *config.Config
	captioner       captioner.Captioner
	coordinator     *analyzer.Coordinator
	imageRepository repository.ImageRepository
	events          *observer.EventPublisher
	observers       factory.Observers
	analysisService service.ClothingAnalysisService
	handler         http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	components := factory.NewComponentFactory(cfg)

	capt, err := components.CreateCaptioner(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create captioner: %w", err)
	}

	imageRepository, err := components.CreateImageRepository()
	if err != nil {
		return nil, err
	}

	opts := analyzer.DefaultOptions().
		WithSeed(cfg.ColorSeed).
		WithMaxWorkers(cfg.WorkerPoolSize)
	coordinator := analyzer.NewCoordinator(
		nil,
		components.CreateDetector(),
		capt,
		opts,
	)

	observers := components.CreateObservers()
	events := observer.NewEventPublisher()
	for _, obs := range observers.All() {
		events.Subscribe(obs)
	}

	limits := validation.DefaultUploadLimits()
	limits.MaxBytes = cfg.MaxRequestBodySize
	analysisService := service.NewClothingAnalysisService(
		imageRepository,
		coordinator,
		validation.NewUploadValidator(limits),
		events,
		cfg.TargetImageSize,
	)
	handler := transport.NewHandler(analysisService, observers.Metrics, coordinator, cfg)

	return &Container{
		config:          cfg,
		captioner:       capt,
		coordinator:     coordinator,
		imageRepository: imageRepository,
		events:          events,
		observers:       observers,
		analysisService: analysisService,
		handler:         handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close drains pending events and releases the worker pool, the Kafka
// writer and the caption model client
func (c *Container) Close() error {
	c.events.Wait()

	var errs []error
	if err := c.coordinator.Close(); err != nil {
		errs = append(errs, err)
	}
	if c.observers.Kafka != nil {
		if err := c.observers.Kafka.Close(); err != nil {
			errs = append(errs, fmt.Errorf("kafka: %w", err))
		}
	}
	if closer, ok := c.captioner.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("captioner: %w", err))
		}
	}
	return errors.Join(errs...)
}
