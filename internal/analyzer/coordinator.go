package analyzer

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/anime-shed/clothing-inspector-go/internal/logger"
	"github.com/anime-shed/clothing-inspector-go/pkg/models"
)

// Coordinator runs object detection, color analysis and attribute
// classification side by side and merges their results
type Coordinator struct {
	pool       *WorkerPool
	ownsPool   bool
	detector   ObjectDetector
	colors     *ColorAnalyzer
	attributes *AttributeClassifier
	opts       AnalysisOptions
}

// NewCoordinator creates a coordinator. A nil pool makes the coordinator
// create and own one sized by opts.MaxWorkers.
func NewCoordinator(pool *WorkerPool, detector ObjectDetector, captioner CaptionGenerator, opts AnalysisOptions) *Coordinator {
	owns := false
	if pool == nil {
		pool = NewWorkerPool(opts.MaxWorkers)
		owns = true
	}
	pool.Start()

	return &Coordinator{
		pool:       pool,
		ownsPool:   owns,
		detector:   detector,
		colors:     NewColorAnalyzer(opts.Color),
		attributes: NewAttributeClassifier(captioner, opts.Prompts),
		opts:       opts,
	}
}

// Analyze runs all three sub-pipelines and waits for every one of them.
// A failing sub-pipeline contributes its default result; Analyze never
// fails as a whole.
func (c *Coordinator) Analyze(ctx context.Context, img image.Image) AnalysisResult {
	log := logger.Component("coordinator")
	prompts := len(c.attributes.prompts)

	result := AnalysisResult{
		Detection:  DetectionResult{Status: StatusDegraded, Items: []models.ClothingItem{}},
		Colors:     DefaultColorAnalysis(nil),
		Attributes: DefaultAttributeAnalysis(prompts, nil),
	}

	var wg sync.WaitGroup
	c.run(&wg, "detection", func() {
		result.Detection = c.detect(ctx, img)
	}, func(err error) {
		result.Detection = DetectionResult{Status: StatusDegraded, Items: []models.ClothingItem{}, Err: err}
	})
	c.run(&wg, "color", func() {
		result.Colors = c.colors.Analyze(img)
	}, func(err error) {
		result.Colors = DefaultColorAnalysis(err)
	})
	c.run(&wg, "attributes", func() {
		result.Attributes = c.attributes.Analyze(ctx, img)
	}, func(err error) {
		result.Attributes = DefaultAttributeAnalysis(prompts, err)
	})
	wg.Wait()

	if result.Degraded() {
		log.WithFields(map[string]interface{}{
			"detection":  result.Detection.Status,
			"color":      result.Colors.Status,
			"attributes": result.Attributes.Status,
		}).Warn("Analysis completed with degraded results")
	}
	return result
}

// run executes task on the pool. A panic in task is handed to fallback.
// When the pool no longer accepts work the task runs on the caller.
func (c *Coordinator) run(wg *sync.WaitGroup, name string, task func(), fallback func(error)) {
	wg.Add(1)
	job := func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("%s panicked: %v", name, r)
				logger.Component("coordinator").WithError(err).Warn("Sub-pipeline failed")
				fallback(err)
			}
		}()
		task()
	}
	if !c.pool.Submit(job) {
		job()
	}
}

func (c *Coordinator) detect(ctx context.Context, img image.Image) DetectionResult {
	if c.detector == nil {
		return DetectionResult{Status: StatusDegraded, Items: []models.ClothingItem{}}
	}
	items, err := c.detector.Detect(ctx, img)
	if err != nil {
		logger.Component("coordinator").WithError(err).Warn("Object detection failed")
		return DetectionResult{Status: StatusDegraded, Items: []models.ClothingItem{}, Err: err}
	}
	if items == nil {
		items = []models.ClothingItem{}
	}
	return DetectionResult{Status: StatusOK, Items: items}
}

// Stats reports the worker pool counters
func (c *Coordinator) Stats() PoolStats {
	return c.pool.GetStats()
}

// Close releases the worker pool if the coordinator created it
func (c *Coordinator) Close() error {
	if c.ownsPool {
		c.pool.Close()
	}
	return nil
}
