package analyzer

// ColorOptions configures the color composition step
type ColorOptions struct {
	// Clustering
	K             int
	MaxIterations int
	Epsilon       float64
	Attempts      int

	// Images wider than this are scaled down before clustering
	MaxSampleWidth int
	// Number of clusters reported as dominant colors
	TopN int
	// Seed for the clustering RNG; 0 seeds from the clock
	Seed int64
}

// AnalysisOptions provides configuration for the analysis pipeline
type AnalysisOptions struct {
	Color ColorOptions

	// Prompt variants sent to the caption generator, one caption each
	Prompts []string

	// Performance options
	MaxWorkers int
}

// DefaultPrompts are the unprompted, style and texture caption requests
var DefaultPrompts = []string{"", "clothing style:", "fabric texture:"}

// DefaultColorOptions returns the standard clustering parameters
func DefaultColorOptions() ColorOptions {
	return ColorOptions{
		K:              5,
		MaxIterations:  20,
		Epsilon:        1.0,
		Attempts:       10,
		MaxSampleWidth: 300,
		TopN:           3,
	}
}

// DefaultOptions returns default analysis options
func DefaultOptions() AnalysisOptions {
	prompts := make([]string, len(DefaultPrompts))
	copy(prompts, DefaultPrompts)
	return AnalysisOptions{
		Color:      DefaultColorOptions(),
		Prompts:    prompts,
		MaxWorkers: 0, // Use default CPU count
	}
}

// WithSeed fixes the clustering seed so repeated runs are reproducible
func (opts AnalysisOptions) WithSeed(seed int64) AnalysisOptions {
	opts.Color.Seed = seed
	return opts
}

// WithMaxWorkers sets the size of the worker pool
func (opts AnalysisOptions) WithMaxWorkers(n int) AnalysisOptions {
	opts.MaxWorkers = n
	return opts
}

// WithColorOptions replaces the clustering parameters
func (opts AnalysisOptions) WithColorOptions(color ColorOptions) AnalysisOptions {
	opts.Color = color
	return opts
}
