package warmup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/storefront/pkg/catalog"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Catalog is the read side of the cache orchestrator.
type Catalog interface {
	GetAll(ctx context.Context) []catalog.Item
	GetByID(ctx context.Context, id int64) (catalog.Item, bool, error)
}

// Config holds warmer configuration.
type Config struct {
	// MaxConcurrency is the number of parallel item reads
	MaxConcurrency int
	// Timeout per item read
	Timeout time.Duration

	Logger *zerolog.Logger
}

// DefaultConfig returns the default warmer configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 8,
		Timeout:        5 * time.Second,
	}
}

// Result summarizes a warmup run.
type Result struct {
	Listed   int
	Warmed   int
	Missing  int
	Duration time.Duration
}

// Warmer prefetches catalog snapshots.
type Warmer struct {
	catalog Catalog
	config  Config
	logger  zerolog.Logger
}

type itemResult struct {
	id    int64
	found bool
	err   error
}

// New creates a warmer. Panics if c is nil.
func New(c Catalog, config Config) *Warmer {
	if c == nil {
		panic("catalog cannot be nil")
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 8
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}

	logger := log.With().Str("component", "warmup").Logger()
	if config.Logger != nil {
		logger = *config.Logger
	}

	return &Warmer{catalog: c, config: config, logger: logger}
}

// Run warms the listing and every listed item. It returns an error only when
// ctx ends before all items were read; Result then holds partial counts.
func (w *Warmer) Run(ctx context.Context) (Result, error) {
	start := time.Now()

	items := w.catalog.GetAll(ctx)
	result := Result{Listed: len(items)}
	if len(items) == 0 {
		result.Duration = time.Since(start)
		w.logger.Info().Dur("duration", result.Duration).Msg("Warmup complete (empty listing)")
		return result, ctx.Err()
	}

	w.logger.Info().
		Int("items", len(items)).
		Int("workers", w.config.MaxConcurrency).
		Msg("Starting catalog warmup")

	queue := make(chan int64, len(items))
	for _, item := range items {
		queue <- item.ID
	}
	close(queue)

	results := make(chan itemResult, len(items))

	var wg sync.WaitGroup
	workers := min(w.config.MaxConcurrency, len(items))
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go w.worker(ctx, queue, results, &wg, i)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		switch {
		case r.err != nil:
			w.logger.Warn().Err(r.err).Int64("id", r.id).Msg("Item warmup failed")
			result.Missing++
		case !r.found:
			w.logger.Debug().Int64("id", r.id).Msg("Listed item not resolvable")
			result.Missing++
		default:
			result.Warmed++
		}
	}

	result.Duration = time.Since(start)
	itemsWarmedTotal.Add(float64(result.Warmed))
	warmupDuration.Observe(result.Duration.Seconds())

	if err := ctx.Err(); err != nil {
		w.logger.Warn().
			Err(err).
			Int("warmed", result.Warmed).
			Int("listed", result.Listed).
			Msg("Warmup interrupted")
		return result, fmt.Errorf("warmup interrupted (%d/%d items): %w", result.Warmed, result.Listed, err)
	}

	w.logger.Info().
		Int("warmed", result.Warmed).
		Int("missing", result.Missing).
		Dur("duration", result.Duration).
		Msg("Warmup complete")
	return result, nil
}

func (w *Warmer) worker(ctx context.Context, queue <-chan int64, results chan<- itemResult, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	processed := 0

	for id := range queue {
		select {
		case <-ctx.Done():
			w.logger.Debug().
				Int("worker_id", workerID).
				Int("items_processed", processed).
				Msg("Worker stopping (context cancelled)")
			return
		default:
		}

		itemCtx, cancel := context.WithTimeout(ctx, w.config.Timeout)
		_, found, err := w.catalog.GetByID(itemCtx, id)
		cancel()

		results <- itemResult{id: id, found: found, err: err}
		processed++
	}
}
