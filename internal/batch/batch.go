// Package batch provides parallel classification of many leaf photos.
package batch

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/verdantis/leafscan/internal/pipeline"
	"github.com/verdantis/leafscan/internal/preprocess"
)

// ProcessBatch discovers images from the given paths and classifies them
// with a worker pool.
func ProcessBatch(imagePaths []string, config *Config) (*Result, error) {
	files, err := discoverImageFiles(imagePaths, config.Recursive, config.IncludePatterns, config.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover image files: %w", err)
	}

	if len(files) == 0 {
		return nil, errors.New("no image files found")
	}

	pl, err := buildPipeline(config)
	if err != nil {
		return nil, fmt.Errorf("failed to build classification pipeline: %w", err)
	}
	defer func() {
		if err := pl.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing pipeline: %v\n", err)
		}
	}()

	startTime := time.Now()
	results, err := processImagesParallel(pl, files, config.Workers, config.ContinueOnError)
	duration := time.Since(startTime)

	if err != nil {
		return nil, fmt.Errorf("batch processing failed: %w", err)
	}

	return &Result{
		Results:     results,
		ImagePaths:  files,
		Duration:    duration,
		WorkerCount: config.Workers,
	}, nil
}

// buildPipeline assembles a pipeline from batch configuration.
func buildPipeline(config *Config) (*pipeline.Pipeline, error) {
	b := pipeline.NewBuilder().
		WithModelsDir(config.ModelsDir).
		WithServerModel(config.UseServerModel).
		WithThreads(config.NumThreads).
		WithThreshold(config.Threshold).
		WithTopN(config.TopN)
	if config.ModelPath != "" {
		b = b.WithModelPath(config.ModelPath)
	}
	if config.LabelsPath != "" {
		b = b.WithLabelsPath(config.LabelsPath)
	}
	return b.Build()
}

// processImagesParallel classifies images with a bounded worker pool.
// Result order matches the input file order. With ContinueOnError set,
// failed files leave a nil slot instead of aborting the batch.
func processImagesParallel(pl *pipeline.Pipeline, imagePaths []string,
	workers int, continueOnError bool,
) ([]*pipeline.Result, error) {
	if workers <= 0 {
		workers = 1
	}
	if workers > len(imagePaths) {
		workers = len(imagePaths)
	}

	results := make([]*pipeline.Result, len(imagePaths))
	errs := make([]error, len(imagePaths))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i], errs[i] = processSingleImage(pl, imagePaths[i])
			}
		}()
	}

	for i := range imagePaths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for i, err := range errs {
		if err == nil {
			continue
		}
		if !continueOnError {
			return nil, err
		}
		fmt.Fprintf(os.Stderr, "warning: %s: %v\n", imagePaths[i], err)
	}

	return results, nil
}

func processSingleImage(pl *pipeline.Pipeline, imagePath string) (*pipeline.Result, error) {
	img, _, err := preprocess.LoadImage(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", imagePath, err)
	}
	result, err := pl.ClassifyImage(img)
	if err != nil {
		return nil, fmt.Errorf("failed to classify %s: %w", imagePath, err)
	}
	return result, nil
}
