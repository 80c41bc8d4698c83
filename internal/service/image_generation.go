package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/basel-ax/roomdream/internal/config"
	"github.com/basel-ax/roomdream/internal/domain"
	"github.com/basel-ax/roomdream/internal/infrastructure/replicate"
	"github.com/basel-ax/roomdream/internal/metrics"
	"github.com/basel-ax/roomdream/internal/poll"
)

// Generator is the image model API.
type Generator interface {
	Submit(ctx context.Context, req domain.ImageGenerationRequest) (*replicate.Job, error)
	Get(ctx context.Context, id string) (*replicate.Job, error)
	Download(ctx context.Context, url string) ([]byte, string, error)
}

// ImageGenerationService submits jobs to the model and waits for them to finish
type ImageGenerationService struct {
	client  Generator
	policy  poll.Policy
	metrics *metrics.Collector
	log     *zap.Logger
}

// NewImageGenerationService creates a new image generation service
func NewImageGenerationService(client Generator, cfg config.ReplicateConfig, m *metrics.Collector, log *zap.Logger) *ImageGenerationService {
	return &ImageGenerationService{
		client: client,
		policy: poll.Policy{
			MaxAttempts: cfg.MaxAttempts,
			Interval:    cfg.PollInterval,
		},
		metrics: m,
		log:     log,
	}
}

// GenerateImage submits the generation request
func (s *ImageGenerationService) GenerateImage(ctx context.Context, req domain.ImageGenerationRequest) (*replicate.Job, error) {
	job, err := s.client.Submit(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to generate image: %w", err)
	}

	s.log.Debug("Generation submitted", zap.String("job_id", job.ID), zap.String("status", job.Status))
	return job, nil
}

// WaitForGeneration waits for the job to reach a terminal state. Running out of
// attempts is reported as domain.GenerationTimedOut, not as an error; errors are
// reserved for transport failures and cancellation.
func (s *ImageGenerationService) WaitForGeneration(ctx context.Context, job *replicate.Job) (domain.GenerationResult, error) {
	if job.Terminal() {
		return job.Result(), nil
	}

	attempts := 0
	last, err := poll.Until(ctx, s.policy, func(ctx context.Context, attempt int) (*replicate.Job, bool, error) {
		attempts = attempt
		current, err := s.client.Get(ctx, job.ID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to check generation status: %w", err)
		}
		return current, current.Terminal(), nil
	})
	s.metrics.ObservePollAttempts(attempts)

	switch {
	case errors.Is(err, poll.ErrExhausted):
		status := ""
		if last != nil {
			status = last.Status
		}
		s.log.Warn("Generation did not finish in time",
			zap.String("job_id", job.ID),
			zap.Int("attempts", attempts),
			zap.String("status", status))
		return domain.GenerationResult{
			JobID:  job.ID,
			State:  domain.GenerationTimedOut,
			Reason: "max attempts reached waiting for generation",
		}, nil
	case err != nil:
		return domain.GenerationResult{}, err
	}

	return last.Result(), nil
}

// Generate submits req and waits for its result.
func (s *ImageGenerationService) Generate(ctx context.Context, req domain.ImageGenerationRequest) (domain.GenerationResult, error) {
	job, err := s.GenerateImage(ctx, req)
	if err != nil {
		return domain.GenerationResult{}, err
	}
	return s.WaitForGeneration(ctx, job)
}

// Download fetches the generated image.
func (s *ImageGenerationService) Download(ctx context.Context, url string) ([]byte, string, error) {
	return s.client.Download(ctx, url)
}
