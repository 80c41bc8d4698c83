package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/basel-ax/roomdream/internal/domain"
	"github.com/basel-ax/roomdream/internal/metrics"
	"github.com/basel-ax/roomdream/internal/repository"
)

// MaxUploadSize is the largest source photo accepted, in bytes.
const MaxUploadSize = 10_000_000

// ObjectStore signs URLs for and writes to the image bucket.
type ObjectStore interface {
	NewKey() string
	UploadURL(ctx context.Context) (domain.UploadTicket, error)
	ReadURL(ctx context.Context, key string) (string, error)
	PutObject(ctx context.Context, key string, body []byte, contentType string) error
}

// GenerateInput is one generation request from the browser.
type GenerateInput struct {
	Key   string `json:"key"`
	Room  string `json:"room"`
	Theme string `json:"theme"`
}

// GenerateThemesInput renders one uploaded photo in several themes.
type GenerateThemesInput struct {
	Key    string   `json:"key"`
	Room   string   `json:"room"`
	Themes []string `json:"themes"`
}

// ThemeOutcome is the result for one theme of a GenerateThemes call.
// Exactly one of Prediction and Err is set.
type ThemeOutcome struct {
	Theme      domain.Theme
	Prediction *domain.PredictionView
	Err        error
}

// UploadInput describes the photo the browser is about to upload.
// Zero values skip the corresponding check.
type UploadInput struct {
	ContentType string
	Size        int64
}

// RedesignService turns uploaded room photos into generated renderings.
type RedesignService struct {
	repo    repository.PredictionRepository
	store   ObjectStore
	gen     *ImageGenerationService
	metrics *metrics.Collector
	log     *zap.Logger
}

// NewRedesignService wires the service to its dependencies.
func NewRedesignService(repo repository.PredictionRepository, store ObjectStore, gen *ImageGenerationService, m *metrics.Collector, log *zap.Logger) *RedesignService {
	return &RedesignService{
		repo:    repo,
		store:   store,
		gen:     gen,
		metrics: m,
		log:     log,
	}
}

// CreateUpload returns a signed URL the browser can PUT the source photo to.
func (s *RedesignService) CreateUpload(ctx context.Context, userID string, in UploadInput) (domain.UploadTicket, error) {
	const op = "service.CreateUpload"

	if userID == "" {
		return domain.UploadTicket{}, domain.UnauthorizedError(op)
	}
	if in.ContentType != "" && !strings.HasPrefix(in.ContentType, "image/") {
		return domain.UploadTicket{}, domain.ValidationError(op, "only image uploads are allowed")
	}
	if in.Size < 0 || in.Size > MaxUploadSize {
		return domain.UploadTicket{}, domain.ValidationError(op, fmt.Sprintf("image must be at most %d bytes", MaxUploadSize))
	}

	ticket, err := s.store.UploadURL(ctx)
	if err != nil {
		s.log.Error("Failed to sign upload URL", zap.String("user_id", userID), zap.Error(err))
		return domain.UploadTicket{}, domain.StorageError(op, err)
	}

	return ticket, nil
}

// Generate renders the uploaded photo at in.Key as in.Room in in.Theme.
//
// The prompt record is written before the model is called and is kept when
// generation fails. A prediction record is written only after the rendering
// has been copied into the bucket.
func (s *RedesignService) Generate(ctx context.Context, userID string, in GenerateInput) (*domain.PredictionView, error) {
	start := time.Now()
	view, err := s.generate(ctx, userID, in)

	outcome := metrics.OutcomeSucceeded
	if err != nil {
		outcome = string(domain.KindOf(err))
	}
	s.metrics.ObserveGeneration(outcome, time.Since(start))

	return view, err
}

func (s *RedesignService) generate(ctx context.Context, userID string, in GenerateInput) (*domain.PredictionView, error) {
	const op = "service.Generate"

	if userID == "" {
		return nil, domain.UnauthorizedError(op)
	}
	room, theme, err := validateGenerateInput(op, in.Key, in.Room, in.Theme)
	if err != nil {
		return nil, err
	}

	log := s.log.With(
		zap.String("user_id", userID),
		zap.String("image_key", in.Key),
		zap.String("room", string(room)),
		zap.String("theme", string(theme)),
	)

	prompt, err := s.repo.CreatePrompt(ctx, domain.PromptInput{
		ImageKey: in.Key,
		Room:     room,
		Theme:    theme,
		UserID:   userID,
	})
	if err != nil {
		log.Error("Failed to create prompt", zap.Error(err))
		return nil, domain.StorageError(op, err)
	}
	log = log.With(zap.String("prompt_id", prompt.ID))

	sourceURL, err := s.store.ReadURL(ctx, in.Key)
	if err != nil {
		log.Error("Failed to sign source image URL", zap.Error(err))
		return nil, domain.StorageError(op, err)
	}

	result, err := s.gen.Generate(ctx, domain.BuildGenerationRequest(sourceURL, room, theme))
	if err != nil {
		log.Error("Generation request failed", zap.Error(err))
		return nil, domain.UpstreamError(op, err)
	}
	if !result.Succeeded() {
		log.Warn("Generation did not succeed",
			zap.String("job_id", result.JobID),
			zap.String("state", string(result.State)),
			zap.String("reason", result.Reason))
		return nil, domain.UpstreamError(op, fmt.Errorf("%s: %s", result.State, result.Reason))
	}

	data, contentType, err := s.gen.Download(ctx, result.OutputURL)
	if err != nil {
		log.Error("Failed to download rendering", zap.String("url", result.OutputURL), zap.Error(err))
		return nil, domain.UpstreamError(op, err)
	}

	key := s.store.NewKey()
	if err := s.store.PutObject(ctx, key, data, contentType); err != nil {
		log.Error("Failed to store rendering", zap.String("output_key", key), zap.Error(err))
		return nil, domain.StorageError(op, err)
	}

	rec, err := s.repo.CreatePrediction(ctx, domain.PredictionInput{
		UserID:            userID,
		ImageKey:          key,
		PromptID:          prompt.ID,
		PredictedImageURL: result.OutputURL,
	})
	if err != nil {
		log.Error("Failed to create prediction", zap.String("output_key", key), zap.Error(err))
		return nil, domain.StorageError(op, err)
	}

	log.Info("Rendering generated",
		zap.String("prediction_id", rec.ID),
		zap.String("job_id", result.JobID),
		zap.String("output_key", key))

	return &domain.PredictionView{
		ID:    rec.ID,
		URL:   result.OutputURL,
		Room:  rec.Room,
		Theme: rec.Theme,
	}, nil
}

// GenerateThemes renders one uploaded photo in each requested theme
// concurrently. Every theme gets its own prompt and prediction; a failing
// theme does not affect the others. Outcomes keep the order of in.Themes and
// the returned error aggregates the failed themes.
func (s *RedesignService) GenerateThemes(ctx context.Context, userID string, in GenerateThemesInput) ([]ThemeOutcome, error) {
	const op = "service.GenerateThemes"

	if userID == "" {
		return nil, domain.UnauthorizedError(op)
	}
	if len(in.Themes) == 0 {
		return nil, domain.ValidationError(op, "at least one theme is required")
	}
	if len(in.Themes) > domain.MaxThemesPerRequest {
		return nil, domain.ValidationError(op, fmt.Sprintf("at most %d themes are allowed", domain.MaxThemesPerRequest))
	}

	themes := make([]domain.Theme, len(in.Themes))
	seen := make(map[domain.Theme]bool, len(in.Themes))
	for i, raw := range in.Themes {
		_, theme, err := validateGenerateInput(op, in.Key, in.Room, raw)
		if err != nil {
			return nil, err
		}
		if seen[theme] {
			return nil, domain.ValidationError(op, fmt.Sprintf("theme %s requested twice", theme))
		}
		seen[theme] = true
		themes[i] = theme
	}

	outcomes := make([]ThemeOutcome, len(themes))
	var wg sync.WaitGroup
	for i, theme := range themes {
		wg.Add(1)
		go func(i int, theme domain.Theme) {
			defer wg.Done()
			view, err := s.Generate(ctx, userID, GenerateInput{Key: in.Key, Room: in.Room, Theme: string(theme)})
			outcomes[i] = ThemeOutcome{Theme: theme, Prediction: view, Err: err}
		}(i, theme)
	}
	wg.Wait()

	var result *multierror.Error
	for _, o := range outcomes {
		if o.Err != nil {
			result = multierror.Append(result, fmt.Errorf("theme %s: %w", o.Theme, o.Err))
		}
	}

	return outcomes, result.ErrorOrNil()
}

// ListPredictions returns the caller's renderings with freshly signed URLs.
func (s *RedesignService) ListPredictions(ctx context.Context, userID string) ([]domain.PredictionListItem, error) {
	const op = "service.ListPredictions"

	if userID == "" {
		return nil, domain.UnauthorizedError(op)
	}

	records, err := s.repo.ListPredictions(ctx, userID)
	if err != nil {
		s.log.Error("Failed to list predictions", zap.String("user_id", userID), zap.Error(err))
		return nil, domain.StorageError(op, err)
	}

	items := make([]domain.PredictionListItem, 0, len(records))
	for _, rec := range records {
		signed, err := s.store.ReadURL(ctx, rec.ImageKey)
		if err != nil {
			s.log.Error("Failed to sign rendering URL",
				zap.String("prediction_id", rec.ID),
				zap.String("image_key", rec.ImageKey),
				zap.Error(err))
			return nil, domain.StorageError(op, err)
		}
		items = append(items, domain.PredictionListItem{
			ID:                rec.ID,
			PredictedImageURL: signed,
			Theme:             rec.Theme,
			Room:              rec.Room,
		})
	}
	s.metrics.IncListings()

	return items, nil
}

func validateGenerateInput(op, key, rawRoom, rawTheme string) (domain.Room, domain.Theme, error) {
	if strings.TrimSpace(key) == "" {
		return "", "", domain.ValidationError(op, "image key is required")
	}
	room, err := domain.ParseRoom(rawRoom)
	if err != nil {
		return "", "", domain.ValidationError(op, err.Error())
	}
	theme, err := domain.ParseTheme(rawTheme)
	if err != nil {
		return "", "", domain.ValidationError(op, err.Error())
	}
	return room, theme, nil
}
