package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/basel-ax/roomdream/internal/config"
	"github.com/basel-ax/roomdream/internal/domain"
	"github.com/basel-ax/roomdream/internal/infrastructure/replicate"
	"github.com/basel-ax/roomdream/internal/metrics"
)

type fakeRepo struct {
	mu          sync.Mutex
	seq         int
	prompts     map[string]domain.Prompt
	predictions []domain.PredictionRecord
	err         error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{prompts: map[string]domain.Prompt{}}
}

func (r *fakeRepo) CreatePrompt(ctx context.Context, in domain.PromptInput) (*domain.Prompt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.seq++
	p := domain.Prompt{
		ID:        fmt.Sprintf("prompt-%d", r.seq),
		ImageKey:  in.ImageKey,
		Room:      in.Room,
		Theme:     in.Theme,
		UserID:    in.UserID,
		CreatedAt: time.Now(),
	}
	r.prompts[p.ID] = p
	return &p, nil
}

func (r *fakeRepo) GetPrompt(ctx context.Context, id string) (*domain.Prompt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prompts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *fakeRepo) CreatePrediction(ctx context.Context, in domain.PredictionInput) (*domain.PredictionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prompts[in.PromptID]
	if !ok {
		return nil, errors.New("foreign key violation")
	}
	r.seq++
	rec := domain.PredictionRecord{
		Prediction: domain.Prediction{
			ID:                fmt.Sprintf("prediction-%d", r.seq),
			ImageKey:          in.ImageKey,
			PromptID:          in.PromptID,
			PredictedImageURL: in.PredictedImageURL,
			UserID:            in.UserID,
			CreatedAt:         time.Now(),
		},
		Room:  p.Room,
		Theme: p.Theme,
	}
	r.predictions = append(r.predictions, rec)
	return &rec, nil
}

func (r *fakeRepo) ListPredictions(ctx context.Context, userID string) ([]domain.PredictionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []domain.PredictionRecord
	for _, rec := range r.predictions {
		if userID == "" || rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeRepo) promptCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.prompts)
}

func (r *fakeRepo) predictionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.predictions)
}

func (r *fakeRepo) allPrompts() []domain.Prompt {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Prompt, 0, len(r.prompts))
	for _, p := range r.prompts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// fakeStore signs URLs with a counter so every call yields a new URL,
// the way time-stamped presigned URLs do.
type fakeStore struct {
	mu         sync.Mutex
	keys       int
	signs      int
	objects    map[string][]byte
	uploadErr  error
	readErr    error
	putErr     error
	putCalls   int
	uploadCall int
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (s *fakeStore) NewKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys++
	return fmt.Sprintf("key-%d", s.keys)
}

func (s *fakeStore) UploadURL(ctx context.Context) (domain.UploadTicket, error) {
	s.mu.Lock()
	s.uploadCall++
	err := s.uploadErr
	s.mu.Unlock()
	if err != nil {
		return domain.UploadTicket{}, err
	}
	key := s.NewKey()
	return domain.UploadTicket{UploadURL: "https://s3.test/put/" + key, Key: key}, nil
}

func (s *fakeStore) ReadURL(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return "", s.readErr
	}
	s.signs++
	return fmt.Sprintf("https://s3.test/get/%s?sig=%d", key, s.signs), nil
}

func (s *fakeStore) PutObject(ctx context.Context, key string, body []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putCalls++
	if s.putErr != nil {
		return s.putErr
	}
	s.objects[key] = body
	return nil
}

func (s *fakeStore) objectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// fakeGenerator plays back a scripted sequence of job states per submission.
// Submit returns the first state, each Get the next one; the last state repeats.
type fakeGenerator struct {
	mu          sync.Mutex
	n           int
	script      func(req domain.ImageGenerationRequest) []replicate.Job
	jobs        map[string][]replicate.Job
	requests    []domain.ImageGenerationRequest
	submitErr   error
	getErr      error
	downloadErr error
	gets        int
}

func newFakeGenerator(script func(req domain.ImageGenerationRequest) []replicate.Job) *fakeGenerator {
	return &fakeGenerator{script: script, jobs: map[string][]replicate.Job{}}
}

func (g *fakeGenerator) Submit(ctx context.Context, req domain.ImageGenerationRequest) (*replicate.Job, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.submitErr != nil {
		return nil, g.submitErr
	}
	g.n++
	id := fmt.Sprintf("job-%d", g.n)
	seq := g.script(req)
	for i := range seq {
		seq[i].ID = id
	}
	g.jobs[id] = seq[1:]
	first := seq[0]
	return &first, nil
}

func (g *fakeGenerator) Get(ctx context.Context, id string) (*replicate.Job, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gets++
	if g.getErr != nil {
		return nil, g.getErr
	}
	seq := g.jobs[id]
	job := seq[0]
	if len(seq) > 1 {
		g.jobs[id] = seq[1:]
	}
	return &job, nil
}

func (g *fakeGenerator) Download(ctx context.Context, url string) ([]byte, string, error) {
	if g.downloadErr != nil {
		return nil, "", g.downloadErr
	}
	return []byte("image:" + url), "image/png", nil
}

func (g *fakeGenerator) getCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gets
}

func outputJSON(url string) json.RawMessage {
	b, _ := json.Marshal(url)
	return b
}

func succeeds(url string) func(domain.ImageGenerationRequest) []replicate.Job {
	return func(domain.ImageGenerationRequest) []replicate.Job {
		return []replicate.Job{
			{Status: replicate.StatusStarting},
			{Status: replicate.StatusProcessing},
			{Status: replicate.StatusSucceeded, Output: outputJSON(url)},
		}
	}
}

func fails() func(domain.ImageGenerationRequest) []replicate.Job {
	return func(domain.ImageGenerationRequest) []replicate.Job {
		return []replicate.Job{
			{Status: replicate.StatusStarting},
			{Status: replicate.StatusFailed, Error: json.RawMessage(`"CUDA out of memory"`)},
		}
	}
}

func neverFinishes() func(domain.ImageGenerationRequest) []replicate.Job {
	return func(domain.ImageGenerationRequest) []replicate.Job {
		return []replicate.Job{{Status: replicate.StatusStarting}, {Status: replicate.StatusProcessing}}
	}
}

type fixture struct {
	svc     *RedesignService
	repo    *fakeRepo
	store   *fakeStore
	gen     *fakeGenerator
	metrics *metrics.Collector
}

func newFixture(t *testing.T, gen *fakeGenerator) *fixture {
	t.Helper()
	return newFixtureWithLogger(t, gen, zaptest.NewLogger(t))
}

func newFixtureWithLogger(t *testing.T, gen *fakeGenerator, log *zap.Logger) *fixture {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	repo := newFakeRepo()
	store := newFakeStore()
	genSvc := NewImageGenerationService(gen, config.ReplicateConfig{
		MaxAttempts:  3,
		PollInterval: time.Millisecond,
	}, m, log)

	return &fixture{
		svc:     NewRedesignService(repo, store, genSvc, m, log),
		repo:    repo,
		store:   store,
		gen:     gen,
		metrics: m,
	}
}
