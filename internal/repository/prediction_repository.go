package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/basel-ax/roomdream/internal/domain"
)

// PredictionRepository defines the interface for prompt and prediction data access
type PredictionRepository interface {
	CreatePrompt(ctx context.Context, in domain.PromptInput) (*domain.Prompt, error)
	GetPrompt(ctx context.Context, id string) (*domain.Prompt, error)
	CreatePrediction(ctx context.Context, in domain.PredictionInput) (*domain.PredictionRecord, error)
	ListPredictions(ctx context.Context, userID string) ([]domain.PredictionRecord, error)
}

// PostgresPredictionRepository implements PredictionRepository for PostgreSQL
type PostgresPredictionRepository struct {
	db    *sql.DB
	newID func() string
}

// NewPostgresPredictionRepository creates a new PostgreSQL prediction repository
func NewPostgresPredictionRepository(db *sql.DB) *PostgresPredictionRepository {
	return &PostgresPredictionRepository{db: db, newID: uuid.NewString}
}

// CreatePrompt stores a new generation request
func (r *PostgresPredictionRepository) CreatePrompt(ctx context.Context, in domain.PromptInput) (*domain.Prompt, error) {
	query := `
		INSERT INTO prompts (id, image_key, room, theme, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, image_key, room, theme, user_id, created_at
	`

	var p domain.Prompt
	err := r.db.QueryRowContext(ctx, query, r.newID(), in.ImageKey, in.Room, in.Theme, in.UserID).Scan(
		&p.ID,
		&p.ImageKey,
		&p.Room,
		&p.Theme,
		&p.UserID,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert prompt: %w", err)
	}

	return &p, nil
}

// GetPrompt retrieves a prompt by id
func (r *PostgresPredictionRepository) GetPrompt(ctx context.Context, id string) (*domain.Prompt, error) {
	query := `
		SELECT id, image_key, room, theme, user_id, created_at
		FROM prompts
		WHERE id = $1
	`

	var p domain.Prompt
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.ImageKey,
		&p.Room,
		&p.Theme,
		&p.UserID,
		&p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select prompt: %w", err)
	}

	return &p, nil
}

// CreatePrediction stores a successful generation and returns it joined with its prompt
func (r *PostgresPredictionRepository) CreatePrediction(ctx context.Context, in domain.PredictionInput) (*domain.PredictionRecord, error) {
	query := `
		WITH inserted AS (
			INSERT INTO predictions (id, image_key, prompt_id, predicted_image_url, user_id)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, image_key, prompt_id, predicted_image_url, user_id, created_at
		)
		SELECT i.id, i.image_key, i.prompt_id, i.predicted_image_url, i.user_id, i.created_at, p.room, p.theme
		FROM inserted i
		JOIN prompts p ON p.id = i.prompt_id
	`

	var rec domain.PredictionRecord
	err := r.db.QueryRowContext(ctx, query, r.newID(), in.ImageKey, in.PromptID, in.PredictedImageURL, in.UserID).Scan(
		&rec.ID,
		&rec.ImageKey,
		&rec.PromptID,
		&rec.PredictedImageURL,
		&rec.UserID,
		&rec.CreatedAt,
		&rec.Room,
		&rec.Theme,
	)
	if err != nil {
		return nil, fmt.Errorf("insert prediction: %w", err)
	}

	return &rec, nil
}

// ListPredictions returns predictions joined with their prompt, newest first.
// An empty userID lists every user's predictions.
func (r *PostgresPredictionRepository) ListPredictions(ctx context.Context, userID string) ([]domain.PredictionRecord, error) {
	query := `
		SELECT pr.id, pr.image_key, pr.prompt_id, pr.predicted_image_url, pr.user_id, pr.created_at, p.room, p.theme
		FROM predictions pr
		JOIN prompts p ON p.id = pr.prompt_id
		WHERE ($1 = '' OR pr.user_id = $1)
		ORDER BY pr.created_at DESC, pr.id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("select predictions: %w", err)
	}
	defer rows.Close()

	var records []domain.PredictionRecord
	for rows.Next() {
		var rec domain.PredictionRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.ImageKey,
			&rec.PromptID,
			&rec.PredictedImageURL,
			&rec.UserID,
			&rec.CreatedAt,
			&rec.Room,
			&rec.Theme,
		); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate predictions: %w", err)
	}

	return records, nil
}
