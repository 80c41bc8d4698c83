package domain

import "time"

// Prompt records one generation request. It is created before the model is
// called and is never updated.
type Prompt struct {
	ID        string
	ImageKey  string
	Room      Room
	Theme     Theme
	UserID    string
	CreatedAt time.Time
}

// Prediction records one successful generation.
type Prediction struct {
	ID                string
	ImageKey          string
	PromptID          string
	PredictedImageURL string
	UserID            string
	CreatedAt         time.Time
}

// PredictionRecord is a Prediction joined with the room and theme of its Prompt.
type PredictionRecord struct {
	Prediction
	Room  Room
	Theme Theme
}

// PromptInput holds the fields needed to create a Prompt.
type PromptInput struct {
	ImageKey string
	Room     Room
	Theme    Theme
	UserID   string
}

// PredictionInput holds the fields needed to create a Prediction.
type PredictionInput struct {
	UserID            string
	ImageKey          string
	PromptID          string
	PredictedImageURL string
}

// PredictionView is returned to the caller after a generation.
// URL is the model's own output location, not a signed URL for the stored copy.
type PredictionView struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Room  Room   `json:"room"`
	Theme Theme  `json:"theme"`
}

// PredictionListItem is one entry of a user's design history.
type PredictionListItem struct {
	ID                string `json:"id"`
	PredictedImageURL string `json:"predictedImageUrl"`
	Theme             Theme  `json:"theme"`
	Room              Room   `json:"room"`
}

// UploadTicket tells the browser where to PUT the source photo.
type UploadTicket struct {
	UploadURL string `json:"uploadUrl"`
	Key       string `json:"key"`
}
