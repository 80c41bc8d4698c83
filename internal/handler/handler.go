package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/basel-ax/roomdream/internal/domain"
	"github.com/basel-ax/roomdream/internal/middleware"
	"github.com/basel-ax/roomdream/internal/service"
)

// RedesignService is what the handlers need from the service layer.
type RedesignService interface {
	CreateUpload(ctx context.Context, userID string, in service.UploadInput) (domain.UploadTicket, error)
	Generate(ctx context.Context, userID string, in service.GenerateInput) (*domain.PredictionView, error)
	GenerateThemes(ctx context.Context, userID string, in service.GenerateThemesInput) ([]service.ThemeOutcome, error)
	ListPredictions(ctx context.Context, userID string) ([]domain.PredictionListItem, error)
}

type Handler struct {
	service RedesignService
	log     *zap.Logger
}

func NewHandler(service RedesignService, log *zap.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log,
	}
}

type errorBody struct {
	Code    domain.Kind `json:"code"`
	Message string      `json:"message"`
}

type themeResult struct {
	Theme      domain.Theme           `json:"theme"`
	Prediction *domain.PredictionView `json:"prediction,omitempty"`
	Error      *errorBody             `json:"error,omitempty"`
}

// CreateUpload returns a signed URL for a direct browser upload.
func (h *Handler) CreateUpload(c *gin.Context) {
	in := service.UploadInput{ContentType: c.Query("content_type")}
	if raw := c.Query("size"); raw != "" {
		size, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.writeError(c, domain.ValidationError("handler.CreateUpload", "size must be an integer"))
			return
		}
		in.Size = size
	}

	ticket, err := h.service.CreateUpload(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ticket)
}

// CreatePrediction renders one room in one theme.
func (h *Handler) CreatePrediction(c *gin.Context) {
	var in service.GenerateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.writeError(c, domain.ValidationError("handler.CreatePrediction", "invalid request body"))
		return
	}

	view, err := h.service.Generate(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// CreatePredictions renders one room in several themes. Partial success is a 200.
func (h *Handler) CreatePredictions(c *gin.Context) {
	var in service.GenerateThemesInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.writeError(c, domain.ValidationError("handler.CreatePredictions", "invalid request body"))
		return
	}

	outcomes, err := h.service.GenerateThemes(c.Request.Context(), middleware.UserID(c), in)
	if err != nil && len(outcomes) == 0 {
		h.writeError(c, err)
		return
	}

	results := make([]themeResult, 0, len(outcomes))
	var firstErr error
	for _, o := range outcomes {
		r := themeResult{Theme: o.Theme, Prediction: o.Prediction}
		if o.Err != nil {
			if firstErr == nil {
				firstErr = o.Err
			}
			r.Error = &errorBody{Code: domain.KindOf(o.Err), Message: domain.MessageOf(o.Err)}
		}
		results = append(results, r)
	}

	if firstErr != nil && allFailed(results) {
		h.writeError(c, firstErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"predictions": results})
}

// ListPredictions returns the caller's design history.
func (h *Handler) ListPredictions(c *gin.Context) {
	items, err := h.service.ListPredictions(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"predictions": items})
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed", zap.String("path", c.FullPath()), zap.String("kind", string(kind)), zap.Error(err))
	}
	if kind == "" {
		kind = domain.KindStorage
	}

	c.JSON(status, gin.H{"error": errorBody{Code: kind, Message: domain.MessageOf(err)}})
}

func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func allFailed(results []themeResult) bool {
	for _, r := range results {
		if r.Error == nil {
			return false
		}
	}
	return true
}
