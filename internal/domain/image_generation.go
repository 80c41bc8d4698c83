package domain

import (
	"fmt"
	"strings"
)

const (
	// PositivePrompt is appended by the model to every main prompt.
	PositivePrompt = "best quality, intricate detail, award winning design, daylight, extremely detailed, photo from Pinterest, photo from Houzz, interior, cinematic photo, ultra-detailed, ultra-realistic, award-winning, high definition, hyperealistic, "

	// NegativePrompt lists what the model should steer away from.
	NegativePrompt = "longbody, lens blur, apartment photography, luxury market, photorealistic, 8K, lowres, bad anatomy, bad hands, missing fingers, extra digit, fewer digits, cropped, worst quality, low quality, poorly drawn hands, poorly drawn feet, poorly drawn face, out of frame, extra limbs, disfigured, deformed, body out of frame, bad anatomy, watermark, signature, cut off, low contrast, underexposed, overexposed, bad art, beginner, amateur, distorted face"

	// GamingRoomPrompt replaces the theme template for gaming rooms.
	GamingRoomPrompt = "a room for gaming with gaming computers, gaming consoles, and gaming chairs"
)

// ImageGenerationRequest represents the parameters for one image-to-image generation
type ImageGenerationRequest struct {
	ImageURL       string
	Prompt         string
	PositivePrompt string
	NegativePrompt string
}

// MainPrompt derives the model prompt for a room and theme.
func MainPrompt(room Room, theme Theme) string {
	if room == RoomGamingRoom {
		return GamingRoomPrompt
	}
	return fmt.Sprintf("a %s %s", strings.ToLower(string(theme)), strings.ToLower(string(room)))
}

// BuildGenerationRequest assembles the full request for a source image URL.
func BuildGenerationRequest(imageURL string, room Room, theme Theme) ImageGenerationRequest {
	return ImageGenerationRequest{
		ImageURL:       imageURL,
		Prompt:         MainPrompt(room, theme),
		PositivePrompt: PositivePrompt,
		NegativePrompt: NegativePrompt,
	}
}

// GenerationState is the terminal state of a generation job as seen by the caller.
type GenerationState string

const (
	GenerationSucceeded GenerationState = "succeeded"
	GenerationFailed    GenerationState = "failed"
	GenerationTimedOut  GenerationState = "timed_out"
)

// GenerationResult is the tagged outcome of waiting on a job.
// OutputURL is set only for GenerationSucceeded, Reason only otherwise.
type GenerationResult struct {
	JobID     string
	State     GenerationState
	OutputURL string
	Reason    string
}

// Succeeded reports whether the job produced a usable output.
func (r GenerationResult) Succeeded() bool {
	return r.State == GenerationSucceeded && r.OutputURL != ""
}
