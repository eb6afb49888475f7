package ports

import (
	"context"

	"github.com/Wyvern137/hackathon/pkg/domain"
)

// Generator is the text-generation backend behind the generation facade.
//
// A GenerationResult with Success=false is a final, non-error outcome for
// the interaction (fallback exhausted, credentials rejected, quota spent).
// The error return is reserved for caller misuse such as a canceled
// context or an empty prompt.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error)
}

// ImageGenerator submits an image prompt to the provider-specific image
// endpoint family and returns a file reference once the provider reports
// completion.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt, style, aspectRatio string) (string, error)
}
