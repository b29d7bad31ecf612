package providers

import "fmt"

// ModelCapabilities defines the specific capabilities of an AI model.
type ModelCapabilities struct {
	Name            string   `json:"name"`
	SupportedParams []string `json:"supported_params"`
}

// GenerationInput defines the standardized input for all AI providers.
type GenerationInput struct {
	Prompt         string
	Model          string // The effective model name, e.g., "stabilityai/stable-diffusion-xl-base-1.0"
	NegativePrompt string
}

// GenerationOutput defines the standardized output from all AI providers.
type GenerationOutput struct {
	ImageBytes  []byte // The generated image bytes
	ContentType string // The content type reported for the image, e.g., "image/png"
}

// ImageProvider is the interface that all AI providers must implement.
type ImageProvider interface {
	// Generate an image based on the provided input.
	Generate(input GenerationInput) (*GenerationOutput, error)
	// GetName returns the name of the provider (e.g., "huggingface").
	GetName() string
	// GetModels returns a list of models supported by the provider and their capabilities.
	GetModels() []ModelCapabilities
}

// APIError is an error reported by the upstream API in a JSON body, as opposed
// to a transport or encoding failure.
type APIError struct {
	Message string
	// EstimatedTime is the upstream cold-loading estimate in seconds,
	// zero when the response carried none.
	EstimatedTime float64
}

// Error returns the upstream error message.
func (e *APIError) Error() string {
	return e.Message
}

// Loading reports whether the error indicates the model is still cold-loading.
func (e *APIError) Loading() bool {
	return e.EstimatedTime > 0
}

var _ error = (*APIError)(nil)

// ErrNoImageData is returned when the upstream response carried no usable payload.
var ErrNoImageData = fmt.Errorf("upstream returned no image data")
