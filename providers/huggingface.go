package providers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
)

const huggingFaceAPIURLFormat = "https://api-inference.huggingface.co/models/%s"

// genericAPIErrorMessage is used when the upstream error body carries no
// usable error field or cannot be parsed at all.
const genericAPIErrorMessage = "Hugging Face API error"

// HuggingFaceProvider implements the ImageProvider for the Hugging Face
// Inference API.
type HuggingFaceProvider struct {
	APIToken string
	Client   *http.Client
	// BaseURLFormat overrides huggingFaceAPIURLFormat, used by tests.
	BaseURLFormat string
}

var huggingFaceModels = []ModelCapabilities{
	{Name: "stabilityai/stable-diffusion-xl-base-1.0", SupportedParams: []string{"negative_prompt"}},
	{Name: "stabilityai/stable-diffusion-2-1", SupportedParams: []string{"negative_prompt"}},
	{Name: "runwayml/stable-diffusion-v1-5", SupportedParams: []string{"negative_prompt"}},
	{Name: "black-forest-labs/FLUX.1-schnell", SupportedParams: []string{}},
}

// NewHuggingFaceProvider creates a new Hugging Face client.
func NewHuggingFaceProvider(apiToken string) *HuggingFaceProvider {
	return &HuggingFaceProvider{
		APIToken:      apiToken,
		Client:        &http.Client{},
		BaseURLFormat: huggingFaceAPIURLFormat,
	}
}

// GetName returns the name of the provider.
func (p *HuggingFaceProvider) GetName() string {
	return "huggingface"
}

// GetModels returns the list of models and their capabilities for Hugging Face.
func (p *HuggingFaceProvider) GetModels() []ModelCapabilities {
	return huggingFaceModels
}

// huggingFaceAPIPayload matches the structure for the Hugging Face Inference API.
type huggingFaceAPIPayload struct {
	Inputs     string             `json:"inputs"`
	Parameters *huggingFaceParams `json:"parameters,omitempty"`
}

type huggingFaceParams struct {
	NegativePrompt string `json:"negative_prompt,omitempty"`
}

// huggingFaceErrorResponse matches the JSON error body of the Inference API.
// EstimatedTime is only present while the model is cold-loading.
type huggingFaceErrorResponse struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time"`
}

// Generate sends a request to the Hugging Face Inference API. The API answers
// with raw image bytes on success and a JSON body on failure; the two are told
// apart by the Content-Type response header. Upstream-reported failures come
// back as *APIError, anything else as a plain error.
func (p *HuggingFaceProvider) Generate(input GenerationInput) (*GenerationOutput, error) {
	payload := huggingFaceAPIPayload{
		Inputs: input.Prompt,
	}
	if input.NegativePrompt != "" {
		payload.Parameters = &huggingFaceParams{NegativePrompt: input.NegativePrompt}
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("huggingface: failed to marshal payload: %w", err)
	}

	log.Printf("Calling provider '%s' with model '%s'", p.GetName(), input.Model)

	apiURL := fmt.Sprintf(p.BaseURLFormat, input.Model)
	req, err := http.NewRequest("POST", apiURL, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("huggingface: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIToken)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("huggingface: failed to call external API: %w", err)
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	log.Printf("Hugging Face responded with status code: %d, Content-Type: %s", resp.StatusCode, contentType)

	// A JSON body is always an error payload; image data never comes back
	// as application/json.
	if strings.Contains(contentType, "application/json") {
		return nil, p.classifyError(resp.Body)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			Message: fmt.Sprintf("%s (status %d): %s", genericAPIErrorMessage, resp.StatusCode, string(body)),
		}
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("huggingface: failed to read image response body: %w", err)
	}
	if len(imageData) == 0 {
		return nil, ErrNoImageData
	}

	return &GenerationOutput{
		ImageBytes:  imageData,
		ContentType: contentType,
	}, nil
}

// classifyError turns a JSON error body into an *APIError. A body that cannot
// be read or parsed falls back to the generic message; a parse failure is
// never surfaced to the caller.
func (p *HuggingFaceProvider) classifyError(body io.Reader) *APIError {
	raw, err := io.ReadAll(body)
	if err != nil {
		return &APIError{Message: genericAPIErrorMessage}
	}

	var errResp huggingFaceErrorResponse
	if err := json.Unmarshal(raw, &errResp); err != nil {
		log.Printf("Could not parse Hugging Face error body: %v", err)
		return &APIError{Message: genericAPIErrorMessage}
	}

	message := errResp.Error
	if message == "" {
		message = genericAPIErrorMessage
	}

	// estimated_time means the model is cold-loading upstream. Pass the
	// estimate on so the caller can schedule a retry.
	if errResp.EstimatedTime > 0 {
		message = fmt.Sprintf("%s The model is currently loading, estimated wait %.1f seconds. Please retry shortly.",
			message, errResp.EstimatedTime)
	}

	return &APIError{
		Message:       message,
		EstimatedTime: errResp.EstimatedTime,
	}
}
