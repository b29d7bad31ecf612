package main

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"imageproxy/config"
	"imageproxy/imagehost"
	"imageproxy/imageproc"
	"imageproxy/providers"
)

// generateRequest matches the JSON body sent by the frontend.
type generateRequest struct {
	Prompt  string `json:"prompt"`
	ModelID string `json:"modelId"`
}

// generateResponse is the success body. ImageURL is only set when the image
// host upload is enabled and succeeded.
type generateResponse struct {
	ImageData string `json:"imageData"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

// errorResponse is the failure body. PromptUsed echoes the original prompt so
// the frontend can show which request failed.
type errorResponse struct {
	Error      string `json:"error"`
	PromptUsed string `json:"promptUsed,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response body: %v", err)
	}
}

// handleGenerate returns the handler for POST /api/generate. It validates the
// request, forwards the prompt to the provider, and relays the generated
// image back as base64. Every failure is converted to a JSON error response;
// nothing is retried and no error escapes the handler.
func handleGenerate(provider providers.ImageProvider, uploader *imagehost.NodeImageClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Println("Received a new request for /api/generate")
		if r.Method != http.MethodPost {
			log.Printf("Invalid method: %s", r.Method)
			writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method Not Allowed"})
			return
		}

		// The upstream credential is checked before anything else touches
		// the network. The fixed message never reveals more than absence.
		if config.AppConfig.APIKeys.HuggingFace == "" {
			log.Println("Error: HF_API_TOKEN is not set.")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Server configuration error. API token missing."})
			return
		}

		var payload generateRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			log.Printf("Error decoding request body: %v", err)
		}
		if payload.Prompt == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Prompt is required"})
			return
		}

		model := payload.ModelID
		if model == "" {
			model = config.AppConfig.Generation.DefaultModel
		}

		output, err := provider.Generate(providers.GenerationInput{
			Prompt:         payload.Prompt,
			Model:          model,
			NegativePrompt: config.AppConfig.Generation.NegativePrompt,
		})
		if err != nil {
			writeGenerationError(w, payload.Prompt, err)
			return
		}

		imageBytes := output.ImageBytes

		if maxDim := config.AppConfig.Settings.MaxImageDimension; maxDim > 0 {
			scaled, err := imageproc.Downscale(imageBytes, maxDim)
			if err != nil {
				// Best effort: relay the original bytes when the image
				// cannot be decoded.
				log.Printf("Could not downscale generated image: %v", err)
			} else {
				imageBytes = scaled
			}
		}

		if settings := config.AppConfig.Settings; settings.SaveLocalCopy {
			path, err := imageproc.SaveLocalCopy(settings.LocalCopyDir, imageBytes, settings.LocalCopyFormat)
			if err != nil {
				log.Printf("Error saving local copy: %v", err)
			} else {
				log.Printf("Image saved to %s", path)
			}
		}

		resp := generateResponse{ImageData: base64.StdEncoding.EncodeToString(imageBytes)}

		if config.AppConfig.Settings.UploadToImageHost && uploader != nil {
			filename := time.Now().Format("20060102150405000") + ".png"
			upload, err := uploader.UploadImage(imageBytes, filename)
			if err != nil {
				log.Printf("Image host upload failed: %v", err)
			} else {
				resp.ImageURL = upload.Links.Direct
			}
		}

		writeJSON(w, http.StatusOK, resp)
		log.Println("Successfully returned generated image to client.")
	}
}

// writeGenerationError maps an upstream failure to a status code and a JSON
// body. Upstream-reported errors whose message mentions loading mean the
// model is still warming up and a retry is appropriate, so they get 503;
// everything else is 500.
func writeGenerationError(w http.ResponseWriter, prompt string, err error) {
	var apiErr *providers.APIError
	if errors.As(err, &apiErr) {
		status := http.StatusInternalServerError
		if strings.Contains(apiErr.Message, "loading") {
			status = http.StatusServiceUnavailable
		}
		log.Printf("Upstream API error (status %d): %s", status, apiErr.Message)
		writeJSON(w, status, errorResponse{Error: apiErr.Message, PromptUsed: prompt})
		return
	}

	message := err.Error()
	if message == "" {
		message = "Unknown error"
	}
	log.Printf("Generation failed: %s", message)
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error:      "Failed to generate image: " + message,
		PromptUsed: prompt,
	})
}

// handleListModels returns the models the configured provider can serve.
func handleListModels(provider providers.ImageProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method Not Allowed"})
			return
		}
		writeJSON(w, http.StatusOK, provider.GetModels())
	}
}
