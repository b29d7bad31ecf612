package providers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(server *httptest.Server) *HuggingFaceProvider {
	p := NewHuggingFaceProvider("hf_test_token")
	p.BaseURLFormat = server.URL + "/models/%s"
	return p
}

func TestHuggingFaceGenerateBinarySuccess(t *testing.T) {
	imageBytes := []byte{0x89, 'P', 'N', 'G', 0x01, 0x02}
	var gotPath, gotAuth string
	var gotPayload map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotPayload))

		w.Header().Set("Content-Type", "image/png")
		w.Write(imageBytes)
	}))
	defer server.Close()

	p := newTestProvider(server)
	output, err := p.Generate(GenerationInput{
		Prompt:         "a cat in a spacesuit",
		Model:          "stabilityai/stable-diffusion-xl-base-1.0",
		NegativePrompt: "blurry",
	})
	require.NoError(t, err)
	assert.Equal(t, imageBytes, output.ImageBytes)
	assert.Equal(t, "image/png", output.ContentType)

	assert.Equal(t, "/models/stabilityai/stable-diffusion-xl-base-1.0", gotPath)
	assert.Equal(t, "Bearer hf_test_token", gotAuth)
	assert.Equal(t, "a cat in a spacesuit", gotPayload["inputs"])
	params, ok := gotPayload["parameters"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "blurry", params["negative_prompt"])
}

func TestHuggingFaceGenerateOmitsEmptyParameters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &payload))
		_, present := payload["parameters"]
		assert.False(t, present)

		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg-bytes"))
	}))
	defer server.Close()

	p := newTestProvider(server)
	_, err := p.Generate(GenerationInput{Prompt: "a cat", Model: "m"})
	require.NoError(t, err)
}

func TestHuggingFaceGenerateErrorPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Model not found"}`))
	}))
	defer server.Close()

	p := newTestProvider(server)
	_, err := p.Generate(GenerationInput{Prompt: "a cat", Model: "missing/model"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Model not found", apiErr.Message)
	assert.False(t, apiErr.Loading())
}

func TestHuggingFaceGenerateColdLoading(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"Model stabilityai/stable-diffusion-xl-base-1.0 is currently loading","estimated_time":12.34}`))
	}))
	defer server.Close()

	p := newTestProvider(server)
	_, err := p.Generate(GenerationInput{Prompt: "a cat", Model: "m"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.Loading())
	assert.InDelta(t, 12.34, apiErr.EstimatedTime, 0.001)
	assert.Contains(t, apiErr.Message, "loading")
	assert.Contains(t, apiErr.Message, "12.3")
}

func TestHuggingFaceGenerateColdLoadingWithoutErrorField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"estimated_time":3.5}`))
	}))
	defer server.Close()

	p := newTestProvider(server)
	_, err := p.Generate(GenerationInput{Prompt: "a cat", Model: "m"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Contains(t, apiErr.Message, "Hugging Face API error")
	assert.Contains(t, apiErr.Message, "3.5")
	assert.Contains(t, apiErr.Message, "loading")
}

func TestHuggingFaceGenerateUnparsableError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`<html>definitely not json</html>`))
	}))
	defer server.Close()

	p := newTestProvider(server)
	_, err := p.Generate(GenerationInput{Prompt: "a cat", Model: "m"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Hugging Face API error", apiErr.Message)
}

func TestHuggingFaceGenerateNonJSONFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("bad gateway"))
	}))
	defer server.Close()

	p := newTestProvider(server)
	_, err := p.Generate(GenerationInput{Prompt: "a cat", Model: "m"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Contains(t, apiErr.Message, "status 502")
	assert.Contains(t, apiErr.Message, "bad gateway")
}

func TestHuggingFaceGenerateEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
	}))
	defer server.Close()

	p := newTestProvider(server)
	_, err := p.Generate(GenerationInput{Prompt: "a cat", Model: "m"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoImageData))
}

func TestHuggingFaceGenerateTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // force a connection failure

	p := newTestProvider(server)
	_, err := p.Generate(GenerationInput{Prompt: "a cat", Model: "m"})
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr), "transport failures are not upstream API errors")
	assert.Contains(t, err.Error(), "failed to call external API")
}

func TestHuggingFaceModels(t *testing.T) {
	p := NewHuggingFaceProvider("")
	models := p.GetModels()
	require.NotEmpty(t, models)

	names := make([]string, 0, len(models))
	for _, m := range models {
		names = append(names, m.Name)
	}
	assert.Contains(t, names, "stabilityai/stable-diffusion-xl-base-1.0")
}
