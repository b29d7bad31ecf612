//go:build ignore

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg" // Import for decoding JPEGs
	_ "image/png"  // Import for decoding PNGs
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	_ "golang.org/x/image/webp" // Import for decoding WebP

	"github.com/joho/godotenv"
)

// Manual smoke test against the live Hugging Face Inference API. Sends a
// prompt from the command line and writes the result to out.png.
//
// Usage: go run hf.go "a cat in a spacesuit" [model]

const apiURLFormat = "https://api-inference.huggingface.co/models/%s"
const defaultModel = "stabilityai/stable-diffusion-xl-base-1.0"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, relying on system environment variables.")
	}

	token := os.Getenv("HF_API_TOKEN")
	if token == "" {
		log.Fatal("HF_API_TOKEN is not set")
	}

	if len(os.Args) < 2 {
		fmt.Println("Usage: go run hf.go <prompt> [model]")
		os.Exit(1)
	}
	prompt := os.Args[1]
	model := defaultModel
	if len(os.Args) > 2 {
		model = os.Args[2]
	}

	payload, err := json.Marshal(map[string]string{"inputs": prompt})
	if err != nil {
		log.Fatalf("Failed to marshal payload: %v", err)
	}

	req, err := http.NewRequest("POST", fmt.Sprintf(apiURLFormat, model), bytes.NewBuffer(payload))
	if err != nil {
		log.Fatalf("Failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("Failed to call API: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Failed to read response: %v", err)
	}

	contentType := resp.Header.Get("Content-Type")
	log.Printf("Status: %d, Content-Type: %s, %d bytes", resp.StatusCode, contentType, len(body))

	if strings.Contains(contentType, "application/json") {
		log.Fatalf("API returned an error: %s", string(body))
	}

	// Sanity check that the bytes decode as an image before writing.
	_, format, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		log.Fatalf("Response is not a decodable image: %v", err)
	}
	log.Printf("Decoded image format: %s", format)

	if err := os.WriteFile("out.png", body, 0644); err != nil {
		log.Fatalf("Failed to write out.png: %v", err)
	}
	log.Println("Saved out.png")
}
