package main

import (
	"log"
	"net/http"

	"imageproxy/config"
	"imageproxy/imagehost"
	"imageproxy/middleware"
	"imageproxy/providers"
)

func main() {
	config.LoadConfig()

	provider := providers.NewHuggingFaceProvider(config.AppConfig.APIKeys.HuggingFace)

	var uploader *imagehost.NodeImageClient
	if key := config.AppConfig.APIKeys.NodeImage; key != "" {
		uploader = imagehost.NewNodeImageClient(key)
	}

	// CORS sits outermost so preflights short-circuit before the API key
	// gate and error responses still carry the cross-origin headers.
	generate := middleware.CORSMiddleware(middleware.APIKeyAuthMiddleware(handleGenerate(provider, uploader)))
	http.Handle("/api/generate", generate)
	http.HandleFunc("/api/models", handleListModels(provider))

	addr := config.AppConfig.Settings.ListenAddr
	log.Printf("Starting server on %s...", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatalf("Could not start server: %s\n", err)
	}
}
