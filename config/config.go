package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// DefaultModel is the model used when a request does not name one.
const DefaultModel = "stabilityai/stable-diffusion-xl-base-1.0"

// DefaultNegativePrompt suppresses the usual artifact categories. It is a
// tunable, not a correctness requirement.
const DefaultNegativePrompt = "blurry, distorted, low quality, watermark"

// APIKeys holds the credentials for external services.
type APIKeys struct {
	HuggingFace string `json:"HF_API_TOKEN"`
	NodeImage   string `json:"NODEIMAGE_API_KEY"`
	ImageProxy  string `json:"IMAGEPROXY_API_KEY"`
}

// Generation holds the defaults applied to upstream generation calls.
type Generation struct {
	DefaultModel   string `json:"DEFAULT_MODEL"`
	NegativePrompt string `json:"NEGATIVE_PROMPT"`
}

// Settings holds optional application settings.
type Settings struct {
	AllowedOrigin     string `json:"ALLOWED_ORIGIN"`
	ListenAddr        string `json:"LISTEN_ADDR"`
	SaveLocalCopy     bool   `json:"SAVE_LOCAL_COPY"`
	LocalCopyDir      string `json:"LOCAL_COPY_DIR"`
	LocalCopyFormat   string `json:"LOCAL_COPY_FORMAT"`
	UploadToImageHost bool   `json:"UPLOAD_TO_IMAGE_HOST"`
	MaxImageDimension int    `json:"MAX_IMAGE_DIMENSION"`
}

// Config holds the entire application configuration.
type Config struct {
	APIKeys    APIKeys    `json:"API_KEYS"`
	Generation Generation `json:"GENERATION"`
	Settings   Settings   `json:"SETTINGS"`
}

// AppConfig is the global configuration instance.
var AppConfig *Config

// LoadConfig loads the configuration from defaults, conf.json, .env, and environment variables.
func LoadConfig() {
	// 1. Set default values
	AppConfig = &Config{
		Generation: Generation{
			DefaultModel:   DefaultModel,
			NegativePrompt: DefaultNegativePrompt,
		},
		Settings: Settings{
			AllowedOrigin:   "http://localhost:3000",
			ListenAddr:      ":8080",
			LocalCopyDir:    "images",
			LocalCopyFormat: "png",
		},
	}

	// 2. Load from conf.json
	file, err := os.Open("conf.json")
	if err == nil {
		defer file.Close()
		decoder := json.NewDecoder(file)
		if err := decoder.Decode(AppConfig); err != nil {
			log.Printf("Warning: Could not decode conf.json: %v", err)
		} else {
			log.Println("Loaded configuration from conf.json")
		}
	} else if !os.IsNotExist(err) {
		log.Printf("Warning: Could not open conf.json: %v", err)
	}

	// 3. Load from .env file (will override conf.json)
	godotenv.Load()

	// 4. Load from environment variables (will override everything)
	loadFromEnv()

	log.Println("Configuration loaded successfully.")
}

// loadFromEnv loads configuration from environment variables, overriding existing values.
func loadFromEnv() {
	// API keys. The Hugging Face token value itself is never logged.
	if token := os.Getenv("HF_API_TOKEN"); token != "" {
		AppConfig.APIKeys.HuggingFace = token
	}
	if key := os.Getenv("NODEIMAGE_API_KEY"); key != "" {
		AppConfig.APIKeys.NodeImage = key
	}
	if key := os.Getenv("IMAGEPROXY_API_KEY"); key != "" {
		AppConfig.APIKeys.ImageProxy = key
	}

	// Generation defaults
	if model := os.Getenv("DEFAULT_MODEL"); model != "" {
		AppConfig.Generation.DefaultModel = model
	}
	if neg := os.Getenv("NEGATIVE_PROMPT"); neg != "" {
		AppConfig.Generation.NegativePrompt = neg
	}

	// Settings
	if origin := os.Getenv("ALLOWED_ORIGIN"); origin != "" {
		AppConfig.Settings.AllowedOrigin = origin
	}
	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		AppConfig.Settings.ListenAddr = addr
	}
	if val := os.Getenv("SAVE_LOCAL_COPY"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			AppConfig.Settings.SaveLocalCopy = b
		}
	}
	if dir := os.Getenv("LOCAL_COPY_DIR"); dir != "" {
		AppConfig.Settings.LocalCopyDir = dir
	}
	if format := os.Getenv("LOCAL_COPY_FORMAT"); format != "" {
		AppConfig.Settings.LocalCopyFormat = format
	}
	if val := os.Getenv("UPLOAD_TO_IMAGE_HOST"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			AppConfig.Settings.UploadToImageHost = b
		}
	}
	if val := os.Getenv("MAX_IMAGE_DIMENSION"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			AppConfig.Settings.MaxImageDimension = n
		}
	}
}
