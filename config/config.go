package config

import (
	"os"

	"github.com/subosito/gotenv"
)

const (
	defaultPort  = "8080"
	defaultModel = "gemini-2.0-flash-001"
)

// Config carries the runtime knobs. Generation parameters and the
// client system prompt are deliberately not here; they are constants.
type Config struct {
	Port  string
	Model string
	Debug bool
}

// Load reads .env if present, then the environment. Missing values
// fall back to defaults; GEMINI_API_KEY is consumed directly by the
// genai SDK and is not captured here.
func Load() Config {
	gotenv.Load()

	return Config{
		Port:  getenv("PORT", defaultPort),
		Model: getenv("GEMINI_MODEL", defaultModel),
		Debug: os.Getenv("DEBUG") == "true",
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
