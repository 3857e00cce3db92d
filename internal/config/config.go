package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime configuration, loaded from environment variables.
// CLI flags in cmd/aurora override individual fields after loading.
type Config struct {
	// Generation engine sidecar
	EngineURL    string `env:"AURORA_ENGINE_URL" envDefault:"http://localhost:8000"`
	EngineAPIKey string `env:"AURORA_ENGINE_API_KEY"`

	// Server
	Port int `env:"AURORA_PORT" envDefault:"8080"`

	// Stream format
	Channels int `env:"AURORA_CHANNELS" envDefault:"2"`

	// Pipeline behavior
	StartingStyle      string        `env:"AURORA_STYLE" envDefault:"lofi hip hop"`
	TransitionDuration time.Duration `env:"AURORA_TRANSITION" envDefault:"8s"`
	FadeDuration       time.Duration `env:"AURORA_CHUNK_FADE" envDefault:"40ms"`
	QueueCapacity      int           `env:"AURORA_QUEUE_CAPACITY" envDefault:"5"`
	EnqueueTimeout     time.Duration `env:"AURORA_ENQUEUE_TIMEOUT" envDefault:"5s"`
	PollInterval       time.Duration `env:"AURORA_POLL_INTERVAL" envDefault:"500ms"`

	// Style request side-channel (empty = disabled)
	StyleFile string `env:"AURORA_STYLE_FILE"`

	// Output: broadcast server is always on; these add extra sinks
	PipePath string `env:"AURORA_PIPE_PATH"` // named pipe, empty = disabled
	Speaker  bool   `env:"AURORA_SPEAKER" envDefault:"false"`

	// Dev synth engine instead of the sidecar
	Synth      bool          `env:"AURORA_SYNTH" envDefault:"false"`
	SynthChunk time.Duration `env:"AURORA_SYNTH_CHUNK" envDefault:"2s"`

	// Auto-DJ
	AutoDJ   bool `env:"AURORA_AUTODJ" envDefault:"true"`
	DwellMin int  `env:"AURORA_DWELL_MIN" envDefault:"300"` // seconds per style, min
	DwellMax int  `env:"AURORA_DWELL_MAX" envDefault:"900"` // seconds per style, max

	// Ollama LLM (optional -- enriches style prompts)
	OllamaURL   string `env:"OLLAMA_URL"`
	OllamaModel string `env:"OLLAMA_MODEL" envDefault:"qwen3:8b"`
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	return env.ParseAs[Config]()
}
