package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode   string `mapstructure:"mode"`
	Dotenv string `mapstructure:"dotenv"`
	Server struct {
		HTTPPort string        `mapstructure:"HTTPPort"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
	Handlers struct {
		Prometheus struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Postgres struct {
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMODE           string `mapstructure:"SSLMODE"`
			MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	Gemini         GeminiConfig         `mapstructure:"gemini"`
	Places         PlacesConfig         `mapstructure:"places"`
	Recommendation RecommendationConfig `mapstructure:"recommendation"`
}

type GeminiConfig struct {
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	TimeoutSec  int     `mapstructure:"timeoutSeconds"`
}

type PlacesConfig struct {
	BaseURL    string `mapstructure:"baseURL"`
	TimeoutSec int    `mapstructure:"timeoutSeconds"`
	CacheTTL   time.Duration `mapstructure:"cacheTTL"`
}

// ScoringWeights are the relative weights of the four candidate scoring
// dimensions. They are normalized before use, so they need not sum to 1.
type ScoringWeights struct {
	Distance float64 `mapstructure:"distance"`
	TagMatch float64 `mapstructure:"tagMatch"`
	Rating   float64 `mapstructure:"rating"`
	Budget   float64 `mapstructure:"budget"`
}

type RecommendationConfig struct {
	Weights              ScoringWeights `mapstructure:"weights"`
	MaxTravelTimeMinutes int            `mapstructure:"maxTravelTimeMinutes"`
	TargetItemCount      int            `mapstructure:"targetItemCount"`
	MaxItineraries       int            `mapstructure:"maxItineraries"`
	ClusterSplitKm       float64        `mapstructure:"clusterSplitKm"`
	GenerationTimeoutSec int            `mapstructure:"generationTimeoutSeconds"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	// Add file-based config paths
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// Try to load file-based config
	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	// Unmarshal the config into the Config struct
	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}
	applyDefaults(&config)
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}

func applyDefaults(cfg *Config) {
	r := &cfg.Recommendation
	w := &r.Weights
	if w.Distance == 0 && w.TagMatch == 0 && w.Rating == 0 && w.Budget == 0 {
		// Default weighting: proximity dominates, then mood fit.
		w.Distance = 0.35
		w.TagMatch = 0.30
		w.Rating = 0.20
		w.Budget = 0.15
	}
	if r.MaxTravelTimeMinutes <= 0 {
		r.MaxTravelTimeMinutes = 90
	}
	if r.TargetItemCount <= 0 {
		r.TargetItemCount = 4
	}
	if r.MaxItineraries <= 0 {
		r.MaxItineraries = 6
	}
	if r.ClusterSplitKm <= 0 {
		r.ClusterSplitKm = 8
	}
	if r.GenerationTimeoutSec <= 0 {
		r.GenerationTimeoutSec = 60
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = "gemini-2.0-flash"
	}
	if cfg.Gemini.TimeoutSec <= 0 {
		cfg.Gemini.TimeoutSec = 30
	}
	if cfg.Places.BaseURL == "" {
		cfg.Places.BaseURL = "https://maps.googleapis.com/maps/api"
	}
	if cfg.Places.TimeoutSec <= 0 {
		cfg.Places.TimeoutSec = 10
	}
	if cfg.Places.CacheTTL <= 0 {
		cfg.Places.CacheTTL = 24 * time.Hour
	}
}
