package forecast

import (
	"fmt"

	"MarketForecast/internal/dataset"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Config parameterizes one forecast run. Zero fields take their defaults.
type Config struct {
	SeqLength     int     `yaml:"seq_length" default:"60" validate:"gte=1"`
	TrainSplit    float64 `yaml:"train_split" default:"0.8" validate:"gt=0,lt=1"`
	Epochs        int     `yaml:"epochs" default:"15" validate:"gte=1"`
	FutureHorizon int     `yaml:"future_horizon" default:"10" validate:"gte=1"`
	HiddenSize    int     `yaml:"hidden_size" default:"50" validate:"gte=1"`
	LearningRate  float64 `yaml:"learning_rate" default:"0.001" validate:"gt=0"`
	MAWindows     []int   `yaml:"ma_windows" default:"[15,30,60,180]" validate:"min=1,dive,gte=1"`
	ExtremaOrder  int     `yaml:"extrema_order" default:"10" validate:"gte=1"`
	ScalerFit     string  `yaml:"scaler_fit" default:"full" validate:"oneof=full train"`
	Seed          int64   `yaml:"seed"`
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	var c Config
	_ = defaults.Set(&c)
	return c
}

// Normalize fills defaults and validates the result.
func (c *Config) Normalize() error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("forecast config defaults: %w", err)
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("forecast config: %w", err)
	}
	return nil
}

func (c *Config) scalerFit() dataset.ScalerFit {
	return dataset.ScalerFit(c.ScalerFit)
}
