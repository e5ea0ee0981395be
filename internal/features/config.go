package features

import "github.com/joseph-ayodele/doc-readiness/internal/common"

// Sampling is part of a feature vector's identity: the same document
// yields different features under different sampling.
type Sampling struct {
	PagesSampled int   `yaml:"pages_sampled" json:"pages_sampled"`
	DPI          int   `yaml:"dpi" json:"dpi"`
	Seed         int64 `yaml:"seed" json:"seed"`
}

// Config is the feature extraction section.
type Config struct {
	Sampling `yaml:",inline"`
	Workers  int `yaml:"workers"`
}

func DefaultConfig() Config {
	return Config{
		Sampling: Sampling{PagesSampled: 5, DPI: 72, Seed: 42},
		Workers:  4,
	}
}

func (s Sampling) Validate() error {
	v := common.NewValidator()
	v.Field("features.pages_sampled", s.PagesSampled, common.Positive)
	v.Field("features.dpi", s.DPI, common.Positive)
	return v.Error()
}

func (c Config) Validate() error {
	if err := c.Sampling.Validate(); err != nil {
		return err
	}
	v := common.NewValidator()
	v.Field("features.workers", c.Workers, common.Positive)
	return v.Error()
}
