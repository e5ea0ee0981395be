package probe

import (
	"time"

	"github.com/joseph-ayodele/doc-readiness/internal/common"
	"github.com/joseph-ayodele/doc-readiness/internal/darkness"
	"github.com/joseph-ayodele/doc-readiness/internal/doctype"
	"github.com/joseph-ayodele/doc-readiness/internal/features"
	"github.com/joseph-ayodele/doc-readiness/internal/quality"
	"github.com/joseph-ayodele/doc-readiness/internal/readiness"
)

// Config assembles every analyzer section plus run limits.
type Config struct {
	Readiness readiness.Config `yaml:"readiness"`
	Darkness  darkness.Config  `yaml:"darkness"`
	Quality   quality.Config   `yaml:"quality"`
	Features  features.Config  `yaml:"features"`
	Model     doctype.Config   `yaml:"model"`
	Run       RunConfig        `yaml:"run"`
}

// RunConfig bounds a probe run. Limits are applied before dispatch.
type RunConfig struct {
	Workers         int           `yaml:"workers"`
	QueueSize       int           `yaml:"queue_size"`
	DocTimeout      time.Duration `yaml:"doc_timeout"`
	MaxDocs         int           `yaml:"max_docs"`
	MaxPages        int           `yaml:"max_pages"`
	Seed            int64         `yaml:"seed"`
	ExtractFeatures bool          `yaml:"extract_features"`
}

func DefaultConfig() Config {
	return Config{
		Readiness: readiness.DefaultConfig(),
		Darkness:  darkness.DefaultConfig(),
		Quality:   quality.DefaultConfig(),
		Features:  features.DefaultConfig(),
		Model:     doctype.DefaultConfig(),
		Run: RunConfig{
			Workers:    4,
			QueueSize:  256,
			DocTimeout: 3 * time.Minute,
			Seed:       42,
		},
	}
}

func (c Config) Validate() error {
	for _, err := range []error{
		c.Readiness.Validate(),
		c.Darkness.Validate(),
		c.Quality.Validate(),
		c.Features.Validate(),
		c.Model.Validate(),
	} {
		if err != nil {
			return err
		}
	}
	v := common.NewValidator()
	v.Field("run.workers", c.Run.Workers, common.Positive)
	v.Field("run.queue_size", c.Run.QueueSize, common.Positive)
	v.Field("run.doc_timeout", int64(c.Run.DocTimeout), common.NonNegative)
	v.Field("run.max_docs", c.Run.MaxDocs, common.NonNegative)
	v.Field("run.max_pages", c.Run.MaxPages, common.NonNegative)
	return v.Error()
}

// ApplyEnv overrides the most frequently tuned settings from DOCREADY_*.
func (c *Config) ApplyEnv() {
	c.Run.Workers = common.GetEnvAsInt("WORKERS", c.Run.Workers)
	c.Run.DocTimeout = common.GetEnvAsDuration("DOC_TIMEOUT", c.Run.DocTimeout)
	c.Run.MaxDocs = common.GetEnvAsInt("MAX_DOCS", c.Run.MaxDocs)
	c.Run.MaxPages = common.GetEnvAsInt("MAX_PAGES", c.Run.MaxPages)
	c.Run.Seed = common.GetEnvAsInt64("RUN_SEED", c.Run.Seed)
	c.Darkness.Skip = common.GetEnvAsBool("SKIP_DARKNESS", c.Darkness.Skip)
	c.Darkness.RenderDPI = common.GetEnvAsInt("DARKNESS_DPI", c.Darkness.RenderDPI)
	c.Quality.DetectLanguage = common.GetEnvAsBool("DETECT_LANGUAGE", c.Quality.DetectLanguage)
	c.Features.PagesSampled = common.GetEnvAsInt("PAGES_SAMPLED", c.Features.PagesSampled)
	c.Features.DPI = common.GetEnvAsInt("FEATURE_DPI", c.Features.DPI)
	c.Features.Seed = common.GetEnvAsInt64("FEATURE_SEED", c.Features.Seed)
	c.Model.UseModel = common.GetEnvAsBool("USE_MODEL", c.Model.UseModel)
	c.Model.ModelRef = common.GetEnv("MODEL_REF", c.Model.ModelRef)
	c.Model.MinModelConfidence = common.GetEnvAsFloat("MIN_MODEL_CONFIDENCE", c.Model.MinModelConfidence)
}

// File is the on-disk layout: ambient sections at the top level and the
// analysis thresholds under "analysis".
type File struct {
	App      common.Config `yaml:",inline"`
	Analysis Config        `yaml:"analysis"`
}

// Load layers defaults, the optional YAML file at path, then environment
// overrides, and validates the result.
func Load(path string) (*common.Config, *Config, error) {
	f := File{App: *common.DefaultConfig(), Analysis: DefaultConfig()}
	if err := common.LoadYAML(path, &f); err != nil {
		return nil, nil, err
	}
	f.App.ApplyEnv()
	f.Analysis.ApplyEnv()
	if err := f.App.Validate(); err != nil {
		return nil, nil, err
	}
	if err := f.Analysis.Validate(); err != nil {
		return nil, nil, err
	}
	return &f.App, &f.Analysis, nil
}
