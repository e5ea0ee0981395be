package doctype

import "github.com/joseph-ayodele/doc-readiness/internal/common"

// Config is the model section: training hyperparameters plus the
// inference gate used by the decision resolver.
type Config struct {
	UseModel           bool    `yaml:"use_model"`
	ModelRef           string  `yaml:"model_ref"`
	MinModelConfidence float64 `yaml:"min_model_confidence"`
	EvalSplit          float64 `yaml:"eval_split"`
	MaxIter            int     `yaml:"max_iter"`
	LearningRate       float64 `yaml:"learning_rate"`
	L2                 float64 `yaml:"l2"`
	Tolerance          float64 `yaml:"tolerance"`
	ReasonTopK         int     `yaml:"reason_top_k"`
}

func DefaultConfig() Config {
	return Config{
		UseModel:           true,
		ModelRef:           LatestRef,
		MinModelConfidence: 0.70,
		EvalSplit:          0.2,
		MaxIter:            1000,
		LearningRate:       0.1,
		L2:                 1.0,
		Tolerance:          1e-6,
		ReasonTopK:         5,
	}
}

func (c Config) Validate() error {
	v := common.NewValidator()
	v.Field("model.min_model_confidence", c.MinModelConfidence, common.Ratio)
	v.Check(c.EvalSplit >= 0 && c.EvalSplit < 1, "model.eval_split", c.EvalSplit, "must be in [0, 1)")
	v.Field("model.max_iter", c.MaxIter, common.Positive)
	v.Field("model.learning_rate", c.LearningRate, common.Positive)
	v.Field("model.l2", c.L2, common.NonNegative)
	v.Field("model.tolerance", c.Tolerance, common.NonNegative)
	v.Field("model.reason_top_k", c.ReasonTopK, common.NonNegative)
	return v.Error()
}

// Hyperparams are the training settings recorded in the model card.
type Hyperparams struct {
	Classifier   string  `json:"classifier"`
	ClassWeight  string  `json:"class_weight"`
	MaxIter      int     `json:"max_iter"`
	LearningRate float64 `json:"learning_rate"`
	L2           float64 `json:"l2"`
	Tolerance    float64 `json:"tolerance"`
	Iterations   int     `json:"iterations"`
	EvalSplit    float64 `json:"eval_split"`
}

func (c Config) hyperparams() Hyperparams {
	return Hyperparams{
		Classifier:   "multinomial_logistic_regression",
		ClassWeight:  "balanced",
		MaxIter:      c.MaxIter,
		LearningRate: c.LearningRate,
		L2:           c.L2,
		Tolerance:    c.Tolerance,
		EvalSplit:    c.EvalSplit,
	}
}
