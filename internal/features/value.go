package features

import (
	"encoding/json"
	"math"
)

// Value is a feature value that may be missing. Missing values are
// excluded from aggregates and imputed by the model, never read as zero.
type Value struct {
	V     float64
	Valid bool
}

// Of wraps x; NaN and infinities become Missing.
func Of(x float64) Value {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return Missing
	}
	return Value{V: x, Valid: true}
}

// Missing is the absent value.
var Missing = Value{}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.V)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = Missing
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*v = Of(f)
	return nil
}

// Float returns the value or NaN when missing.
func (v Value) Float() float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.V
}
