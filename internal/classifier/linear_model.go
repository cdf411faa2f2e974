package classifier

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// LinearModel is a bag-of-words linear classifier deserialized from a
// JSON artifact produced by an external training pipeline. Scoring sums
// per-class token weights plus the class bias and takes the argmax;
// ties resolve to the first class.
type LinearModel struct {
	Classes []string             `json:"classes"`
	Bias    []float64            `json:"bias"`
	Weights map[string][]float64 `json:"weights"`
}

// Load reads a model artifact from disk. Callers decide whether a
// missing artifact is fatal; the app starts without one and reports
// ErrModelUnavailable on use.
func Load(path string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var model LinearModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("model artifact %s: %w", path, err)
	}
	if len(model.Classes) == 0 || len(model.Bias) != len(model.Classes) {
		return nil, fmt.Errorf("model artifact %s: malformed classes/bias sections", path)
	}
	return &model, nil
}

func (m *LinearModel) Predict(text string) (string, error) {
	scores := make([]float64, len(m.Classes))
	copy(scores, m.Bias)
	for _, token := range tokenize(text) {
		weights, ok := m.Weights[token]
		if !ok {
			continue
		}
		for i := range scores {
			if i < len(weights) {
				scores[i] += weights[i]
			}
		}
	}
	best := 0
	for i, score := range scores {
		if score > scores[best] {
			best = i
		}
	}
	return m.Classes[best], nil
}

// PredictBatch classifies every text element-wise, preserving order.
func (m *LinearModel) PredictBatch(texts []string) ([]string, error) {
	labels := make([]string, len(texts))
	for i, text := range texts {
		label, err := m.Predict(text)
		if err != nil {
			return nil, err
		}
		labels[i] = label
	}
	return labels, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
