// Package classifier wraps the pre-trained requirement classification
// model behind a narrow interface so the backend stays swappable
// without touching request handling.
package classifier

import "errors"

var ErrModelUnavailable = errors.New("classification model is not loaded")

// Classifier assigns a label to free-text requirements. Implementations
// delegate entirely to a pre-trained model; no retries, no fallback.
type Classifier interface {
	Predict(text string) (string, error)
	PredictBatch(texts []string) ([]string, error)
}

// Unavailable is the stand-in used when no model artifact was found at
// startup. Every call reports ErrModelUnavailable.
type Unavailable struct{}

func (Unavailable) Predict(string) (string, error) {
	return "", ErrModelUnavailable
}

func (Unavailable) PredictBatch([]string) ([]string, error) {
	return nil, ErrModelUnavailable
}
