package stability

import (
	"encoding/gob"
	"fmt"
	"os"
)

// The three artifacts are opaque blobs produced by the training pipeline.
// This package only loads and applies them; nothing here trains or tunes.

// Scaler centers and scales raw feature vectors.
type Scaler struct {
	Mean  []float64
	Scale []float64
}

func (s *Scaler) Transform(features []float64) ([]float64, error) {
	if len(features) != len(s.Mean) || len(s.Mean) != len(s.Scale) {
		return nil, fmt.Errorf("scaler expects %d features, got %d", len(s.Mean), len(features))
	}
	out := make([]float64, len(features))
	for i := range features {
		out[i] = (features[i] - s.Mean[i]) / s.Scale[i]
	}
	return out, nil
}

// Model holds the fitted decision function: one weight row and intercept per
// class, prediction is the argmax of the class scores.
type Model struct {
	Weights    [][]float64
	Intercepts []float64
}

func (m *Model) Predict(features []float64) (int, error) {
	if len(m.Weights) == 0 || len(m.Weights) != len(m.Intercepts) {
		return 0, fmt.Errorf("model artifact is malformed")
	}

	best, bestScore := 0, 0.0
	for class, row := range m.Weights {
		if len(row) != len(features) {
			return 0, fmt.Errorf("model expects %d features, got %d", len(row), len(features))
		}
		score := m.Intercepts[class]
		for i, w := range row {
			score += w * features[i]
		}
		if class == 0 || score > bestScore {
			best, bestScore = class, score
		}
	}
	return best, nil
}

// LabelEncoder maps class indices back to their original labels.
type LabelEncoder struct {
	Classes []string
}

func (e *LabelEncoder) InverseTransform(class int) (string, error) {
	if class < 0 || class >= len(e.Classes) {
		return "", fmt.Errorf("class index %d out of range", class)
	}
	return e.Classes[class], nil
}

func loadGob(path string, dst any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open artifact %s: %w", path, err)
	}
	defer f.Close()

	if err := gob.NewDecoder(f).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode artifact %s: %w", path, err)
	}
	return nil
}
