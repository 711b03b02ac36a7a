package stability

import (
	"errors"
)

// ErrMissingParameters is returned when either input is absent. A zero value
// counts as missing, so a legitimate zero measurement is rejected too; kept
// that way to match the observed form behavior.
var ErrMissingParameters = errors.New("all parameters are required")

// Predictor chains the three loaded artifacts: scale, classify, decode.
type Predictor struct {
	scaler  *Scaler
	model   *Model
	encoder *LabelEncoder
}

func NewPredictor(scaler *Scaler, model *Model, encoder *LabelEncoder) *Predictor {
	return &Predictor{scaler: scaler, model: model, encoder: encoder}
}

// Load reads the three artifact files produced by the training pipeline.
func Load(modelPath, scalerPath, encoderPath string) (*Predictor, error) {
	var scaler Scaler
	if err := loadGob(scalerPath, &scaler); err != nil {
		return nil, err
	}
	var model Model
	if err := loadGob(modelPath, &model); err != nil {
		return nil, err
	}
	var encoder LabelEncoder
	if err := loadGob(encoderPath, &encoder); err != nil {
		return nil, err
	}
	return NewPredictor(&scaler, &model, &encoder), nil
}

// Predict takes the hydraulic radius and stability number and returns the
// predicted status label.
func (p *Predictor) Predict(hr, n float64) (string, error) {
	if hr == 0 || n == 0 {
		return "", ErrMissingParameters
	}

	scaled, err := p.scaler.Transform([]float64{hr, n})
	if err != nil {
		return "", err
	}
	class, err := p.model.Predict(scaled)
	if err != nil {
		return "", err
	}
	return p.encoder.InverseTransform(class)
}
