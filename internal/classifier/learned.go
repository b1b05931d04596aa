// learned.go: learned model artifact loading and prediction
package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"slices"

	"github.com/pipewatch/pipewatch-go/internal/conf"
	"github.com/pipewatch/pipewatch-go/internal/datastore"
	"github.com/pipewatch/pipewatch-go/internal/errors"
)

// boundsTolerance absorbs float formatting noise when comparing artifact
// normalization bounds against the configured ones.
const boundsTolerance = 1e-9

// ModelLoadError reports a learned model artifact that is missing, corrupt,
// or incompatible with the feature contract. It is raised at startup only,
// the process then falls back permanently to the rule-based classifier.
type ModelLoadError struct {
	Path   string
	Reason error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("loading model artifact %s: %v", e.Path, e.Reason)
}

func (e *ModelLoadError) Unwrap() error { return e.Reason }

// ErrorCategory implements errors.CategorizedError.
func (e *ModelLoadError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryModelLoad
}

// modelArtifact is the on-disk shape of a learned model: a multinomial
// logistic regression trained offline. Feature order and normalization
// bounds are a hard compatibility contract with the extractor, a mismatch
// fails loudly at load time instead of silently mis-classifying.
type modelArtifact struct {
	Version       string    `json:"version"`
	Features      []string  `json:"features"`
	Normalization struct {
		TemperatureMin float64 `json:"temperature_min"`
		TemperatureMax float64 `json:"temperature_max"`
		HumidityMin    float64 `json:"humidity_min"`
		HumidityMax    float64 `json:"humidity_max"`
	} `json:"normalization"`
	Classes    []string    `json:"classes"`
	Weights    [][]float64 `json:"weights"` // [class][feature]
	Intercepts []float64   `json:"intercepts"`
}

// Learned wraps a loaded model artifact behind the Predictor capability.
type Learned struct {
	version    string
	classes    []datastore.RiskLabel
	weights    [][]float64
	intercepts []float64
}

// LoadLearned reads and validates a model artifact. Any failure is a
// *ModelLoadError, the caller decides to fall back.
func LoadLearned(path string, bounds *conf.NormalizationBounds) (*Learned, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ModelLoadError{Path: path, Reason: err}
	}

	var artifact modelArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, &ModelLoadError{Path: path, Reason: fmt.Errorf("parsing artifact: %w", err)}
	}

	if err := validateArtifact(&artifact, bounds); err != nil {
		return nil, &ModelLoadError{Path: path, Reason: err}
	}

	learned := &Learned{
		version:    artifact.Version,
		weights:    artifact.Weights,
		intercepts: artifact.Intercepts,
	}
	for _, class := range artifact.Classes {
		learned.classes = append(learned.classes, datastore.RiskLabel(class))
	}
	return learned, nil
}

func validateArtifact(artifact *modelArtifact, bounds *conf.NormalizationBounds) error {
	if !slices.Equal(artifact.Features, FeatureOrder) {
		return fmt.Errorf("feature order mismatch: artifact has %v, extractor produces %v",
			artifact.Features, FeatureOrder)
	}

	n := artifact.Normalization
	if math.Abs(n.TemperatureMin-bounds.TemperatureMin) > boundsTolerance ||
		math.Abs(n.TemperatureMax-bounds.TemperatureMax) > boundsTolerance ||
		math.Abs(n.HumidityMin-bounds.HumidityMin) > boundsTolerance ||
		math.Abs(n.HumidityMax-bounds.HumidityMax) > boundsTolerance {
		return fmt.Errorf("normalization bounds mismatch: artifact trained against temp [%g,%g] humidity [%g,%g], configured temp [%g,%g] humidity [%g,%g]",
			n.TemperatureMin, n.TemperatureMax, n.HumidityMin, n.HumidityMax,
			bounds.TemperatureMin, bounds.TemperatureMax, bounds.HumidityMin, bounds.HumidityMax)
	}

	if len(artifact.Classes) == 0 {
		return fmt.Errorf("artifact declares no classes")
	}
	for _, class := range artifact.Classes {
		label := datastore.RiskLabel(class)
		if label != datastore.RiskNormal && label != datastore.RiskMedium && label != datastore.RiskHigh {
			return fmt.Errorf("artifact declares unknown class %q", class)
		}
	}
	if len(artifact.Weights) != len(artifact.Classes) {
		return fmt.Errorf("artifact has %d weight rows for %d classes",
			len(artifact.Weights), len(artifact.Classes))
	}
	for i, row := range artifact.Weights {
		if len(row) != len(FeatureOrder) {
			return fmt.Errorf("weight row %d has %d entries, expected %d",
				i, len(row), len(FeatureOrder))
		}
	}
	if len(artifact.Intercepts) != len(artifact.Classes) {
		return fmt.Errorf("artifact has %d intercepts for %d classes",
			len(artifact.Intercepts), len(artifact.Classes))
	}
	return nil
}

// Name implements Predictor, identifying the artifact version in logs.
func (l *Learned) Name() string {
	return fmt.Sprintf("learned (%s)", l.version)
}

// Predict scores every class and returns the argmax label with its softmax
// probability as confidence.
func (l *Learned) Predict(features *FeatureVector) (Prediction, error) {
	values := features.Values()

	scores := make([]float64, len(l.classes))
	for i := range l.classes {
		score := l.intercepts[i]
		for j, v := range values {
			score += l.weights[i][j] * v
		}
		scores[i] = score
	}

	probs := softmax(scores)
	best := 0
	for i := range probs {
		if probs[i] > probs[best] {
			best = i
		}
	}

	confidence := probs[best]
	return Prediction{Label: l.classes[best], Confidence: &confidence}, nil
}

// softmax converts raw scores to probabilities, shifted by the max score for
// numerical stability.
func softmax(scores []float64) []float64 {
	maxScore := scores[0]
	for _, s := range scores[1:] {
		if s > maxScore {
			maxScore = s
		}
	}

	probs := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		probs[i] = math.Exp(s - maxScore)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}
