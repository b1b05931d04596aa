// rules.go: deterministic threshold classifier, usable with zero training data
package classifier

import (
	"github.com/pipewatch/pipewatch-go/internal/conf"
	"github.com/pipewatch/pipewatch-go/internal/datastore"
)

// Prediction is the common output shape of both classifier paths.
// Confidence is nil for the rule-based path: the rules are deterministic and
// define no statistical score, consumers must not assume a numeric confidence
// is always present.
type Prediction struct {
	Label      datastore.RiskLabel
	Confidence *float64
}

// Predictor is the capability both classifier variants implement. The
// variant is selected once at startup and held as a single resolved
// implementation, there is no per-request branching on model presence.
type Predictor interface {
	Name() string
	Predict(features *FeatureVector) (Prediction, error)
}

// RuleBased classifies by fixed depth thresholds and quality grade, combining
// both signals with worse-wins.
type RuleBased struct {
	thresholds conf.RuleThresholds
}

// NewRuleBased builds a rule-based classifier from configured thresholds.
func NewRuleBased(thresholds conf.RuleThresholds) *RuleBased {
	return &RuleBased{thresholds: thresholds}
}

// Name implements Predictor.
func (r *RuleBased) Name() string { return "rule-based" }

// Predict is a total, pure function over the feature vector.
func (r *RuleBased) Predict(features *FeatureVector) (Prediction, error) {
	byDepth := datastore.RiskNormal
	switch {
	case features.Depth >= r.thresholds.DepthHigh:
		byDepth = datastore.RiskHigh
	case features.Depth >= r.thresholds.DepthMedium:
		byDepth = datastore.RiskMedium
	}

	byGrade := datastore.RiskNormal
	switch int(features.GradeOrdinal) {
	case datastore.GradeUnacceptable.Ordinal():
		byGrade = datastore.RiskHigh
	case datastore.GradeRequiresAction.Ordinal():
		byGrade = datastore.RiskMedium
	}

	return Prediction{Label: datastore.MaxSeverity(byDepth, byGrade)}, nil
}
