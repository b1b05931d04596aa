package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipewatch/pipewatch-go/internal/conf"
	"github.com/pipewatch/pipewatch-go/internal/datastore"
)

func TestRuleBasedPredict(t *testing.T) {
	rules := NewRuleBased(conf.RuleThresholds{DepthMedium: 5.0, DepthHigh: 15.0})

	tests := []struct {
		name  string
		depth float64
		grade datastore.QualityGrade
		want  datastore.RiskLabel
	}{
		{"shallow defect acceptable grade", 2.5, datastore.GradeAcceptable, datastore.RiskNormal},
		{"medium depth", 10.0, datastore.GradeAcceptable, datastore.RiskMedium},
		{"depth at medium threshold", 5.0, datastore.GradeAcceptable, datastore.RiskMedium},
		{"depth at high threshold", 15.0, datastore.GradeAcceptable, datastore.RiskHigh},
		{"deep defect", 30.0, datastore.GradeSatisfactory, datastore.RiskHigh},
		{"shallow but unacceptable grade", 2.5, datastore.GradeUnacceptable, datastore.RiskHigh},
		{"shallow but requires action", 2.5, datastore.GradeRequiresAction, datastore.RiskMedium},
		{"worse signal wins", 10.0, datastore.GradeUnacceptable, datastore.RiskHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			features := &FeatureVector{
				Depth:        tt.depth,
				GradeOrdinal: float64(tt.grade.Ordinal()),
			}

			prediction, err := rules.Predict(features)
			require.NoError(t, err)
			assert.Equal(t, tt.want, prediction.Label)
			assert.Nil(t, prediction.Confidence, "rule-based predictions carry no confidence")
		})
	}
}

func TestRuleBasedNoGrade(t *testing.T) {
	rules := NewRuleBased(conf.RuleThresholds{DepthMedium: 5.0, DepthHigh: 15.0})

	prediction, err := rules.Predict(&FeatureVector{Depth: 1.0})
	require.NoError(t, err)
	assert.Equal(t, datastore.RiskNormal, prediction.Label)
}
