package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipewatch/pipewatch-go/internal/conf"
	"github.com/pipewatch/pipewatch-go/internal/datastore"
)

func testClassifierSettings() *conf.ClassifierSettings {
	return &conf.ClassifierSettings{
		Rules: conf.RuleThresholds{DepthMedium: 5.0, DepthHigh: 15.0},
		Normalization: conf.NormalizationBounds{
			TemperatureMin: -40, TemperatureMax: 50,
			HumidityMin: 0, HumidityMax: 100,
		},
		CriticalMethods: []string{"UZK", "RGK", "MFL", "UTWM"},
	}
}

func ptr[T any](v T) *T { return &v }

func defectInspection() *datastore.Inspection {
	grade := datastore.GradeAcceptable
	return &datastore.Inspection{
		DiagID:       1001,
		ObjectID:     1,
		Method:       datastore.MethodVIK,
		DefectFound:  true,
		QualityGrade: &grade,
		DefectDepth:  ptr(4.0),
		DefectLength: ptr(20.0),
		DefectWidth:  ptr(10.0),
		Temperature:  ptr(5.0),
		Humidity:     ptr(75.0),
	}
}

func TestExtract(t *testing.T) {
	extractor := NewExtractor(testClassifierSettings())

	t.Run("full record", func(t *testing.T) {
		features, err := extractor.Extract(defectInspection())
		require.NoError(t, err)

		assert.InDelta(t, 2.0, features.GradeOrdinal, 1e-9)
		assert.InDelta(t, 4.0, features.Depth, 1e-9)
		assert.InDelta(t, 200.0, features.Area, 1e-9)
		assert.InDelta(t, 4.0/200.0, features.DepthAreaRatio, 1e-9)
		assert.InDelta(t, 0.0, features.CriticalMethod, 1e-9)
		assert.InDelta(t, 5.0, features.Temperature, 1e-9)
		assert.InDelta(t, 0.5, features.TemperatureNorm, 1e-9)
		assert.InDelta(t, 0.75, features.HumidityNorm, 1e-9)
	})

	t.Run("missing geometry", func(t *testing.T) {
		inspection := defectInspection()
		inspection.DefectDepth = nil
		inspection.DefectWidth = nil

		_, err := extractor.Extract(inspection)
		var invalid *InvalidInputError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, uint(1001), invalid.DiagID)
		assert.Equal(t, []string{"depth", "width"}, invalid.Missing)
	})

	t.Run("critical method", func(t *testing.T) {
		inspection := defectInspection()
		inspection.Method = datastore.MethodUZK

		features, err := extractor.Extract(inspection)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, features.CriticalMethod, 1e-9)
	})

	t.Run("no grade recorded", func(t *testing.T) {
		inspection := defectInspection()
		inspection.QualityGrade = nil

		features, err := extractor.Extract(inspection)
		require.NoError(t, err)
		assert.InDelta(t, 0.0, features.GradeOrdinal, 1e-9)
	})

	t.Run("zero area", func(t *testing.T) {
		inspection := defectInspection()
		inspection.DefectLength = ptr(0.0)

		features, err := extractor.Extract(inspection)
		require.NoError(t, err)
		assert.InDelta(t, 0.0, features.DepthAreaRatio, 1e-9)
	})
}

func TestNormalize(t *testing.T) {
	t.Run("clamps out of range readings", func(t *testing.T) {
		raw, norm := normalize(ptr(-60.0), -40, 50)
		assert.InDelta(t, -60.0, raw, 1e-9)
		assert.InDelta(t, 0.0, norm, 1e-9)

		raw, norm = normalize(ptr(80.0), -40, 50)
		assert.InDelta(t, 80.0, raw, 1e-9)
		assert.InDelta(t, 1.0, norm, 1e-9)
	})

	t.Run("imputes midpoint for absent reading", func(t *testing.T) {
		raw, norm := normalize(nil, -40, 50)
		assert.InDelta(t, 5.0, raw, 1e-9)
		assert.InDelta(t, 0.5, norm, 1e-9)
	})
}

func TestValuesMatchesFeatureOrder(t *testing.T) {
	features := &FeatureVector{}
	assert.Len(t, features.Values(), len(FeatureOrder))
}
