// features.go: derives the fixed feature vector from one inspection record
package classifier

import (
	"fmt"
	"strings"

	"github.com/pipewatch/pipewatch-go/internal/conf"
	"github.com/pipewatch/pipewatch-go/internal/datastore"
	"github.com/pipewatch/pipewatch-go/internal/errors"
)

// FeatureOrder is the canonical feature order. It is a hard compatibility
// contract with learned model artifacts: an artifact trained against a
// different order must be rejected at load time.
var FeatureOrder = []string{
	"grade_ordinal",
	"depth",
	"length",
	"width",
	"area",
	"critical_method",
	"temperature",
	"temperature_norm",
	"humidity",
	"humidity_norm",
	"depth_area_ratio",
}

// FeatureVector is the fixed feature set derived from one defect-bearing
// inspection.
type FeatureVector struct {
	GradeOrdinal    float64 // 1 (best) .. 4 (worst), 0 when no grade recorded
	Depth           float64 // mm
	Length          float64 // mm
	Width           float64 // mm
	Area            float64 // length * width, mm^2
	CriticalMethod  float64 // 1 when the inspection method is in the critical set
	Temperature     float64 // raw reading, imputed to bounds midpoint when absent
	TemperatureNorm float64 // min-max normalized against fixed bounds
	Humidity        float64
	HumidityNorm    float64
	DepthAreaRatio  float64 // 0 when area is 0
}

// Values returns the vector in FeatureOrder.
func (f *FeatureVector) Values() []float64 {
	return []float64{
		f.GradeOrdinal,
		f.Depth,
		f.Length,
		f.Width,
		f.Area,
		f.CriticalMethod,
		f.Temperature,
		f.TemperatureNorm,
		f.Humidity,
		f.HumidityNorm,
		f.DepthAreaRatio,
	}
}

// InvalidInputError reports an inspection that flags a defect but is missing
// the geometry needed to classify it. Classification is skipped for that
// record, callers surface a data-quality warning instead of aborting a batch.
type InvalidInputError struct {
	DiagID  uint
	Missing []string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("inspection %d flags a defect but is missing %s",
		e.DiagID, strings.Join(e.Missing, ", "))
}

// ErrorCategory implements errors.CategorizedError.
func (e *InvalidInputError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryValidation
}

// Extractor derives feature vectors using fixed normalization bounds and a
// configured critical-method set. Bounds are configuration constants, never
// recomputed per batch: the learned model is trained against them.
type Extractor struct {
	bounds   conf.NormalizationBounds
	critical map[datastore.InspectionMethod]bool
}

// NewExtractor builds an extractor from classifier settings.
func NewExtractor(settings *conf.ClassifierSettings) *Extractor {
	critical := make(map[datastore.InspectionMethod]bool, len(settings.CriticalMethods))
	for _, method := range settings.CriticalMethods {
		critical[datastore.InspectionMethod(method)] = true
	}
	return &Extractor{
		bounds:   settings.Normalization,
		critical: critical,
	}
}

// Extract derives the feature vector for a defect-bearing inspection.
// Returns *InvalidInputError when any geometry parameter is missing: a defect
// without geometry cannot be classified.
func (e *Extractor) Extract(inspection *datastore.Inspection) (*FeatureVector, error) {
	var missing []string
	if inspection.DefectDepth == nil {
		missing = append(missing, "depth")
	}
	if inspection.DefectLength == nil {
		missing = append(missing, "length")
	}
	if inspection.DefectWidth == nil {
		missing = append(missing, "width")
	}
	if len(missing) > 0 {
		return nil, &InvalidInputError{DiagID: inspection.DiagID, Missing: missing}
	}

	f := &FeatureVector{
		Depth:  *inspection.DefectDepth,
		Length: *inspection.DefectLength,
		Width:  *inspection.DefectWidth,
	}
	f.Area = f.Length * f.Width
	if f.Area > 0 {
		f.DepthAreaRatio = f.Depth / f.Area
	}

	if inspection.QualityGrade != nil {
		f.GradeOrdinal = float64(inspection.QualityGrade.Ordinal())
	}

	if e.critical[inspection.Method] {
		f.CriticalMethod = 1
	}

	f.Temperature, f.TemperatureNorm = normalize(inspection.Temperature,
		e.bounds.TemperatureMin, e.bounds.TemperatureMax)
	f.Humidity, f.HumidityNorm = normalize(inspection.Humidity,
		e.bounds.HumidityMin, e.bounds.HumidityMax)

	return f, nil
}

// normalize min-max scales a reading against fixed bounds, clamping to [0,1].
// An absent reading is imputed to the bounds midpoint.
func normalize(value *float64, lo, hi float64) (raw, norm float64) {
	if value == nil {
		return (lo + hi) / 2, 0.5
	}
	raw = *value
	norm = (raw - lo) / (hi - lo)
	if norm < 0 {
		norm = 0
	}
	if norm > 1 {
		norm = 1
	}
	return raw, norm
}
