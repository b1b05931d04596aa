// Package importer ingests objects and inspection batches from CSV files.
//
// One bad row never aborts a batch: errors and warnings accumulate per row
// and the caller gets a full summary.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/pipewatch/pipewatch-go/internal/classifier"
	"github.com/pipewatch/pipewatch-go/internal/datastore"
	"github.com/pipewatch/pipewatch-go/internal/errors"
	"github.com/pipewatch/pipewatch-go/internal/logging"
)

// Result summarizes one import run.
type Result struct {
	Success      bool     `json:"success"`
	TotalRows    int      `json:"total_rows"`
	ImportedRows int      `json:"imported_rows"`
	Errors       []string `json:"errors"`
	Warnings     []string `json:"warnings"`
}

// Importer reads CSV batches into the datastore, classifying defect-bearing
// inspections on the way in.
type Importer struct {
	ds         datastore.Interface
	classifier *classifier.Service
	log        *slog.Logger
}

// New wires an importer.
func New(ds datastore.Interface, classifierService *classifier.Service) *Importer {
	log := logging.ForService("importer")
	if log == nil {
		log = slog.Default()
	}
	return &Importer{ds: ds, classifier: classifierService, log: log}
}

// Import reads a CSV stream, determines the file kind from its header and
// dispatches to the matching row loader.
func (im *Importer) Import(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.New(fmt.Errorf("reading CSV header: %w", err)).
			Component("importer").
			Category(errors.CategoryFileParsing).
			Build()
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	switch {
	case hasColumns(columns, "object_id", "object_name"):
		return im.importObjects(reader, columns)
	case hasColumns(columns, "diag_id", "method"):
		return im.importInspections(reader, columns)
	default:
		return nil, errors.Newf("unknown CSV format: expected an objects or diagnostics file").
			Component("importer").
			Category(errors.CategoryFileParsing).
			Context("columns", strings.Join(header, ",")).
			Build()
	}
}

func hasColumns(columns map[string]int, names ...string) bool {
	for _, name := range names {
		if _, ok := columns[name]; !ok {
			return false
		}
	}
	return true
}

// row wraps one CSV record with header-based field access.
type row struct {
	columns map[string]int
	fields  []string
}

func (r *row) get(name string) string {
	idx, ok := r.columns[name]
	if !ok || idx >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[idx])
}

func (r *row) getUint(name string) (uint, error) {
	v, err := strconv.ParseUint(r.get(name), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", name, err)
	}
	return uint(v), nil
}

func (r *row) getFloat(name string) (float64, error) {
	v, err := strconv.ParseFloat(r.get(name), 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", name, err)
	}
	return v, nil
}

// getOptFloat returns nil for an empty cell.
func (r *row) getOptFloat(name string) (*float64, error) {
	if r.get(name) == "" {
		return nil, nil
	}
	v, err := r.getFloat(name)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *row) getBool(name string) bool {
	switch strings.ToLower(r.get(name)) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}

// dateFormats lists the accepted date layouts, most common first.
var dateFormats = []string{"2006-01-02", "02.01.2006", "2006/01/02"}

func (r *row) getDate(name string) (time.Time, error) {
	value := r.get(name)
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("column %s: unrecognized date %q", name, value)
}

// importObjects loads an objects file, creating missing pipelines on the fly.
func (im *Importer) importObjects(reader *csv.Reader, columns map[string]int) (*Result, error) {
	result := &Result{}

	for rowNum := 2; ; rowNum++ {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		result.TotalRows++
		r := &row{columns: columns, fields: fields}

		objectID, err := r.getUint("object_id")
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}

		pipelineID := r.get("pipeline_id")
		if pipelineID == "" {
			pipelineID = "UNKNOWN"
		}
		if _, err := im.ds.GetPipeline(pipelineID); err != nil {
			pipeline := &datastore.Pipeline{
				PipelineID: pipelineID,
				Name:       fmt.Sprintf("Pipeline %s", pipelineID),
			}
			if err := im.ds.SavePipeline(pipeline); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: creating pipeline %s: %v", rowNum, pipelineID, err))
				continue
			}
		}

		if _, err := im.ds.GetObject(objectID); err == nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: object %d already exists", rowNum, objectID))
			continue
		}

		lat, latErr := r.getFloat("lat")
		lon, lonErr := r.getFloat("lon")
		if latErr != nil || lonErr != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: invalid coordinates", rowNum))
			continue
		}

		object := &datastore.PipelineObject{
			ObjectID:   objectID,
			Name:       r.get("object_name"),
			Type:       r.get("object_type"),
			PipelineID: pipelineID,
			Lat:        lat,
			Lon:        lon,
			Material:   r.get("material"),
		}
		if object.Type == "" {
			object.Type = "pipeline_section"
		}
		if year := r.get("year"); year != "" {
			if y, err := strconv.Atoi(year); err == nil {
				object.Year = y
			}
		}

		if err := im.ds.SaveObject(object); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		result.ImportedRows++
	}

	result.Success = len(result.Errors) == 0
	im.log.Info("Objects import finished",
		"total", result.TotalRows,
		"imported", result.ImportedRows,
		"errors", len(result.Errors),
		"warnings", len(result.Warnings))
	return result, nil
}

// importInspections loads a diagnostics file. Defect-bearing rows are
// classified on the way in; rows with incomplete geometry import
// unclassified with a warning rather than failing the batch.
func (im *Importer) importInspections(reader *csv.Reader, columns map[string]int) (*Result, error) {
	result := &Result{}

	for rowNum := 2; ; rowNum++ {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		result.TotalRows++
		r := &row{columns: columns, fields: fields}

		inspection, err := im.parseInspection(r)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}

		if _, err := im.ds.GetObject(inspection.ObjectID); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: object %d not found", rowNum, inspection.ObjectID))
			continue
		}

		if _, err := im.ds.GetInspectionByDiagID(inspection.DiagID); err == nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: inspection %d already exists", rowNum, inspection.DiagID))
			continue
		}

		if err := im.classifier.Classify(inspection); err != nil {
			var invalid *classifier.InvalidInputError
			if errors.As(err, &invalid) {
				result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: %v, imported unclassified", rowNum, err))
			} else {
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
				continue
			}
		}

		if err := im.ds.SaveInspection(inspection); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		result.ImportedRows++
	}

	result.Success = len(result.Errors) == 0
	im.log.Info("Inspections import finished",
		"total", result.TotalRows,
		"imported", result.ImportedRows,
		"errors", len(result.Errors),
		"warnings", len(result.Warnings))
	return result, nil
}

func (im *Importer) parseInspection(r *row) (*datastore.Inspection, error) {
	diagID, err := r.getUint("diag_id")
	if err != nil {
		return nil, err
	}
	objectID, err := r.getUint("object_id")
	if err != nil {
		return nil, err
	}

	method := datastore.InspectionMethod(strings.ToUpper(r.get("method")))
	if !method.Valid() {
		return nil, fmt.Errorf("unknown inspection method %q", r.get("method"))
	}

	date, err := r.getDate("date")
	if err != nil {
		return nil, err
	}

	inspection := &datastore.Inspection{
		DiagID:            diagID,
		ObjectID:          objectID,
		Method:            method,
		Date:              date,
		DefectFound:       r.getBool("defect_found"),
		DefectDescription: r.get("defect_description"),
	}

	if inspection.Temperature, err = r.getOptFloat("temperature"); err != nil {
		return nil, err
	}
	if inspection.Humidity, err = r.getOptFloat("humidity"); err != nil {
		return nil, err
	}
	if inspection.Illumination, err = r.getOptFloat("illumination"); err != nil {
		return nil, err
	}
	if inspection.DefectDepth, err = r.getOptFloat("param1"); err != nil {
		return nil, err
	}
	if inspection.DefectLength, err = r.getOptFloat("param2"); err != nil {
		return nil, err
	}
	if inspection.DefectWidth, err = r.getOptFloat("param3"); err != nil {
		return nil, err
	}

	if grade := r.get("quality_grade"); grade != "" {
		qualityGrade := datastore.QualityGrade(strings.ToLower(grade))
		if !qualityGrade.Valid() {
			return nil, fmt.Errorf("unknown quality grade %q", grade)
		}
		inspection.QualityGrade = &qualityGrade
	}

	return inspection, nil
}
