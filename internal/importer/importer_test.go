package importer

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipewatch/pipewatch-go/internal/classifier"
	"github.com/pipewatch/pipewatch-go/internal/conf"
	"github.com/pipewatch/pipewatch-go/internal/datastore"
)

func newTestImporter(t *testing.T) (*Importer, datastore.Interface) {
	t.Helper()

	settings := &conf.Settings{
		Classifier: conf.ClassifierSettings{
			Rules: conf.RuleThresholds{DepthMedium: 5.0, DepthHigh: 15.0},
			Normalization: conf.NormalizationBounds{
				TemperatureMin: -40, TemperatureMax: 50,
				HumidityMin: 0, HumidityMax: 100,
			},
			CriticalMethods: []string{"UZK", "RGK", "MFL", "UTWM"},
		},
	}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "test.db")

	ds := datastore.New(settings)
	require.NotNil(t, ds)
	require.NoError(t, ds.Open())
	t.Cleanup(func() { _ = ds.Close() })

	return New(ds, classifier.NewService(settings, ds)), ds
}

const objectsCSV = `object_id,object_name,object_type,pipeline_id,lat,lon,year,material
1,Crane 12,crane,MG-1,55.75,37.61,1998,steel
2,Compressor 3,compressor,MG-1,55.80,37.70,2005,steel
3,Section 40-41,pipeline_section,MG-2,56.01,37.90,1987,steel
`

func TestImportObjects(t *testing.T) {
	importer, ds := newTestImporter(t)

	result, err := importer.Import(strings.NewReader(objectsCSV))
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 3, result.ImportedRows)
	assert.Empty(t, result.Errors)

	object, err := ds.GetObject(1)
	require.NoError(t, err)
	assert.Equal(t, "Crane 12", object.Name)
	assert.Equal(t, "MG-1", object.PipelineID)
	assert.Equal(t, 1998, object.Year)

	// Pipelines are created on the fly from the referenced ids.
	pipeline, err := ds.GetPipeline("MG-2")
	require.NoError(t, err)
	assert.Equal(t, "Pipeline MG-2", pipeline.Name)
}

func TestImportObjectsDuplicates(t *testing.T) {
	importer, _ := newTestImporter(t)

	_, err := importer.Import(strings.NewReader(objectsCSV))
	require.NoError(t, err)

	result, err := importer.Import(strings.NewReader(objectsCSV))
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 0, result.ImportedRows)
	assert.Len(t, result.Warnings, 3)
}

func TestImportInspections(t *testing.T) {
	importer, ds := newTestImporter(t)

	_, err := importer.Import(strings.NewReader(objectsCSV))
	require.NoError(t, err)

	diagnosticsCSV := `diag_id,object_id,method,date,defect_found,quality_grade,param1,param2,param3,temperature,humidity,defect_description
5001,1,UZK,2023-05-10,1,requires_action,18.5,40,12,12,60,wall thinning
5002,1,VIK,10.06.2023,0,,,,,,,
5003,2,MPK,2023-07-01,1,acceptable,3.0,10,5,,,surface crack
5004,3,RGK,2023-08-15,1,unacceptable,,,,,,geometry not recorded
5005,99,VIK,2023-09-01,0,,,,,,,
`

	result, err := importer.Import(strings.NewReader(diagnosticsCSV))
	require.NoError(t, err)

	assert.Equal(t, 5, result.TotalRows)
	assert.Equal(t, 4, result.ImportedRows)
	assert.False(t, result.Success, "unknown object is a row error")
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "object 99 not found")
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "imported unclassified")

	t.Run("deep defect classified high", func(t *testing.T) {
		inspection, err := ds.GetInspectionByDiagID(5001)
		require.NoError(t, err)
		require.NotNil(t, inspection.RiskLabel)
		assert.Equal(t, datastore.RiskHigh, *inspection.RiskLabel)
		assert.Nil(t, inspection.RiskConfidence)
	})

	t.Run("dotted date layout accepted", func(t *testing.T) {
		inspection, err := ds.GetInspectionByDiagID(5002)
		require.NoError(t, err)
		assert.Equal(t, 2023, inspection.Date.Year())
		assert.False(t, inspection.DefectFound)
		assert.Nil(t, inspection.RiskLabel)
	})

	t.Run("shallow defect classified normal", func(t *testing.T) {
		inspection, err := ds.GetInspectionByDiagID(5003)
		require.NoError(t, err)
		require.NotNil(t, inspection.RiskLabel)
		assert.Equal(t, datastore.RiskNormal, *inspection.RiskLabel)
	})

	t.Run("missing geometry imports unclassified", func(t *testing.T) {
		inspection, err := ds.GetInspectionByDiagID(5004)
		require.NoError(t, err)
		assert.True(t, inspection.DefectFound)
		assert.Nil(t, inspection.RiskLabel)
	})
}

func TestImportInspectionsRowErrors(t *testing.T) {
	importer, _ := newTestImporter(t)

	_, err := importer.Import(strings.NewReader(objectsCSV))
	require.NoError(t, err)

	diagnosticsCSV := `diag_id,object_id,method,date,defect_found,quality_grade,param1,param2,param3
6001,1,XRAY,2023-05-10,0,,,,
6002,1,VIK,not-a-date,0,,,,
6003,1,VIK,2023-05-10,1,superb,1,1,1
6004,1,VIK,2023-05-10,0,,,,
`

	result, err := importer.Import(strings.NewReader(diagnosticsCSV))
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, 1, result.ImportedRows)
	assert.Len(t, result.Errors, 3)
}

func TestImportDuplicateDiagID(t *testing.T) {
	importer, _ := newTestImporter(t)

	_, err := importer.Import(strings.NewReader(objectsCSV))
	require.NoError(t, err)

	diagnosticsCSV := `diag_id,object_id,method,date,defect_found
7001,1,VIK,2023-05-10,0
`
	_, err = importer.Import(strings.NewReader(diagnosticsCSV))
	require.NoError(t, err)

	result, err := importer.Import(strings.NewReader(diagnosticsCSV))
	require.NoError(t, err)
	assert.Equal(t, 0, result.ImportedRows)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "already exists")
}

func TestImportUnknownFormat(t *testing.T) {
	importer, _ := newTestImporter(t)

	_, err := importer.Import(strings.NewReader("foo,bar\n1,2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown CSV format")
}
