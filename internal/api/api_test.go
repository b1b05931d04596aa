package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipewatch/pipewatch-go/internal/classifier"
	"github.com/pipewatch/pipewatch-go/internal/conf"
	"github.com/pipewatch/pipewatch-go/internal/datastore"
	"github.com/pipewatch/pipewatch-go/internal/importer"
	"github.com/pipewatch/pipewatch-go/internal/workflow"
)

func newTestController(t *testing.T) (*Controller, datastore.Interface) {
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

	cls := classifier.NewService(settings, ds)
	controller := New(settings, ds, workflow.NewService(ds), cls, importer.New(ds, cls))
	return controller, ds
}

func ptr[T any](v T) *T { return &v }

func seedObject(t *testing.T, ds datastore.Interface) {
	t.Helper()
	require.NoError(t, ds.SaveObject(&datastore.PipelineObject{
		ObjectID: 1, Name: "Crane 12", Type: "crane", PipelineID: "MG-1",
	}))
}

func doJSON(c *Controller, method, target, role, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if role != "" {
		req.Header.Set("X-Actor-Role", role)
	}
	rec := httptest.NewRecorder()
	c.Echo.ServeHTTP(rec, req)
	return rec
}

func TestCreateInspectionEndpoint(t *testing.T) {
	controller, ds := newTestController(t)
	seedObject(t, ds)

	body := `{
		"diag_id": 5001,
		"object_id": 1,
		"method": "UZK",
		"date": "2023-05-10",
		"defect_found": true,
		"quality_grade": "requires_action",
		"defect_depth": 18.5,
		"defect_length": 40,
		"defect_width": 12
	}`

	t.Run("inspector creates and record is classified", func(t *testing.T) {
		rec := doJSON(controller, http.MethodPost, "/api/v1/inspections", "inspector", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var inspection datastore.Inspection
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inspection))
		require.NotNil(t, inspection.RiskLabel)
		assert.Equal(t, datastore.RiskHigh, *inspection.RiskLabel)
		assert.Nil(t, inspection.RiskConfidence)
	})

	t.Run("duplicate diag id conflicts", func(t *testing.T) {
		rec := doJSON(controller, http.MethodPost, "/api/v1/inspections", "inspector", body)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("guest is forbidden", func(t *testing.T) {
		rec := doJSON(controller, http.MethodPost, "/api/v1/inspections", "", body)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown method is rejected", func(t *testing.T) {
		rec := doJSON(controller, http.MethodPost, "/api/v1/inspections", "admin",
			`{"diag_id": 5002, "object_id": 1, "method": "XRAY"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown object is not found", func(t *testing.T) {
		rec := doJSON(controller, http.MethodPost, "/api/v1/inspections", "admin",
			`{"diag_id": 5003, "object_id": 99, "method": "VIK"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestUpdateInspectionReclassifies(t *testing.T) {
	controller, ds := newTestController(t)
	seedObject(t, ds)

	grade := datastore.GradeAcceptable
	inspection := &datastore.Inspection{
		DiagID: 100, ObjectID: 1, Method: datastore.MethodVIK, Date: time.Now(),
		DefectFound: true, QualityGrade: &grade,
		DefectDepth: ptr(2.0), DefectLength: ptr(10.0), DefectWidth: ptr(5.0),
	}
	label := datastore.RiskNormal
	inspection.RiskLabel = &label
	require.NoError(t, ds.SaveInspection(inspection))

	body := `{
		"diag_id": 100,
		"object_id": 1,
		"method": "VIK",
		"defect_found": true,
		"quality_grade": "acceptable",
		"defect_depth": 20.0,
		"defect_length": 10,
		"defect_width": 5
	}`
	rec := doJSON(controller, http.MethodPut, fmt.Sprintf("/api/v1/inspections/%d", inspection.ID), "inspector", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stored, err := ds.GetInspection(inspection.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.RiskLabel)
	assert.Equal(t, datastore.RiskHigh, *stored.RiskLabel)
}

func TestWorkflowEndpoints(t *testing.T) {
	controller, ds := newTestController(t)
	seedObject(t, ds)

	grade := datastore.GradeRequiresAction
	inspection := &datastore.Inspection{
		DiagID: 200, ObjectID: 1, Method: datastore.MethodUZK, Date: time.Now(),
		DefectFound: true, QualityGrade: &grade,
		DefectDepth: ptr(12.0), DefectLength: ptr(30.0), DefectWidth: ptr(8.0),
	}
	require.NoError(t, ds.SaveInspection(inspection))

	var workID uint
	t.Run("create repair work", func(t *testing.T) {
		rec := doJSON(controller, http.MethodPost, "/api/v1/repairworks", "inspector",
			fmt.Sprintf(`{"inspection_id": %d, "title": "grind and recoat"}`, inspection.ID))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var work datastore.RepairWork
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &work))
		assert.Equal(t, datastore.StatusPlanned, work.Status)
		workID = work.ID
	})

	t.Run("illegal transition maps to conflict", func(t *testing.T) {
		rec := doJSON(controller, http.MethodPost, fmt.Sprintf("/api/v1/repairworks/%d/transition", workID),
			"admin", `{"target": "completed"}`)
		require.Equal(t, http.StatusConflict, rec.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "illegal_transition", resp.Code)
		assert.NotEmpty(t, resp.CorrelationID)
	})

	t.Run("start work", func(t *testing.T) {
		rec := doJSON(controller, http.MethodPost, fmt.Sprintf("/api/v1/repairworks/%d/transition", workID),
			"inspector", `{"target": "in_progress"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("submission without evidence maps to conflict", func(t *testing.T) {
		rec := doJSON(controller, http.MethodPost, fmt.Sprintf("/api/v1/repairworks/%d/transition", workID),
			"inspector", `{"target": "pending_approval"}`)
		require.Equal(t, http.StatusConflict, rec.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "evidence_required", resp.Code)
	})

	t.Run("register after evidence and submit", func(t *testing.T) {
		rec := doJSON(controller, http.MethodPost, fmt.Sprintf("/api/v1/inspections/%d/media", inspection.ID),
			"inspector", `{"original_name": "after.jpg", "is_before": false}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		rec = doJSON(controller, http.MethodPost, fmt.Sprintf("/api/v1/repairworks/%d/transition", workID),
			"inspector", `{"target": "pending_approval"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("approval by inspector is forbidden", func(t *testing.T) {
		rec := doJSON(controller, http.MethodPost, fmt.Sprintf("/api/v1/repairworks/%d/transition", workID),
			"inspector", `{"target": "completed"}`)
		require.Equal(t, http.StatusForbidden, rec.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "forbidden", resp.Code)
	})

	t.Run("approval by admin completes", func(t *testing.T) {
		rec := doJSON(controller, http.MethodPost, fmt.Sprintf("/api/v1/repairworks/%d/transition", workID),
			"admin", `{"target": "completed"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var work datastore.RepairWork
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &work))
		assert.Equal(t, datastore.StatusCompleted, work.Status)
		require.NotNil(t, work.CompletedDate)
	})
}

func TestUpdateRepairWorkEndpoint(t *testing.T) {
	controller, ds := newTestController(t)
	seedObject(t, ds)

	inspection := &datastore.Inspection{
		DiagID: 250, ObjectID: 1, Method: datastore.MethodUZK, Date: time.Now(),
		DefectFound: true,
		DefectDepth: ptr(12.0), DefectLength: ptr(30.0), DefectWidth: ptr(8.0),
	}
	require.NoError(t, ds.SaveInspection(inspection))

	rec := doJSON(controller, http.MethodPost, "/api/v1/repairworks", "inspector",
		fmt.Sprintf(`{"inspection_id": %d, "title": "grind and recoat", "notes": "initial"}`, inspection.ID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var work datastore.RepairWork
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &work))

	t.Run("inspector edits fields", func(t *testing.T) {
		rec := doJSON(controller, http.MethodPut, fmt.Sprintf("/api/v1/repairworks/%d", work.ID),
			"inspector", `{"title": "weld overlay", "priority": "high", "planned_date": "2026-09-15", "assigned_to": 7}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var updated datastore.RepairWork
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.Equal(t, "weld overlay", updated.Title)
		assert.Equal(t, datastore.PriorityHigh, updated.Priority)
		require.NotNil(t, updated.AssignedTo)
		assert.Equal(t, uint(7), *updated.AssignedTo)
		assert.Equal(t, "initial", updated.Notes, "absent fields are untouched")
		assert.Equal(t, datastore.StatusPlanned, updated.Status)
	})

	t.Run("guest is forbidden", func(t *testing.T) {
		rec := doJSON(controller, http.MethodPut, fmt.Sprintf("/api/v1/repairworks/%d", work.ID),
			"", `{"title": "should not land"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("invalid planned date is rejected", func(t *testing.T) {
		rec := doJSON(controller, http.MethodPut, fmt.Sprintf("/api/v1/repairworks/%d", work.ID),
			"admin", `{"planned_date": "15.09.2026"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown work is not found", func(t *testing.T) {
		rec := doJSON(controller, http.MethodPut, "/api/v1/repairworks/9999",
			"admin", `{"title": "nowhere"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestEvidenceStatusEndpoint(t *testing.T) {
	controller, ds := newTestController(t)
	seedObject(t, ds)

	inspection := &datastore.Inspection{
		DiagID: 300, ObjectID: 1, Method: datastore.MethodVIK, Date: time.Now(), DefectFound: true,
		DefectDepth: ptr(6.0), DefectLength: ptr(10.0), DefectWidth: ptr(4.0),
	}
	require.NoError(t, ds.SaveInspection(inspection))
	require.NoError(t, ds.SaveMediaItem(&datastore.MediaItem{
		InspectionID: inspection.ID, MediaType: datastore.MediaPhoto,
		Filename: "before.jpg", IsBefore: true, UploadedAt: time.Now(),
	}))

	rec := doJSON(controller, http.MethodGet, fmt.Sprintf("/api/v1/inspections/%d/evidence", inspection.ID), "analyst", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var status map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, float64(1), status["before_count"])
	assert.Equal(t, float64(0), status["after_count"])
	assert.Equal(t, false, status["has_after_evidence"])
}

func TestDashboardStatsEndpoint(t *testing.T) {
	controller, ds := newTestController(t)
	seedObject(t, ds)

	rec := doJSON(controller, http.MethodGet, "/api/v1/dashboard/stats", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats datastore.DashboardStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(1), stats.TotalObjects)

	// Second request is served from cache, adding an object must not show up.
	require.NoError(t, ds.SaveObject(&datastore.PipelineObject{
		ObjectID: 2, Name: "Crane 13", Type: "crane", PipelineID: "MG-1",
	}))
	rec = doJSON(controller, http.MethodGet, "/api/v1/dashboard/stats", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(1), stats.TotalObjects)
}

func TestListInspectionsFilters(t *testing.T) {
	controller, ds := newTestController(t)
	seedObject(t, ds)

	for i, method := range []datastore.InspectionMethod{datastore.MethodVIK, datastore.MethodUZK} {
		require.NoError(t, ds.SaveInspection(&datastore.Inspection{
			DiagID: uint(400 + i), ObjectID: 1, Method: method, Date: time.Now(),
		}))
	}

	rec := doJSON(controller, http.MethodGet, "/api/v1/inspections?method=UZK", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var inspections []datastore.Inspection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inspections))
	require.Len(t, inspections, 1)
	assert.Equal(t, datastore.MethodUZK, inspections[0].Method)

	rec = doJSON(controller, http.MethodGet, "/api/v1/inspections?method=XRAY", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
