// analytics.go: dashboard aggregate queries
package datastore

import (
	"github.com/pipewatch/pipewatch-go/internal/errors"
)

// DashboardStats holds the aggregates the dashboard renders. All counts scan
// whole tables, callers should cache the result briefly.
type DashboardStats struct {
	TotalObjects      int64            `json:"total_objects"`
	TotalInspections  int64            `json:"total_inspections"`
	TotalDefects      int64            `json:"total_defects"`
	DefectsByMethod   map[string]int64 `json:"defects_by_method"`
	DefectsByRisk     map[string]int64 `json:"defects_by_risk"`
	InspectionsByYear map[int]int64    `json:"inspections_by_year"`
	TopRisks          []Inspection     `json:"top_risks"`
}

type groupCount struct {
	Key   string
	Count int64
}

// DashboardStats computes the dashboard aggregates in one pass.
func (ds *DataStore) DashboardStats() (*DashboardStats, error) {
	stats := &DashboardStats{
		DefectsByMethod:   make(map[string]int64),
		DefectsByRisk:     make(map[string]int64),
		InspectionsByYear: make(map[int]int64),
	}

	dbErr := func(err error, operation string) error {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", operation).
			Build()
	}

	if err := ds.DB.Model(&PipelineObject{}).Count(&stats.TotalObjects).Error; err != nil {
		return nil, dbErr(err, "count_objects")
	}
	if err := ds.DB.Model(&Inspection{}).Count(&stats.TotalInspections).Error; err != nil {
		return nil, dbErr(err, "count_inspections")
	}
	if err := ds.DB.Model(&Inspection{}).
		Where("defect_found = ?", true).
		Count(&stats.TotalDefects).Error; err != nil {
		return nil, dbErr(err, "count_defects")
	}

	var byMethod []groupCount
	if err := ds.DB.Model(&Inspection{}).
		Select("method AS key, COUNT(*) AS count").
		Where("defect_found = ?", true).
		Group("method").
		Scan(&byMethod).Error; err != nil {
		return nil, dbErr(err, "defects_by_method")
	}
	for _, row := range byMethod {
		stats.DefectsByMethod[row.Key] = row.Count
	}

	var byRisk []groupCount
	if err := ds.DB.Model(&Inspection{}).
		Select("risk_label AS key, COUNT(*) AS count").
		Where("defect_found = ? AND risk_label IS NOT NULL", true).
		Group("risk_label").
		Scan(&byRisk).Error; err != nil {
		return nil, dbErr(err, "defects_by_risk")
	}
	for _, row := range byRisk {
		stats.DefectsByRisk[row.Key] = row.Count
	}

	// Year bucketing in Go rather than SQL, the date extraction functions
	// differ between SQLite and MySQL.
	var dates []Inspection
	if err := ds.DB.Model(&Inspection{}).Select("id, date").Find(&dates).Error; err != nil {
		return nil, dbErr(err, "inspections_by_year")
	}
	for i := range dates {
		stats.InspectionsByYear[dates[i].Date.Year()]++
	}

	if err := ds.DB.Model(&Inspection{}).
		Where("risk_label = ?", RiskHigh).
		Order("defect_depth DESC").
		Limit(10).
		Find(&stats.TopRisks).Error; err != nil {
		return nil, dbErr(err, "top_risks")
	}

	return stats, nil
}
