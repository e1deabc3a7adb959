package database

import (
	"time"
)

// ConstituentRow is one field of one segment's flattened fit, stored
// long-form so the field set can differ per segment.
type ConstituentRow struct {
	ID       uint      `gorm:"primaryKey;autoIncrement;column:id"`
	Bucket   time.Time `gorm:"column:bucket;index:idx_constituent_segment"`
	Location string    `gorm:"column:location;index:idx_constituent_segment"`
	Field    string    `gorm:"column:field"`
	Value    float64   `gorm:"column:value"`
}

// TableName specifies the table name for ConstituentRow
func (ConstituentRow) TableName() string {
	return "constituent_rows"
}

// SeriesRow is one reconstructed observation: the original level plus
// the predicted astronomic level and the wind setup. Missing values are
// stored as NULL.
type SeriesRow struct {
	ID         uint      `gorm:"primaryKey;autoIncrement;column:id"`
	Location   string    `gorm:"column:location;index:idx_series_location_time"`
	Time       time.Time `gorm:"column:time;index:idx_series_location_time"`
	Observed   *float64  `gorm:"column:observed"`
	Astronomic *float64  `gorm:"column:astronomic"`
	Setup      *float64  `gorm:"column:setup"`
}

// TableName specifies the table name for SeriesRow
func (SeriesRow) TableName() string {
	return "series_rows"
}
