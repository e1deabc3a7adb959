package database

import (
	"math"
	"time"

	"github.com/hveclab/tidego/internal/tide"
)

const insertBatchSize = 500

// SaveConstituents writes one long-form row per flat-record field.
// NaN values (an unavailable fit diagnostic) are skipped: SQLite has no
// NaN representation and a missing row reads back the same way.
func (c *Client) SaveConstituents(records []tide.FlatRecord) error {
	var rows []ConstituentRow
	for _, rec := range records {
		for _, f := range rec.Fields {
			if math.IsNaN(f.Value) {
				continue
			}
			rows = append(rows, ConstituentRow{
				Bucket:   rec.Key.Bucket,
				Location: rec.Key.Location,
				Field:    f.Name,
				Value:    f.Value,
			})
		}
	}
	if len(rows) == 0 {
		return nil
	}

	if err := c.DB.CreateInBatches(rows, insertBatchSize).Error; err != nil {
		return err
	}
	c.logger.Infof("stored %d constituent rows for %d segments", len(rows), len(records))
	return nil
}

// SaveSeries writes the reconstructed time series.
func (c *Client) SaveSeries(series *tide.Series) error {
	if series == nil || series.Len() == 0 {
		return nil
	}

	rows := make([]SeriesRow, series.Len())
	for i := 0; i < series.Len(); i++ {
		row := SeriesRow{Time: series.Time[i]}
		if series.Location != nil {
			row.Location = series.Location[i]
		}
		row.Observed = nullable(series.Observed[i])
		row.Astronomic = nullable(series.Astronomic[i])
		row.Setup = nullable(series.Setup[i])
		rows[i] = row
	}

	if err := c.DB.CreateInBatches(rows, insertBatchSize).Error; err != nil {
		return err
	}
	c.logger.Infof("stored %d series rows", len(rows))
	return nil
}

// GetConstituents returns the stored fields for one location, ordered
// by bucket then insertion order.
func (c *Client) GetConstituents(location string) ([]ConstituentRow, error) {
	var rows []ConstituentRow
	err := c.DB.Where("location = ?", location).Order("bucket, id").Find(&rows).Error
	return rows, err
}

// GetSeriesRange returns the reconstructed series rows for one location
// within [from, to), in time order.
func (c *Client) GetSeriesRange(location string, from, to time.Time) ([]SeriesRow, error) {
	var rows []SeriesRow
	err := c.DB.Where("location = ? AND time >= ? AND time < ?", location, from, to).
		Order("time").Find(&rows).Error
	return rows, err
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
