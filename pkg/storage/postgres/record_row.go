package postgres

import (
	"time"

	"gstdirectory/pkg/directory"
)

// RecordRow is one directory entry stored in the database.
type RecordRow struct {
	ID uint `gorm:"primaryKey"`

	// unique index
	City   string `gorm:"column:cities;type:text;not null;index:idx_gst_records_city;index:idx_gst_records_city_trader,unique"`
	Trader string `gorm:"column:traders;type:text;not null;index:idx_gst_records_city_trader,unique"`

	GST string `gorm:"column:gst;type:text;not null;default:'NO GST'"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName overrides the default table name for GORM.
func (RecordRow) TableName() string {
	return "gst_records"
}

// ToRecordRow converts a directory record for DB insertion.
func ToRecordRow(rec directory.Record) *RecordRow {
	return &RecordRow{
		City:   rec.City,
		Trader: rec.Trader,
		GST:    rec.GST,
	}
}

// Record converts the row back to its directory form.
func (r RecordRow) Record() directory.Record {
	return directory.Record{
		City:   r.City,
		Trader: r.Trader,
		GST:    r.GST,
	}
}
