package postgres

import (
	"context"
	"errors"

	"gstdirectory/pkg/directory"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store adapts a PostgresClient to directory.Store.
type Store struct {
	client *PostgresClient
}

var _ directory.Store = (*Store)(nil)

func NewStore(client *PostgresClient) *Store {
	return &Store{client: client}
}

func (s *Store) List(ctx context.Context) ([]directory.Record, error) {
	var rows []RecordRow
	err := s.client.DB.WithContext(ctx).
		Order("cities, traders").
		Find(&rows).Error
	if err != nil {
		return nil, directory.NewStorageError("list", err)
	}

	records := make([]directory.Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.Record())
	}
	return records, nil
}

func (s *Store) Insert(ctx context.Context, rec directory.Record) error {
	tx := s.client.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "cities"},
			{Name: "traders"},
		},
		DoNothing: true,
	}).Create(ToRecordRow(rec))

	if tx.Error != nil {
		return directory.NewStorageError("insert", tx.Error)
	}

	if tx.RowsAffected == 0 {
		return directory.ErrDuplicateKey
	}

	return nil
}

func (s *Store) Update(ctx context.Context, old directory.Key, rec directory.Record) (directory.Record, error) {
	var prev RecordRow
	err := s.client.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRow(tx, old, &prev); err != nil {
			return err
		}
		return tx.Model(&RecordRow{}).
			Where("id = ?", prev.ID).
			Updates(map[string]any{
				"cities":  rec.City,
				"traders": rec.Trader,
				"gst":     rec.GST,
			}).Error
	})

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return directory.Record{}, directory.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return directory.Record{}, directory.ErrDuplicateKey
	case err != nil:
		return directory.Record{}, directory.NewStorageError("update", err)
	}
	return prev.Record(), nil
}

func (s *Store) Delete(ctx context.Context, key directory.Key) (directory.Record, error) {
	var prev RecordRow
	err := s.client.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRow(tx, key, &prev); err != nil {
			return err
		}
		return tx.Delete(&RecordRow{}, prev.ID).Error
	})

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return directory.Record{}, directory.ErrNotFound
	}
	if err != nil {
		return directory.Record{}, directory.NewStorageError("delete", err)
	}
	return prev.Record(), nil
}

// lockRow loads the row stored under key with SELECT ... FOR UPDATE.
func lockRow(tx *gorm.DB, key directory.Key, row *RecordRow) error {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("cities = ? AND traders = ?", key.City, key.Trader).
		First(row).Error
}

// Truncate removes every row.
func (s *Store) Truncate(ctx context.Context) error {
	err := s.client.DB.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&RecordRow{}).Error
	return directory.NewStorageError("truncate", err)
}

func (s *Store) Close() error {
	return s.client.Close()
}
