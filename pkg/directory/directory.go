package directory

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Directory is the record store used by the HTTP handlers and the CLI.
// It normalizes and validates input, delegates persistence to a Store and
// announces every successful change to a Publisher.
type Directory struct {
	store     Store
	publisher Publisher
	logger    *zap.Logger
}

// Option configures a Directory.
type Option func(*Directory)

// WithPublisher sets the Publisher that receives change events.
func WithPublisher(p Publisher) Option {
	return func(d *Directory) {
		if p != nil {
			d.publisher = p
		}
	}
}

// New returns a Directory over store. A nil logger disables logging.
func New(store Store, logger *zap.Logger, opts ...Option) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Directory{
		store:     store,
		publisher: nopPublisher{},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// List returns all records.
func (d *Directory) List(ctx context.Context) ([]Record, error) {
	records, err := d.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// Insert normalizes the input and stores a new record.
func (d *Directory) Insert(ctx context.Context, city, trader, gst string) (Record, error) {
	rec := NewRecord(city, trader, gst)
	if err := rec.Key().Validate(); err != nil {
		return Record{}, err
	}

	if err := d.store.Insert(ctx, rec); err != nil {
		return Record{}, fmt.Errorf("insert %s: %w", rec.Key(), err)
	}

	d.logger.Info("record added",
		zap.String("city", rec.City),
		zap.String("trader", rec.Trader),
		zap.String("gst", rec.GST),
	)
	d.publisher.Publish(Event{Type: EventCreated, Entry: &rec})
	return rec, nil
}

// Update replaces the record stored under (oldCity, oldTrader).
// When the key is unchanged only the GST is rewritten.
func (d *Directory) Update(ctx context.Context, oldCity, oldTrader, newCity, newTrader, newGST string) (Record, error) {
	old := NormalizeKey(oldCity, oldTrader)
	if err := old.Validate(); err != nil {
		return Record{}, err
	}
	rec := NewRecord(newCity, newTrader, newGST)
	if err := rec.Key().Validate(); err != nil {
		return Record{}, err
	}

	prev, err := d.store.Update(ctx, old, rec)
	if err != nil {
		return Record{}, fmt.Errorf("update %s: %w", old, err)
	}

	d.logger.Info("record updated",
		zap.Stringer("old", old),
		zap.String("city", rec.City),
		zap.String("trader", rec.Trader),
		zap.String("gst", rec.GST),
	)
	d.publisher.Publish(Event{Type: EventUpdated, Entry: &rec, Previous: &prev})
	return rec, nil
}

// Delete removes the record stored under (city, trader).
func (d *Directory) Delete(ctx context.Context, city, trader string) error {
	key := NormalizeKey(city, trader)
	if err := key.Validate(); err != nil {
		return err
	}

	prev, err := d.store.Delete(ctx, key)
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}

	d.logger.Info("record deleted", zap.Stringer("key", key), zap.String("gst", prev.GST))
	d.publisher.Publish(Event{Type: EventDeleted, Previous: &prev})
	return nil
}

// Cities returns the distinct cities in alphabetical order.
func (d *Directory) Cities(ctx context.Context) ([]string, error) {
	records, err := d.List(ctx)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var cities []string
	for _, r := range records {
		if !seen[r.City] {
			cities = append(cities, r.City)
			seen[r.City] = true
		}
	}
	sort.Strings(cities)
	return cities, nil
}

// Traders returns the records of one city ordered by trader.
// An unknown city yields an empty slice, not an error.
func (d *Directory) Traders(ctx context.Context, city string) ([]Record, error) {
	records, err := d.List(ctx)
	if err != nil {
		return nil, err
	}

	city = Normalize(city)
	out := make([]Record, 0)
	for _, r := range records {
		if r.City == city {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Trader < out[j].Trader })
	return out, nil
}

// Lookup returns the record stored under (city, trader).
func (d *Directory) Lookup(ctx context.Context, city, trader string) (Record, error) {
	key := NormalizeKey(city, trader)
	if err := key.Validate(); err != nil {
		return Record{}, err
	}

	records, err := d.List(ctx)
	if err != nil {
		return Record{}, err
	}
	for _, r := range records {
		if r.Key() == key {
			return r, nil
		}
	}
	return Record{}, fmt.Errorf("lookup %s: %w", key, ErrNotFound)
}

// SortRecords orders records by city then trader, in place.
func SortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].City != records[j].City {
			return records[i].City < records[j].City
		}
		return records[i].Trader < records[j].Trader
	})
}
