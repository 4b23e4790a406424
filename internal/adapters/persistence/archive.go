package persistence

import (
	"encoding/json"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mbeckers/freightsim-go/internal/domain/world"
)

// EventRow is the archive schema: one row per engine event.
type EventRow struct {
	ID      uint   `gorm:"primaryKey"`
	Tick    int64  `gorm:"index"`
	Type    string `gorm:"index;size:64"`
	Payload string
}

// TableName keeps the table name stable across gorm versions.
func (EventRow) TableName() string { return "events" }

// EventArchive appends every emitted engine event to a sqlite database. It is
// optional; a nil archive is a no-op everywhere.
type EventArchive struct {
	db *gorm.DB
}

// OpenEventArchive opens (or creates) the archive database and migrates the
// schema.
func OpenEventArchive(path string) (*EventArchive, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening event archive: %w", err)
	}
	if err := db.AutoMigrate(&EventRow{}); err != nil {
		return nil, fmt.Errorf("migrating event archive: %w", err)
	}
	return &EventArchive{db: db}, nil
}

// Append writes one tick's events in a single transaction.
func (a *EventArchive) Append(events []world.Event) error {
	if a == nil || len(events) == 0 {
		return nil
	}
	rows := make([]EventRow, 0, len(events))
	for _, e := range events {
		payload, err := json.Marshal(e.Data)
		if err != nil {
			return fmt.Errorf("encoding event payload: %w", err)
		}
		rows = append(rows, EventRow{Tick: e.Tick, Type: e.Type, Payload: string(payload)})
	}
	if err := a.db.Create(&rows).Error; err != nil {
		return fmt.Errorf("appending events: %w", err)
	}
	return nil
}

// Query returns archived events filtered by type (empty matches all) within
// an inclusive tick range, oldest first.
func (a *EventArchive) Query(eventType string, fromTick, toTick int64, limit int) ([]world.Event, error) {
	if a == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	q := a.db.Model(&EventRow{}).Where("tick >= ? AND tick <= ?", fromTick, toTick)
	if eventType != "" {
		q = q.Where("type = ?", eventType)
	}
	var rows []EventRow
	if err := q.Order("id asc").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	events := make([]world.Event, 0, len(rows))
	for _, row := range rows {
		data := map[string]interface{}{}
		if err := json.Unmarshal([]byte(row.Payload), &data); err != nil {
			return nil, fmt.Errorf("decoding event payload: %w", err)
		}
		events = append(events, world.Event{Tick: row.Tick, Type: row.Type, Data: data})
	}
	return events, nil
}

// Close releases the underlying database handle.
func (a *EventArchive) Close() error {
	if a == nil {
		return nil
	}
	db, err := a.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
