package database

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RepeaterRepository handles repeater identity records
type RepeaterRepository struct {
	db *gorm.DB
}

// NewRepeaterRepository creates a new repeater repository
func NewRepeaterRepository(db *gorm.DB) *RepeaterRepository {
	return &RepeaterRepository{db: db}
}

// Upsert inserts or updates the identity record keyed by repeater ID
func (r *RepeaterRepository) Upsert(rep *Repeater) error {
	rep.LastSeen = time.Now()
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "repeater_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"callsign", "firmware", "hardware", "serial_number",
			"mode", "tx_freq", "rx_freq", "snmp_name", "snmp_location",
			"last_seen",
		}),
	}).Create(rep).Error
}

// GetByID retrieves one repeater record, or nil when none exists
func (r *RepeaterRepository) GetByID(repeaterID uint32) (*Repeater, error) {
	var rep Repeater
	err := r.db.Where("repeater_id = ?", repeaterID).First(&rep).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

// GetRecent retrieves the most recently seen repeaters
func (r *RepeaterRepository) GetRecent(limit int) ([]Repeater, error) {
	var repeaters []Repeater
	err := r.db.Order("last_seen DESC").Limit(limit).Find(&repeaters).Error
	return repeaters, err
}

// PacketRepository handles the DMR traffic log
type PacketRepository struct {
	db *gorm.DB
}

// NewPacketRepository creates a new packet repository
func NewPacketRepository(db *gorm.DB) *PacketRepository {
	return &PacketRepository{db: db}
}

// Create adds a new packet record
func (r *PacketRepository) Create(p *PacketRecord) error {
	return r.db.Create(p).Error
}

// GetRecent retrieves the most recent N packet records
func (r *PacketRepository) GetRecent(limit int) ([]PacketRecord, error) {
	var records []PacketRecord
	err := r.db.Order("received_at DESC").Limit(limit).Find(&records).Error
	return records, err
}

// GetByKind retrieves recent records of one protocol kind
func (r *PacketRepository) GetByKind(kind string, limit int) ([]PacketRecord, error) {
	var records []PacketRecord
	err := r.db.Where("kind = ?", kind).
		Order("received_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// CountByKind returns record counts grouped by protocol kind
func (r *PacketRepository) CountByKind() (map[string]int64, error) {
	type row struct {
		Kind  string
		Count int64
	}
	var rows []row
	err := r.db.Model(&PacketRecord{}).
		Select("kind, count(*) as count").
		Group("kind").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Kind] = rw.Count
	}
	return counts, nil
}

// DeleteOlderThan prunes packet records older than the specified time
func (r *PacketRepository) DeleteOlderThan(before time.Time) (int64, error) {
	result := r.db.Where("received_at < ?", before).Delete(&PacketRecord{})
	return result.RowsAffected, result.Error
}
