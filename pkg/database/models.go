package database

import (
	"time"

	"gorm.io/gorm"
)

// Repeater is the persisted identity snapshot of a repeater that completed
// RDAC identification
type Repeater struct {
	RepeaterID   uint32    `gorm:"primarykey;not null" json:"repeater_id"`
	Callsign     string    `gorm:"index;size:20" json:"callsign"`
	Firmware     string    `gorm:"size:40" json:"firmware"`
	Hardware     string    `gorm:"size:40" json:"hardware"`
	SerialNumber string    `gorm:"size:40" json:"serial_number"`
	Mode         byte      `json:"mode"`
	TXFreq       uint32    `json:"tx_freq"`
	RXFreq       uint32    `json:"rx_freq"`
	SNMPName     string    `gorm:"size:64" json:"snmp_name"`
	SNMPLocation string    `gorm:"size:64" json:"snmp_location"`
	FirstSeen    time.Time `json:"first_seen"`
	LastSeen     time.Time `gorm:"index" json:"last_seen"`
}

// TableName specifies the table name for Repeater
func (Repeater) TableName() string {
	return "repeaters"
}

// BeforeCreate hook to ensure FirstSeen is set
func (r *Repeater) BeforeCreate(tx *gorm.DB) error {
	if r.FirstSeen.IsZero() {
		r.FirstSeen = time.Now()
	}
	return nil
}

// PacketRecord is one classified datagram from the DMR transport endpoint
type PacketRecord struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	RepeaterID uint32    `gorm:"index" json:"repeater_id"`
	Kind       string    `gorm:"index;size:12;not null" json:"kind"`
	Size       int       `gorm:"not null" json:"size"`
	SourceAddr string    `gorm:"size:48" json:"source_addr"`
	ReceivedAt time.Time `gorm:"index;not null" json:"received_at"`
}

// TableName specifies the table name for PacketRecord
func (PacketRecord) TableName() string {
	return "packet_records"
}

// BeforeCreate hook to ensure ReceivedAt is set
func (p *PacketRecord) BeforeCreate(tx *gorm.DB) error {
	if p.ReceivedAt.IsZero() {
		p.ReceivedAt = time.Now()
	}
	return nil
}
