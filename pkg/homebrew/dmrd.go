package homebrew

import (
	"encoding/binary"
	"fmt"
)

// DMRD packet field offsets
const (
	dmrdOffsetSeq      = 4  // 1 byte: sequence number
	dmrdOffsetSrcID    = 5  // 3 bytes: source subscriber ID
	dmrdOffsetDstID    = 8  // 3 bytes: destination ID
	dmrdOffsetRptID    = 11 // 4 bytes: repeater ID
	dmrdOffsetSlot     = 15 // 1 byte: slot/call type bits
	dmrdOffsetStreamID = 16 // 4 bytes: stream ID
	dmrdOffsetPayload  = 20 // 33 bytes: voice/data payload
)

// DMRDPacket is one DMR data frame on the homebrew network
type DMRDPacket struct {
	Sequence      byte
	SourceID      uint32 // 24-bit
	DestinationID uint32 // 24-bit
	RepeaterID    uint32
	Timeslot      int // 1 or 2
	CallType      int // 0=group, 1=private
	FrameType     byte
	DataType      byte
	StreamID      uint32
	Payload       []byte // 33 bytes
}

// Parse parses a DMRD packet from raw bytes
func (p *DMRDPacket) Parse(data []byte) error {
	if len(data) < DMRDPacketSize {
		return fmt.Errorf("invalid DMRD packet size: %d (expected at least %d)", len(data), DMRDPacketSize)
	}
	if string(data[0:4]) != PacketTypeDMRD {
		return fmt.Errorf("invalid DMRD signature: %s", string(data[0:4]))
	}

	p.Sequence = data[dmrdOffsetSeq]
	p.SourceID = uint32(data[dmrdOffsetSrcID])<<16 |
		uint32(data[dmrdOffsetSrcID+1])<<8 |
		uint32(data[dmrdOffsetSrcID+2])
	p.DestinationID = uint32(data[dmrdOffsetDstID])<<16 |
		uint32(data[dmrdOffsetDstID+1])<<8 |
		uint32(data[dmrdOffsetDstID+2])
	p.RepeaterID = binary.BigEndian.Uint32(data[dmrdOffsetRptID : dmrdOffsetRptID+4])

	slotByte := data[dmrdOffsetSlot]
	if slotByte&SlotTimeslotMask != 0 {
		p.Timeslot = Timeslot2
	} else {
		p.Timeslot = Timeslot1
	}
	if slotByte&SlotCallTypeMask != 0 {
		p.CallType = CallTypePrivate
	} else {
		p.CallType = CallTypeGroup
	}
	p.FrameType = (slotByte & SlotFrameTypeMask) >> 4
	p.DataType = slotByte & SlotDataTypeMask

	p.StreamID = binary.BigEndian.Uint32(data[dmrdOffsetStreamID : dmrdOffsetStreamID+4])

	p.Payload = make([]byte, 33)
	copy(p.Payload, data[dmrdOffsetPayload:dmrdOffsetPayload+33])

	return nil
}

// Encode encodes the DMRD packet to raw bytes
func (p *DMRDPacket) Encode() ([]byte, error) {
	data := make([]byte, DMRDPacketSize)
	copy(data[0:4], PacketTypeDMRD)
	data[dmrdOffsetSeq] = p.Sequence

	data[dmrdOffsetSrcID] = byte(p.SourceID >> 16)
	data[dmrdOffsetSrcID+1] = byte(p.SourceID >> 8)
	data[dmrdOffsetSrcID+2] = byte(p.SourceID)

	data[dmrdOffsetDstID] = byte(p.DestinationID >> 16)
	data[dmrdOffsetDstID+1] = byte(p.DestinationID >> 8)
	data[dmrdOffsetDstID+2] = byte(p.DestinationID)

	binary.BigEndian.PutUint32(data[dmrdOffsetRptID:dmrdOffsetRptID+4], p.RepeaterID)

	var slotByte byte
	if p.Timeslot == Timeslot2 {
		slotByte |= SlotTimeslotMask
	}
	if p.CallType == CallTypePrivate {
		slotByte |= SlotCallTypeMask
	}
	slotByte |= (p.FrameType << 4) & SlotFrameTypeMask
	slotByte |= p.DataType & SlotDataTypeMask
	data[dmrdOffsetSlot] = slotByte

	binary.BigEndian.PutUint32(data[dmrdOffsetStreamID:dmrdOffsetStreamID+4], p.StreamID)

	if len(p.Payload) > 33 {
		return nil, fmt.Errorf("DMRD payload too long: %d (max 33)", len(p.Payload))
	}
	copy(data[dmrdOffsetPayload:], p.Payload)

	return data, nil
}

// ParseDMRD parses a DMRD packet from raw bytes
func ParseDMRD(data []byte) (*DMRDPacket, error) {
	p := &DMRDPacket{}
	if err := p.Parse(data); err != nil {
		return nil, err
	}
	return p, nil
}
