// Package homebrew implements the client side of the homebrew DMR network
// protocol: the login handshake packets, keepalives and the DMRD data frame.
package homebrew

// Packet type identifiers (4-7 byte ASCII strings)
const (
	PacketTypeDMRD    = "DMRD"
	PacketTypeRPTL    = "RPTL"
	PacketTypeRPTK    = "RPTK"
	PacketTypeRPTC    = "RPTC"
	PacketTypeRPTCL   = "RPTCL"
	PacketTypeRPTACK  = "RPTACK"
	PacketTypeRPTPING = "RPTPING"
	PacketTypeMSTPONG = "MSTPONG"
	PacketTypeMSTNAK  = "MSTNAK"
	PacketTypeMSTCL   = "MSTCL"
)

// Packet size constants (in bytes)
const (
	DMRDPacketSize    = 53  // DMRD data frame
	RPTLPacketSize    = 8   // Login request (RPTL + 4 byte repeater ID)
	RPTKPacketSize    = 40  // Key exchange (RPTK + 4 byte repeater ID + 32 byte digest)
	RPTCPacketSize    = 302 // Configuration packet
	RPTCLPacketSize   = 9   // Close from peer (RPTCL + 4 byte repeater ID)
	RPTACKPacketSize  = 10  // Acknowledgement (RPTACK + 4 byte repeater ID)
	RPTPINGPacketSize = 11  // Keepalive (RPTPING + 4 byte repeater ID)
	MSTPONGPacketSize = 11  // Keepalive reply (MSTPONG + 4 byte repeater ID)
	MSTNAKPacketSize  = 10  // Negative acknowledgement
	MSTCLPacketSize   = 9   // Close from master (MSTCL + 4 byte repeater ID)
)

// ChallengeLength is the size of the RPTK authentication digest
const ChallengeLength = 32

// Slot byte (byte 15) bit masks
const (
	SlotTimeslotMask  = 0x80 // Bit 7: timeslot (0=TS1, 1=TS2)
	SlotCallTypeMask  = 0x40 // Bit 6: call type (0=group, 1=private)
	SlotFrameTypeMask = 0x30 // Bits 4-5: frame type
	SlotDataTypeMask  = 0x0F // Bits 0-3: data type / voice sequence
)

// Frame types (bits 4-5 of the slot byte)
const (
	FrameTypeVoice           = 0x00
	FrameTypeVoiceHeader     = 0x01
	FrameTypeVoiceTerminator = 0x02
	FrameTypeDataSync        = 0x03
)

// Timeslot values
const (
	Timeslot1 = 1
	Timeslot2 = 2
)

// Call type values
const (
	CallTypeGroup   = 0
	CallTypePrivate = 1
)
