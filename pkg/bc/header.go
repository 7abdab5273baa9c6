package bc

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	magicHeader    = 0x0abcdef0
	magicHeaderRev = 0x0fedcba0
)

const (
	MsgIDLogin     = 1
	MsgIDLogout    = 2
	MsgIDVideo     = 3
	MsgIDVideoStop = 4
	MsgIDVersion   = 80
	MsgIDPing      = 93
)

// Class is the framing flag of the header. It selects legacy or modern body
// layout and whether the header carries the payload offset.
const (
	ClassLegacy           = 0x6514
	ClassModern           = 0x6614
	ClassModernWithOffset = 0x6414
	ClassModernReply      = 0x0000
)

const (
	ResponseOK         = 200
	ResponseEncryption = 0xDD // high byte of login reply with encryption info
)

const (
	headerSize       = 20
	headerOffsetSize = 24
	maxBodySize      = 10 << 20
)

// Meta is the part of the header that belongs to the packet value.
// Body length and payload offset are computed on serialize.
type Meta struct {
	MsgID        uint32
	ChannelID    uint8
	StreamType   uint8
	MsgNum       uint16
	ResponseCode uint16
	Class        uint16
}

func (m *Meta) IsLegacy() bool {
	return m.Class == ClassLegacy
}

func (m *Meta) HasPayloadOffset() bool {
	return m.Class == ClassModernWithOffset || m.Class == ClassModernReply
}

type header struct {
	Meta
	bodyLen       uint32
	payloadOffset uint32
}

func (h *header) size() int {
	if h.HasPayloadOffset() {
		return headerOffsetSize
	}
	return headerSize
}

func validClass(class uint16) bool {
	switch class {
	case ClassLegacy, ClassModern, ClassModernWithOffset, ClassModernReply:
		return true
	}
	return false
}

// parseHeader returns ErrIncomplete until the whole header is available,
// but rejects a wrong magic as soon as four bytes arrive.
func parseHeader(b []byte) (h header, err error) {
	if len(b) < 4 {
		return h, ErrIncomplete
	}

	switch magic := binary.LittleEndian.Uint32(b); magic {
	case magicHeader, magicHeaderRev:
	default:
		return h, errors.Join(ErrProtocol, fmt.Errorf("wrong magic: 0x%08X", magic))
	}

	if len(b) < headerSize {
		return h, ErrIncomplete
	}

	h.MsgID = binary.LittleEndian.Uint32(b[4:])
	h.bodyLen = binary.LittleEndian.Uint32(b[8:])
	h.ChannelID = b[12]
	h.StreamType = b[13]
	h.MsgNum = binary.LittleEndian.Uint16(b[14:])
	h.ResponseCode = binary.LittleEndian.Uint16(b[16:])
	h.Class = binary.LittleEndian.Uint16(b[18:])

	if !validClass(h.Class) {
		return h, errors.Join(ErrProtocol, fmt.Errorf("wrong class: 0x%04X", h.Class))
	}

	if h.bodyLen > maxBodySize {
		return h, errors.Join(ErrProtocol, fmt.Errorf("wrong body size: %d", h.bodyLen))
	}

	if h.HasPayloadOffset() {
		if len(b) < headerOffsetSize {
			return h, ErrIncomplete
		}
		h.payloadOffset = binary.LittleEndian.Uint32(b[20:])
		if h.payloadOffset > h.bodyLen {
			return h, errors.Join(ErrProtocol, fmt.Errorf("wrong payload offset: %d > %d", h.payloadOffset, h.bodyLen))
		}
	}

	return h, nil
}

func (h *header) appendTo(b []byte) []byte {
	b = binary.LittleEndian.AppendUint32(b, magicHeader)
	b = binary.LittleEndian.AppendUint32(b, h.MsgID)
	b = binary.LittleEndian.AppendUint32(b, h.bodyLen)
	b = append(b, h.ChannelID, h.StreamType)
	b = binary.LittleEndian.AppendUint16(b, h.MsgNum)
	b = binary.LittleEndian.AppendUint16(b, h.ResponseCode)
	b = binary.LittleEndian.AppendUint16(b, h.Class)
	if h.HasPayloadOffset() {
		b = binary.LittleEndian.AppendUint32(b, h.payloadOffset)
	}
	return b
}
