package bc

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
)

// Packet is one BC message. Cipher state is not part of the value.
type Packet struct {
	Meta Meta
	Body Body
}

// Body is *Legacy or *Modern
type Body interface {
	body()
}

// Legacy body of old firmwares. New cameras still use it for the first login.
type Legacy struct {
	Login *LegacyLogin
	Data  []byte
}

type LegacyLogin struct {
	Username string
	Password string
}

// Modern body: optional extension followed by optional payload
type Modern struct {
	Extension *Extension
	Payload   Payload
}

// Payload is *XML or Binary
type Payload interface {
	payload()
}

// Binary is opaque payload data (video, audio, files)
type Binary []byte

func (Binary) payload() {}

func (*Legacy) body() {}
func (*Modern) body() {}

const (
	legacyHashSize  = 32
	legacyLoginSize = 1836
)

// Serialize - header and body, ciphered with enc. The caller chooses enc,
// see ForMessage.
func (p *Packet) Serialize(enc Encryption) ([]byte, error) {
	return p.AppendTo(nil, enc)
}

func (p *Packet) AppendTo(dst []byte, enc Encryption) ([]byte, error) {
	h := header{Meta: p.Meta}

	if !validClass(h.Class) {
		return nil, fmt.Errorf("bc: wrong class: 0x%04X", h.Class)
	}

	var body []byte

	switch b := p.Body.(type) {
	case nil:
		return nil, errors.New("bc: empty body")
	case *Legacy:
		if !h.IsLegacy() {
			return nil, fmt.Errorf("bc: legacy body with class 0x%04X", h.Class)
		}
		var err error
		if body, err = b.marshal(h.MsgID); err != nil {
			return nil, err
		}
	case *Modern:
		if h.IsLegacy() {
			return nil, errors.New("bc: modern body with legacy class")
		}

		offset := uint32(h.ChannelID)

		if b.Extension != nil {
			if !h.HasPayloadOffset() {
				return nil, fmt.Errorf("bc: extension with class 0x%04X", h.Class)
			}
			ext, err := marshalXML("Extension", b.Extension)
			if err != nil {
				return nil, err
			}
			body = enc.Encrypt(offset, ext)
			h.payloadOffset = uint32(len(body))
		}

		switch payload := b.Payload.(type) {
		case nil:
		case Binary:
			if len(payload) == 0 {
				return nil, errors.New("bc: empty binary payload")
			}
			body = append(body, payload...)
		case *XML:
			data, err := marshalXML("body", payload)
			if err != nil {
				return nil, err
			}
			body = append(body, enc.Encrypt(offset, data)...)
		default:
			return nil, fmt.Errorf("bc: unsupported payload: %T", payload)
		}
	default:
		return nil, fmt.Errorf("bc: unsupported body: %T", b)
	}

	if len(body) > maxBodySize {
		return nil, fmt.Errorf("bc: body too large: %d", len(body))
	}

	h.bodyLen = uint32(len(body))

	dst = h.appendTo(dst)
	return append(dst, body...), nil
}

// Deserialize parses one packet from the start of b and returns it with
// the number of consumed bytes. The context is only read: the active cipher
// and the binary mode of msg numbers. Returns ErrIncomplete if b is too short.
func Deserialize(ctx *Context, b []byte) (*Packet, int, error) {
	h, err := parseHeader(b)
	if err != nil {
		return nil, 0, err
	}

	n := h.size() + int(h.bodyLen)
	if len(b) < n {
		return nil, 0, ErrIncomplete
	}

	body := b[h.size():n]
	p := &Packet{Meta: h.Meta}

	if h.IsLegacy() {
		p.Body = parseLegacy(h.MsgID, body)
	} else if p.Body, err = parseModern(ctx, &h, body); err != nil {
		return nil, 0, err
	}

	return p, n, nil
}

// marshal rejects bodies that parseLegacy would read back differently
func (l *Legacy) marshal(msgID uint32) ([]byte, error) {
	if l.Login == nil {
		if l.Data != nil && len(l.Data) == 0 {
			return nil, errors.New("bc: empty legacy data")
		}
		if msgID == MsgIDLogin && len(l.Data) >= 2*legacyHashSize {
			return nil, errors.New("bc: legacy login as raw data")
		}
		return clone(l.Data), nil
	}

	if msgID != MsgIDLogin {
		return nil, fmt.Errorf("bc: legacy login with msg id %d", msgID)
	}
	if l.Data != nil {
		return nil, errors.New("bc: legacy login with data")
	}

	if len(l.Login.Username) > legacyHashSize || len(l.Login.Password) > legacyHashSize {
		return nil, errors.New("bc: legacy login too long")
	}

	b := make([]byte, legacyLoginSize)
	copy(b, l.Login.Username)
	copy(b[legacyHashSize:], l.Login.Password)
	return b, nil
}

func parseLegacy(msgID uint32, b []byte) *Legacy {
	if msgID == MsgIDLogin && len(b) >= 2*legacyHashSize {
		return &Legacy{
			Login: &LegacyLogin{
				Username: string(bytes.TrimRight(b[:legacyHashSize], "\x00")),
				Password: string(bytes.TrimRight(b[legacyHashSize:2*legacyHashSize], "\x00")),
			},
		}
	}

	if len(b) == 0 {
		return &Legacy{}
	}

	return &Legacy{Data: clone(b)}
}

func parseModern(ctx *Context, h *header, b []byte) (*Modern, error) {
	enc := ctx.Encryption()
	offset := uint32(h.ChannelID)

	msg := &Modern{}

	payload := b
	if h.HasPayloadOffset() {
		ext := b[:h.payloadOffset]
		payload = b[h.payloadOffset:]

		if len(ext) > 0 {
			msg.Extension = &Extension{}
			if err := xml.Unmarshal(enc.Decrypt(offset, ext), msg.Extension); err != nil {
				return nil, errors.Join(ErrProtocol, fmt.Errorf("extension: %w", err))
			}
		}
	}

	if len(payload) == 0 {
		return msg, nil
	}

	if ctx.IsBinary(h.MsgNum) || msg.Extension.IsBinary() {
		msg.Payload = Binary(clone(payload))
		return msg, nil
	}

	x := &XML{}
	if err := xml.Unmarshal(enc.Decrypt(offset, payload), x); err != nil {
		return nil, errors.Join(ErrProtocol, fmt.Errorf("payload: %w", err))
	}
	msg.Payload = x

	return msg, nil
}

// XML returns the structured payload of a modern message or nil
func (p *Packet) XML() *XML {
	if msg, ok := p.Body.(*Modern); ok {
		if x, ok := msg.Payload.(*XML); ok {
			return x
		}
	}
	return nil
}
