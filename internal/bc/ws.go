package bc

import (
	"errors"

	"github.com/AlexxIT/neolink/internal/api/ws"
	"github.com/AlexxIT/neolink/pkg/bc"
)

// Event is a packet header pushed to websocket clients. Bodies are not sent,
// login packets carry credential hashes.
type Event struct {
	Direction    string `json:"direction"`
	MsgID        uint32 `json:"msg_id"`
	MsgNum       uint16 `json:"msg_num"`
	ChannelID    uint8  `json:"channel_id"`
	ResponseCode uint16 `json:"response_code,omitempty"`
	Class        uint16 `json:"class"`
	Binary       bool   `json:"binary,omitempty"`
}

func newEvent(msg any) *Event {
	var p *bc.Packet
	var direction string

	switch v := msg.(type) {
	case *bc.Packet:
		p, direction = v, "rx"
	case bc.Sent:
		p, direction = v.Packet, "tx"
	default:
		return nil
	}

	e := &Event{
		Direction:    direction,
		MsgID:        p.Meta.MsgID,
		MsgNum:       p.Meta.MsgNum,
		ChannelID:    p.Meta.ChannelID,
		ResponseCode: p.Meta.ResponseCode,
		Class:        p.Meta.Class,
	}
	if m, ok := p.Body.(*bc.Modern); ok {
		_, e.Binary = m.Payload.(bc.Binary)
	}
	return e
}

// wsPackets streams packet events of one camera, value is the camera name
func wsPackets(tr *ws.Transport, msg *ws.Message) error {
	s := getSession(msg.String())
	if s == nil {
		return errors.New("camera not found")
	}

	unsubscribe := s.subscribe(func(msg any) {
		if e := newEvent(msg); e != nil {
			tr.Write(&ws.Message{Type: "bc/packet", Value: e})
		}
	})
	tr.OnClose(unsubscribe)

	return nil
}
