package bc

import "errors"

// Codec turns a byte stream into packets and back for one connection.
// Decoding a login reply or an extension block updates the session context,
// which then applies to every following Encode and Decode.
type Codec struct {
	ctx *Context
}

func NewCodec(credentials Credentials) *Codec {
	return &Codec{ctx: NewContext(credentials)}
}

func (c *Codec) Encryption() Encryption {
	return c.ctx.Encryption()
}

func (c *Codec) IsBinary(msgNum uint16) bool {
	return c.ctx.IsBinary(msgNum)
}

// Encode appends the packet to dst. The context is never changed here.
func (c *Codec) Encode(dst []byte, p *Packet) ([]byte, error) {
	enc := ForMessage(c.ctx.Encryption(), p.Meta.MsgID)
	return p.AppendTo(dst, enc)
}

// Decode returns the first packet of src and the number of consumed bytes.
// Not enough data is not an error: nil packet, zero bytes. The caller keeps
// src and calls again when more bytes arrive.
func (c *Codec) Decode(src []byte) (*Packet, int, error) {
	p, n, err := Deserialize(c.ctx, src)
	if err != nil {
		if errors.Is(err, ErrIncomplete) {
			return nil, 0, nil
		}
		return nil, 0, err
	}

	if err = c.update(p); err != nil {
		return nil, 0, err
	}

	return p, n, nil
}

// DecodeEOF is Decode at the end of stream. Trailing bytes that don't form
// a packet are dropped without error.
func (c *Codec) DecodeEOF(src []byte) (*Packet, int, error) {
	return c.Decode(src)
}

func (c *Codec) update(p *Packet) error {
	msg, ok := p.Body.(*Modern)
	if !ok {
		return nil
	}

	if p.Meta.MsgID == MsgIDLogin && p.Meta.ResponseCode>>8 == ResponseEncryption {
		if x, ok := msg.Payload.(*XML); ok && x.Encryption != nil {
			// login reply has the encryption info
			enc, err := c.negotiate(byte(p.Meta.ResponseCode), x.Encryption.Nonce)
			if err != nil {
				return err
			}
			c.ctx.setEncryption(enc)
		}
	}

	if ext := msg.Extension; ext != nil && ext.BinaryData != nil {
		if *ext.BinaryData == 0 {
			c.ctx.binaryOff(p.Meta.MsgNum)
		} else {
			c.ctx.binaryOn(p.Meta.MsgNum)
		}
	}

	return nil
}

func (c *Codec) negotiate(selector byte, nonce string) (Encryption, error) {
	switch selector {
	case 0x00:
		return Unencrypted, nil
	case 0x01:
		return BCEncrypt, nil
	case 0x02:
		return AES(c.ctx.Credentials().AESKey(nonce)), nil
	}
	return Encryption{}, &EncryptionError{Selector: selector}
}
