package bc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var testCredentials = Credentials{Username: "admin", Password: "secret"}

func loginReply(code uint16, nonce string) *Packet {
	return &Packet{
		Meta: Meta{MsgID: MsgIDLogin, MsgNum: 1, ResponseCode: code, Class: ClassModernReply},
		Body: &Modern{
			Payload: &XML{
				Encryption: &EncryptionInfo{Version: "1.1", Type: "md5", Nonce: nonce},
			},
		},
	}
}

func encode(t *testing.T, p *Packet, enc Encryption) []byte {
	b, err := p.Serialize(enc)
	require.Nil(t, err)
	return b
}

func TestCodecDefault(t *testing.T) {
	codec := NewCodec(testCredentials)
	require.Equal(t, BCEncrypt, codec.Encryption())
	require.False(t, codec.IsBinary(0))
}

func TestCodecNegotiation(t *testing.T) {
	tests := []struct {
		code uint16
		want Encryption
	}{
		{0xDD00, Unencrypted},
		{0xDD01, BCEncrypt},
		{0xDD02, AES(testCredentials.AESKey("abc123"))},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			codec := NewCodec(testCredentials)

			b := encode(t, loginReply(tt.code, "abc123"), BCEncrypt)
			p, n, err := codec.Decode(b)
			require.Nil(t, err)
			require.Equal(t, len(b), n)
			require.Equal(t, loginReply(tt.code, "abc123"), p)

			require.Equal(t, tt.want, codec.Encryption())
		})
	}
}

func TestCodecUnknownEncryption(t *testing.T) {
	codec := NewCodec(testCredentials)

	b := encode(t, loginReply(0xDD03, "abc123"), BCEncrypt)
	p, _, err := codec.Decode(b)
	require.Nil(t, p)
	require.ErrorIs(t, err, ErrUnknownEncryption)

	var encErr *EncryptionError
	require.ErrorAs(t, err, &encErr)
	require.Equal(t, byte(3), encErr.Selector)

	require.Equal(t, BCEncrypt, codec.Encryption())
}

func TestCodecNoNegotiation(t *testing.T) {
	tests := map[string]*Packet{
		"ok code": loginReply(ResponseOK, "abc123"),
		"other msg": func() *Packet {
			p := loginReply(0xDD02, "abc123")
			p.Meta.MsgID = MsgIDVersion
			return p
		}(),
		"no encryption xml": {
			Meta: Meta{MsgID: MsgIDLogin, ResponseCode: 0xDD02, Class: ClassModernReply},
			Body: &Modern{Payload: &XML{}},
		},
		"no payload": {
			Meta: Meta{MsgID: MsgIDLogin, ResponseCode: 0xDD00, Class: ClassModernReply},
			Body: &Modern{},
		},
	}

	for name, p := range tests {
		t.Run(name, func(t *testing.T) {
			codec := NewCodec(testCredentials)
			_, _, err := codec.Decode(encode(t, p, BCEncrypt))
			require.Nil(t, err)
			require.Equal(t, BCEncrypt, codec.Encryption())
		})
	}
}

func TestCodecIncomplete(t *testing.T) {
	codec := NewCodec(testCredentials)

	b := encode(t, loginReply(0xDD02, "abc123"), BCEncrypt)

	p, n, err := codec.Decode(b[:len(b)-1])
	require.Nil(t, err)
	require.Nil(t, p)
	require.Zero(t, n)
	require.Equal(t, BCEncrypt, codec.Encryption())

	p, n, err = codec.Decode(b)
	require.Nil(t, err)
	require.Equal(t, len(b), n)
	require.Equal(t, loginReply(0xDD02, "abc123"), p)
}

func TestCodecDecodeEOF(t *testing.T) {
	codec := NewCodec(testCredentials)

	b := encode(t, loginReply(0xDD01, "abc123"), BCEncrypt)

	p, n, err := codec.DecodeEOF(b[:10])
	require.Nil(t, err)
	require.Nil(t, p)
	require.Zero(t, n)

	p, n, err = codec.DecodeEOF(b)
	require.Nil(t, err)
	require.NotNil(t, p)
	require.Equal(t, len(b), n)
}

func TestCodecCorrupt(t *testing.T) {
	codec := NewCodec(testCredentials)

	_, _, err := codec.Decode([]byte("GET / HTTP/1.1\r\n\r\n"))
	require.ErrorIs(t, err, ErrProtocol)
}

func TestCodecBinaryMode(t *testing.T) {
	codec := NewCodec(testCredentials)

	on := &Packet{
		Meta: Meta{MsgID: MsgIDVideo, MsgNum: 7, ResponseCode: ResponseOK, Class: ClassModernReply},
		Body: &Modern{
			Extension: &Extension{BinaryData: ptr[uint32](1)},
			Payload:   Binary{0, 1, 2, 3},
		},
	}
	_, _, err := codec.Decode(encode(t, on, BCEncrypt))
	require.Nil(t, err)
	require.True(t, codec.IsBinary(7))
	require.False(t, codec.IsBinary(8))

	// next packets of msg num 7 are binary without extension
	data := &Packet{
		Meta: Meta{MsgID: MsgIDVideo, MsgNum: 7, Class: ClassModern},
		Body: &Modern{Payload: Binary{4, 5, 6}},
	}
	p, _, err := codec.Decode(encode(t, data, BCEncrypt))
	require.Nil(t, err)
	require.Equal(t, data, p)

	off := &Packet{
		Meta: Meta{MsgID: MsgIDVideo, MsgNum: 7, Class: ClassModernReply},
		Body: &Modern{Extension: &Extension{BinaryData: ptr[uint32](0)}},
	}
	_, _, err = codec.Decode(encode(t, off, BCEncrypt))
	require.Nil(t, err)
	require.False(t, codec.IsBinary(7))
	require.False(t, codec.IsBinary(8))
}

func TestCodecEncodeDowngrade(t *testing.T) {
	codec := NewCodec(testCredentials)
	key := testCredentials.AESKey("abc123")
	codec.ctx.setEncryption(AES(key))

	login := testPackets()["modern login"]

	b, err := codec.Encode(nil, login)
	require.Nil(t, err)
	require.Equal(t, encode(t, login, BCEncrypt), b)
	require.NotEqual(t, encode(t, login, AES(key)), b)

	// context is unchanged
	require.Equal(t, AES(key), codec.Encryption())

	// other messages use AES
	version := &Packet{
		Meta: Meta{MsgID: MsgIDVersion, Class: ClassModernWithOffset},
		Body: &Modern{Payload: &XML{VersionInfo: &VersionInfo{Name: "cam"}}},
	}
	b, err = codec.Encode([]byte{0xFF}, version)
	require.Nil(t, err)
	require.Equal(t, append([]byte{0xFF}, encode(t, version, AES(key))...), b)
}

func TestCodecLoginScenario(t *testing.T) {
	codec := NewCodec(testCredentials)
	require.Equal(t, BCEncrypt, codec.Encryption())

	_, _, err := codec.Decode(encode(t, loginReply(0xDD02, "abc123"), BCEncrypt))
	require.Nil(t, err)

	key := MakeAESKey("abc123", testCredentials.Password)
	require.Equal(t, AES(key), codec.Encryption())

	login := testPackets()["modern login"]
	b, err := codec.Encode(nil, login)
	require.Nil(t, err)
	require.Equal(t, encode(t, login, BCEncrypt), b)
	require.NotEqual(t, encode(t, login, AES(key)), b)

	// replies after login are deciphered with AES
	info := &Packet{
		Meta: Meta{MsgID: MsgIDLogin, MsgNum: 2, ResponseCode: ResponseOK, Class: ClassModernReply},
		Body: &Modern{Payload: &XML{DeviceInfo: &DeviceInfo{Version: "1.1"}}},
	}
	p, _, err := codec.Decode(encode(t, info, AES(key)))
	require.Nil(t, err)
	require.Equal(t, info, p)
}
