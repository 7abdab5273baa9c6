package bc

import (
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeCamera answers a login with the selected encryption, then a version
// request under the negotiated cipher
func fakeCamera(conn net.Conn, creds Credentials, code uint16, nonce string) error {
	defer conn.Close()

	cam := NewConn(conn, Credentials{})

	req, err := cam.ReadPacket()
	if err != nil {
		return err
	}

	legacy, ok := req.Body.(*Legacy)
	if !ok || legacy.Login == nil {
		return errors.New("no legacy login")
	}
	if legacy.Login.Username != md5String(creds.Username) || legacy.Login.Password != md5String(creds.Password) {
		return errors.New("wrong legacy login")
	}

	reply := loginReply(code, nonce)
	reply.Meta.MsgNum = req.Meta.MsgNum
	if err = cam.WritePacket(reply); err != nil {
		return err
	}

	var enc Encryption
	switch code {
	case 0xDD00:
		enc = Unencrypted
	case 0xDD01:
		enc = BCEncrypt
	case 0xDD02:
		enc = AES(creds.AESKey(nonce))
	default:
		return nil
	}

	// client sends modern login with BCEncrypt or lower
	cam.codec.ctx.setEncryption(ForMessage(enc, MsgIDLogin))

	if req, err = cam.ReadPacket(); err != nil {
		return err
	}

	x := req.XML()
	if x == nil || x.LoginUser == nil || x.LoginUser.Password != md5String(creds.Password) {
		return fmt.Errorf("wrong modern login: %+v", x)
	}

	// camera answers with the negotiated cipher
	res := &Packet{
		Meta: Meta{MsgID: MsgIDLogin, MsgNum: req.Meta.MsgNum, ResponseCode: ResponseOK, Class: ClassModernReply},
		Body: &Modern{
			Payload: &XML{
				DeviceInfo: &DeviceInfo{Resolution: &Resolution{Name: "2560*1440", Width: 2560, Height: 1440}},
			},
		},
	}
	b, err := res.Serialize(enc)
	if err != nil {
		return err
	}
	if _, err = conn.Write(b); err != nil {
		return err
	}

	cam.codec.ctx.setEncryption(enc)

	if req, err = cam.ReadPacket(); err != nil {
		return err
	}
	if req.Meta.MsgID != MsgIDVersion {
		return fmt.Errorf("wrong request: %d", req.Meta.MsgID)
	}

	// unrelated packet in the middle
	if err = cam.WritePacket(&Packet{
		Meta: Meta{MsgID: MsgIDVideo, MsgNum: 100, Class: ClassModernReply},
		Body: &Modern{Extension: &Extension{BinaryData: ptr[uint32](1)}, Payload: Binary{1, 2}},
	}); err != nil {
		return err
	}

	return cam.WritePacket(&Packet{
		Meta: Meta{MsgID: MsgIDVersion, MsgNum: req.Meta.MsgNum, ResponseCode: ResponseOK, Class: ClassModernReply},
		Body: &Modern{Payload: &XML{VersionInfo: &VersionInfo{Name: "Garage", FirmwareVersion: "v3.0.0"}}},
	})
}

func TestClientLogin(t *testing.T) {
	for _, code := range []uint16{0xDD00, 0xDD01, 0xDD02} {
		t.Run(fmt.Sprintf("%04X", code), func(t *testing.T) {
			conn1, conn2 := net.Pipe()

			errs := make(chan error, 1)
			go func() {
				errs <- fakeCamera(conn2, testCredentials, code, "0123abcd")
			}()

			client := NewClient(conn1, testCredentials, 0)
			defer client.Close()

			var video int
			client.Listen(func(msg any) {
				if p, ok := msg.(*Packet); ok && p.Meta.MsgID == MsgIDVideo {
					video++
				}
			})

			require.Nil(t, client.Login())
			require.NotNil(t, client.DeviceInfo)
			require.Equal(t, uint32(2560), client.DeviceInfo.Resolution.Width)

			info, err := client.Version()
			require.Nil(t, err)
			require.Equal(t, "Garage", info.Name)
			require.Equal(t, 1, video)
			require.True(t, client.codec.IsBinary(100))

			require.Nil(t, <-errs)
		})
	}
}

func TestClientUnknownEncryption(t *testing.T) {
	conn1, conn2 := net.Pipe()

	errs := make(chan error, 1)
	go func() {
		errs <- fakeCamera(conn2, testCredentials, 0xDD07, "0123abcd")
	}()

	client := NewClient(conn1, testCredentials, 0)
	defer client.Close()

	err := client.Login()
	require.ErrorIs(t, err, ErrUnknownEncryption)
	require.Nil(t, <-errs)
}

func TestClientLegacyCamera(t *testing.T) {
	conn1, conn2 := net.Pipe()

	go func() {
		defer conn2.Close()
		cam := NewConn(conn2, Credentials{})
		req, err := cam.ReadPacket()
		if err != nil {
			return
		}
		_ = cam.WritePacket(&Packet{
			Meta: Meta{MsgID: MsgIDLogin, MsgNum: req.Meta.MsgNum, ResponseCode: ResponseOK, Class: ClassLegacy},
			Body: &Legacy{},
		})
	}()

	client := NewClient(conn1, testCredentials, 0)
	defer client.Close()

	require.NotNil(t, client.Login())
}

func TestDialEvents(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.Nil(t, err)
	defer ln.Close()

	errs := make(chan error, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			errs <- err
			return
		}
		errs <- fakeCamera(conn, testCredentials, 0xDD02, "0123abcd")
	}()

	var sent, recv int
	handler := func(msg any) {
		switch msg.(type) {
		case Sent:
			sent++
		case *Packet:
			recv++
		}
	}

	rawURL := fmt.Sprintf("bc://admin:secret@%s", ln.Addr())
	client, err := Dial(rawURL, handler)
	require.Nil(t, err)
	defer client.Close()

	// legacy and modern login with their replies
	require.Equal(t, 2, sent)
	require.Equal(t, 2, recv)
	require.Equal(t, EncryptionAES, client.Encryption().Type)

	_, err = client.Version()
	require.Nil(t, err)
	require.Equal(t, 3, sent)
	require.Equal(t, 4, recv)

	require.Nil(t, <-errs)
}

func TestDialWrongURL(t *testing.T) {
	_, err := Dial("bc://admin:pass@127.0.0.1:1?channel=300")
	require.NotNil(t, err)
}
