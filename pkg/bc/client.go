package bc

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"
)

const (
	DefaultPort = "9000"

	dialTimeout    = 3 * time.Second
	requestTimeout = 5 * time.Second
)

type Client struct {
	*Conn

	conn        net.Conn
	credentials Credentials
	channel     uint8
	msgNum      uint16

	DeviceInfo *DeviceInfo
}

// Dial support urls:
//   - bc://admin:password@192.168.1.123 - default port 9000, channel 0
//   - bc://admin:password@192.168.1.123:9000?channel=1 - NVR channel
//
// Handlers are attached before login, so they see every packet.
func Dial(rawURL string, handlers ...EventFunc) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	if u.Port() == "" {
		// add default TCP port
		u.Host += ":" + DefaultPort
	}

	var channel uint64
	if s := u.Query().Get("channel"); s != "" {
		if channel, err = strconv.ParseUint(s, 10, 8); err != nil {
			return nil, fmt.Errorf("bc: wrong channel: %s", s)
		}
	}

	var credentials Credentials
	if u.User != nil {
		credentials.Username = u.User.Username()
		credentials.Password, _ = u.User.Password()
	} else {
		credentials.Username = "admin"
	}

	conn, err := net.DialTimeout("tcp", u.Host, dialTimeout)
	if err != nil {
		return nil, err
	}

	c := NewClient(conn, credentials, uint8(channel))
	for _, f := range handlers {
		c.Listen(f)
	}

	if err = c.Login(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return c, nil
}

func NewClient(conn net.Conn, credentials Credentials, channel uint8) *Client {
	return &Client{
		Conn:        NewConn(conn, credentials),
		conn:        conn,
		credentials: credentials,
		channel:     channel,
	}
}

// Login - legacy login with hashed credentials, the reply negotiates the
// cipher, then modern login under the negotiated cipher
func (c *Client) Login() error {
	username := md5String(c.credentials.Username)
	password := md5String(c.credentials.Password)

	res, err := c.Request(&Packet{
		Meta: Meta{MsgID: MsgIDLogin, Class: ClassLegacy},
		Body: &Legacy{
			Login: &LegacyLogin{Username: username, Password: password},
		},
	})
	if err != nil {
		return err
	}

	if res.Meta.ResponseCode>>8 != ResponseEncryption {
		return fmt.Errorf("bc: legacy camera not supported: 0x%04X", res.Meta.ResponseCode)
	}

	res, err = c.Request(&Packet{
		Meta: Meta{MsgID: MsgIDLogin, Class: ClassModernWithOffset},
		Body: &Modern{
			Payload: &XML{
				LoginUser: &LoginUser{
					Version:  xmlVersion,
					UserName: username,
					Password: password,
					UserVer:  1,
				},
				LoginNet: &LoginNet{Version: xmlVersion, Type: "LAN"},
			},
		},
	})
	if err != nil {
		return err
	}

	if res.Meta.ResponseCode != ResponseOK {
		return fmt.Errorf("bc: wrong user/pass: %d", res.Meta.ResponseCode)
	}

	if x := res.XML(); x != nil {
		c.DeviceInfo = x.DeviceInfo
	}

	return nil
}

func (c *Client) Version() (*VersionInfo, error) {
	res, err := c.Request(&Packet{
		Meta: Meta{MsgID: MsgIDVersion, Class: ClassModernWithOffset},
		Body: &Modern{},
	})
	if err != nil {
		return nil, err
	}

	if res.Meta.ResponseCode != ResponseOK {
		return nil, fmt.Errorf("bc: wrong response on version: %d", res.Meta.ResponseCode)
	}

	if x := res.XML(); x != nil && x.VersionInfo != nil {
		return x.VersionInfo, nil
	}

	return nil, errors.New("bc: empty version info")
}

func (c *Client) Ping() error {
	res, err := c.Request(&Packet{
		Meta: Meta{MsgID: MsgIDPing, Class: ClassModernWithOffset},
		Body: &Modern{},
	})
	if err != nil {
		return err
	}

	if res.Meta.ResponseCode != ResponseOK {
		return fmt.Errorf("bc: wrong response on ping: %d", res.Meta.ResponseCode)
	}

	return nil
}

// Logout don't wait for the answer, camera closes the connection
func (c *Client) Logout() error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(requestTimeout)); err != nil {
		return err
	}

	return c.WritePacket(&Packet{
		Meta: Meta{MsgID: MsgIDLogout, ChannelID: c.channel, MsgNum: c.nextMsgNum(), Class: ClassModernWithOffset},
		Body: &Modern{
			Payload: &XML{
				LoginUser: &LoginUser{
					Version:  xmlVersion,
					UserName: md5String(c.credentials.Username),
					Password: md5String(c.credentials.Password),
					UserVer:  1,
				},
			},
		},
	})
}

// Request sends the packet with the next msg num and waits for the reply
// with the same msg id and msg num. Other packets are skipped, listeners
// still get them.
func (c *Client) Request(req *Packet) (*Packet, error) {
	req.Meta.ChannelID = c.channel
	req.Meta.MsgNum = c.nextMsgNum()

	if err := c.conn.SetWriteDeadline(time.Now().Add(requestTimeout)); err != nil {
		return nil, err
	}

	if err := c.WritePacket(req); err != nil {
		return nil, err
	}

	if err := c.conn.SetReadDeadline(time.Now().Add(requestTimeout)); err != nil {
		return nil, err
	}

	for {
		res, err := c.ReadPacket()
		if err != nil {
			return nil, err
		}

		if res.Meta.MsgID == req.Meta.MsgID && res.Meta.MsgNum == req.Meta.MsgNum {
			return res, nil
		}
	}
}

func (c *Client) nextMsgNum() uint16 {
	n := c.msgNum
	c.msgNum++
	return n
}

func (c *Client) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
