package bc

import (
	"bytes"
	"encoding/xml"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" ?>` + "\n"

const xmlVersion = "1.1"

// XML is the <body> document of a modern message payload.
// Only the elements used by this package are modelled, others are dropped.
type XML struct {
	Encryption  *EncryptionInfo `xml:"Encryption,omitempty"`
	LoginUser   *LoginUser      `xml:"LoginUser,omitempty"`
	LoginNet    *LoginNet       `xml:"LoginNet,omitempty"`
	DeviceInfo  *DeviceInfo     `xml:"DeviceInfo,omitempty"`
	VersionInfo *VersionInfo    `xml:"VersionInfo,omitempty"`
	Preview     *Preview        `xml:"Preview,omitempty"`
}

func (*XML) payload() {}

type EncryptionInfo struct {
	Version string `xml:"version,attr,omitempty"`
	Type    string `xml:"type"`
	Nonce   string `xml:"nonce"`
}

type LoginUser struct {
	Version  string `xml:"version,attr,omitempty"`
	UserName string `xml:"userName"`
	Password string `xml:"password"`
	UserVer  uint32 `xml:"userVer"`
}

type LoginNet struct {
	Version string `xml:"version,attr,omitempty"`
	Type    string `xml:"type"`
	UDPPort uint16 `xml:"udpPort"`
}

type DeviceInfo struct {
	Version    string      `xml:"version,attr,omitempty"`
	Resolution *Resolution `xml:"resolution,omitempty"`
}

type Resolution struct {
	Name   string `xml:"resolutionName"`
	Width  uint32 `xml:"width"`
	Height uint32 `xml:"height"`
}

type VersionInfo struct {
	Version         string `xml:"version,attr,omitempty"`
	Name            string `xml:"name,omitempty"`
	SerialNumber    string `xml:"serialNumber,omitempty"`
	BuildDay        string `xml:"buildDay,omitempty"`
	HardwareVersion string `xml:"hardwareVersion,omitempty"`
	CfgVersion      string `xml:"cfgVersion,omitempty"`
	FirmwareVersion string `xml:"firmwareVersion,omitempty"`
	Detail          string `xml:"detail,omitempty"`
}

type Preview struct {
	Version    string `xml:"version,attr,omitempty"`
	ChannelID  uint8  `xml:"channelId"`
	Handle     uint32 `xml:"handle"`
	StreamType string `xml:"streamType,omitempty"`
}

// Extension is the out-of-band block in front of the payload.
type Extension struct {
	Version    string  `xml:"version,attr,omitempty"`
	BinaryData *uint32 `xml:"binaryData,omitempty"`
	UserName   string  `xml:"userName,omitempty"`
	Token      string  `xml:"token,omitempty"`
	ChannelID  *uint8  `xml:"channelId,omitempty"`
}

// IsBinary - the payload after this extension is opaque data
func (e *Extension) IsBinary() bool {
	return e != nil && e.BinaryData != nil && *e.BinaryData != 0
}

func marshalXML(name string, v any) ([]byte, error) {
	buf := bytes.NewBufferString(xmlHeader)
	enc := xml.NewEncoder(buf)
	if err := enc.EncodeElement(v, xml.StartElement{Name: xml.Name{Local: name}}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
