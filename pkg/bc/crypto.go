package bc

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"fmt"
)

type EncryptionType byte

const (
	EncryptionNone EncryptionType = iota
	EncryptionBC
	EncryptionAES
)

func (t EncryptionType) String() string {
	switch t {
	case EncryptionNone:
		return "none"
	case EncryptionBC:
		return "bc"
	case EncryptionAES:
		return "aes"
	}
	return fmt.Sprintf("unknown(%d)", byte(t))
}

// Encryption is one of three ciphers. The value is immutable: a new
// negotiation produces a new value. Zero value is Unencrypted.
type Encryption struct {
	Type EncryptionType
	Key  [16]byte // only for EncryptionAES
}

var (
	Unencrypted = Encryption{Type: EncryptionNone}
	BCEncrypt   = Encryption{Type: EncryptionBC}
)

func AES(key [16]byte) Encryption {
	return Encryption{Type: EncryptionAES, Key: key}
}

func (e Encryption) String() string {
	return e.Type.String()
}

// ForMessage returns the cipher for encoding a packet with msgID.
// Login packets never go higher than BCEncrypt, but they can go lower.
func ForMessage(e Encryption, msgID uint32) Encryption {
	if msgID == MsgIDLogin && e.Type == EncryptionAES {
		return BCEncrypt
	}
	return e
}

// Encrypt returns a new slice, src is untouched.
func (e Encryption) Encrypt(offset uint32, src []byte) []byte {
	switch e.Type {
	case EncryptionBC:
		return xorCrypt(offset, src)
	case EncryptionAES:
		return aesCrypt(e.Key, src, true)
	}
	return clone(src)
}

func (e Encryption) Decrypt(offset uint32, src []byte) []byte {
	switch e.Type {
	case EncryptionBC:
		return xorCrypt(offset, src)
	case EncryptionAES:
		return aesCrypt(e.Key, src, false)
	}
	return clone(src)
}

var xorKey = [8]byte{0x1F, 0x2D, 0x3C, 0x4B, 0x5A, 0x69, 0x78, 0xFF}

func xorCrypt(offset uint32, src []byte) []byte {
	dst := make([]byte, len(src))
	for i, b := range src {
		dst[i] = b ^ xorKey[(int(offset%8)+i)%8] ^ byte(offset)
	}
	return dst
}

var aesIV = []byte("0123456789abcdef")

func aesCrypt(key [16]byte, src []byte, encrypt bool) []byte {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		panic(err) // key size is always 16
	}

	var stream cipher.Stream
	if encrypt {
		stream = cipher.NewCFBEncrypter(block, aesIV)
	} else {
		stream = cipher.NewCFBDecrypter(block, aesIV)
	}

	dst := make([]byte, len(src))
	stream.XORKeyStream(dst, src)
	return dst
}

// MakeAESKey - first 16 chars of upper hex MD5 from "nonce-password"
func MakeAESKey(nonce, password string) (key [16]byte) {
	hash := fmt.Sprintf("%X", md5.Sum([]byte(nonce+"-"+password)))
	copy(key[:], hash)
	return
}

// md5String - upper hex MD5 cut to 31 chars, the camera keeps 32 bytes
// with a trailing zero
func md5String(s string) string {
	return fmt.Sprintf("%X", md5.Sum([]byte(s)))[:31]
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append(make([]byte, 0, len(b)), b...)
}
