package bc

import (
	"errors"
	"fmt"
)

var (
	// ErrIncomplete means the buffer does not hold a whole packet yet.
	// Codec.Decode never returns it.
	ErrIncomplete = errors.New("bc: incomplete packet")

	// ErrProtocol marks a corrupt stream. Framing can't continue after it.
	ErrProtocol = errors.New("bc: protocol error")

	ErrUnknownEncryption = errors.New("bc: unknown encryption")
)

type EncryptionError struct {
	Selector byte
}

func (e *EncryptionError) Error() string {
	return fmt.Sprintf("bc: unknown encryption selector: 0x%02X", e.Selector)
}

func (e *EncryptionError) Unwrap() error {
	return ErrUnknownEncryption
}
