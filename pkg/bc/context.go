package bc

import "sync"

type Credentials struct {
	Username string
	Password string
}

func (c Credentials) AESKey(nonce string) [16]byte {
	return MakeAESKey(nonce, c.Password)
}

// Context is the per-connection protocol state. Only the decode path of
// Codec changes it, so the setters are unexported. Reads and writes are
// locked, so encode and decode may run on different goroutines.
type Context struct {
	credentials Credentials

	mu         sync.RWMutex
	encryption Encryption
	binary     map[uint16]struct{}
}

func NewContext(credentials Credentials) *Context {
	return &Context{
		credentials: credentials,
		encryption:  BCEncrypt,
		binary:      map[uint16]struct{}{},
	}
}

func (c *Context) Credentials() Credentials {
	return c.credentials
}

func (c *Context) Encryption() Encryption {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.encryption
}

func (c *Context) IsBinary(msgNum uint16) bool {
	c.mu.RLock()
	_, ok := c.binary[msgNum]
	c.mu.RUnlock()
	return ok
}

func (c *Context) setEncryption(e Encryption) {
	c.mu.Lock()
	c.encryption = e
	c.mu.Unlock()
}

func (c *Context) binaryOn(msgNum uint16) {
	c.mu.Lock()
	c.binary[msgNum] = struct{}{}
	c.mu.Unlock()
}

func (c *Context) binaryOff(msgNum uint16) {
	c.mu.Lock()
	delete(c.binary, msgNum)
	c.mu.Unlock()
}
