package settings

import (
	"fmt"

	"github.com/fernet/fernet-go"
)

// Codec encrypts and decrypts setting values with a Fernet key. Tokens are
// verified with no TTL so stored credentials never expire.
type Codec struct {
	key *fernet.Key
}

func NewCodec(encodedKey string) (*Codec, error) {
	key, err := fernet.DecodeKey(encodedKey)
	if err != nil {
		return nil, err
	}
	return &Codec{key: key}, nil
}

func (c *Codec) Encrypt(plain string) (string, error) {
	tok, err := fernet.EncryptAndSign([]byte(plain), c.key)
	if err != nil {
		return "", err
	}
	return string(tok), nil
}

func (c *Codec) Decrypt(token string) (string, error) {
	msg := fernet.VerifyAndDecrypt([]byte(token), 0, []*fernet.Key{c.key})
	if msg == nil {
		return "", fmt.Errorf("token verification failed")
	}
	return string(msg), nil
}
