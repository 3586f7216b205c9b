package vault

import (
	"encoding/base64"
	"errors"
	"fmt"
)

var ErrEmptySecret = errors.New("obfuscation secret must not be empty")

// Codec is the symmetric obfuscation transform: every byte of the value is
// XORed with the secret repeated to the value's length, then base64-encoded.
type Codec struct {
	key []byte
}

func NewCodec(secret string) (Codec, error) {
	if secret == "" {
		return Codec{}, ErrEmptySecret
	}
	return Codec{key: []byte(secret)}, nil
}

func (c Codec) Encode(raw string) string {
	return base64.StdEncoding.EncodeToString(c.xor([]byte(raw)))
}

func (c Codec) Decode(enc string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return "", fmt.Errorf("decode credential: %w", err)
	}
	return string(c.xor(b)), nil
}

func (c Codec) xor(in []byte) []byte {
	out := make([]byte, len(in))
	for i := range in {
		out[i] = in[i] ^ c.key[i%len(c.key)]
	}
	return out
}
