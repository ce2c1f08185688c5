// Package codec seals Temporal payloads so submission inputs, bearer tokens
// included, are stored encrypted in workflow history.
package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	commonpb "go.temporal.io/api/common/v1"
	"go.temporal.io/sdk/converter"
	"google.golang.org/protobuf/proto"
)

// EncodingEncrypted marks payloads sealed by AESCodec.
const EncodingEncrypted = "binary/encrypted"

// ErrInvalidKey is returned for keys that are not 32 bytes of base64.
var ErrInvalidKey = errors.New("payload key must be 32 base64-encoded bytes")

// AESCodec encrypts whole payloads with AES-256-GCM.
type AESCodec struct {
	aead cipher.AEAD
}

// NewAESCodec builds a codec from a raw 32 byte key.
func NewAESCodec(key []byte) (*AESCodec, error) {
	if len(key) != 32 {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &AESCodec{aead: aead}, nil
}

// ParseKey decodes a standard base64 key as found in the environment.
func ParseKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil || len(key) != 32 {
		return nil, ErrInvalidKey
	}
	return key, nil
}

// DataConverter wraps the default converter with the codec.
func DataConverter(key []byte) (converter.DataConverter, error) {
	c, err := NewAESCodec(key)
	if err != nil {
		return nil, err
	}
	return converter.NewCodecDataConverter(converter.GetDefaultDataConverter(), c), nil
}

func (c *AESCodec) Encode(payloads []*commonpb.Payload) ([]*commonpb.Payload, error) {
	result := make([]*commonpb.Payload, len(payloads))
	for i, p := range payloads {
		plain, err := proto.Marshal(p)
		if err != nil {
			return payloads, err
		}
		nonce := make([]byte, c.aead.NonceSize())
		if _, err := rand.Read(nonce); err != nil {
			return payloads, err
		}
		result[i] = &commonpb.Payload{
			Metadata: map[string][]byte{converter.MetadataEncoding: []byte(EncodingEncrypted)},
			Data:     c.aead.Seal(nonce, nonce, plain, nil),
		}
	}
	return result, nil
}

func (c *AESCodec) Decode(payloads []*commonpb.Payload) ([]*commonpb.Payload, error) {
	result := make([]*commonpb.Payload, len(payloads))
	for i, p := range payloads {
		if string(p.Metadata[converter.MetadataEncoding]) != EncodingEncrypted {
			result[i] = p
			continue
		}
		size := c.aead.NonceSize()
		if len(p.Data) < size {
			return payloads, errors.New("encrypted payload too short")
		}
		plain, err := c.aead.Open(nil, p.Data[:size], p.Data[size:], nil)
		if err != nil {
			return payloads, fmt.Errorf("decrypt payload: %w", err)
		}
		result[i] = &commonpb.Payload{}
		if err := proto.Unmarshal(plain, result[i]); err != nil {
			return payloads, err
		}
	}
	return result, nil
}

var _ converter.PayloadCodec = (*AESCodec)(nil)
