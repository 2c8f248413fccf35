package services

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
)

// ConfigCodec turns a Configuration into a cookie-safe string and back
type ConfigCodec interface {
	Encode(cfg Configuration) (string, error)
	Decode(value string) (Configuration, error)
}

// NewConfigCodec returns a SealedCodec for a 32 byte key, otherwise the EncodedCodec
func NewConfigCodec(key string) ConfigCodec {
	if len(key) == 32 {
		return &SealedCodec{key: []byte(key)}
	}
	return EncodedCodec{}
}

// EncodedCodec stores the configuration as base64 JSON.
// This is a reversible encoding, not a cryptographic control.
type EncodedCodec struct{}

func (EncodedCodec) Encode(cfg Configuration) (string, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(data), nil
}

func (EncodedCodec) Decode(value string) (Configuration, error) {
	data, err := base64.URLEncoding.DecodeString(value)
	if err != nil {
		return Configuration{}, &ValidationError{Field: "config", Reason: "is not correctly encoded"}
	}
	return ParseConfiguration(data)
}

// SealedCodec encrypts the configuration with AES-GCM
type SealedCodec struct {
	key []byte
}

// Encode serializes and encrypts the configuration
func (s *SealedCodec) Encode(cfg Configuration) (string, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	gcm, err := s.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, data, nil)
	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

// Decode decrypts the cookie value back into a Configuration
func (s *SealedCodec) Decode(value string) (Configuration, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(value)
	if err != nil {
		return Configuration{}, &ValidationError{Field: "config", Reason: "is not correctly encoded"}
	}

	gcm, err := s.aead()
	if err != nil {
		return Configuration{}, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return Configuration{}, errors.New("malformed ciphertext")
	}

	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return Configuration{}, err
	}

	return ParseConfiguration(plaintext)
}

func (s *SealedCodec) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
