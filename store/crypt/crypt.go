// Package crypt implements the page encryption codec.
//
// A password is stretched with PBKDF2-HMAC-SHA1 (1000 iterations) into a
// 32-byte AES-256 key and a 16-byte IV. Page payloads are encrypted with
// AES-256-CBC and PKCS#7 padding. Every page uses the same IV, which is what
// existing encrypted files expect; callers needing semantic security across
// pages should not rely on this codec.
package crypt

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha1"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/text/encoding/charmap"

	"github.com/joshuapare/pagestore/internal/buf"
	"github.com/joshuapare/pagestore/internal/format"
	"github.com/joshuapare/pagestore/pkg/types"
)

const (
	// Iterations is the PBKDF2 iteration count.
	Iterations = 1000
	// KeySize is the AES-256 key length.
	KeySize = 32
	// IVSize is the CBC initialization vector length (one AES block).
	IVSize = aes.BlockSize
	// SaltSize is the length of the password-derived salt.
	SaltSize = 8

	// MaxPlaintext is the largest plaintext one page can hold once encrypted.
	MaxPlaintext = format.EncryptedPayloadSize
)

// Codec encrypts and decrypts page payloads with a fixed key and IV.
// A Codec is safe for concurrent use.
type Codec struct {
	block cipher.Block
	iv    [IVSize]byte
}

// New derives a codec from password and zeroes password before returning,
// whether or not derivation succeeds.
func New(password []byte) (*Codec, error) {
	defer clear(password)
	if len(password) == 0 {
		return nil, types.Errorf(types.ErrKindSecurity, "crypt: password empty or too short")
	}

	derived := pbkdf2.Key(password, Salt(password), Iterations, KeySize+IVSize, sha1.New)
	defer clear(derived)

	block, err := aes.NewCipher(derived[:KeySize])
	if err != nil {
		return nil, fmt.Errorf("crypt: %w", err)
	}
	c := &Codec{block: block}
	copy(c.iv[:], derived[KeySize:])
	return c, nil
}

// Salt returns the 8-byte salt derived from the password bytes:
// salt[i] = pwd[i mod n] XOR (n - i).
func Salt(password []byte) []byte {
	n := len(password)
	salt := make([]byte, SaltSize)
	if n == 0 {
		return salt
	}
	for i := range salt {
		salt[i] = password[i%n] ^ byte(n-i)
	}
	return salt
}

// EncodePassword converts a text password to the byte form used for key
// derivation (Windows-1252). Characters outside that code page fail.
func EncodePassword(password string) ([]byte, error) {
	b, err := charmap.Windows1252.NewEncoder().Bytes([]byte(password))
	if err != nil {
		return nil, types.Errorf(types.ErrKindSecurity, "crypt: encode password: %w", err)
	}
	return b, nil
}

// CiphertextSize returns the ciphertext length for n plaintext bytes.
func CiphertextSize(n int) int {
	return (n/aes.BlockSize + 1) * aes.BlockSize
}

// Encrypt returns the padded ciphertext of plain. Plaintext longer than
// MaxPlaintext yields a capacity error.
func (c *Codec) Encrypt(plain []byte) ([]byte, error) {
	if len(plain) > MaxPlaintext {
		return nil, types.Errorf(types.ErrKindCapacity, "crypt: plaintext is %d bytes, max %d", len(plain), MaxPlaintext)
	}
	pad := aes.BlockSize - len(plain)%aes.BlockSize
	out := make([]byte, len(plain)+pad)
	copy(out, plain)
	copy(out[len(plain):], bytes.Repeat([]byte{byte(pad)}, pad))
	cipher.NewCBCEncrypter(c.block, c.iv[:]).CryptBlocks(out, out)
	return out, nil
}

// Decrypt returns the plaintext of ct, validating block alignment and
// padding. Failures are reported as corrupt.
func (c *Codec) Decrypt(ct []byte) ([]byte, error) {
	if len(ct) == 0 || len(ct)%aes.BlockSize != 0 || len(ct) > format.MaxCiphertextSize {
		return nil, types.Errorf(types.ErrKindCorrupt, "crypt: ciphertext length %d", len(ct))
	}
	out := make([]byte, len(ct))
	cipher.NewCBCDecrypter(c.block, c.iv[:]).CryptBlocks(out, ct)

	pad := int(out[len(out)-1])
	if pad == 0 || pad > aes.BlockSize {
		return nil, types.Errorf(types.ErrKindCorrupt, "crypt: bad padding")
	}
	for _, b := range out[len(out)-pad:] {
		if int(b) != pad {
			return nil, types.Errorf(types.ErrKindCorrupt, "crypt: bad padding")
		}
	}
	return out[:len(out)-pad], nil
}

// Seal encrypts plain into a page payload: ciphertext length at
// EncryptedLengthOffset, ciphertext after it, the rest zeroed.
func (c *Codec) Seal(payload, plain []byte) error {
	ct, err := c.Encrypt(plain)
	if err != nil {
		return err
	}
	clear(payload)
	format.PutU32(payload, format.EncryptedLengthOffset, uint32(len(ct)))
	copy(payload[format.EncryptedDataOffset:], ct)
	return nil
}

// Open decrypts an encrypted page payload written by Seal.
func (c *Codec) Open(payload []byte) ([]byte, error) {
	n := format.ReadU32(payload, format.EncryptedLengthOffset)
	ct, ok := buf.Slice(payload, format.EncryptedDataOffset, int(n))
	if !ok {
		return nil, types.Errorf(types.ErrKindCorrupt, "crypt: ciphertext length %d exceeds payload", n)
	}
	return c.Decrypt(ct)
}
