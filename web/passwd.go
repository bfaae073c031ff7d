package web

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const (
	scryptCost            = 32768
	scryptBlockSize       = 8
	scryptParallelization = 1
	scryptKeyLen          = 32
)

var ErrInvalidUsernameOrPassword = fmt.Errorf("invalid username or password")

func encodePassword(password string) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	salt := hex.EncodeToString(buf)
	dk, err := scrypt.Key([]byte(password), []byte(salt), scryptCost, scryptBlockSize, scryptParallelization, scryptKeyLen)
	if err != nil {
		return "", err
	}
	return salt + ":" + hex.EncodeToString(dk), nil
}

func verifyPassword(storedHash, password string) error {
	salt, wantHex, ok := strings.Cut(storedHash, ":")
	if !ok {
		return ErrInvalidUsernameOrPassword
	}
	dk, err := scrypt.Key([]byte(password), []byte(salt), scryptCost, scryptBlockSize, scryptParallelization, scryptKeyLen)
	if err != nil {
		return err
	}
	got := make([]byte, hex.EncodedLen(len(dk)))
	hex.Encode(got, dk)

	if subtle.ConstantTimeCompare([]byte(wantHex), got) != 1 {
		return ErrInvalidUsernameOrPassword
	}
	return nil
}
