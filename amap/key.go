package amap

import (
	"errors"
	"regexp"
)

var ErrInvalidKey = errors.New("amap key must be 32 letters or digits")

var keyRe = regexp.MustCompile(`^[a-zA-Z0-9]{32}$`)

func ValidateKey(key string) error {
	if !keyRe.MatchString(key) {
		return ErrInvalidKey
	}
	return nil
}
