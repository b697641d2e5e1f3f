package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor. Tests lower it to bcrypt.MinCost.
var PasswordCost = bcrypt.DefaultCost

// ErrPasswordTooShort is returned for passwords under eight bytes.
var ErrPasswordTooShort = errors.New("password must be at least 8 characters")

func HashPassword(p string) (string, error) {
	if len(p) < 8 {
		return "", ErrPasswordTooShort
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(p), PasswordCost)
	return string(bytes), err
}

func CheckPassword(hash, pass string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pass)) == nil
}
