package utils

import (
	"regexp"
	"strings"

	"github.com/gosimple/slug"
	"golang.org/x/crypto/bcrypt"
)

const DefaultBcryptCost = 12

const MinPasswordLength = 8

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// IsEmailIdentifier: логин по email, если в идентификаторе есть "@", иначе по имени игрока.
func IsEmailIdentifier(identifier string) bool {
	return strings.Contains(identifier, "@")
}

// Slugify turns a rule name into its URL key ("Thursday Deepstack" -> "thursday-deepstack").
func Slugify(name string) string {
	return slug.Make(name)
}
