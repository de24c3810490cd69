package service

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost es variable para que los tests usen bcrypt.MinCost.
var bcryptCost = 12

func hashPassword(password string) (string, error) {
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashBytes), nil
}

func checkPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// isValidEmail es la única validación de formato: el binding de gin solo exige presencia.
// Pide un "@" con texto a ambos lados y sin espacios.
func isValidEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t\r\n")
}
