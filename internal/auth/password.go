package auth

import "golang.org/x/crypto/bcrypt"

// Credentials are stored as bcrypt hashes. The hash embeds its cost, so
// raising the cost later only affects newly provisioned accounts.

func HashPassword(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// CheckPassword returns nil when plain matches the stored hash.
func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
