package environment

import (
	"strings"
	"unicode"
)

var secretPatterns = []string{
	"secret", "key", "token", "password", "pass", "pwd",
	"auth", "credential", "cred", "private", "cert",
	"api_key", "apikey", "access_key", "secret_key",
	"client_secret", "oauth", "bearer", "jwt",
	"salt", "signature", "signing", "vault",
}

var connectionPatterns = []string{
	"database_url", "db_url", "dsn", "connection_string",
	"postgres_url", "mysql_url", "mongodb_url", "redis_url", "amqp_url",
}

// Sensitive reports whether a variable must not be baked into the image.
// Connection strings count: they usually embed credentials.
func Sensitive(name, value string) bool {
	nameLower := strings.ToLower(name)

	for _, pattern := range connectionPatterns {
		if strings.Contains(nameLower, pattern) {
			return true
		}
	}
	for _, pattern := range secretPatterns {
		if strings.Contains(nameLower, pattern) {
			return true
		}
	}

	return looksGenerated(value)
}

// looksGenerated flags long high-entropy values: hex digests, random base64,
// anything that reads like a credential even under an innocent name
func looksGenerated(value string) bool {
	if len(value) < 20 {
		return false
	}

	var letters, digits, mixed int
	hasUpper, hasLower := false, false
	for _, r := range value {
		switch {
		case unicode.IsLetter(r):
			letters++
			if unicode.IsUpper(r) {
				hasUpper = true
			} else {
				hasLower = true
			}
		case unicode.IsDigit(r):
			digits++
		case r == '+' || r == '/' || r == '=' || r == '-' || r == '_':
			mixed++
		default:
			return false // spaces and punctuation read like prose, not keys
		}
	}

	if digits == 0 {
		return false
	}
	return (hasUpper && hasLower) || float64(digits)/float64(len(value)) > 0.3
}
