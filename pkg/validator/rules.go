package validator

import (
	"net/mail"
	"regexp"
	"strings"
)

var (
	upperRe   = regexp.MustCompile(`[A-Z]`)
	lowerRe   = regexp.MustCompile(`[a-z]`)
	digitRe   = regexp.MustCompile(`[0-9]`)
	specialRe = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>\/?~` + "`" + `]`)
)

// Frequently compromised passwords rejected regardless of strength rules.
var commonPasswords = map[string]bool{
	"password": true, "password1": true, "password123": true, "password!": true,
	"123456": true, "12345678": true, "123456789": true, "1234567890": true,
	"qwerty": true, "qwerty123": true, "qwertyuiop": true, "asdfghjkl": true,
	"111111": true, "123123": true, "000000": true, "letmein": true,
	"welcome": true, "admin": true, "admin123": true, "administrator": true,
	"iloveyou": true, "dragon": true, "sunshine": true, "princess": true,
	"monkey": true, "football": true, "baseball": true, "superman": true,
	"trustno1": true, "master": true, "secret": true, "login": true,
	"abc123": true, "root": true, "guest": true, "test": true,
}

// Required checks the value is not blank.
func Required(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: FieldError{Field: field, Message: "is required"},
	}
}

// ValidEmail checks the value parses as a single RFC 5322 address suitable
// for web signup (no display name, non-empty local part and domain with a dot).
func ValidEmail(field, value string) Rule {
	return Rule{
		Check: func() bool {
			value = strings.TrimSpace(value)
			if value == "" {
				return false
			}
			addr, err := mail.ParseAddress(value)
			if err != nil || addr.Address != value {
				return false
			}
			parts := strings.Split(addr.Address, "@")
			if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
				return false
			}
			return strings.Contains(parts[1], ".")
		},
		Error: FieldError{Field: field, Message: "must be a valid email address"},
	}
}

// PasswordStrengthConfig controls the StrongPassword rule.
type PasswordStrengthConfig struct {
	MinLength      int
	MaxLength      int
	MinCharClasses int // distinct classes among upper/lower/digit/special
}

// DefaultPasswordStrength is the policy applied to new passwords: 8-128
// characters drawn from at least two character classes.
func DefaultPasswordStrength() PasswordStrengthConfig {
	return PasswordStrengthConfig{MinLength: 8, MaxLength: 128, MinCharClasses: 2}
}

// StrongPassword checks length bounds and character-class diversity.
func StrongPassword(field, value string, cfg PasswordStrengthConfig) Rule {
	return Rule{
		Check: func() bool {
			if len(value) < cfg.MinLength || len(value) > cfg.MaxLength {
				return false
			}
			classes := 0
			for _, re := range []*regexp.Regexp{upperRe, lowerRe, digitRe, specialRe} {
				if re.MatchString(value) {
					classes++
				}
			}
			return classes >= cfg.MinCharClasses
		},
		Error: FieldError{Field: field, Message: "does not meet strength requirements"},
	}
}

// NotCommonPassword rejects passwords from the known-compromised list.
func NotCommonPassword(field, value string) Rule {
	return Rule{
		Check: func() bool { return !commonPasswords[strings.ToLower(value)] },
		Error: FieldError{Field: field, Message: "is too common, choose a different one"},
	}
}
