// Package password implements the account password policy and hashing.
package password

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/questforge/questforge/internal/services/auth/user"
)

// Policy configures password strength requirements.
type Policy struct {
	MinLength           int      `env:"QUESTFORGE_PASSWORD_MIN_LENGTH" envDefault:"8"`
	MaxLength           int      `env:"QUESTFORGE_PASSWORD_MAX_LENGTH" envDefault:"128"`
	RequireUppercase    bool     `env:"QUESTFORGE_PASSWORD_REQUIRE_UPPERCASE" envDefault:"true"`
	RequireLowercase    bool     `env:"QUESTFORGE_PASSWORD_REQUIRE_LOWERCASE" envDefault:"true"`
	RequireDigits       bool     `env:"QUESTFORGE_PASSWORD_REQUIRE_DIGITS" envDefault:"true"`
	RequireSpecial      bool     `env:"QUESTFORGE_PASSWORD_REQUIRE_SPECIAL" envDefault:"true"`
	AllowWhitespace     bool     `env:"QUESTFORGE_PASSWORD_ALLOW_WHITESPACE" envDefault:"false"`
	MaxConsecutiveChars int      `env:"QUESTFORGE_PASSWORD_MAX_CONSECUTIVE" envDefault:"3"`
	ForbiddenWords      []string `env:"QUESTFORGE_PASSWORD_FORBIDDEN_WORDS" envSeparator:","`
}

// DefaultPolicy returns the baseline policy used when no overrides are set.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:           8,
		MaxLength:           128,
		RequireUppercase:    true,
		RequireLowercase:    true,
		RequireDigits:       true,
		RequireSpecial:      true,
		AllowWhitespace:     false,
		MaxConsecutiveChars: 3,
	}
}

// defaultForbiddenWords are rejected regardless of configured extras.
var defaultForbiddenWords = []string{
	"password", "passw0rd", "qwerty", "letmein", "welcome",
	"12345678", "123456789", "iloveyou", "dragon",
}

// Result reports the outcome of a strength validation.
type Result struct {
	Valid       bool
	Score       int // 0-100
	Errors      []string
	Suggestions []string
}

// Level buckets the score into a human label.
func (r Result) Level() string {
	switch {
	case r.Score >= 80:
		return "Very Strong"
	case r.Score >= 60:
		return "Strong"
	case r.Score >= 40:
		return "Medium"
	case r.Score >= 20:
		return "Weak"
	default:
		return "Very Weak"
	}
}

// Validate checks a candidate password against the policy. Username and
// email context feed the similarity checks; either may be empty.
func (p Policy) Validate(candidate, username, email string) Result {
	var errs, suggestions []string

	if len(candidate) < p.MinLength {
		errs = append(errs, fmt.Sprintf("password must be at least %d characters long", p.MinLength))
	}
	if p.MaxLength > 0 && len(candidate) > p.MaxLength {
		errs = append(errs, fmt.Sprintf("password cannot exceed %d characters", p.MaxLength))
	}

	var upper, lower, digits, special, whitespace int
	for _, r := range candidate {
		switch {
		case unicode.IsUpper(r):
			upper++
		case unicode.IsLower(r):
			lower++
		case unicode.IsDigit(r):
			digits++
		case unicode.IsSpace(r):
			whitespace++
		default:
			special++
		}
	}

	if p.RequireUppercase && upper == 0 {
		errs = append(errs, "password must contain at least one uppercase letter")
	}
	if p.RequireLowercase && lower == 0 {
		errs = append(errs, "password must contain at least one lowercase letter")
	}
	if p.RequireDigits && digits == 0 {
		errs = append(errs, "password must contain at least one digit")
	}
	if p.RequireSpecial && special == 0 {
		errs = append(errs, "password must contain at least one special character")
	}
	if !p.AllowWhitespace && whitespace > 0 {
		errs = append(errs, "password cannot contain whitespace")
	}

	if p.MaxConsecutiveChars > 0 && hasConsecutiveRun(candidate, p.MaxConsecutiveChars+1) {
		errs = append(errs, fmt.Sprintf("password cannot repeat the same character more than %d times in a row", p.MaxConsecutiveChars))
	}

	lowered := strings.ToLower(candidate)
	for _, word := range append(defaultForbiddenWords, p.ForbiddenWords...) {
		if word != "" && strings.Contains(lowered, strings.ToLower(word)) {
			errs = append(errs, "password contains a forbidden word or pattern")
			suggestions = append(suggestions, "avoid common words and keyboard patterns")
			break
		}
	}

	if username != "" && len(username) >= 3 && strings.Contains(lowered, strings.ToLower(username)) {
		errs = append(errs, "password cannot contain the username")
	}
	if email != "" {
		local := strings.ToLower(user.EmailLocalPart(email))
		if len(local) >= 3 && strings.Contains(lowered, local) {
			errs = append(errs, "password cannot contain the email address")
		}
	}

	score := score(candidate, upper, lower, digits, special)
	if score < 40 {
		suggestions = append(suggestions, "use a longer mix of letters, digits and symbols")
	}

	return Result{
		Valid:       len(errs) == 0,
		Score:       score,
		Errors:      errs,
		Suggestions: suggestions,
	}
}

// Hash returns the bcrypt digest for a password.
func Hash(candidate string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(candidate), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether a candidate matches the stored digest.
func Verify(hashed, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(candidate)) == nil
}

func hasConsecutiveRun(value string, run int) bool {
	if run <= 1 {
		return len(value) > 0
	}
	count := 0
	var prev rune
	for i, r := range value {
		if i > 0 && r == prev {
			count++
			if count+1 >= run {
				return true
			}
		} else {
			count = 0
		}
		prev = r
	}
	return false
}

func score(candidate string, upper, lower, digits, special int) int {
	total := 0

	// Length contributes up to 40 points.
	length := len(candidate)
	switch {
	case length >= 16:
		total += 40
	case length >= 12:
		total += 30
	case length >= 8:
		total += 20
	case length >= 6:
		total += 10
	}

	// Each character class contributes 15 points.
	for _, count := range []int{upper, lower, digits, special} {
		if count > 0 {
			total += 15
		}
	}

	if total > 100 {
		total = 100
	}
	return total
}
