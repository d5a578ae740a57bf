package logging

import (
	"regexp"
	"strings"
)

// Redactor masks PII in log values.
type Redactor struct {
	patterns []redactPattern
}

type redactPattern struct {
	name    string
	regex   *regexp.Regexp
	replace func(string) string
}

// Pattern names.
const (
	PatternCreditCard  = "credit_card"
	PatternEmail       = "email"
	PatternPhone       = "phone"
	PatternBearerToken = "bearer_token"
)

var sensitiveKeys = []string{
	"password", "passwd", "secret", "token", "authorization", "api_key", "apikey",
}

// NewRedactor returns a Redactor with the built-in patterns. Patterns are
// applied in order; card numbers go first so the phone pattern does not eat
// their digit groups.
func NewRedactor() *Redactor {
	return &Redactor{patterns: []redactPattern{
		{
			name:    PatternCreditCard,
			regex:   regexp.MustCompile(`\b(?:\d[ -]?){12,15}\d\b`),
			replace: RedactCreditCard,
		},
		{
			name:    PatternEmail,
			regex:   regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
			replace: RedactEmail,
		},
		{
			name:    PatternPhone,
			regex:   regexp.MustCompile(`(?:\+\d{1,3}[-.\s]?)?\(?\b\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`),
			replace: func(string) string { return "***-***-****" },
		},
		{
			name:    PatternBearerToken,
			regex:   regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-._~+/]+=*`),
			replace: func(string) string { return "Bearer ***" },
		},
	}}
}

// RedactString masks every PII match in value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllStringFunc(value, p.replace)
	}
	return value
}

// IsSensitiveKey reports whether values under key are always masked.
func (r *Redactor) IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// RedactEmail keeps the first character of the local part and the domain.
func RedactEmail(email string) string {
	user, domain, ok := strings.Cut(email, "@")
	if !ok {
		return email
	}
	if user == "" {
		return "***@" + domain
	}
	return user[:1] + "***@" + domain
}

// RedactCreditCard keeps the last four digits.
func RedactCreditCard(cc string) string {
	digits := strings.NewReplacer(" ", "", "-", "").Replace(cc)
	if len(digits) < 13 || len(digits) > 16 {
		return cc
	}
	return "****-****-****-" + digits[len(digits)-4:]
}
