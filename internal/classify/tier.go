package classify

import "strings"

type Tier string

const (
	Simple      Tier = "SIMPLE"
	Complex     Tier = "COMPLEX"
	VeryComplex Tier = "VERY_COMPLEX"
)

// ParseTier upper-cases raw, drops every character outside A-Z and '_', and
// falls back to Simple for anything that is not a known tier.
func ParseTier(raw string) (Tier, bool) {
	var b strings.Builder
	for _, r := range strings.ToUpper(raw) {
		if (r >= 'A' && r <= 'Z') || r == '_' {
			b.WriteRune(r)
		}
	}
	switch t := Tier(b.String()); t {
	case Simple, Complex, VeryComplex:
		return t, true
	default:
		return Simple, false
	}
}

// Models maps tiers to completion models.
type Models struct {
	Classification string
	Simple         string
	Complex        string
}

// ForTier returns the reply model for t. VeryComplex is never sent to a
// model and reports escalate=true instead.
func (m Models) ForTier(t Tier) (model string, escalate bool) {
	switch t {
	case VeryComplex:
		return "", true
	case Complex:
		return m.Complex, false
	default:
		return m.Simple, false
	}
}
