package tools

import (
	"fmt"
	"strings"
	"unicode"
)

// NormalizePhone keeps the digits of raw and a leading '+', so the same number
// typed with spaces, dashes or parentheses always compares equal.
// Returns "" when raw holds fewer than 4 digits.
func NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(raw))
	if strings.HasPrefix(raw, "+") {
		b.WriteByte('+')
	}
	digits := 0
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
			digits++
		}
	}
	if digits < 4 {
		return ""
	}
	return b.String()
}

// NormalizeWhatsAppTo normaliza um telefone para o formato aceito pelo WhatsApp Cloud API
// (apenas dígitos, em formato internacional, sem '+').
func NormalizeWhatsAppTo(raw string) (string, error) {
	phone := strings.TrimPrefix(NormalizePhone(raw), "+")
	phone = strings.TrimLeft(phone, "0")

	// validação bem leve: DDI + número
	if len(phone) < 8 {
		return "", fmt.Errorf("invalid phone length: %d", len(phone))
	}
	return phone, nil
}
