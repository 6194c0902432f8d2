//go:build go1.18

package domain

import (
	"testing"
	"unicode/utf8"
)

// FuzzParseExpedienteID tests that parsing never panics on arbitrary input
// and always returns either a valid ID or an error.
func FuzzParseExpedienteID(f *testing.F) {
	// Seed corpus with interesting inputs
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE expedientes;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("550e8400-e29b-41d4-a716-446655440000\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseExpedienteID(input)

		// Either valid ID or error, never both
		if err == nil {
			roundTrip, err2 := ParseExpedienteID(id.String())
			if err2 != nil {
				t.Errorf("Valid ID failed round-trip: %v", err2)
			}
			if roundTrip != id {
				t.Error("Round-trip changed ID value")
			}
		}

		// Non-UTF8 input must be rejected
		if !utf8.ValidString(input) && err == nil {
			t.Error("Non-UTF8 input was accepted")
		}
	})
}

// FuzzParseAllIDs ensures every ID type validates identically.
func FuzzParseAllIDs(f *testing.F) {
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("")
	f.Add("invalid")

	f.Fuzz(func(t *testing.T, input string) {
		_, errUser := ParseUserID(input)
		_, errExpediente := ParseExpedienteID(input)
		_, errIndicio := ParseIndicioID(input)
		_, errRevision := ParseRevisionID(input)

		// If one accepts, all should accept (same underlying validation)
		if errUser == nil {
			if errExpediente != nil || errIndicio != nil || errRevision != nil {
				t.Error("Inconsistent parsing across ID types")
			}
		}
		if errUser != nil {
			if errExpediente == nil || errIndicio == nil || errRevision == nil {
				t.Error("Inconsistent rejection across ID types")
			}
		}
	})
}
