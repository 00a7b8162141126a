package tool

import (
	"strings"

	"github.com/google/uuid"
)

func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// GenerateDonationID returns the externally visible donation reference.
// It is opaque, unique, and distinct from the database primary key.
func GenerateDonationID() string {
	return "dn_" + strings.ReplaceAll(GenerateUUIDV7(), "-", "")
}
