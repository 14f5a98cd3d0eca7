package domain

import "github.com/google/uuid"

// Identity is the already-resolved caller identity supplied by the
// external identity provider. The core never verifies credentials.
type Identity struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name,omitempty"`
}
