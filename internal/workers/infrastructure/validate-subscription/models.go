package validatesubscription

import "time"

type Input struct {
	UserID string `json:"userId"`
}

// Output is merged into the process variables.
type Output struct {
	IsValid   bool       `json:"isValid"`
	TierLevel string     `json:"tierLevel"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}
