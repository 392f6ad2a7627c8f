package domain

// Identity describes an authenticated user as reported by the identity
// provider.
type Identity struct {
	ID          string `json:"userId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}
