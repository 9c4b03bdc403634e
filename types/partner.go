package types

// Partner is an organizational user allowed to triage incidents.
type Partner struct {
	ID           string `firestore:"-" json:"id"`
	Email        string `firestore:"email" json:"email"`
	Name         string `firestore:"name,omitempty" json:"name,omitempty"`
	PasswordHash string `firestore:"passwordHash" json:"-"`
}
