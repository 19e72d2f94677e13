package domain

// User is the demo account embedded in each role's bundle under "user".
// It is rebuilt from the stored document on every load and never mutated.
type User struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Title      string `json:"title"`
	Avatar     string `json:"avatar"`
	Role       Role   `json:"role"`
}
