package domain

// User is a registered account. Password holds the bcrypt hash and is never
// serialized.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"-"`
}

// PublicUser is the identity attached to authenticated requests and returned
// on the wire: no secret material.
type PublicUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Public strips the secret fields from a user.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Name: u.Name}
}
