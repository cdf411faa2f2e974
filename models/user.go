package models

// User is an account in the user directory. The username doubles as the
// map key in users.json, so it is not serialized into the record itself.
// The password hash is persisted but never rendered to clients.
type User struct {
	Username     string `json:"-"`
	Email        string `json:"email"`
	PasswordHash string `json:"password"`
}
