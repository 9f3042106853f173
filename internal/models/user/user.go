package user

// User is a record of the credential store. PasswordHash is a bcrypt digest
// and never leaves the process.
type User struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
}

// Contact identifies the owner of the root group, the person users are told
// to reach when they cannot sign in.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Group struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Owner Contact `json:"owner"`
}

type LoginRequest struct {
	Email    string
	Password string
}
