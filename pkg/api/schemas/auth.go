package schemas

// RegisterRequest is the payload for creating a password-backed user.
type RegisterRequest struct {
	Body struct {
		Name     string `json:"name" maxLength:"120" doc:"Display name"`
		Email    string `json:"email" format:"email" doc:"Unique email address"`
		Password string `json:"password" minLength:"8" maxLength:"72" doc:"Plaintext password, stored only as a bcrypt hash"`
	}
}

// RegisterResponse returns the created user without any credential.
type RegisterResponse struct {
	Status int
	Body   struct {
		User User `json:"user"`
	}
}

// EmailLoginRequest is the payload for the email/password login.
type EmailLoginRequest struct {
	Body struct {
		Email    string `json:"email" format:"email" doc:"Registered email address"`
		Password string `json:"password" minLength:"1" doc:"Account password"`
	}
}