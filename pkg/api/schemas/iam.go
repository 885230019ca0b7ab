package schemas

// User is the public shape of a principal.
type User struct {
	ID    string `json:"id" doc:"Unique identifier for the user"`
	Email string `json:"email" doc:"Email address of the user"`
	Name  string `json:"name,omitempty" doc:"Display name of the user"`
	Role  string `json:"role" doc:"Authorization role" enum:"ADMIN,USER"`
}

// Permissions is the capability view derived from the role. UI hint
// only; the server re-checks the role on every mutating call.
type Permissions struct {
	CanCreate bool `json:"canCreate" doc:"Whether the user may create records"`
	CanEdit   bool `json:"canEdit" doc:"Whether the user may edit records"`
	CanDelete bool `json:"canDelete" doc:"Whether the user may delete records"`
}

// SessionResponse reflects the user behind a valid credential.
type SessionResponse struct {
	Body struct {
		User User `json:"user"`
	}
}

// MeResponse adds the derived permissions to the user view.
type MeResponse struct {
	Body struct {
		User        User        `json:"user"`
		Permissions Permissions `json:"permissions"`
	}
}
