package schemas

type GetUser struct {
	BigIntID
	DateTime
	Username string  `json:"username"`
	Email    *string `json:"email"`
	FullName *string `json:"full_name"`
	IsActive bool    `json:"is_active"`
}

type CreateUser struct {
	Username string  `json:"username"`
	Email    *string `json:"email,omitempty"`
	FullName *string `json:"full_name,omitempty"`
	IsActive bool    `json:"is_active"`
}

// NewCreateUser returns an active user payload.
func NewCreateUser(username string) CreateUser {
	return CreateUser{Username: username, IsActive: true}
}

// Validate checks the fields the database cannot.
func (c CreateUser) Validate() error {
	return requireText("username", c.Username)
}

type PatchableUser struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	FullName *string `json:"full_name,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

func (p PatchableUser) Validate() error {
	if p.Username != nil {
		return requireText("username", *p.Username)
	}
	return nil
}
