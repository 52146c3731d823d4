package crud

import (
	"github.com/desertthunder/summarybot/internal/models"
	"github.com/desertthunder/summarybot/internal/schemas"
	"github.com/desertthunder/summarybot/internal/shared"
)

// Users is the data access service for [models.User].
type Users struct {
	*Base[models.User, schemas.GetUser, schemas.CreateUser]
}

func NewUsers(opts ...Option) (*Users, error) {
	base, err := New[models.User, schemas.GetUser, schemas.CreateUser](opts...)
	if err != nil {
		return nil, err
	}
	return &Users{Base: base}, nil
}

func (u *Users) GetByUsername(s *shared.Session, username string) (*models.User, error) {
	return u.GetOneRaw(s, nil, Fields{"username": username})
}

// Patch applies the set fields of p to user id.
func (u *Users) Patch(s *shared.Session, id int64, p schemas.PatchableUser) (int64, error) {
	values, err := schemas.Dump(p, false)
	if err != nil {
		return 0, err
	}
	return u.Update(s, Fields{"id": id}, values, true)
}

func (u *Users) Activate(s *shared.Session, id int64) (int64, error) {
	return u.setActive(s, id, true)
}

func (u *Users) Deactivate(s *shared.Session, id int64) (int64, error) {
	return u.setActive(s, id, false)
}

func (u *Users) setActive(s *shared.Session, id int64, active bool) (int64, error) {
	return u.Update(s, Fields{"id": id}, map[string]any{"is_active": active}, true)
}
