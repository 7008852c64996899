package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/locodavid123/parcial1/internal/model"
	"github.com/locodavid123/parcial1/internal/store"
	"github.com/locodavid123/parcial1/pkg/logger"
	"go.uber.org/zap"
)

type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Role     string
}

// UserService manages accounts on behalf of a superuser
type UserService struct {
	store store.Store
	auth  *AuthService
}

func NewUserService(s store.Store, auth *AuthService) *UserService {
	return &UserService{store: s, auth: auth}
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.store.Users().List(ctx)
}

func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	return s.store.Users().GetByID(ctx, id)
}

// Create adds an account of any role. Client accounts get their client record in the same unit of work.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*model.User, error) {
	role, err := model.ParseRole(in.Role)
	if err != nil {
		return nil, invalid("%v", err)
	}
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" || email == "" {
		return nil, invalid("name and email are required")
	}
	hash, err := s.auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{Name: name, Email: email, PasswordHash: hash, Phone: in.Phone, Role: role}
	err = runAtomically(ctx, s.store, func(ctx context.Context, tx store.Repositories, undo *undoLog) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			return err
		}
		undo.Add("delete user "+user.ID, func(ctx context.Context) error {
			return tx.Users().Delete(ctx, user.ID)
		})
		if role != model.RoleClient {
			return nil
		}
		_, err := linkClient(ctx, tx, user, undo)
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, fmt.Errorf("%w: email %s is already registered", store.ErrConflict, email)
		}
		return nil, err
	}

	logger.FromContext(ctx).Info("User created",
		zap.String("user_id", user.ID),
		zap.String("role", string(role)))
	return user, nil
}

// CreateSuperuser bootstraps an administrator account
func (s *UserService) CreateSuperuser(ctx context.Context, in CreateUserInput) (*model.User, error) {
	in.Role = string(model.RoleSuperuser)
	return s.Create(ctx, in)
}

// UpdateRole changes the role of a user. The last superuser cannot be demoted.
func (s *UserService) UpdateRole(ctx context.Context, id, roleName string) (*model.User, error) {
	role, err := model.ParseRole(roleName)
	if err != nil {
		return nil, invalid("%v", err)
	}

	var user *model.User
	err = runAtomically(ctx, s.store, func(ctx context.Context, tx store.Repositories, undo *undoLog) error {
		var err error
		user, err = tx.Users().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if user.Role == role {
			return nil
		}
		if err := ensureNotLastSuperuser(ctx, tx, user); err != nil {
			return err
		}

		previous := user.Role
		user.Role = role
		if err := tx.Users().Update(ctx, user); err != nil {
			return err
		}
		undo.Add("restore role of "+user.ID, func(ctx context.Context) error {
			restored := *user
			restored.Role = previous
			return tx.Users().Update(ctx, &restored)
		})
		if role == model.RoleClient {
			_, err = linkClient(ctx, tx, user, undo)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes an account. Its client record stays, unlinked, for order history.
func (s *UserService) Delete(ctx context.Context, actor Actor, id string) error {
	if actor.UserID == id {
		return invalid("you cannot delete your own account")
	}

	return runAtomically(ctx, s.store, func(ctx context.Context, tx store.Repositories, undo *undoLog) error {
		user, err := tx.Users().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := ensureNotLastSuperuser(ctx, tx, user); err != nil {
			return err
		}

		c, err := tx.Clients().GetByUserID(ctx, id)
		switch {
		case err == nil:
			c.UserID = nil
			if err := tx.Clients().Update(ctx, c); err != nil {
				return err
			}
			undo.Add("relink client "+c.ID, func(ctx context.Context) error {
				c.UserID = &user.ID
				return tx.Clients().Update(ctx, c)
			})
		case !errors.Is(err, store.ErrNotFound):
			return err
		}

		return tx.Users().Delete(ctx, id)
	})
}

func ensureNotLastSuperuser(ctx context.Context, tx store.Repositories, user *model.User) error {
	if user.Role != model.RoleSuperuser {
		return nil
	}
	n, err := tx.Users().CountByRole(ctx, model.RoleSuperuser)
	if err != nil {
		return err
	}
	if n <= 1 {
		return invalid("the last superuser cannot be removed or demoted")
	}
	return nil
}
