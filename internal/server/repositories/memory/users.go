package memory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/server/models"
	"github.com/google/uuid"
)

type UserRepository struct {
	s *Store
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	err := r.s.unit(ctx, func() error {
		for _, u := range r.s.users {
			if u.Email == user.Email {
				return common.ErrorAlreadyExists
			}
			if user.UnsubscribeToken != nil && u.UnsubscribeToken != nil && *u.UnsubscribeToken == *user.UnsubscribeToken {
				return common.ErrorAlreadyExists
			}
		}
		user.ID = uuid.NewString()
		user.CreatedAt = time.Now().UTC()
		r.s.users[user.ID] = copyUser(user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.find(ctx, func(u *models.User) bool { return u.ID == id })
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find(ctx, func(u *models.User) bool { return u.Email == email })
}

// GetByEmailForUpdate needs no extra locking: a transaction already holds
// the whole store.
func (r *UserRepository) GetByEmailForUpdate(ctx context.Context, email string) (*models.User, error) {
	return r.GetByEmail(ctx, email)
}

func (r *UserRepository) GetBySessionToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	var found *models.User
	err := r.s.unit(ctx, func() error {
		sess, ok := r.s.sessions[token]
		if !ok || !sess.Valid(now) {
			return common.ErrorNotFound
		}
		u, ok := r.s.users[sess.UserID]
		if !ok {
			return common.ErrorNotFound
		}
		found = copyUser(u)
		return nil
	})
	return found, err
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	if err == common.ErrorNotFound {
		return false, nil
	}
	return false, err
}

func (r *UserRepository) MarkEmailVerified(ctx context.Context, id string) error {
	return r.update(ctx, id, func(u *models.User) {
		u.EmailVerified = true
		u.VerificationCode = nil
		u.VerificationCodeExpires = nil
	})
}

func (r *UserRepository) SetResetCode(ctx context.Context, id string, code string, expires time.Time) error {
	return r.update(ctx, id, func(u *models.User) {
		u.ResetCode = &code
		u.ResetCodeExpires = &expires
	})
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	return r.update(ctx, id, func(u *models.User) {
		u.PasswordHash = passwordHash
		u.ResetCode = nil
		u.ResetCodeExpires = nil
	})
}

func (r *UserRepository) ClearExpiredResetCodes(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.s.unit(ctx, func() error {
		for _, u := range r.s.users {
			if u.ResetCodeExpires != nil && !u.ResetCodeExpires.After(now) {
				u.ResetCode = nil
				u.ResetCodeExpires = nil
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *UserRepository) Subscribe(ctx context.Context, email string, unsubscribeToken string) (int64, error) {
	return r.updateWhere(ctx, func(u *models.User) bool { return u.Email == email }, func(u *models.User) {
		u.SubscribedToUpdates = true
		u.UnsubscribeToken = &unsubscribeToken
	})
}

func (r *UserRepository) UnsubscribeByToken(ctx context.Context, token string) (int64, error) {
	return r.updateWhere(ctx, func(u *models.User) bool {
		return u.UnsubscribeToken != nil && *u.UnsubscribeToken == token
	}, func(u *models.User) {
		u.SubscribedToUpdates = false
	})
}

func (r *UserRepository) UnsubscribeByEmail(ctx context.Context, email string) (int64, error) {
	return r.updateWhere(ctx, func(u *models.User) bool { return u.Email == email }, func(u *models.User) {
		u.SubscribedToUpdates = false
	})
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return r.s.unit(ctx, func() error {
		if _, ok := r.s.users[id]; !ok {
			return common.ErrorNotFound
		}
		delete(r.s.users, id)
		return nil
	})
}

func (r *UserRepository) find(ctx context.Context, match func(*models.User) bool) (*models.User, error) {
	var found *models.User
	err := r.s.unit(ctx, func() error {
		for _, u := range r.s.users {
			if match(u) {
				found = copyUser(u)
				return nil
			}
		}
		return common.ErrorNotFound
	})
	return found, err
}

func (r *UserRepository) update(ctx context.Context, id string, apply func(*models.User)) error {
	return r.s.unit(ctx, func() error {
		u, ok := r.s.users[id]
		if !ok {
			return common.ErrorNotFound
		}
		apply(u)
		return nil
	})
}

func (r *UserRepository) updateWhere(ctx context.Context, match func(*models.User) bool, apply func(*models.User)) (int64, error) {
	var n int64
	err := r.s.unit(ctx, func() error {
		for _, u := range r.s.users {
			if match(u) {
				apply(u)
				n++
			}
		}
		return nil
	})
	return n, err
}
