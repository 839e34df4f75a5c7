package memory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/server/models"
)

type SessionRepository struct {
	s *Store
}

func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	return r.s.unit(ctx, func() error {
		if _, ok := r.s.users[session.UserID]; !ok {
			return common.ErrorNotFound
		}
		if _, ok := r.s.sessions[session.Token]; ok {
			return common.ErrorAlreadyExists
		}
		session.CreatedAt = time.Now().UTC()
		c := *session
		r.s.sessions[session.Token] = &c
		return nil
	})
}

func (r *SessionRepository) CountByUser(ctx context.Context, userID string, now time.Time) (int, error) {
	var n int
	err := r.s.unit(ctx, func() error {
		for _, sess := range r.s.sessions {
			if sess.UserID == userID && sess.Valid(now) {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *SessionRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	return r.deleteWhere(ctx, func(sess *models.Session) bool { return sess.UserID == userID })
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.deleteWhere(ctx, func(sess *models.Session) bool { return !sess.Valid(now) })
}

func (r *SessionRepository) deleteWhere(ctx context.Context, match func(*models.Session) bool) (int64, error) {
	var n int64
	err := r.s.unit(ctx, func() error {
		for token, sess := range r.s.sessions {
			if match(sess) {
				delete(r.s.sessions, token)
				n++
			}
		}
		return nil
	})
	return n, err
}
