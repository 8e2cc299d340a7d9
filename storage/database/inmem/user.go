package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/safestep/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func (r *userRepository) query() []user.Principal {
	res := make([]user.Principal, 0, len(r.db.t))
	for _, usr := range r.db.t {
		res = append(res, *usr)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

func (r *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.Principal) error {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

outer:
	for _, usr := range r.db.t {
		if usr.Email == email {
			for _, excl := range excludedUsers {
				if excl.ID == usr.ID {
					continue outer
				}
			}
			return user.ErrEmailExists
		}
	}
	return nil
}

func (r *userRepository) CreateUser(ctx context.Context, usr user.Principal) (user.Principal, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	r.db.seq++
	usr.ID = r.db.seq
	r.db.t[usr.ID] = &usr
	return usr, nil
}

func (r *userRepository) QueryAllUsers(ctx context.Context) ([]user.Principal, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()
	return r.query(), nil
}

func (r *userRepository) GetUserByID(ctx context.Context, id int) (user.Principal, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	if usr, ok := r.db.t[id]; ok {
		return *usr, nil
	}
	return user.Principal{}, user.ErrNotFound
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (user.Principal, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	for _, usr := range r.db.t {
		if usr.Email == email {
			return *usr, nil
		}
	}
	return user.Principal{}, user.ErrNotFound
}

func (r *userRepository) UpdateUser(ctx context.Context, usr user.Principal) (user.Principal, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	if _, ok := r.db.t[usr.ID]; !ok {
		return user.Principal{}, user.ErrNotFound
	}
	r.db.t[usr.ID] = &usr
	return usr, nil
}

func (r *userRepository) CreateSessionLog(ctx context.Context, sess user.SessionLog) (user.SessionLog, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	r.db.sessSeq++
	sess.ID = r.db.sessSeq
	r.db.sessions[sess.ID] = &sess
	return sess, nil
}

func (r *userRepository) CloseSessionLogs(ctx context.Context, userID int, at time.Time) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	for _, sess := range r.db.sessions {
		if sess.UserID == userID && sess.LogoutTime.IsZero() {
			sess.LogoutTime = at
		}
	}
	return nil
}

func (r *userRepository) QuerySessionLogs(ctx context.Context, userID int) ([]user.SessionLog, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	res := make([]user.SessionLog, 0)
	for _, sess := range r.db.sessions {
		if sess.UserID == userID {
			res = append(res, *sess)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].LoginTime.After(res[j].LoginTime) })
	return res, nil
}
