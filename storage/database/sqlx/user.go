package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/safestep/core/user"
)

type userRow struct {
	ID           int          `db:"id"`
	Name         string       `db:"name"`
	Email        string       `db:"email"`
	Role         string       `db:"role"`
	Jurisdiction string       `db:"jurisdiction"`
	PasswordHash []byte       `db:"password_hash"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
	LastLogin    sql.NullTime `db:"last_login"`
}

func (row userRow) principal() user.Principal {
	usr := user.Principal{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		Role:         user.Role(row.Role),
		Jurisdiction: row.Jurisdiction,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if row.LastLogin.Valid {
		usr.LastLogin = row.LastLogin.Time
	}
	return usr
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.Principal) error {
	exclIDs := make([]int, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		exclIDs = append(exclIDs, usr.ID)
	}
	query := `SELECT COUNT(*) FROM users WHERE email = $1`
	args := []interface{}{email}
	if len(exclIDs) > 0 {
		q, qArgs, err := sqlx.In(`SELECT COUNT(*) FROM users WHERE email = ? AND id NOT IN (?)`, email, exclIDs)
		if err != nil {
			return errors.Wrap(err, "building uniqueness query")
		}
		query, args = repo.db.Rebind(q), qArgs
	}

	var count int
	if err := repo.db.GetContext(ctx, &count, query, args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.Principal) (user.Principal, error) {
	query := `
		INSERT INTO users (name, email, role, jurisdiction, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := repo.db.QueryRowContext(
		ctx, query,
		usr.Name, usr.Email, string(usr.Role), usr.Jurisdiction, usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt,
	).Scan(&usr.ID)
	if err != nil {
		return user.Principal{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.Principal, error) {
	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM users ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.Principal, len(rows))
	for i, row := range rows {
		users[i] = row.principal()
	}
	return users, nil
}

func (repo *userRepository) getUser(ctx context.Context, query string, arg interface{}) (user.Principal, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, query, arg); err != nil {
		if err == sql.ErrNoRows {
			return user.Principal{}, user.ErrNotFound
		}
		return user.Principal{}, errors.Wrap(err, "getting user")
	}
	return row.principal(), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id int) (user.Principal, error) {
	return repo.getUser(ctx, `SELECT * FROM users WHERE id = $1`, id)
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.Principal, error) {
	return repo.getUser(ctx, `SELECT * FROM users WHERE email = $1`, email)
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.Principal) (user.Principal, error) {
	query := `
		UPDATE users
		SET name = $1, email = $2, role = $3, jurisdiction = $4, password_hash = $5,
		    updated_at = $6, last_login = NULLIF($7, '0001-01-01T00:00:00Z'::timestamptz)
		WHERE id = $8`
	res, err := repo.db.ExecContext(
		ctx, query,
		usr.Name, usr.Email, string(usr.Role), usr.Jurisdiction, usr.PasswordHash,
		usr.UpdatedAt, usr.LastLogin, usr.ID,
	)
	if err != nil {
		return user.Principal{}, errors.Wrap(err, "updating user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.Principal{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *userRepository) CreateSessionLog(ctx context.Context, sess user.SessionLog) (user.SessionLog, error) {
	query := `
		INSERT INTO user_sessions (user_id, ip_address, browser_info, login_time)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	err := repo.db.QueryRowContext(ctx, query, sess.UserID, sess.IPAddress, sess.BrowserInfo, sess.LoginTime).Scan(&sess.ID)
	if err != nil {
		return user.SessionLog{}, errors.Wrap(err, "creating session log")
	}
	return sess, nil
}

func (repo *userRepository) CloseSessionLogs(ctx context.Context, userID int, at time.Time) error {
	_, err := repo.db.ExecContext(
		ctx,
		`UPDATE user_sessions SET logout_time = $1 WHERE user_id = $2 AND logout_time IS NULL`,
		at, userID,
	)
	return errors.Wrap(err, "closing session logs")
}

func (repo *userRepository) QuerySessionLogs(ctx context.Context, userID int) ([]user.SessionLog, error) {
	type sessRow struct {
		ID          int            `db:"id"`
		UserID      int            `db:"user_id"`
		IPAddress   sql.NullString `db:"ip_address"`
		BrowserInfo sql.NullString `db:"browser_info"`
		LoginTime   time.Time      `db:"login_time"`
		LogoutTime  sql.NullTime   `db:"logout_time"`
	}
	var rows []sessRow
	query := `SELECT * FROM user_sessions WHERE user_id = $1 ORDER BY login_time DESC`
	if err := repo.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, errors.Wrap(err, "querying session logs")
	}
	sessions := make([]user.SessionLog, len(rows))
	for i, row := range rows {
		sessions[i] = user.SessionLog{
			ID:          row.ID,
			UserID:      row.UserID,
			IPAddress:   row.IPAddress.String,
			BrowserInfo: row.BrowserInfo.String,
			LoginTime:   row.LoginTime,
		}
		if row.LogoutTime.Valid {
			sessions[i].LogoutTime = row.LogoutTime.Time
		}
	}
	return sessions, nil
}
