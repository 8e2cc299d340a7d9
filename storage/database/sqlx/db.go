// Package sqlxrepos implements the domain repositories on Postgres via sqlx.
package sqlxrepos

import (
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/safestep/core"
)

func Open(conf *core.Config) (*sqlx.DB, error) {
	usr := url.UserPassword(conf.Database.User, conf.Database.Password)

	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   conf.Database.Engine,
		User:     usr,
		Host:     conf.Database.Address(),
		Path:     conf.Database.Name,
		RawQuery: q.Encode(),
	}

	db, err := sqlx.Open(conf.Database.Engine, u.String())
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err = ping(db); err != nil {
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

var schema = `
CREATE TABLE IF NOT EXISTS users (
	id            SERIAL PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT UNIQUE NOT NULL,
	role          TEXT NOT NULL,
	jurisdiction  TEXT NOT NULL,
	password_hash BYTEA NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	last_login    TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS user_sessions (
	id           SERIAL PRIMARY KEY,
	user_id      INTEGER NOT NULL REFERENCES users (id),
	ip_address   TEXT,
	browser_info TEXT,
	login_time   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	logout_time  TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS training_events (
	id          SERIAL PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	start_date  TEXT NOT NULL,
	end_date    TEXT NOT NULL,
	start_time  TEXT NOT NULL,
	end_time    TEXT NOT NULL,
	themes      TEXT[] NOT NULL DEFAULT '{}',
	trainer     TEXT NOT NULL,
	location    TEXT NOT NULL,
	latitude    DOUBLE PRECISION NOT NULL DEFAULT 0,
	longitude   DOUBLE PRECISION NOT NULL DEFAULT 0,
	capacity    INTEGER NOT NULL,
	enrolled    INTEGER NOT NULL DEFAULT 0,
	status      TEXT NOT NULL DEFAULT 'Scheduled',
	visibility  TEXT NOT NULL DEFAULT 'Public',
	materials   TEXT[] NOT NULL DEFAULT '{}',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS enrollments (
	id              SERIAL PRIMARY KEY,
	event_id        INTEGER NOT NULL REFERENCES training_events (id),
	user_id         INTEGER NOT NULL REFERENCES users (id),
	status          TEXT NOT NULL DEFAULT 'Active',
	enrollment_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (event_id, user_id)
);

CREATE TABLE IF NOT EXISTS attendance_records (
	id          SERIAL PRIMARY KEY,
	event_id    INTEGER NOT NULL REFERENCES training_events (id),
	participant TEXT NOT NULL,
	via         TEXT NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS alerts (
	id        SERIAL PRIMARY KEY,
	category  TEXT NOT NULL,
	message   TEXT NOT NULL,
	priority  TEXT NOT NULL,
	timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	status    TEXT NOT NULL DEFAULT 'Active'
);
`

// EnsureSchema creates the tables when missing; the schema is small enough
// that we do this at startup instead of carrying a migration tool.
func EnsureSchema(db *sqlx.DB) error {
	_, err := db.Exec(schema)
	return errors.Wrap(err, "ensuring schema")
}
