package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/safestep/core/training"
)

type eventRow struct {
	ID          int            `db:"id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	StartDate   string         `db:"start_date"`
	EndDate     string         `db:"end_date"`
	StartTime   string         `db:"start_time"`
	EndTime     string         `db:"end_time"`
	Themes      pq.StringArray `db:"themes"`
	Trainer     string         `db:"trainer"`
	Location    string         `db:"location"`
	Latitude    float64        `db:"latitude"`
	Longitude   float64        `db:"longitude"`
	Capacity    int            `db:"capacity"`
	Enrolled    int            `db:"enrolled"`
	Status      string         `db:"status"`
	Visibility  string         `db:"visibility"`
	Materials   pq.StringArray `db:"materials"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (row eventRow) event() training.Event {
	return training.Event{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		StartDate:   row.StartDate,
		EndDate:     row.EndDate,
		StartTime:   row.StartTime,
		EndTime:     row.EndTime,
		Themes:      row.Themes,
		Trainer:     row.Trainer,
		Location:    row.Location,
		Latitude:    row.Latitude,
		Longitude:   row.Longitude,
		Capacity:    row.Capacity,
		Enrolled:    row.Enrolled,
		Status:      training.Status(row.Status),
		Visibility:  training.Visibility(row.Visibility),
		Materials:   row.Materials,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

type trainingRepository struct {
	db *sqlx.DB
}

var _ training.Repository = (*trainingRepository)(nil)

func NewTrainingRepository(db *sqlx.DB) training.Repository {
	return &trainingRepository{db: db}
}

func (repo *trainingRepository) CreateEvent(ctx context.Context, evt training.Event) (training.Event, error) {
	query := `
		INSERT INTO training_events
			(title, description, start_date, end_date, start_time, end_time, themes, trainer,
			 location, latitude, longitude, capacity, enrolled, status, visibility, materials,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id`
	err := repo.db.QueryRowContext(
		ctx, query,
		evt.Title, evt.Description, evt.StartDate, evt.EndDate, evt.StartTime, evt.EndTime,
		pq.StringArray(evt.Themes), evt.Trainer, evt.Location, evt.Latitude, evt.Longitude,
		evt.Capacity, evt.Enrolled, string(evt.Status), string(evt.Visibility),
		pq.StringArray(evt.Materials), evt.CreatedAt, evt.UpdatedAt,
	).Scan(&evt.ID)
	if err != nil {
		return training.Event{}, errors.Wrap(err, "creating event")
	}
	return evt, nil
}

func (repo *trainingRepository) QueryAllEvents(ctx context.Context) ([]training.Event, error) {
	var rows []eventRow
	query := `SELECT * FROM training_events ORDER BY start_date DESC, id`
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "querying events")
	}
	events := make([]training.Event, len(rows))
	for i, row := range rows {
		events[i] = row.event()
	}
	return events, nil
}

func (repo *trainingRepository) GetEventByID(ctx context.Context, id int) (training.Event, error) {
	var row eventRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM training_events WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return training.Event{}, training.ErrNotFound
		}
		return training.Event{}, errors.Wrap(err, "getting event")
	}
	return row.event(), nil
}

func (repo *trainingRepository) UpdateEvent(ctx context.Context, evt training.Event) (training.Event, error) {
	query := `
		UPDATE training_events
		SET title = $1, description = $2, start_date = $3, end_date = $4, start_time = $5,
		    end_time = $6, themes = $7, trainer = $8, location = $9, latitude = $10,
		    longitude = $11, capacity = $12, enrolled = $13, status = $14, visibility = $15,
		    materials = $16, updated_at = $17
		WHERE id = $18`
	res, err := repo.db.ExecContext(
		ctx, query,
		evt.Title, evt.Description, evt.StartDate, evt.EndDate, evt.StartTime, evt.EndTime,
		pq.StringArray(evt.Themes), evt.Trainer, evt.Location, evt.Latitude, evt.Longitude,
		evt.Capacity, evt.Enrolled, string(evt.Status), string(evt.Visibility),
		pq.StringArray(evt.Materials), evt.UpdatedAt, evt.ID,
	)
	if err != nil {
		return training.Event{}, errors.Wrap(err, "updating event")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return training.Event{}, training.ErrNotFound
	}
	return evt, nil
}

func (repo *trainingRepository) CreateEnrollment(ctx context.Context, enr training.Enrollment) (training.Enrollment, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return training.Enrollment{}, errors.Wrap(err, "beginning enrollment tx")
	}
	defer func() { _ = tx.Rollback() }()

	var capacity, enrolled int
	query := `SELECT capacity, enrolled FROM training_events WHERE id = $1 FOR UPDATE`
	if err = tx.QueryRowContext(ctx, query, enr.EventID).Scan(&capacity, &enrolled); err != nil {
		if err == sql.ErrNoRows {
			return training.Enrollment{}, training.ErrNotFound
		}
		return training.Enrollment{}, errors.Wrap(err, "locking event")
	}
	if enrolled >= capacity {
		return training.Enrollment{}, training.ErrEventFull
	}

	var exists bool
	query = `SELECT EXISTS (SELECT 1 FROM enrollments WHERE event_id = $1 AND user_id = $2)`
	if err = tx.QueryRowContext(ctx, query, enr.EventID, enr.UserID).Scan(&exists); err != nil {
		return training.Enrollment{}, errors.Wrap(err, "checking enrollment")
	}
	if exists {
		return training.Enrollment{}, training.ErrAlreadyEnrolled
	}

	query = `
		INSERT INTO enrollments (event_id, user_id, status, enrollment_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err = tx.QueryRowContext(ctx, query, enr.EventID, enr.UserID, enr.Status, enr.EnrolledAt).Scan(&enr.ID); err != nil {
		return training.Enrollment{}, errors.Wrap(err, "creating enrollment")
	}
	if _, err = tx.ExecContext(ctx, `UPDATE training_events SET enrolled = enrolled + 1 WHERE id = $1`, enr.EventID); err != nil {
		return training.Enrollment{}, errors.Wrap(err, "bumping enrolled count")
	}

	if err = tx.Commit(); err != nil {
		return training.Enrollment{}, errors.Wrap(err, "committing enrollment")
	}
	return enr, nil
}

func (repo *trainingRepository) QueryEnrollmentsByUser(ctx context.Context, userID int) ([]training.EnrolledEvent, error) {
	type enrolledRow struct {
		eventRow
		EnrolledAt time.Time `db:"enrollment_date"`
	}
	var rows []enrolledRow
	query := `
		SELECT te.*, e.enrollment_date
		FROM training_events te
		JOIN enrollments e ON te.id = e.event_id
		WHERE e.user_id = $1
		ORDER BY te.start_date DESC`
	if err := repo.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	enrolled := make([]training.EnrolledEvent, len(rows))
	for i, row := range rows {
		enrolled[i] = training.EnrolledEvent{Event: row.event(), EnrolledAt: row.EnrolledAt}
	}
	return enrolled, nil
}

func (repo *trainingRepository) CountEnrollmentsByEvent(ctx context.Context, eventID int) (int, error) {
	var count int
	err := repo.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM enrollments WHERE event_id = $1`, eventID)
	return count, errors.Wrap(err, "counting enrollments")
}

func (repo *trainingRepository) CreateAttendance(ctx context.Context, rec training.AttendanceRecord) (training.AttendanceRecord, error) {
	query := `
		INSERT INTO attendance_records (event_id, participant, via, recorded_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	err := repo.db.QueryRowContext(ctx, query, rec.EventID, rec.Participant, string(rec.Via), rec.RecordedAt).Scan(&rec.ID)
	if err != nil {
		return training.AttendanceRecord{}, errors.Wrap(err, "creating attendance record")
	}
	return rec, nil
}

func (repo *trainingRepository) QueryAttendanceByEvent(ctx context.Context, eventID int) ([]training.AttendanceRecord, error) {
	type attRow struct {
		ID          int       `db:"id"`
		EventID     int       `db:"event_id"`
		Participant string    `db:"participant"`
		Via         string    `db:"via"`
		RecordedAt  time.Time `db:"recorded_at"`
	}
	var rows []attRow
	query := `SELECT * FROM attendance_records WHERE event_id = $1 ORDER BY id`
	if err := repo.db.SelectContext(ctx, &rows, query, eventID); err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	records := make([]training.AttendanceRecord, len(rows))
	for i, row := range rows {
		records[i] = training.AttendanceRecord{
			ID:          row.ID,
			EventID:     row.EventID,
			Participant: row.Participant,
			Via:         training.AttendanceVia(row.Via),
			RecordedAt:  row.RecordedAt,
		}
	}
	return records, nil
}
