package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/safestep/core/alert"
)

type alertRow struct {
	ID        int       `db:"id"`
	Category  string    `db:"category"`
	Message   string    `db:"message"`
	Priority  string    `db:"priority"`
	Timestamp time.Time `db:"timestamp"`
	Status    string    `db:"status"`
}

func (row alertRow) alert() alert.Alert {
	return alert.Alert{
		ID:        row.ID,
		Category:  row.Category,
		Message:   row.Message,
		Priority:  alert.Priority(row.Priority),
		Timestamp: row.Timestamp,
		Status:    alert.Status(row.Status),
	}
}

type alertRepository struct {
	db *sqlx.DB
}

var _ alert.Repository = (*alertRepository)(nil)

func NewAlertRepository(db *sqlx.DB) alert.Repository {
	return &alertRepository{db: db}
}

func (repo *alertRepository) CreateAlert(ctx context.Context, alrt alert.Alert) (alert.Alert, error) {
	query := `
		INSERT INTO alerts (category, message, priority, timestamp, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err := repo.db.QueryRowContext(
		ctx, query,
		alrt.Category, alrt.Message, string(alrt.Priority), alrt.Timestamp, string(alrt.Status),
	).Scan(&alrt.ID)
	if err != nil {
		return alert.Alert{}, errors.Wrap(err, "creating alert")
	}
	return alrt, nil
}

func (repo *alertRepository) QueryAllAlerts(ctx context.Context) ([]alert.Alert, error) {
	var rows []alertRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM alerts ORDER BY timestamp DESC`); err != nil {
		return nil, errors.Wrap(err, "querying alerts")
	}
	alerts := make([]alert.Alert, len(rows))
	for i, row := range rows {
		alerts[i] = row.alert()
	}
	return alerts, nil
}

func (repo *alertRepository) GetAlertByID(ctx context.Context, id int) (alert.Alert, error) {
	var row alertRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM alerts WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return alert.Alert{}, alert.ErrNotFound
		}
		return alert.Alert{}, errors.Wrap(err, "getting alert")
	}
	return row.alert(), nil
}

func (repo *alertRepository) UpdateAlert(ctx context.Context, alrt alert.Alert) (alert.Alert, error) {
	res, err := repo.db.ExecContext(
		ctx,
		`UPDATE alerts SET category = $1, message = $2, priority = $3, status = $4 WHERE id = $5`,
		alrt.Category, alrt.Message, string(alrt.Priority), string(alrt.Status), alrt.ID,
	)
	if err != nil {
		return alert.Alert{}, errors.Wrap(err, "updating alert")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return alert.Alert{}, alert.ErrNotFound
	}
	return alrt, nil
}
