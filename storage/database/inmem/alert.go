package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/safestep/core/alert"
)

type alertRepository struct {
	db *alertTable
}

var _ alert.Repository = (*alertRepository)(nil)

func NewAlertRepository(db *DB) alert.Repository {
	return &alertRepository{db: db.alert}
}

func (r *alertRepository) QueryAllAlerts(ctx context.Context) ([]alert.Alert, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	res := make([]alert.Alert, 0, len(r.db.t))
	for _, alrt := range r.db.t {
		res = append(res, *alrt)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Timestamp.After(res[j].Timestamp) })
	return res, nil
}

func (r *alertRepository) GetAlertByID(ctx context.Context, id int) (alert.Alert, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	if alrt, ok := r.db.t[id]; ok {
		return *alrt, nil
	}
	return alert.Alert{}, alert.ErrNotFound
}

func (r *alertRepository) UpdateAlert(ctx context.Context, alrt alert.Alert) (alert.Alert, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	if _, ok := r.db.t[alrt.ID]; !ok {
		return alert.Alert{}, alert.ErrNotFound
	}
	r.db.t[alrt.ID] = &alrt
	return alrt, nil
}

func (r *alertRepository) CreateAlert(ctx context.Context, alrt alert.Alert) (alert.Alert, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	r.db.seq++
	alrt.ID = r.db.seq
	r.db.t[alrt.ID] = &alrt
	return alrt, nil
}
