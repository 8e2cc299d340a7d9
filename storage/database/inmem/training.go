package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/safestep/core/training"
)

type trainingRepository struct {
	db *trainingTable
}

var _ training.Repository = (*trainingRepository)(nil)

func NewTrainingRepository(db *DB) training.Repository {
	return &trainingRepository{db: db.training}
}

func (r *trainingRepository) query() []training.Event {
	res := make([]training.Event, 0, len(r.db.t))
	for _, evt := range r.db.t {
		res = append(res, *evt)
	}
	// latest start date first, matching the backend's listing order
	sort.Slice(res, func(i, j int) bool {
		if res[i].StartDate == res[j].StartDate {
			return res[i].ID < res[j].ID
		}
		return res[i].StartDate > res[j].StartDate
	})
	return res
}

func (r *trainingRepository) CreateEvent(ctx context.Context, evt training.Event) (training.Event, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	r.db.seq++
	evt.ID = r.db.seq
	r.db.t[evt.ID] = &evt
	return evt, nil
}

func (r *trainingRepository) QueryAllEvents(ctx context.Context) ([]training.Event, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()
	return r.query(), nil
}

func (r *trainingRepository) GetEventByID(ctx context.Context, id int) (training.Event, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	if evt, ok := r.db.t[id]; ok {
		return *evt, nil
	}
	return training.Event{}, training.ErrNotFound
}

func (r *trainingRepository) UpdateEvent(ctx context.Context, evt training.Event) (training.Event, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	if _, ok := r.db.t[evt.ID]; !ok {
		return training.Event{}, training.ErrNotFound
	}
	r.db.t[evt.ID] = &evt
	return evt, nil
}

func (r *trainingRepository) CreateEnrollment(ctx context.Context, enr training.Enrollment) (training.Enrollment, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	evt, ok := r.db.t[enr.EventID]
	if !ok {
		return training.Enrollment{}, training.ErrNotFound
	}
	if evt.IsFull() {
		return training.Enrollment{}, training.ErrEventFull
	}
	for _, existing := range r.db.enrollments {
		if existing.EventID == enr.EventID && existing.UserID == enr.UserID {
			return training.Enrollment{}, training.ErrAlreadyEnrolled
		}
	}

	r.db.enrSeq++
	enr.ID = r.db.enrSeq
	r.db.enrollments[enr.ID] = &enr
	evt.Enrolled++
	return enr, nil
}

func (r *trainingRepository) QueryEnrollmentsByUser(ctx context.Context, userID int) ([]training.EnrolledEvent, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	res := make([]training.EnrolledEvent, 0)
	for _, enr := range r.db.enrollments {
		if enr.UserID != userID {
			continue
		}
		if evt, ok := r.db.t[enr.EventID]; ok {
			res = append(res, training.EnrolledEvent{Event: *evt, EnrolledAt: enr.EnrolledAt})
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].StartDate > res[j].StartDate })
	return res, nil
}

func (r *trainingRepository) CountEnrollmentsByEvent(ctx context.Context, eventID int) (int, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	var count int
	for _, enr := range r.db.enrollments {
		if enr.EventID == eventID {
			count++
		}
	}
	return count, nil
}

func (r *trainingRepository) CreateAttendance(ctx context.Context, rec training.AttendanceRecord) (training.AttendanceRecord, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	if _, ok := r.db.t[rec.EventID]; !ok {
		return training.AttendanceRecord{}, training.ErrNotFound
	}
	r.db.attSeq++
	rec.ID = r.db.attSeq
	r.db.attendance[rec.ID] = &rec
	return rec, nil
}

func (r *trainingRepository) QueryAttendanceByEvent(ctx context.Context, eventID int) ([]training.AttendanceRecord, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	res := make([]training.AttendanceRecord, 0)
	for _, rec := range r.db.attendance {
		if rec.EventID == eventID {
			res = append(res, *rec)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}
