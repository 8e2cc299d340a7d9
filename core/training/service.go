package training

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrNotFound        = errors.New("training event not found")
	ErrEventFull       = errors.New("training is full")
	ErrAlreadyEnrolled = errors.New("already enrolled in this training")
)

type (
	Repository interface {
		CreateEvent(ctx context.Context, evt Event) (Event, error)
		QueryAllEvents(ctx context.Context) ([]Event, error)
		GetEventByID(ctx context.Context, id int) (Event, error)
		UpdateEvent(ctx context.Context, evt Event) (Event, error)

		// CreateEnrollment atomically checks capacity and uniqueness, stores
		// the enrollment and bumps the event's enrolled count. It returns
		// ErrEventFull or ErrAlreadyEnrolled when the checks fail.
		CreateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		QueryEnrollmentsByUser(ctx context.Context, userID int) ([]EnrolledEvent, error)
		CountEnrollmentsByEvent(ctx context.Context, eventID int) (int, error)

		CreateAttendance(ctx context.Context, rec AttendanceRecord) (AttendanceRecord, error)
		QueryAttendanceByEvent(ctx context.Context, eventID int) ([]AttendanceRecord, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, ne NewEvent) (Event, error) {
	now := time.Now().UTC()
	evt := Event{
		Title:       ne.Title,
		Description: ne.Description,
		StartDate:   ne.StartDate,
		EndDate:     ne.EndDate,
		StartTime:   ne.StartTime,
		EndTime:     ne.EndTime,
		Themes:      ne.Themes,
		Trainer:     ne.Trainer,
		Location:    ne.Location,
		Latitude:    ne.Latitude,
		Longitude:   ne.Longitude,
		Capacity:    ne.Capacity,
		Enrolled:    0,
		Status:      StatusScheduled,
		Visibility:  ne.Visibility,
		Materials:   ne.Materials,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if evt.Visibility == "" {
		evt.Visibility = VisibilityPublic
	}
	return svc.repo.CreateEvent(ctx, evt)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Event, error) {
	return svc.repo.QueryAllEvents(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Event, error) {
	return svc.repo.GetEventByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id int, ue UpdateEvent) (Event, error) {
	evt, err := svc.repo.GetEventByID(ctx, id)
	if err != nil {
		return Event{}, err
	}

	if ue.Title != "" {
		evt.Title = ue.Title
	}
	if ue.Description != "" {
		evt.Description = ue.Description
	}
	if ue.StartDate != "" {
		evt.StartDate = ue.StartDate
	}
	if ue.EndDate != "" {
		evt.EndDate = ue.EndDate
	}
	if ue.StartTime != "" {
		evt.StartTime = ue.StartTime
	}
	if ue.EndTime != "" {
		evt.EndTime = ue.EndTime
	}
	if ue.Themes != nil {
		evt.Themes = ue.Themes
	}
	if ue.Trainer != "" {
		evt.Trainer = ue.Trainer
	}
	if ue.Location != "" {
		evt.Location = ue.Location
	}
	if ue.Capacity > 0 {
		evt.Capacity = ue.Capacity
	}
	if ue.Status != "" {
		evt.Status = ue.Status
	}
	if ue.Visibility != "" {
		evt.Visibility = ue.Visibility
	}
	if ue.Materials != nil {
		evt.Materials = ue.Materials
	}
	evt.UpdatedAt = time.Now().UTC()

	return svc.repo.UpdateEvent(ctx, evt)
}

func (svc *Service) Enroll(ctx context.Context, eventID, userID int) (Enrollment, error) {
	if _, err := svc.repo.GetEventByID(ctx, eventID); err != nil {
		return Enrollment{}, err
	}
	return svc.repo.CreateEnrollment(ctx, Enrollment{
		EventID:    eventID,
		UserID:     userID,
		Status:     "Active",
		EnrolledAt: time.Now().UTC(),
	})
}

func (svc *Service) Enrollments(ctx context.Context, userID int) ([]EnrolledEvent, error) {
	return svc.repo.QueryEnrollmentsByUser(ctx, userID)
}

func (svc *Service) MarkAttendance(ctx context.Context, att Attendance) (AttendanceRecord, error) {
	if _, err := svc.repo.GetEventByID(ctx, att.EventID); err != nil {
		return AttendanceRecord{}, err
	}
	return svc.repo.CreateAttendance(ctx, AttendanceRecord{
		EventID:     att.EventID,
		Participant: att.Participant,
		Via:         att.Via,
		RecordedAt:  time.Now().UTC(),
	})
}

func (svc *Service) Report(ctx context.Context, eventID int) (Report, error) {
	evt, err := svc.repo.GetEventByID(ctx, eventID)
	if err != nil {
		return Report{}, err
	}
	enrolled, err := svc.repo.CountEnrollmentsByEvent(ctx, eventID)
	if err != nil {
		return Report{}, err
	}
	attendance, err := svc.repo.QueryAttendanceByEvent(ctx, eventID)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Event:       evt,
		Enrolled:    enrolled,
		Attended:    len(attendance),
		Attendance:  attendance,
		GeneratedAt: time.Now().UTC(),
	}, nil
}
