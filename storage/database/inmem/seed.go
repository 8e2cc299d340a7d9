package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/safestep/core/alert"
	"github.com/trezcool/safestep/core/training"
	"github.com/trezcool/safestep/core/user"
)

// Seed loads the sample data set so a fresh dev server has something to show.
// The default admin credentials are rajesh.kumar@ndma.gov.in / admin123.
func Seed(ctx context.Context, db *DB) error {
	usrRepo := NewUserRepository(db)
	trainRepo := NewTrainingRepository(db)
	alrtRepo := NewAlertRepository(db)

	now := time.Now().UTC()

	admin := user.Principal{
		Name:         "Dr. Rajesh Kumar",
		Email:        "rajesh.kumar@ndma.gov.in",
		Role:         user.RoleNDMAAdmin,
		Jurisdiction: "Delhi",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := admin.SetPassword("admin123"); err != nil {
		return err
	}
	if _, err := usrRepo.CreateUser(ctx, admin); err != nil {
		return err
	}

	trainer := user.Principal{
		Name:         "Dr. Sunita Patel",
		Email:        "sunita.patel@nidm.gov.in",
		Role:         user.RoleTrainer,
		Jurisdiction: "Gujarat",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := trainer.SetPassword("trainer123"); err != nil {
		return err
	}
	if _, err := usrRepo.CreateUser(ctx, trainer); err != nil {
		return err
	}

	events := []training.Event{
		{
			Title:       "Disaster Response Training - Mumbai",
			Description: "Comprehensive training on urban disaster response protocols",
			StartDate:   "2025-10-15", EndDate: "2025-10-17",
			StartTime: "09:00", EndTime: "17:00",
			Themes:  []string{"Disaster Response", "Emergency Planning"},
			Trainer: "Dr. Sunita Patel",
			Location: "Mumbai, Maharashtra", Latitude: 19.0760, Longitude: 72.8777,
			Capacity: 50, Enrolled: 42,
			Status: training.StatusActive, Visibility: training.VisibilityPublic,
			Materials: []string{"Response Manual", "Case Studies", "Equipment Guide"},
		},
		{
			Title:       "Risk Assessment Workshop - Delhi",
			Description: "Advanced risk assessment techniques for government officials",
			StartDate:   "2025-10-20", EndDate: "2025-10-22",
			StartTime: "10:00", EndTime: "16:00",
			Themes:  []string{"Risk Assessment", "Vulnerability Analysis"},
			Trainer: "Dr. Rajesh Kumar",
			Location: "New Delhi", Latitude: 28.6139, Longitude: 77.2090,
			Capacity: 30, Enrolled: 28,
			Status: training.StatusActive, Visibility: training.VisibilityRestricted,
			Materials: []string{"Assessment Tools", "Guidelines", "Templates"},
		},
		{
			Title:       "Community Engagement Training - Kolkata",
			Description: "Building community resilience through effective engagement",
			StartDate:   "2025-10-25", EndDate: "2025-10-26",
			StartTime: "09:30", EndTime: "17:30",
			Themes:  []string{"Community Engagement", "Public Awareness"},
			Trainer: "Priya Sharma",
			Location: "Kolkata, West Bengal", Latitude: 22.5726, Longitude: 88.3639,
			Capacity: 40, Enrolled: 35,
			Status: training.StatusScheduled, Visibility: training.VisibilityPublic,
			Materials: []string{"Engagement Toolkit", "Communication Guide"},
		},
		{
			Title:       "Early Warning Systems - Chennai",
			Description: "Implementation of early warning systems for coastal areas",
			StartDate:   "2025-11-05", EndDate: "2025-11-07",
			StartTime: "09:00", EndTime: "18:00",
			Themes:  []string{"Early Warning", "Technology Integration"},
			Trainer: "Amit Verma",
			Location: "Chennai, Tamil Nadu", Latitude: 13.0827, Longitude: 80.2707,
			Capacity: 35, Enrolled: 22,
			Status: training.StatusScheduled, Visibility: training.VisibilityPublic,
			Materials: []string{"Technical Manual", "Case Studies", "Implementation Guide"},
		},
	}
	for _, evt := range events {
		evt.CreatedAt, evt.UpdatedAt = now, now
		if _, err := trainRepo.CreateEvent(ctx, evt); err != nil {
			return err
		}
	}

	alerts := []alert.Alert{
		{
			Category:  "Low Attendance",
			Message:   "Training in Chennai has low enrollment (22/35)",
			Priority:  alert.PriorityMedium,
			Timestamp: now.Add(-time.Hour),
			Status:    alert.StatusActive,
		},
		{
			Category:  "Coverage Gap",
			Message:   "No trainings scheduled for Northeast region in November",
			Priority:  alert.PriorityHigh,
			Timestamp: now.Add(-2 * time.Hour),
			Status:    alert.StatusActive,
		},
	}
	for _, alrt := range alerts {
		if _, err := alrtRepo.CreateAlert(ctx, alrt); err != nil {
			return err
		}
	}

	return nil
}
