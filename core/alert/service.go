package alert

import (
	"context"

	"github.com/pkg/errors"
)

var (
	ErrNotFound        = errors.New("alert not found")
	ErrAlreadyResolved = errors.New("alert is already resolved")
)

type (
	Repository interface {
		CreateAlert(ctx context.Context, alrt Alert) (Alert, error)
		QueryAllAlerts(ctx context.Context) ([]Alert, error)
		GetAlertByID(ctx context.Context, id int) (Alert, error)
		UpdateAlert(ctx context.Context, alrt Alert) (Alert, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) QueryAll(ctx context.Context) ([]Alert, error) {
	return svc.repo.QueryAllAlerts(ctx)
}

// Resolve transitions the alert Active -> Resolved. The transition is not
// reversible by any exposed operation.
func (svc *Service) Resolve(ctx context.Context, id int) (Alert, error) {
	alrt, err := svc.repo.GetAlertByID(ctx, id)
	if err != nil {
		return Alert{}, err
	}
	if alrt.Status == StatusResolved {
		return Alert{}, ErrAlreadyResolved
	}
	alrt.Status = StatusResolved
	return svc.repo.UpdateAlert(ctx, alrt)
}

func (svc *Service) ActiveCount(ctx context.Context) (int, error) {
	alerts, err := svc.repo.QueryAllAlerts(ctx)
	if err != nil {
		return 0, err
	}
	var count int
	for _, alrt := range alerts {
		if alrt.Status == StatusActive {
			count++
		}
	}
	return count, nil
}
