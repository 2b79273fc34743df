// Package policy содержит единую проверку прав. Все хендлеры и сценарий присуждения
// используют только эти функции, роли нигде больше не разбираются.
package policy

import (
	"fmt"

	"jobboard/models"
)

type Access int

const (
	AccessRedacted Access = iota
	AccessFull
)

// RequireAdmin проверяет флаг администратора.
func RequireAdmin(p *models.Profile) error {
	if p == nil || !p.RoleAdmin {
		return fmt.Errorf("%w: admin role required", models.ErrForbidden)
	}
	return nil
}

// RoleMatches: role_tech для работ tech, role_trainer для trainer.
func RoleMatches(p *models.Profile, jobType models.JobType) bool {
	if p == nil {
		return false
	}
	switch jobType {
	case models.JobTypeTech:
		return p.RoleTech
	case models.JobTypeTrainer:
		return p.RoleTrainer
	default:
		return false
	}
}

// CanBeAwarded: пользователь одобрен и его роль совпадает с типом работы.
func CanBeAwarded(p *models.Profile, job *models.Job) error {
	if p == nil || !p.IsApproved {
		return fmt.Errorf("%w: user is not approved", models.ErrIneligible)
	}
	if !RoleMatches(p, job.JobType) {
		return fmt.Errorf("%w: user role does not match job type %s", models.ErrRoleMismatch, job.JobType)
	}
	return nil
}

// CanBid: то же, что CanBeAwarded, плюс работа должна принимать предложения.
func CanBid(p *models.Profile, job *models.Job) error {
	if err := CanBeAwarded(p, job); err != nil {
		return err
	}
	if !job.Status.AcceptsBids() {
		return fmt.Errorf("%w: job is %s and does not accept bids", models.ErrInvalidState, job.Status)
	}
	return nil
}

// ListingAccess определяет, какую проекцию работы видит пользователь.
// Анонимный пользователь передаётся как nil.
func ListingAccess(p *models.Profile, job *models.Job) Access {
	if CanBeAwarded(p, job) == nil {
		return AccessFull
	}
	return AccessRedacted
}
