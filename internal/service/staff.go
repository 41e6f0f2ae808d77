package service

import (
	"context"
	"fmt"

	"github.com/espadawo/bot-for-a-brokerage-company/internal/models"
)

// IsStaff reports whether the user may perform staff operations. The staff
// set is flat: configured admin ids plus the persisted roster, with no role
// hierarchy between them.
func (e *Engine) IsStaff(ctx context.Context, userID int64) (bool, error) {
	if _, ok := e.admins[userID]; ok {
		return true, nil
	}
	return e.store.Staff().IsMember(ctx, userID)
}

// AddStaff adds a user to the persisted roster. Adding an existing member is
// a no-op.
func (e *Engine) AddStaff(ctx context.Context, userID int64, fullName string) error {
	if err := e.store.Staff().Add(ctx, &models.StaffMember{UserID: userID, FullName: fullName}); err != nil {
		return fmt.Errorf("add staff member: %w", err)
	}
	return nil
}

// ListStaff returns the persisted roster. Configured admin ids are not
// included; they live in configuration, not storage.
func (e *Engine) ListStaff(ctx context.Context) ([]models.StaffMember, error) {
	return e.store.Staff().List(ctx)
}
