package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// OperatorDirectory lets the booking service name the agent who issued a ticket
// without importing auth.
type OperatorDirectory struct {
	repo Repository
}

func NewOperatorDirectory(repo Repository) *OperatorDirectory {
	return &OperatorDirectory{repo: repo}
}

func (d *OperatorDirectory) DisplayName(ctx context.Context, operatorID uuid.UUID) (string, error) {
	user, err := d.repo.FindByID(ctx, operatorID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch operator %s: %w", operatorID, err)
	}
	return user.DisplayName(), nil
}
