package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tastebite/tastebite-backend/pkg/db/models"
	pkgerrors "github.com/tastebite/tastebite-backend/pkg/errors"
)

// Resolver maps an identity-provider user id to the commerce-side customer
// record. Authentication itself lives outside this service; by the time a
// request reaches the core, user_id is already verified.
type Resolver interface {
	Resolve(ctx context.Context, userID uuid.UUID) (*models.Customer, error)
}

type gormResolver struct {
	db *gorm.DB
}

// NewResolver builds a resolver backed by the customers table.
func NewResolver(db *gorm.DB) Resolver {
	return &gormResolver{db: db}
}

func (r *gormResolver) Resolve(ctx context.Context, userID uuid.UUID) (*models.Customer, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var customer models.Customer
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve customer")
	}
	return &customer, nil
}
