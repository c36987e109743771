package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/tripdesk/backend/internal/domain/booking"
	"github.com/tripdesk/backend/internal/domain/shared"
	"github.com/tripdesk/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by its ID, returning nil when absent
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*booking.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds payments matching the filter
func (r *GormPaymentRepository) FindAll(ctx context.Context, filter booking.PaymentFilter) ([]booking.Payment, error) {
	var paymentModels []models.PaymentModel
	query := r.db.WithContext(ctx).Model(&models.PaymentModel{})

	if filter.BookingRef != "" {
		query = query.Where("booking_ref = ?", filter.BookingRef)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	if err := query.Order("payment_date DESC").Find(&paymentModels).Error; err != nil {
		return nil, err
	}
	payments := make([]booking.Payment, len(paymentModels))
	for i, model := range paymentModels {
		payments[i] = *model.ToDomain()
	}
	return payments, nil
}

// FindByBookingRefs finds all payments whose booking ref is in the given set
func (r *GormPaymentRepository) FindByBookingRefs(ctx context.Context, refs []string) ([]booking.Payment, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	var paymentModels []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("booking_ref IN ?", refs).
		Order("payment_date DESC").
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}
	payments := make([]booking.Payment, len(paymentModels))
	for i, model := range paymentModels {
		payments[i] = *model.ToDomain()
	}
	return payments, nil
}

// Save creates or updates a payment
func (r *GormPaymentRepository) Save(ctx context.Context, payment *booking.Payment) error {
	model := models.PaymentModelFromDomain(payment)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete removes a payment
func (r *GormPaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.PaymentModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
