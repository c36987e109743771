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

// GormReservationRepository implements ReservationRepository using GORM
type GormReservationRepository struct {
	db *gorm.DB
}

// NewGormReservationRepository creates a new GormReservationRepository
func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

// FindByID finds a reservation by its ID, returning nil when absent
func (r *GormReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*booking.Reservation, error) {
	var model models.ReservationModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber finds a reservation by its display number, returning nil when absent
func (r *GormReservationRepository) FindByNumber(ctx context.Context, reservationNumber string) (*booking.Reservation, error) {
	var model models.ReservationModel
	if err := r.db.WithContext(ctx).
		Where("reservation_number = ?", reservationNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds reservations matching the filter
func (r *GormReservationRepository) FindAll(ctx context.Context, filter booking.ReservationFilter) ([]booking.Reservation, error) {
	var reservationModels []models.ReservationModel
	query := r.db.WithContext(ctx).Model(&models.ReservationModel{})
	query = applyReservationFilter(query, filter)
	query = applyReservationPagination(query, filter)

	if err := query.Order("created_at DESC").Find(&reservationModels).Error; err != nil {
		return nil, err
	}
	reservations := make([]booking.Reservation, len(reservationModels))
	for i, model := range reservationModels {
		reservations[i] = *model.ToDomain()
	}
	return reservations, nil
}

// Count counts reservations matching the filter, ignoring pagination
func (r *GormReservationRepository) Count(ctx context.Context, filter booking.ReservationFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.ReservationModel{})
	query = applyReservationFilter(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a reservation
func (r *GormReservationRepository) Save(ctx context.Context, reservation *booking.Reservation) error {
	model := models.ReservationModelFromDomain(reservation)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete removes a reservation
func (r *GormReservationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ReservationModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func applyReservationFilter(query *gorm.DB, filter booking.ReservationFilter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("reservation_number ILIKE ? OR customer_name ILIKE ?", pattern, pattern)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.AgentID != nil {
		query = query.Where("agent_id = ?", *filter.AgentID)
	}
	if filter.ServiceType != "" {
		query = query.Where("service_type = ?", filter.ServiceType)
	}
	if filter.FromDate != nil {
		query = query.Where("created_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("created_at <= ?", *filter.ToDate)
	}
	return query
}

func applyReservationPagination(query *gorm.DB, filter booking.ReservationFilter) *gorm.DB {
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}
	return query
}
