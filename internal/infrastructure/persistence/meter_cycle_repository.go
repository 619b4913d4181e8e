package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/dormbill/backend/internal/domain/metering"
	"github.com/dormbill/backend/internal/domain/shared"
	"github.com/dormbill/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormMeterCycleRepository implements metering.MeterCycleRepository using GORM
type GormMeterCycleRepository struct {
	db *gorm.DB
}

// NewGormMeterCycleRepository creates a new GormMeterCycleRepository
func NewGormMeterCycleRepository(db *gorm.DB) *GormMeterCycleRepository {
	return &GormMeterCycleRepository{db: db}
}

// FindByIDForProperty loads a cycle with its readings
func (r *GormMeterCycleRepository) FindByIDForProperty(ctx context.Context, propertyID, id uuid.UUID) (*metering.MeterCycle, error) {
	var model models.MeterCycleModel
	if err := r.db.WithContext(ctx).
		Preload("Readings", func(db *gorm.DB) *gorm.DB { return db.Order("room_id") }).
		Where("property_id = ? AND id = ?", propertyID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, metering.ErrCycleNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForProperty lists cycle headers, most recent date first
func (r *GormMeterCycleRepository) FindAllForProperty(ctx context.Context, propertyID uuid.UUID) ([]metering.MeterCycle, error) {
	var rows []models.MeterCycleModel
	if err := r.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("cycle_date DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	cycles := make([]metering.MeterCycle, 0, len(rows))
	for i := range rows {
		cycles = append(cycles, *rows[i].ToDomain())
	}
	return cycles, nil
}

// ExistsByDate reports whether another cycle of the property has date
func (r *GormMeterCycleRepository) ExistsByDate(ctx context.Context, propertyID uuid.UUID, date time.Time, excludeID uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.MeterCycleModel{}).
		Where("property_id = ? AND cycle_date = ?", propertyID, models.Date(date))
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts the cycle and its readings atomically. A concurrent insert
// for the same date surfaces as shared.ErrDuplicateCycle through the unique
// index.
func (r *GormMeterCycleRepository) Create(ctx context.Context, cycle *metering.MeterCycle) error {
	model := models.MeterCycleModelFromDomain(cycle)
	readings := model.Readings
	model.Readings = nil

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		if len(readings) > 0 {
			if err := tx.Create(&readings).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return translateUniqueViolation(err, shared.ErrDuplicateCycle)
}

// ReplaceReadings overwrites the cycle date and swaps the whole reading set
func (r *GormMeterCycleRepository) ReplaceReadings(ctx context.Context, cycle *metering.MeterCycle) error {
	model := models.MeterCycleModelFromDomain(cycle)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.MeterCycleModel{}).
			Where("id = ? AND property_id = ?", cycle.ID, cycle.PropertyID).
			Updates(map[string]interface{}{
				"cycle_date": model.CycleDate,
				"updated_at": cycle.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return metering.ErrCycleNotFound
		}

		if err := tx.Where("cycle_id = ?", cycle.ID).Delete(&models.MeterReadingModel{}).Error; err != nil {
			return err
		}
		if len(model.Readings) > 0 {
			if err := tx.Create(&model.Readings).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return translateUniqueViolation(err, shared.ErrDuplicateCycle)
}

// DeleteForProperty removes the cycle and its readings
func (r *GormMeterCycleRepository) DeleteForProperty(ctx context.Context, propertyID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.MeterCycleModel{}).
			Where("property_id = ? AND id = ?", propertyID, id).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return metering.ErrCycleNotFound
		}

		// Readings go first so stores without FK cascade stay consistent.
		if err := tx.Where("cycle_id = ?", id).Delete(&models.MeterReadingModel{}).Error; err != nil {
			return err
		}
		return tx.Where("property_id = ? AND id = ?", propertyID, id).Delete(&models.MeterCycleModel{}).Error
	})
}
