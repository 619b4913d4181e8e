package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/dormbill/backend/internal/domain/invoicing"
	"github.com/dormbill/backend/internal/domain/shared"
	"github.com/dormbill/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lateFeePosition keeps the late fee after generated lines when listing.
const lateFeePosition = 1000

var baseLineTypes = []invoicing.LineType{
	invoicing.LineTypeRent,
	invoicing.LineTypeWater,
	invoicing.LineTypeElectric,
}

// GormInvoiceRepository implements invoicing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByIDForProperty loads an invoice with its lines and payments
func (r *GormInvoiceRepository) FindByIDForProperty(ctx context.Context, propertyID, id uuid.UUID) (*invoicing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position, created_at") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("payment_date DESC, created_at DESC") }).
		Where("property_id = ? AND id = ?", propertyID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invoicing.ErrInvoiceNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForProperty returns invoice headers matching the filter
func (r *GormInvoiceRepository) FindAllForProperty(ctx context.Context, propertyID uuid.UUID, filter invoicing.InvoiceFilter) ([]invoicing.Invoice, error) {
	var rows []models.InvoiceModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Where("property_id = ?", propertyID), filter)
	query = applyPaging(query, filter.OrderBy, filter.OrderDir, filter.Page, filter.PageSize, InvoiceSortFields, "created_at")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	invoices := make([]invoicing.Invoice, 0, len(rows))
	for i := range rows {
		invoices = append(invoices, *rows[i].ToDomain())
	}
	return invoices, nil
}

// CountForProperty counts invoices matching the filter
func (r *GormInvoiceRepository) CountForProperty(ctx context.Context, propertyID uuid.UUID, filter invoicing.InvoiceFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Where("property_id = ?", propertyID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormInvoiceRepository) applyFilter(query *gorm.DB, filter invoicing.InvoiceFilter) *gorm.DB {
	if filter.BillMonth != nil {
		query = query.Where("bill_month = ?", models.Date(shared.MonthStart(*filter.BillMonth)))
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.RoomID != nil {
		query = query.Where("room_id = ?", *filter.RoomID)
	}
	if filter.CycleID != nil {
		query = query.Where("cycle_id = ?", *filter.CycleID)
	}
	return query
}

// InvoicedRooms returns the rooms that already have an invoice for cycleID
func (r *GormInvoiceRepository) InvoicedRooms(ctx context.Context, propertyID, cycleID uuid.UUID) (map[uuid.UUID]bool, error) {
	var roomIDs []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("property_id = ? AND cycle_id = ?", propertyID, cycleID).
		Distinct().
		Pluck("room_id", &roomIDs).Error; err != nil {
		return nil, err
	}
	invoiced := make(map[uuid.UUID]bool, len(roomIDs))
	for _, id := range roomIDs {
		invoiced[id] = true
	}
	return invoiced, nil
}

// CreateBatch persists the batch header and every invoice with its lines
// in one transaction, numbering invoices from the property's monthly counter
func (r *GormInvoiceRepository) CreateBatch(ctx context.Context, batch *invoicing.InvoiceBatch, invoices []*invoicing.Invoice) error {
	batch.InvoiceCount = len(invoices)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.InvoiceBatchModelFromDomain(batch)).Error; err != nil {
			return err
		}
		if len(invoices) == 0 {
			return nil
		}

		first, err := nextSequence(tx, batch.PropertyID, invoicing.SequencePeriod(batch.BillMonth), int64(len(invoices)))
		if err != nil {
			return err
		}

		for n, inv := range invoices {
			inv.InvoiceNumber = invoicing.FormatInvoiceNumber(batch.BillMonth, first+int64(n))
			if err := tx.Create(models.InvoiceModelFromDomain(inv)).Error; err != nil {
				return err
			}

			lines := make([]*models.InvoiceLineModel, 0, len(inv.Lines))
			for pos := range inv.Lines {
				lines = append(lines, models.InvoiceLineModelFromDomain(&inv.Lines[pos], pos))
			}
			if len(lines) > 0 {
				if err := tx.Create(&lines).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		for _, inv := range invoices {
			inv.InvoiceNumber = ""
		}
	}
	return translateUniqueViolation(err, shared.ErrDuplicateInvoiceNum)
}

// nextSequence reserves count numbers from the (property, period) counter
// and returns the first one. The upsert takes a row lock on the counter, so
// concurrent batches for the same month serialize here.
func nextSequence(tx *gorm.DB, propertyID uuid.UUID, period string, count int64) (int64, error) {
	now := time.Now()
	seq := models.InvoiceSequenceModel{
		PropertyID: propertyID,
		Period:     period,
		LastValue:  count,
		UpdatedAt:  now,
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "property_id"}, {Name: "period"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_value": gorm.Expr("invoice_sequences.last_value + ?", count),
			"updated_at": now,
		}),
	}).Create(&seq).Error; err != nil {
		return 0, err
	}

	var last int64
	if err := tx.Model(&models.InvoiceSequenceModel{}).
		Where("property_id = ? AND period = ?", propertyID, period).
		Pluck("last_value", &last).Error; err != nil {
		return 0, err
	}
	return last - count + 1, nil
}

// SaveLine inserts or updates one line, then recomputes the invoice total
// and status from the persisted line set
func (r *GormInvoiceRepository) SaveLine(ctx context.Context, inv *invoicing.Invoice, line *invoicing.InvoiceLine) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.InvoiceLineModel{}).
			Where("id = ? AND invoice_id = ?", line.ID, inv.ID).
			Not("item_type IN ?", baseLineTypes).
			Updates(map[string]interface{}{
				"description": line.Description,
				"unit_count":  line.UnitCount,
				"unit_price":  line.UnitPrice,
				"amount":      line.Amount,
				"updated_at":  time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			var existing int64
			if err := tx.Model(&models.InvoiceLineModel{}).
				Where("invoice_id = ? AND item_type <> ?", inv.ID, invoicing.LineTypeLateFee).
				Count(&existing).Error; err != nil {
				return err
			}
			if err := tx.Create(models.InvoiceLineModelFromDomain(line, int(existing))).Error; err != nil {
				return err
			}
		}

		return r.recomputeTotal(tx, inv)
	})
}

// DeleteLine removes one non-base line, then recomputes total and status
func (r *GormInvoiceRepository) DeleteLine(ctx context.Context, inv *invoicing.Invoice, lineID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND invoice_id = ?", lineID, inv.ID).
			Not("item_type IN ?", baseLineTypes).
			Delete(&models.InvoiceLineModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return invoicing.ErrLineNotFound
		}
		return r.recomputeTotal(tx, inv)
	})
}

// UpsertLateFee inserts or overwrites the invoice's single late_fee line.
// The conflict target is the partial unique index on late fee lines, so two
// concurrent accruals collapse into one row.
func (r *GormInvoiceRepository) UpsertLateFee(ctx context.Context, inv *invoicing.Invoice, line *invoicing.InvoiceLine) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.InvoiceLineModelFromDomain(line, lateFeePosition)
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "invoice_id"}},
			TargetWhere: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "item_type = 'late_fee'"},
			}},
			DoUpdates: clause.AssignmentColumns([]string{"description", "unit_count", "unit_price", "amount", "updated_at"}),
		}).Create(model).Error; err != nil {
			return err
		}
		return r.recomputeTotal(tx, inv)
	})
}

// recomputeTotal stores the total and settlement status derived from every
// persisted line and payment, and bumps the version so in-flight payments
// against the old total conflict.
func (r *GormInvoiceRepository) recomputeTotal(tx *gorm.DB, inv *invoicing.Invoice) error {
	var lineRows []models.InvoiceLineModel
	if err := tx.Where("invoice_id = ?", inv.ID).Order("position, created_at").Find(&lineRows).Error; err != nil {
		return err
	}
	var paymentRows []models.PaymentModel
	if err := tx.Where("invoice_id = ?", inv.ID).Find(&paymentRows).Error; err != nil {
		return err
	}

	inv.Lines = make([]invoicing.InvoiceLine, 0, len(lineRows))
	for i := range lineRows {
		inv.Lines = append(inv.Lines, lineRows[i].ToDomain())
	}
	inv.Payments = make([]invoicing.Payment, 0, len(paymentRows))
	for i := range paymentRows {
		inv.Payments = append(inv.Payments, paymentRows[i].ToDomain())
	}
	inv.RecalculateTotal()
	inv.ReconcileStatus()

	result := tx.Model(&models.InvoiceModel{}).
		Where("id = ? AND property_id = ?", inv.ID, inv.PropertyID).
		Updates(map[string]interface{}{
			"total_amount": inv.TotalAmount,
			"status":       inv.Status,
			"paid_date":    models.DatePtr(inv.PaidDate),
			"version":      gorm.Expr("version + 1"),
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return invoicing.ErrInvoiceNotFound
	}
	inv.Version++
	return nil
}

// AddPayment inserts the payment and stores the new settlement status. The
// invoice must still be at the version it was loaded with.
func (r *GormInvoiceRepository) AddPayment(ctx context.Context, inv *invoicing.Invoice, payment *invoicing.Payment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.saveStatus(tx, inv); err != nil {
			return err
		}
		return tx.Create(models.PaymentModelFromDomain(payment)).Error
	})
}

// RemovePayment deletes the payment and stores the re-derived status
func (r *GormInvoiceRepository) RemovePayment(ctx context.Context, inv *invoicing.Invoice, paymentID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND invoice_id = ?", paymentID, inv.ID).Delete(&models.PaymentModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return invoicing.ErrPaymentNotFound
		}
		return r.saveStatus(tx, inv)
	})
}

// saveStatus writes status and paid date under an optimistic version check.
// The domain has already incremented inv.Version.
func (r *GormInvoiceRepository) saveStatus(tx *gorm.DB, inv *invoicing.Invoice) error {
	result := tx.Model(&models.InvoiceModel{}).
		Where("id = ? AND property_id = ? AND version = ?", inv.ID, inv.PropertyID, inv.Version-1).
		Updates(map[string]interface{}{
			"status":     inv.Status,
			"paid_date":  models.DatePtr(inv.PaidDate),
			"version":    inv.Version,
			"updated_at": inv.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConflict
	}
	return nil
}

// DeleteUnpaidByBillMonth deletes every unpaid invoice of the bill month
// that has no payments, together with its lines. Send records are kept.
// Batches that lose invoices are recounted and dropped once empty.
func (r *GormInvoiceRepository) DeleteUnpaidByBillMonth(ctx context.Context, propertyID uuid.UUID, billMonth time.Time) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uuid.UUID
		if err := tx.Model(&models.InvoiceModel{}).
			Where("property_id = ? AND bill_month = ? AND status = ?",
				propertyID, models.Date(shared.MonthStart(billMonth)), invoicing.StatusUnpaid).
			Where("NOT EXISTS (SELECT 1 FROM invoice_payments p WHERE p.invoice_id = invoices.id)").
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		var batchIDs []uuid.UUID
		if err := tx.Model(&models.InvoiceModel{}).Where("id IN ?", ids).
			Distinct().Pluck("batch_id", &batchIDs).Error; err != nil {
			return err
		}

		if err := tx.Where("invoice_id IN ?", ids).Delete(&models.InvoiceLineModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("id IN ?", ids).Delete(&models.InvoiceModel{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected

		return r.shrinkBatches(tx, batchIDs)
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// shrinkBatches recounts invoice_count from the remaining invoices and
// deletes the batches left without any
func (r *GormInvoiceRepository) shrinkBatches(tx *gorm.DB, batchIDs []uuid.UUID) error {
	if len(batchIDs) == 0 {
		return nil
	}
	if err := tx.Model(&models.InvoiceBatchModel{}).
		Where("id IN ?", batchIDs).
		Update("invoice_count", gorm.Expr("(SELECT COUNT(*) FROM invoices WHERE invoices.batch_id = invoice_batches.id)")).Error; err != nil {
		return err
	}
	return tx.Where("id IN ? AND invoice_count = 0", batchIDs).Delete(&models.InvoiceBatchModel{}).Error
}

// GormSendRecordRepository implements invoicing.SendRecordRepository using GORM
type GormSendRecordRepository struct {
	db *gorm.DB
}

// NewGormSendRecordRepository creates a new GormSendRecordRepository
func NewGormSendRecordRepository(db *gorm.DB) *GormSendRecordRepository {
	return &GormSendRecordRepository{db: db}
}

// Save appends a send record
func (r *GormSendRecordRepository) Save(ctx context.Context, record *invoicing.SendRecord) error {
	return r.db.WithContext(ctx).Create(models.SendRecordModelFromDomain(record)).Error
}

// FindByInvoice lists send records for an invoice, newest first
func (r *GormSendRecordRepository) FindByInvoice(ctx context.Context, propertyID, invoiceID uuid.UUID) ([]invoicing.SendRecord, error) {
	var rows []models.SendRecordModel
	if err := r.db.WithContext(ctx).
		Where("property_id = ? AND invoice_id = ?", propertyID, invoiceID).
		Order("sent_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	records := make([]invoicing.SendRecord, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].ToDomain())
	}
	return records, nil
}

var _ invoicing.InvoiceRepository = (*GormInvoiceRepository)(nil)
var _ invoicing.SendRecordRepository = (*GormSendRecordRepository)(nil)
