package invoicing

import (
	"context"
	"time"

	"github.com/dormbill/backend/internal/domain/invoicing"
	"github.com/dormbill/backend/internal/domain/shared"
	"github.com/dormbill/backend/internal/infrastructure/logger"
	"github.com/dormbill/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const invoiceServiceName = "invoice_service"

// InvoiceService serves invoice reads and the bulk delete of unpaid invoices
type InvoiceService struct {
	invoiceRepo invoicing.InvoiceRepository
	lateFees    *LateFeeService
	now         Clock
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(invoiceRepo invoicing.InvoiceRepository, lateFees *LateFeeService) *InvoiceService {
	return &InvoiceService{invoiceRepo: invoiceRepo, lateFees: lateFees, now: time.Now}
}

// GetDetail returns an invoice with its lines and payments. An overdue
// unpaid invoice has its late fee accrued before it is returned.
func (s *InvoiceService) GetDetail(ctx context.Context, propertyID, invoiceID uuid.UUID) (*InvoiceDetailResponse, error) {
	var resp *InvoiceDetailResponse
	err := telemetry.Instrument(ctx, invoiceServiceName, "GetDetail", propertyID, func(ctx context.Context) error {
		inv, err := s.invoiceRepo.FindByIDForProperty(ctx, propertyID, invoiceID)
		if err != nil {
			return err
		}
		fee := invoicing.ComputeLateFee(inv, s.now())
		if s.lateFees != nil {
			if inv, fee, err = s.lateFees.EnsureLateFee(ctx, inv); err != nil {
				return err
			}
		}
		detail := ToInvoiceDetailResponse(inv, fee, s.now())
		resp = &detail
		return nil
	})
	return resp, err
}

// List returns a page of invoice headers
func (s *InvoiceService) List(ctx context.Context, propertyID uuid.UUID, req ListInvoicesRequest) (*shared.Paginated[InvoiceHeaderResponse], error) {
	filter, err := toInvoiceFilter(req)
	if err != nil {
		return nil, err
	}

	invoices, err := s.invoiceRepo.FindAllForProperty(ctx, propertyID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.invoiceRepo.CountForProperty(ctx, propertyID, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(invoices, func(inv invoicing.Invoice, _ int) InvoiceHeaderResponse {
		return ToInvoiceHeaderResponse(&inv)
	})
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// DeleteUnpaidBatch removes every unpaid invoice of a bill month that has no
// payments. Paid or part-paid invoices are kept.
func (s *InvoiceService) DeleteUnpaidBatch(ctx context.Context, propertyID uuid.UUID, billMonth string) (*DeleteUnpaidResponse, error) {
	var resp *DeleteUnpaidResponse
	err := telemetry.Instrument(ctx, invoiceServiceName, "DeleteUnpaidBatch", propertyID, func(ctx context.Context) error {
		month, err := shared.ParseYearMonth(billMonth)
		if err != nil {
			return err
		}
		deleted, err := s.invoiceRepo.DeleteUnpaidByBillMonth(ctx, propertyID, month)
		if err != nil {
			return err
		}

		logger.L(ctx).Info("Unpaid invoices deleted",
			zap.String("bill_month", month.Format(shared.YearMonthLayout)),
			zap.Int64("deleted_count", deleted),
		)
		resp = &DeleteUnpaidResponse{BillMonth: month.Format(shared.YearMonthLayout), DeletedCount: deleted}
		return nil
	})
	return resp, err
}

func toInvoiceFilter(req ListInvoicesRequest) (invoicing.InvoiceFilter, error) {
	filter := invoicing.InvoiceFilter{Filter: shared.DefaultFilter()}
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	if req.OrderBy != "" {
		filter.OrderBy = req.OrderBy
	}
	if req.OrderDir != "" {
		filter.OrderDir = req.OrderDir
	}

	if req.BillMonth != "" {
		month, err := shared.ParseYearMonth(req.BillMonth)
		if err != nil {
			return filter, err
		}
		filter.BillMonth = &month
	}
	if req.Status != "" {
		status := invoicing.InvoiceStatus(req.Status)
		if !status.IsValid() {
			return filter, shared.NewDomainError("INVALID_INPUT", "unknown invoice status "+req.Status)
		}
		filter.Status = &status
	}
	if req.RoomID != "" {
		id, err := uuid.Parse(req.RoomID)
		if err != nil {
			return filter, shared.NewDomainError("INVALID_INPUT", "room_id is not a UUID")
		}
		filter.RoomID = &id
	}
	if req.CycleID != "" {
		id, err := uuid.Parse(req.CycleID)
		if err != nil {
			return filter, shared.NewDomainError("INVALID_INPUT", "cycle_id is not a UUID")
		}
		filter.CycleID = &id
	}
	return filter, nil
}
