package invoicing

import (
	"context"

	"github.com/dormbill/backend/internal/domain/invoicing"
	"github.com/dormbill/backend/internal/infrastructure/logger"
	"github.com/dormbill/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const ledgerServiceName = "invoice_ledger_service"

// LedgerService edits the staff-owned lines of an invoice. Every change is
// followed by a full recompute of the invoice total, and the status is
// re-derived from the new balance.
type LedgerService struct {
	invoiceRepo invoicing.InvoiceRepository
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(invoiceRepo invoicing.InvoiceRepository) *LedgerService {
	return &LedgerService{invoiceRepo: invoiceRepo}
}

// AddLine adds a service or discount line. Other types fail with
// INVALID_LINE_TYPE; a discount's price is stored negative.
func (s *LedgerService) AddLine(ctx context.Context, propertyID, invoiceID uuid.UUID, req AddLineRequest) (*LineMutationResponse, error) {
	var resp *LineMutationResponse
	err := telemetry.Instrument(ctx, ledgerServiceName, "AddLine", propertyID, func(ctx context.Context) error {
		inv, err := s.invoiceRepo.FindByIDForProperty(ctx, propertyID, invoiceID)
		if err != nil {
			return err
		}

		count := decimal.NewFromInt(1)
		if req.UnitCount != nil {
			count = *req.UnitCount
		}
		line, err := inv.AddLine(invoicing.LineType(req.ItemType), req.Description, req.UnitPrice, count)
		if err != nil {
			return err
		}
		if err := s.invoiceRepo.SaveLine(ctx, inv, line); err != nil {
			return err
		}

		logger.L(ctx).Info("Invoice line added",
			zap.String("invoice_id", inv.ID.String()),
			zap.String("line_id", line.ID.String()),
			zap.String("item_type", req.ItemType),
		)
		resp = lineMutation(inv, line)
		return nil
	})
	return resp, err
}

// EditLine updates the supplied fields of a service, discount or late fee
// line. Base lines fail with FORBIDDEN and are left as they were.
func (s *LedgerService) EditLine(ctx context.Context, propertyID, invoiceID, lineID uuid.UUID, req EditLineRequest) (*LineMutationResponse, error) {
	var resp *LineMutationResponse
	err := telemetry.Instrument(ctx, ledgerServiceName, "EditLine", propertyID, func(ctx context.Context) error {
		inv, err := s.invoiceRepo.FindByIDForProperty(ctx, propertyID, invoiceID)
		if err != nil {
			return err
		}

		line, err := inv.EditLine(lineID, invoicing.LineChanges{
			Description: req.Description,
			UnitPrice:   req.UnitPrice,
			UnitCount:   req.UnitCount,
		})
		if err != nil {
			return err
		}
		if err := s.invoiceRepo.SaveLine(ctx, inv, line); err != nil {
			return err
		}

		logger.L(ctx).Info("Invoice line edited",
			zap.String("invoice_id", inv.ID.String()),
			zap.String("line_id", line.ID.String()),
		)
		resp = lineMutation(inv, line)
		return nil
	})
	return resp, err
}

// RemoveLine deletes a non-base line
func (s *LedgerService) RemoveLine(ctx context.Context, propertyID, invoiceID, lineID uuid.UUID) (*LineMutationResponse, error) {
	var resp *LineMutationResponse
	err := telemetry.Instrument(ctx, ledgerServiceName, "RemoveLine", propertyID, func(ctx context.Context) error {
		inv, err := s.invoiceRepo.FindByIDForProperty(ctx, propertyID, invoiceID)
		if err != nil {
			return err
		}
		if _, err := inv.RemoveLine(lineID); err != nil {
			return err
		}
		if err := s.invoiceRepo.DeleteLine(ctx, inv, lineID); err != nil {
			return err
		}

		logger.L(ctx).Info("Invoice line removed",
			zap.String("invoice_id", inv.ID.String()),
			zap.String("line_id", lineID.String()),
		)
		resp = lineMutation(inv, nil)
		return nil
	})
	return resp, err
}

func lineMutation(inv *invoicing.Invoice, line *invoicing.InvoiceLine) *LineMutationResponse {
	resp := &LineMutationResponse{
		InvoiceID:     inv.ID,
		TotalAmount:   inv.TotalAmount,
		InvoiceStatus: inv.Status.String(),
		Balance:       inv.Balance(),
	}
	if line != nil {
		lr := ToLineResponse(*line)
		resp.Line = &lr
	}
	return resp
}
