package invoicing

import (
	"context"
	"sort"
	"time"

	"github.com/dormbill/backend/internal/domain/invoicing"
	"github.com/dormbill/backend/internal/domain/shared"
	"github.com/dormbill/backend/internal/infrastructure/logger"
	"github.com/dormbill/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const paymentServiceName = "payment_service"

// PaymentService records and reverses payments against invoices
type PaymentService struct {
	invoiceRepo    invoicing.InvoiceRepository
	lateFees       *LateFeeService
	receipts       ReceiptNumberGenerator
	eventPublisher shared.EventPublisher
	metrics        *telemetry.BillingMetrics
	now            Clock
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(invoiceRepo invoicing.InvoiceRepository, lateFees *LateFeeService, receipts ReceiptNumberGenerator) *PaymentService {
	return &PaymentService{
		invoiceRepo: invoiceRepo,
		lateFees:    lateFees,
		receipts:    receipts,
		now:         time.Now,
	}
}

// SetEventPublisher sets the publisher for payment events
func (s *PaymentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBillingMetrics sets the billing metrics recorder
func (s *PaymentService) SetBillingMetrics(m *telemetry.BillingMetrics) {
	s.metrics = m
}

// RecordPayment applies a payment to an invoice. Any late fee owed today is
// accrued first so that a full settlement covers it.
func (s *PaymentService) RecordPayment(ctx context.Context, propertyID, invoiceID uuid.UUID, req RecordPaymentRequest) (*PaymentResultResponse, error) {
	start := time.Now()
	var resp *PaymentResultResponse
	err := telemetry.Instrument(ctx, paymentServiceName, "RecordPayment", propertyID, func(ctx context.Context) error {
		inv, err := s.invoiceRepo.FindByIDForProperty(ctx, propertyID, invoiceID)
		if err != nil {
			return err
		}
		if inv.IsPaid() {
			return shared.ErrAlreadySettled
		}
		if s.lateFees != nil {
			if inv, _, err = s.lateFees.EnsureLateFee(ctx, inv); err != nil {
				return err
			}
		}

		paymentDate := shared.DateOnly(s.now())
		if req.PaymentDate != "" {
			if paymentDate, err = shared.ParseDate(req.PaymentDate); err != nil {
				return err
			}
		}

		input := invoicing.PaymentInput{
			Method: req.Method,
			Date:   paymentDate,
			Note:   req.Note,
			Amount: req.Amount,
		}
		if s.receipts != nil {
			input.ReceiptNumber = s.receipts.Next()
		}

		payment, err := inv.RecordPayment(input)
		if err != nil {
			return err
		}
		if err := s.invoiceRepo.AddPayment(ctx, inv, payment); err != nil {
			return err
		}
		publishEvents(ctx, s.eventPublisher, inv)
		s.metrics.RecordPayment(ctx, propertyID, payment.Method, payment.Amount)

		logger.L(ctx).Info("Payment recorded",
			zap.String("invoice_id", inv.ID.String()),
			zap.String("payment_id", payment.ID.String()),
			zap.String("amount", payment.Amount.String()),
			zap.String("receipt_number", payment.ReceiptNumber),
			zap.String("invoice_status", inv.Status.String()),
		)
		result := toPaymentResult(inv, payment)
		resp = &result
		return nil
	})
	s.metrics.ObserveOperation(ctx, "RecordPayment", start, err)
	return resp, err
}

// ListPayments returns an invoice's payments, newest first
func (s *PaymentService) ListPayments(ctx context.Context, propertyID, invoiceID uuid.UUID) ([]PaymentResponse, error) {
	inv, err := s.invoiceRepo.FindByIDForProperty(ctx, propertyID, invoiceID)
	if err != nil {
		return nil, err
	}
	payments := append([]invoicing.Payment(nil), inv.Payments...)
	sort.SliceStable(payments, func(i, j int) bool {
		if !payments[i].PaymentDate.Equal(payments[j].PaymentDate) {
			return payments[i].PaymentDate.After(payments[j].PaymentDate)
		}
		return payments[i].CreatedAt.After(payments[j].CreatedAt)
	})
	return lo.Map(payments, func(p invoicing.Payment, _ int) PaymentResponse {
		return ToPaymentResponse(p)
	}), nil
}

// DeletePayment reverses a payment. The invoice returns to unpaid whenever a
// balance remains afterwards.
func (s *PaymentService) DeletePayment(ctx context.Context, propertyID, invoiceID, paymentID uuid.UUID) (*PaymentResultResponse, error) {
	var resp *PaymentResultResponse
	err := telemetry.Instrument(ctx, paymentServiceName, "DeletePayment", propertyID, func(ctx context.Context) error {
		inv, err := s.invoiceRepo.FindByIDForProperty(ctx, propertyID, invoiceID)
		if err != nil {
			return err
		}
		removed, err := inv.RemovePayment(paymentID)
		if err != nil {
			return err
		}
		if err := s.invoiceRepo.RemovePayment(ctx, inv, paymentID); err != nil {
			return err
		}
		publishEvents(ctx, s.eventPublisher, inv)
		s.metrics.RecordPaymentReversed(ctx, propertyID)

		logger.L(ctx).Info("Payment reversed",
			zap.String("invoice_id", inv.ID.String()),
			zap.String("payment_id", removed.ID.String()),
			zap.String("amount", removed.Amount.String()),
			zap.String("invoice_status", inv.Status.String()),
		)
		result := toPaymentResult(inv, nil)
		resp = &result
		return nil
	})
	return resp, err
}
