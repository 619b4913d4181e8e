package invoicing

import (
	"context"
	"errors"
	"time"

	"github.com/dormbill/backend/internal/domain/invoicing"
	"github.com/dormbill/backend/internal/domain/property"
	"github.com/dormbill/backend/internal/infrastructure/logger"
	"github.com/dormbill/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const notificationServiceName = "invoice_notification_service"

// InvoiceDocument is everything a dispatcher needs to render and deliver an
// invoice
type InvoiceDocument struct {
	PropertyID  uuid.UUID
	Invoice     InvoiceDetailResponse
	RoomName    string
	TenantName  string
	TenantEmail string
}

// DispatchResult describes where a document went
type DispatchResult struct {
	Recipient string
	Location  string
}

// Dispatcher delivers an invoice document by one method ("pdf", "email")
type Dispatcher interface {
	Method() string
	Dispatch(ctx context.Context, doc InvoiceDocument) (DispatchResult, error)
}

// NotificationService sends invoice documents on request. Nothing is sent
// at generation time.
type NotificationService struct {
	invoices    *InvoiceService
	rooms       property.RoomDirectory
	sendRecords invoicing.SendRecordRepository
	dispatchers map[string]Dispatcher
	metrics     *telemetry.BillingMetrics
}

// NewNotificationService creates a new NotificationService with the given
// dispatchers keyed by their method
func NewNotificationService(
	invoices *InvoiceService,
	rooms property.RoomDirectory,
	sendRecords invoicing.SendRecordRepository,
	dispatchers ...Dispatcher,
) *NotificationService {
	return &NotificationService{
		invoices:    invoices,
		rooms:       rooms,
		sendRecords: sendRecords,
		dispatchers: lo.SliceToMap(dispatchers, func(d Dispatcher) (string, Dispatcher) {
			return d.Method(), d
		}),
	}
}

// SetBillingMetrics sets the billing metrics recorder
func (s *NotificationService) SetBillingMetrics(m *telemetry.BillingMetrics) {
	s.metrics = m
}

// Methods lists the configured send methods
func (s *NotificationService) Methods() []string {
	return lo.Keys(s.dispatchers)
}

// SendInvoices dispatches each invoice in turn. A failed invoice is reported
// in its result and does not stop the rest. Every attempt is recorded.
func (s *NotificationService) SendInvoices(ctx context.Context, propertyID uuid.UUID, req SendInvoicesRequest) ([]SendResultResponse, error) {
	dispatcher, ok := s.dispatchers[req.Method]
	if !ok {
		return nil, invoicing.ErrUnknownSendMethod
	}

	var results []SendResultResponse
	err := telemetry.Instrument(ctx, notificationServiceName, "SendInvoices", propertyID, func(ctx context.Context) error {
		ids := lo.Uniq(req.InvoiceIDs)
		results = make([]SendResultResponse, 0, len(ids))
		for _, id := range ids {
			res, err := s.sendOne(ctx, propertyID, id, dispatcher)
			if err != nil {
				return err
			}
			results = append(results, res)
		}
		return nil
	})
	return results, err
}

// sendOne dispatches one invoice. Only a failure to store the send record is
// returned as an error.
func (s *NotificationService) sendOne(ctx context.Context, propertyID, invoiceID uuid.UUID, dispatcher Dispatcher) (SendResultResponse, error) {
	start := time.Now()
	doc, err := s.document(ctx, propertyID, invoiceID)
	var out DispatchResult
	if err == nil {
		out, err = dispatcher.Dispatch(ctx, *doc)
	}
	if errors.Is(err, context.Canceled) {
		return SendResultResponse{}, err
	}
	s.metrics.RecordSend(ctx, dispatcher.Method(), err)

	rec := invoicing.NewSendRecord(propertyID, invoiceID, dispatcher.Method(), out.Recipient, out.Location, err)
	if doc != nil && rec.Recipient == "" {
		rec.Recipient = doc.TenantEmail
	}
	if saveErr := s.sendRecords.Save(ctx, rec); saveErr != nil {
		return SendResultResponse{}, saveErr
	}

	log := logger.L(ctx).With(
		zap.String("invoice_id", invoiceID.String()),
		zap.String("method", dispatcher.Method()),
		zap.Duration("duration", time.Since(start)),
	)
	if err != nil {
		log.Warn("Invoice dispatch failed", zap.Error(err))
	} else {
		log.Info("Invoice dispatched", zap.String("location", out.Location))
	}

	return SendResultResponse{
		InvoiceID: invoiceID,
		Status:    string(rec.Status),
		Recipient: rec.Recipient,
		Location:  rec.Location,
		Error:     rec.ErrorMessage,
	}, nil
}

func (s *NotificationService) document(ctx context.Context, propertyID, invoiceID uuid.UUID) (*InvoiceDocument, error) {
	detail, err := s.invoices.GetDetail(ctx, propertyID, invoiceID)
	if err != nil {
		return nil, err
	}
	doc := &InvoiceDocument{PropertyID: propertyID, Invoice: *detail}

	occ, err := s.rooms.Occupancy(ctx, propertyID, detail.RoomID)
	switch {
	case errors.Is(err, property.ErrNoActiveTenant):
		// the tenant has moved out; the document still renders without contact details
	case err != nil:
		return nil, err
	default:
		doc.RoomName = occ.RoomName
		if occ.TenantID == detail.TenantID {
			doc.TenantName = occ.TenantName
			doc.TenantEmail = occ.TenantEmail
		}
	}
	return doc, nil
}

// ListSendRecords returns the dispatch history of an invoice, newest first
func (s *NotificationService) ListSendRecords(ctx context.Context, propertyID, invoiceID uuid.UUID) ([]SendRecordResponse, error) {
	if _, err := s.invoices.invoiceRepo.FindByIDForProperty(ctx, propertyID, invoiceID); err != nil {
		return nil, err
	}
	records, err := s.sendRecords.FindByInvoice(ctx, propertyID, invoiceID)
	if err != nil {
		return nil, err
	}
	return lo.Map(records, func(r invoicing.SendRecord, _ int) SendRecordResponse {
		return toSendRecordResponse(r)
	}), nil
}
