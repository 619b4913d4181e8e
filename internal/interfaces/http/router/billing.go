package router

import (
	"time"

	"github.com/dormbill/backend/internal/infrastructure/cache"
	"github.com/dormbill/backend/internal/interfaces/http/handler"
	"github.com/dormbill/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// BillingHandlers are the handlers served under a property
type BillingHandlers struct {
	Cycles   *handler.CycleHandler
	Invoices *handler.InvoiceHandler
	Ledger   *handler.LedgerHandler
	Payments *handler.PaymentHandler
}

// BillingOptions configures the middleware of the property-scoped routes
type BillingOptions struct {
	// Auth verifies the bearer token. Nil serves the routes unauthenticated.
	Auth gin.HandlerFunc
	// SendLimiter caps invoice sends per property. Nil disables the limit.
	SendLimiter *middleware.RateLimiter
	// Idempotency replays payment retries. Nil disables replay.
	Idempotency    cache.IdempotencyStore
	IdempotencyTTL time.Duration
	Profiling      bool
}

// NewBillingGroup builds /properties/:property_id with the meter cycle,
// invoice, line and payment routes
func NewBillingGroup(h BillingHandlers, opts BillingOptions) *DomainGroup {
	group := NewDomainGroup("billing", "/properties/:"+middleware.PropertyIDParam)
	if opts.Auth != nil {
		group.Use(opts.Auth)
	}
	group.Use(
		middleware.PropertyScope(opts.Auth != nil),
		middleware.TracingAttributeInjector(),
		middleware.Profiling(opts.Profiling),
	)

	cycles := group.Group("meter-cycles", "/meter-cycles")
	cycles.POST("", h.Cycles.Create)
	cycles.GET("", h.Cycles.List)
	cycles.GET("/:cycle_id", h.Cycles.Get)
	cycles.PUT("/:cycle_id", h.Cycles.Replace)
	cycles.DELETE("/:cycle_id", h.Cycles.Delete)
	cycles.GET("/:cycle_id/candidates", h.Cycles.Candidates)

	invoices := group.Group("invoices", "/invoices")
	invoices.POST("/generate", h.Invoices.Generate)
	invoices.GET("", h.Invoices.List)
	invoices.DELETE("/unpaid", h.Invoices.DeleteUnpaid)
	invoices.POST("/send", withOptional(opts.SendLimiter != nil, func() gin.HandlerFunc {
		return middleware.RateLimitByProperty(opts.SendLimiter)
	}, h.Invoices.Send)...)
	invoices.GET("/:invoice_id", h.Invoices.GetByID)
	invoices.GET("/:invoice_id/send-records", h.Invoices.SendRecords)

	invoices.POST("/:invoice_id/lines", h.Ledger.AddLine)
	invoices.PUT("/:invoice_id/lines/:line_id", h.Ledger.EditLine)
	invoices.DELETE("/:invoice_id/lines/:line_id", h.Ledger.RemoveLine)

	invoices.GET("/:invoice_id/payments", h.Payments.List)
	invoices.POST("/:invoice_id/payments", withOptional(opts.Idempotency != nil, func() gin.HandlerFunc {
		return middleware.Idempotency(opts.Idempotency, opts.IdempotencyTTL)
	}, h.Payments.Record)...)
	invoices.DELETE("/:invoice_id/payments/:payment_id", h.Payments.Delete)

	return group
}

// withOptional prepends the middleware built by mw when enabled
func withOptional(enabled bool, mw func() gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	if !enabled {
		return []gin.HandlerFunc{h}
	}
	return []gin.HandlerFunc{mw(), h}
}
