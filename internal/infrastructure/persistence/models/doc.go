// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
//   - base.go: shared columns and date conversion helpers
//   - metering.go: meter cycles and readings
//   - invoicing.go: batches, invoices, lines, payments, number sequences, send records
//   - property.go: read-only room, contract and tariff tables owned by the property service
//   - audit.go: billing audit trail written from domain events
package models
