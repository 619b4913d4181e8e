// Package invoicing provides the domain model for tenant invoices.
//
// Key Aggregates:
//   - Invoice: one bill for one room and one billing month, owning a ledger
//     of InvoiceLine entries and the Payment events recorded against it
//
// Entities and values:
//   - InvoiceBatch: the header of one generation run over a meter cycle
//   - InvoiceLine: a rent, utility, service, discount or late fee entry
//   - Payment: a settlement event
//   - SendRecord: audit entry for an invoice document dispatch
//
// Ledger rules:
//   - The invoice total is always recomputed from the full line set using
//     InvoiceLine.SignedAmount, never patched incrementally
//   - Rent, water and electric lines are created by generation only and can
//     be neither edited nor removed
//   - At most one late_fee line exists per invoice
//   - Status is paid exactly when the balance (total minus payments) is <= 0
package invoicing
