// Package metering provides the domain model for utility meter readings.
//
// A MeterCycle is one dated snapshot of water and electricity meter readings
// across the rooms of a property. Each MeterReading carries the previous and
// current register values of one room plus the unit rates that were on file
// when the cycle was captured, so invoices generated from a cycle stay
// rate-stable even if the property's tariff changes later.
//
// Usage arithmetic lives in usage.go: consumed units are never negative and
// an absent register value yields an undefined (nil) usage rather than zero.
package metering
