// Package models contains GORM persistence models for the ledger tables.
// Domain entities stay free of ORM tags; each model maps to one table and
// converts to and from its domain entity with ToDomain/FromDomain.
//
// Structure:
//   - base.go: shared id/timestamp/version columns
//   - partner.go: customers and guarantors
//   - catalog.go: products
//   - hirepurchase.go: contracts, payments, accounts and guarantor links
//   - sequence.go: identifier counters
package models
