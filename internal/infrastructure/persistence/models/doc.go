// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities should be free of GORM tags and infrastructure concerns
// 2. Persistence models contain all GORM annotations and table mappings
// 3. Mappers convert between domain entities and persistence models
// 4. Repositories use persistence models for database operations
//
// Structure:
// - base.go: Base persistence models (BaseModel, AggregateModel)
// - catalog.go: Item master read model
// - partner.go: Customer and supplier read model
// - trade.go: Invoices, invoice lines and document number sequences
// - inventory.go: Stock movement log and stock level projection
// - finance.go: Ledger entries
//
// Timestamps are stored in UTC so that range comparisons behave the same on
// every supported driver.
package models
