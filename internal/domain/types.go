package domain

import (
	"time"
)

// Pagination defines standard cursor-based paging inputs for list operations.
type Pagination struct {
	PageSize  int
	PageToken string
}

// SortOrder indicates ascending or descending ordering for list queries.
type SortOrder string

const (
	// SortAsc sorts results in ascending order.
	SortAsc SortOrder = "asc"
	// SortDesc sorts results in descending order.
	SortDesc SortOrder = "desc"
)

// CursorPage packages list results with an encoded next token.
type CursorPage[T any] struct {
	Items         []T
	NextPageToken string
}

// SchemaDiagnostic records a schema integrity finding detected at load time
// (dangling dependency target or dependency cycle). Malformed options fail
// closed but the product remains browsable.
type SchemaDiagnostic struct {
	Code     string
	OptionID string
	Detail   string
}

// ProductSummary represents public-facing wreath listing information.
type ProductSummary struct {
	ID          string
	SKU         string
	Slug        string
	Name        string
	Description string
	BasePrice   int64
	Currency    string
	IsPublished bool
}

// Product is the full catalog record for a configurable wreath, including its
// immutable option schema and any integrity diagnostics found while loading it.
type Product struct {
	ProductSummary
	Schema      OptionSchema
	Diagnostics []SchemaDiagnostic
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ConfigurationEntry is the flat serialized form of one selection attached to a
// cart line item. This is the only customization data that crosses into
// persistence and payment systems.
type ConfigurationEntry struct {
	OptionID    string
	ChoiceIDs   []string
	CustomValue *string
}

// CartLineItem stores one configured wreath within a cart.
type CartLineItem struct {
	ID            string
	ProductID     string
	SKU           string
	Name          string
	Quantity      int
	UnitPrice     int64
	Currency      string
	Configuration []ConfigurationEntry
	AddedAt       time.Time
}

// Cart aggregates the buyer's configured line items.
type Cart struct {
	ID        string
	Currency  string
	Items     []CartLineItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

const (
	// HealthStatusOK indicates all dependencies are healthy.
	HealthStatusOK = "ok"
	// HealthStatusDegraded indicates at least one dependency is degraded but service remains running.
	HealthStatusDegraded = "degraded"
	// HealthStatusError indicates the service or a critical dependency is unavailable.
	HealthStatusError = "error"
)
