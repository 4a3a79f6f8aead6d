package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SumFilter narrows a transaction sum query.
type SumFilter struct {
	UserID      uuid.UUID
	WorkspaceID *uuid.UUID
	Type        TransactionType
	Status      TransactionStatus
	From        time.Time // inclusive
	Until       time.Time // exclusive
	CategoryID  *uuid.UUID
}

// TransactionsSum returns the summed amount of all transactions
// matching the filter. A missing match sums to zero, not an error.
func TransactionsSum(db *gorm.DB, filter SumFilter) (decimal.Decimal, error) {
	var sum decimal.NullDecimal

	q := db.Table("transactions").
		Select("SUM(amount)").
		Where("deleted_at IS NULL").
		Where("user_id = ?", filter.UserID)

	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.WorkspaceID != nil {
		q = q.Where("workspace_id = ?", *filter.WorkspaceID)
	}
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if !filter.From.IsZero() {
		q = q.Where("date >= ?", filter.From)
	}
	if !filter.Until.IsZero() {
		q = q.Where("date < ?", filter.Until)
	}

	err := q.Row().Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing transactions failed: %w", err)
	}

	return sum.Decimal, nil
}

// categorySum is one row of a group-by-category aggregation.
type categorySum struct {
	CategoryID uuid.UUID
	Total      decimal.Decimal
}

// ActualsByCategory returns the summed amount of completed transactions
// of the given type in [from, until), grouped by category. The query
// must already be narrowed to the transactions table and the caller's
// visibility, e.g. via Scope.ApplyTransactions. Transactions without a
// category are skipped.
func ActualsByCategory(q *gorm.DB, txType TransactionType, from, until time.Time) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []categorySum

	err := q.
		Select("transactions.category_id AS category_id, SUM(transactions.amount) AS total").
		Where("transactions.deleted_at IS NULL").
		Where("transactions.type = ? AND transactions.status = ?", txType, TransactionStatusCompleted).
		Where("transactions.category_id IS NOT NULL").
		Where("transactions.date >= ? AND transactions.date < ?", from, until).
		Group("transactions.category_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("grouping transactions by category failed: %w", err)
	}

	actuals := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		actuals[row.CategoryID] = row.Total
	}

	return actuals, nil
}

// LoadByIDs loads all entities with the given IDs in one round trip.
// It is used by response shaping to avoid N+1 loads.
func LoadByIDs[M any](db *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]M, error) {
	loaded := make(map[uuid.UUID]M, len(ids))
	if len(ids) == 0 {
		return loaded, nil
	}

	var rows []M
	err := db.Where("id IN ?", ids).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		id, err := idOf(row)
		if err != nil {
			return nil, err
		}
		loaded[id] = row
	}

	return loaded, nil
}

// idOf extracts the DefaultModel ID via a small interface assertion.
func idOf(entity any) (uuid.UUID, error) {
	type identifiable interface{ GetID() uuid.UUID }
	if e, ok := entity.(identifiable); ok {
		return e.GetID(), nil
	}
	return uuid.Nil, fmt.Errorf("%w: entity has no ID", ErrGeneral)
}

// GetID returns the resource ID.
func (m DefaultModel) GetID() uuid.UUID {
	return m.ID
}
