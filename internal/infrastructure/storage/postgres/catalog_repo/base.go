// Package catalog_repo provides PostgreSQL implementations for catalog
// repositories (issuers, clients).
package catalog_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"facturador/internal/core/apperror"
	"facturador/internal/core/id"
	"facturador/internal/domain"
	"facturador/internal/infrastructure/storage/postgres"
)

// BaseCatalogRepo provides common CRUD operations for catalog entities.
type BaseCatalogRepo[T any] struct {
	txm        *postgres.TxManager
	tableName  string
	selectCols []string

	// immutableCols are excluded from UPDATE statements beyond the standard
	// id/version set (e.g. the issuer's numbering counters).
	immutableCols map[string]struct{}

	// searchCols are matched by ListFilter.Search.
	searchCols []string

	newFn func() T
}

// NewBaseCatalogRepo creates a new base catalog repository.
func NewBaseCatalogRepo[T any](txm *postgres.TxManager, tableName string, immutableCols, searchCols []string, newFn func() T) *BaseCatalogRepo[T] {
	imm := make(map[string]struct{}, len(immutableCols))
	for _, c := range immutableCols {
		imm[c] = struct{}{}
	}
	return &BaseCatalogRepo[T]{
		txm:           txm,
		tableName:     tableName,
		selectCols:    postgres.ExtractDBColumns[T](),
		immutableCols: imm,
		searchCols:    searchCols,
		newFn:         newFn,
	}
}

// Builder returns a new squirrel builder with $N placeholders.
func (r *BaseCatalogRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts a new catalog entity.
func (r *BaseCatalogRepo[T]) Create(ctx context.Context, entity T) error {
	data := postgres.StructToMap(entity)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	q := r.Builder().Insert(r.tableName).SetMap(data)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.TranslateError(fmt.Errorf("insert %s: %w", r.tableName, err))
	}
	return nil
}

// GetByID retrieves an entity by ID.
func (r *BaseCatalogRepo[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	entity := r.newFn()
	q := r.Builder().Select(r.selectCols...).From(r.tableName).
		Where(squirrel.Eq{"id": entityID})

	sql, args, err := q.ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity, apperror.NewNotFound(r.tableName, entityID.String())
		}
		return entity, fmt.Errorf("get by id: %w", err)
	}
	return entity, nil
}

// GetBy retrieves an entity by an arbitrary unique column.
func (r *BaseCatalogRepo[T]) GetBy(ctx context.Context, column string, value any) (T, error) {
	entity := r.newFn()
	q := r.Builder().Select(r.selectCols...).From(r.tableName).
		Where(squirrel.Eq{column: value})

	sql, args, err := q.ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity, apperror.NewNotFound(r.tableName, value)
		}
		return entity, fmt.Errorf("get by %s: %w", column, err)
	}
	return entity, nil
}

// Update modifies an existing entity with optimistic locking. Immutable
// columns are never written.
func (r *BaseCatalogRepo[T]) Update(ctx context.Context, entity T) error {
	data := postgres.StructToMap(entity)

	entityID, ok := data["id"]
	if !ok {
		return fmt.Errorf("entity has no 'id' field")
	}
	version, ok := data["version"].(int)
	if !ok {
		return fmt.Errorf("entity has no 'version' field or it is not an int")
	}

	filtered := make(map[string]any, len(data))
	for col, val := range data {
		if col == "id" || col == "version" {
			continue
		}
		if _, immutable := r.immutableCols[col]; immutable {
			continue
		}
		filtered[col] = val
	}

	q := r.Builder().
		Update(r.tableName).
		SetMap(filtered).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"version": version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.TranslateError(fmt.Errorf("update %s: %w", r.tableName, err))
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.tableName, entityID)
	}
	return nil
}

// Delete removes an entity.
func (r *BaseCatalogRepo[T]) Delete(ctx context.Context, entityID id.ID) error {
	q := r.Builder().Delete(r.tableName).Where(squirrel.Eq{"id": entityID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.TranslateError(fmt.Errorf("delete %s: %w", r.tableName, err))
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.tableName, entityID.String())
	}
	return nil
}

// Exists checks whether an entity with the given ID exists.
func (r *BaseCatalogRepo[T]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	q := r.Builder().Select("1").From(r.tableName).
		Where(squirrel.Eq{"id": entityID}).
		Prefix("SELECT EXISTS (").Suffix(")")

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists: %w", err)
	}

	var exists bool
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists %s: %w", r.tableName, err)
	}
	return exists, nil
}

// List retrieves entities with filtering and pagination.
func (r *BaseCatalogRepo[T]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.Builder().Select(r.selectCols...).From(r.tableName)

	if filter.Search != "" && len(r.searchCols) > 0 {
		or := squirrel.Or{}
		for _, col := range r.searchCols {
			or = append(or, squirrel.ILike{col: "%" + filter.Search + "%"})
		}
		q = q.Where(or)
	}
	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}

	countQ := r.Builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy, err := parseOrderBy(filter.OrderBy, r.selectCols, "name ASC")
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list: %w", err)
	}
	return result, nil
}

// parseOrderBy validates an orderBy expression ("field", "-field") against
// the allowed column set. Shared with the document repositories.
func parseOrderBy(orderBy string, allowedCols []string, fallback string) (string, error) {
	if strings.TrimSpace(orderBy) == "" {
		return fallback, nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	allowed := make(map[string]struct{}, len(allowedCols))
	for _, col := range allowedCols {
		allowed[col] = struct{}{}
	}
	if _, ok := allowed[field]; !ok {
		return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
	}

	return field + " " + direction, nil
}
