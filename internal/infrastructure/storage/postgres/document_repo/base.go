// Package document_repo provides PostgreSQL implementations for document
// repositories (invoices, quotes) and their line tables.
package document_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"facturador/internal/core/apperror"
	"facturador/internal/core/id"
	"facturador/internal/domain"
	"facturador/internal/domain/documents"
	"facturador/internal/infrastructure/storage/postgres"
)

// BaseDocumentRepo provides common CRUD operations for documents.
//
// Update uses optimistic locking on the version column and refreshes
// updated_at server-side. Lines live in a companion table keyed by
// document_id and are replaced wholesale.
type BaseDocumentRepo[T any] struct {
	txm        *postgres.TxManager
	tableName  string
	linesTable string
	selectCols []string
	lineCols   []string
	newFn      func() T
}

// NewBaseDocumentRepo creates a new base document repository.
func NewBaseDocumentRepo[T any](txm *postgres.TxManager, tableName, linesTable string, newFn func() T) *BaseDocumentRepo[T] {
	return &BaseDocumentRepo[T]{
		txm:        txm,
		tableName:  tableName,
		linesTable: linesTable,
		selectCols: postgres.ExtractDBColumns[T](),
		lineCols:   postgres.ExtractDBColumns[documents.Line](),
		newFn:      newFn,
	}
}

// Builder returns a new squirrel builder with $N placeholders.
func (r *BaseDocumentRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts a new document header. Lines are saved separately via
// SaveLines.
func (r *BaseDocumentRepo[T]) Create(ctx context.Context, doc T) error {
	data := postgres.StructToMap(doc)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in document")
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

// GetByID retrieves a document header by ID.
func (r *BaseDocumentRepo[T]) GetByID(ctx context.Context, docID id.ID) (T, error) {
	return r.get(ctx, docID, false)
}

// GetForUpdate retrieves a document header and locks its row for the ambient
// transaction. Outside a transaction the lock is released immediately, so
// callers must run inside one.
func (r *BaseDocumentRepo[T]) GetForUpdate(ctx context.Context, docID id.ID) (T, error) {
	return r.get(ctx, docID, true)
}

func (r *BaseDocumentRepo[T]) get(ctx context.Context, docID id.ID, forUpdate bool) (T, error) {
	doc := r.newFn()
	q := r.Builder().Select(r.selectCols...).From(r.tableName).
		Where(squirrel.Eq{"id": docID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return doc, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return doc, apperror.NewNotFound(r.tableName, docID.String())
		}
		return doc, fmt.Errorf("get by id: %w", err)
	}
	return doc, nil
}

// Update modifies an existing document header with optimistic locking.
func (r *BaseDocumentRepo[T]) Update(ctx context.Context, doc T) error {
	data := postgres.StructToMap(doc)

	docID, ok := data["id"]
	if !ok {
		return fmt.Errorf("document has no 'id' field")
	}
	version, ok := data["version"].(int)
	if !ok {
		return fmt.Errorf("document has no 'version' field or it is not an int")
	}

	filtered := make(map[string]any, len(data))
	for col, val := range data {
		switch col {
		case "id", "version", "created_at", "updated_at":
			continue
		}
		filtered[col] = val
	}

	q := r.Builder().
		Update(r.tableName).
		SetMap(filtered).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": docID}).
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
		return apperror.NewConcurrentModification(r.tableName, docID)
	}
	return nil
}

// Delete removes a document header. The schema cascades to the line table.
func (r *BaseDocumentRepo[T]) Delete(ctx context.Context, docID id.ID) error {
	q := r.Builder().Delete(r.tableName).Where(squirrel.Eq{"id": docID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.TranslateError(fmt.Errorf("delete %s: %w", r.tableName, err))
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.tableName, docID.String())
	}
	return nil
}

// GetLines retrieves the document's lines in position order.
func (r *BaseDocumentRepo[T]) GetLines(ctx context.Context, docID id.ID) ([]documents.Line, error) {
	q := r.Builder().Select(r.lineCols...).From(r.linesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	lines := make([]documents.Line, 0)
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return lines, nil
}

// SaveLines replaces the document's lines wholesale: delete-all, recreate.
// Positions are taken from the lines as given.
func (r *BaseDocumentRepo[T]) SaveLines(ctx context.Context, docID id.ID, lines []documents.Line) error {
	querier := r.txm.GetQuerier(ctx)

	delQ := r.Builder().Delete(r.linesTable).Where(squirrel.Eq{"document_id": docID})
	sql, args, err := delQ.ToSql()
	if err != nil {
		return fmt.Errorf("build delete lines: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return postgres.TranslateError(fmt.Errorf("delete %s: %w", r.linesTable, err))
	}

	if len(lines) == 0 {
		return nil
	}

	insQ := r.Builder().Insert(r.linesTable).
		Columns(append([]string{"document_id"}, r.lineCols...)...)
	for _, l := range lines {
		data := postgres.StructToMap(l)
		vals := make([]any, 0, len(r.lineCols)+1)
		vals = append(vals, docID)
		for _, col := range r.lineCols {
			vals = append(vals, data[col])
		}
		insQ = insQ.Values(vals...)
	}

	sql, args, err = insQ.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return postgres.TranslateError(fmt.Errorf("insert %s: %w", r.linesTable, err))
	}
	return nil
}

// listConditions are the document-level filters shared by invoices and
// quotes.
type listConditions struct {
	IssuerID *id.ID
	ClientID *id.ID
	Status   *documents.Status
	Year     *int
}

// list retrieves documents with filtering, counting and pagination.
func (r *BaseDocumentRepo[T]) list(ctx context.Context, filter domain.ListFilter, cond listConditions) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.Builder().Select(r.selectCols...).From(r.tableName)

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"full_number": pattern},
			squirrel.ILike{"notes": pattern},
		})
	}
	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}
	if cond.IssuerID != nil {
		q = q.Where(squirrel.Eq{"issuer_id": *cond.IssuerID})
	}
	if cond.ClientID != nil {
		q = q.Where(squirrel.Eq{"client_id": *cond.ClientID})
	}
	if cond.Status != nil {
		q = q.Where(squirrel.Eq{"status": *cond.Status})
	}
	if cond.Year != nil {
		q = q.Where(squirrel.Expr("EXTRACT(YEAR FROM issue_date) = ?", *cond.Year))
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

	orderBy, err := parseOrderBy(filter.OrderBy, r.selectCols, "created_at DESC")
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
// the allowed column set.
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
