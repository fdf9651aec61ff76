package invoice

import (
	"context"
	"fmt"
	"time"

	"facturador/internal/core/apperror"
	"facturador/internal/core/id"
	"facturador/internal/core/numerator"
	"facturador/internal/core/tx"
	"facturador/internal/domain"
	"facturador/internal/domain/catalogs/issuer"
	"facturador/internal/domain/documents"
	"facturador/pkg/logger"
)

// maxIssueRetries bounds retries of the issue path when the underlying
// serializable transaction aborts on a conflicting writer. Transient only;
// every retry re-reads current state from scratch.
const maxIssueRetries = 3

// Service orchestrates the invoice lifecycle: drafts, wholesale line edits,
// the draft->issued transition with number assignment, and the later status
// transitions of a numbered invoice.
type Service struct {
	repo      Repository
	issuers   issuer.Repository
	authority numerator.Authority
	txManager tx.Manager
}

// NewService creates a new invoice service.
func NewService(repo Repository, issuers issuer.Repository, authority numerator.Authority, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		issuers:   issuers,
		authority: authority,
		txManager: txManager,
	}
}

// CreateDraft persists a new draft invoice with validated lines and computed
// totals. Drafts carry no number.
func (s *Service) CreateDraft(ctx context.Context, inv *Invoice, lines []documents.Line) error {
	if err := inv.ApplyLines(lines); err != nil {
		return err
	}
	if err := inv.Validate(ctx); err != nil {
		return err
	}
	if err := s.checkIssuerExists(ctx, inv.IssuerID); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, inv); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		if err := s.repo.SaveLines(ctx, inv.ID, inv.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "invoice draft created", "id", inv.ID, "issuer_id", inv.IssuerID)
	return nil
}

// CreateIssued creates and issues an invoice in one atomic unit of work, for
// callers that skip the draft stage. The counter increment and the insert
// commit or roll back together.
func (s *Service) CreateIssued(ctx context.Context, inv *Invoice, lines []documents.Line) error {
	if err := inv.ApplyLines(lines); err != nil {
		return err
	}
	if err := inv.Validate(ctx); err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < maxIssueRetries; attempt++ {
		err := s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
			assignment, err := s.authority.AssignNext(ctx, inv.IssuerID, numerator.KindInvoice, inv.IssueDate.Year())
			if err != nil {
				return err
			}
			if err := inv.AssignNumber(assignment); err != nil {
				return err
			}
			inv.Status = documents.StatusIssued

			if err := s.repo.Create(ctx, inv); err != nil {
				return fmt.Errorf("create invoice: %w", err)
			}
			return s.repo.SaveLines(ctx, inv.ID, inv.Lines)
		})
		if err == nil {
			logger.Info(ctx, "invoice issued", "id", inv.ID, "full_number", *inv.FullNumber)
			return nil
		}
		if !apperror.IsConcurrentModification(err) {
			return err
		}
		// The aborted transaction left no trace; clear the stale assignment
		// before re-reading state.
		inv.SequenceNumber, inv.Series, inv.FullNumber = nil, nil, nil
		inv.Status = documents.StatusDraft
		lastErr = err
	}
	return lastErr
}

// EditDraftInput carries a wholesale draft update.
type EditDraftInput struct {
	IssueDate       time.Time
	PaymentTermDays int
	Notes           string
	Lines           []documents.Line
}

// EditDraft replaces the draft's lines wholesale and recomputes the totals.
// Fails with InvalidState when the invoice is no longer a draft.
func (s *Service) EditDraft(ctx context.Context, invoiceID id.ID, in EditDraftInput) (*Invoice, error) {
	inv, err := s.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := inv.CanModify(); err != nil {
		return nil, err
	}

	if in.PaymentTermDays > 0 {
		inv.PaymentTermDays = in.PaymentTermDays
	}
	if !in.IssueDate.IsZero() {
		inv.SetIssueDate(in.IssueDate)
	} else {
		inv.SetIssueDate(inv.IssueDate)
	}
	inv.Notes = in.Notes

	if err := inv.ApplyLines(in.Lines); err != nil {
		return nil, err
	}
	if err := inv.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, inv); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		if err := s.repo.SaveLines(ctx, inv.ID, inv.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// Issue performs the draft->issued transition: validates the issuer still
// exists, obtains the next sequence from the numbering authority and freezes
// the number, all inside one serializable transaction. If that transaction
// aborts, the counter has not advanced.
func (s *Service) Issue(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	var lastErr error
	for attempt := 0; attempt < maxIssueRetries; attempt++ {
		var issued *Invoice
		err := s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
			inv, err := s.repo.GetForUpdate(ctx, invoiceID)
			if err != nil {
				return err
			}
			if !inv.IsDraft() {
				return apperror.NewInvalidState("only drafts can be issued").
					WithDetail("document_id", inv.ID.String()).
					WithDetail("status", string(inv.Status))
			}

			assignment, err := s.authority.AssignNext(ctx, inv.IssuerID, numerator.KindInvoice, inv.IssueDate.Year())
			if err != nil {
				return err
			}
			if err := inv.AssignNumber(assignment); err != nil {
				return err
			}
			inv.Status = documents.StatusIssued

			if err := s.repo.Update(ctx, inv); err != nil {
				return fmt.Errorf("update invoice: %w", err)
			}
			issued = inv
			return nil
		})
		if err == nil {
			logger.Info(ctx, "invoice issued", "id", issued.ID, "full_number", *issued.FullNumber)
			return issued, nil
		}
		if !apperror.IsConcurrentModification(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// ChangeStatus applies a post-issue transition (issued->sent, sent->paid,
// cancellation). Draft issuance goes through Issue, never through here.
func (s *Service) ChangeStatus(ctx context.Context, invoiceID id.ID, to documents.Status) (*Invoice, error) {
	inv, err := s.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if to == documents.StatusIssued || !documents.CanTransition(documents.KindInvoice, inv.Status, to) {
		return nil, apperror.NewInvalidState(fmt.Sprintf("cannot move invoice from %s to %s", inv.Status, to)).
			WithDetail("document_id", inv.ID.String())
	}

	inv.Status = to
	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice status changed", "id", inv.ID, "status", to)
	return inv, nil
}

// Delete removes a draft and its lines. Numbered invoices are immutable here;
// removing one is a separate destructive administrative action that breaks
// the audit trail.
func (s *Service) Delete(ctx context.Context, invoiceID id.ID) error {
	inv, err := s.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return err
	}
	if err := inv.CanModify(); err != nil {
		return err
	}
	return s.repo.Delete(ctx, invoiceID)
}

// GetByID retrieves an invoice with lines.
func (s *Service) GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.GetLines(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	inv.Lines = lines
	return inv, nil
}

// List retrieves invoices with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) checkIssuerExists(ctx context.Context, issuerID id.ID) error {
	ok, err := s.issuers.Exists(ctx, issuerID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NewNotFound("issuer", issuerID)
	}
	return nil
}
