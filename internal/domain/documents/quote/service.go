package quote

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
	"facturador/internal/domain/documents/invoice"
	"facturador/pkg/logger"
)

// maxIssueRetries bounds retries of the issue/convert paths when the
// underlying serializable transaction aborts on a conflicting writer.
const maxIssueRetries = 3

// Service orchestrates the quote lifecycle: drafts, issue (draft->sent),
// the sent-state decisions, and conversion of an accepted quote into a newly
// numbered invoice.
type Service struct {
	repo      Repository
	invoices  invoice.Repository
	issuers   issuer.Repository
	authority numerator.Authority
	txManager tx.Manager
}

// NewService creates a new quote service.
func NewService(repo Repository, invoices invoice.Repository, issuers issuer.Repository, authority numerator.Authority, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		invoices:  invoices,
		issuers:   issuers,
		authority: authority,
		txManager: txManager,
	}
}

// CreateDraft persists a new draft quote with validated lines and computed totals.
func (s *Service) CreateDraft(ctx context.Context, q *Quote, lines []documents.Line) error {
	if err := q.ApplyLines(lines); err != nil {
		return err
	}
	if err := q.Validate(ctx); err != nil {
		return err
	}
	if err := s.checkIssuerExists(ctx, q.IssuerID); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, q); err != nil {
			return fmt.Errorf("create quote: %w", err)
		}
		if err := s.repo.SaveLines(ctx, q.ID, q.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "quote draft created", "id", q.ID, "issuer_id", q.IssuerID)
	return nil
}

// EditDraftInput carries a wholesale draft update.
type EditDraftInput struct {
	IssueDate  time.Time
	ValidUntil *time.Time
	Notes      string
	Lines      []documents.Line
}

// EditDraft replaces the draft's lines wholesale and recomputes the totals.
func (s *Service) EditDraft(ctx context.Context, quoteID id.ID, in EditDraftInput) (*Quote, error) {
	q, err := s.GetByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if err := q.CanModify(); err != nil {
		return nil, err
	}

	if !in.IssueDate.IsZero() {
		q.IssueDate = in.IssueDate
	}
	if in.ValidUntil != nil {
		q.ValidUntil = in.ValidUntil
	}
	q.Notes = in.Notes

	if err := q.ApplyLines(in.Lines); err != nil {
		return nil, err
	}
	if err := q.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, q); err != nil {
			return fmt.Errorf("update quote: %w", err)
		}
		if err := s.repo.SaveLines(ctx, q.ID, q.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

// Issue performs the draft->sent transition, freezing the quote's number from
// the issuer's quote counter under the fixed quote series. Atomic with the
// counter increment.
func (s *Service) Issue(ctx context.Context, quoteID id.ID) (*Quote, error) {
	var lastErr error
	for attempt := 0; attempt < maxIssueRetries; attempt++ {
		var issued *Quote
		err := s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
			q, err := s.repo.GetForUpdate(ctx, quoteID)
			if err != nil {
				return err
			}
			if !q.IsDraft() {
				return apperror.NewInvalidState("only drafts can be issued").
					WithDetail("document_id", q.ID.String()).
					WithDetail("status", string(q.Status))
			}

			assignment, err := s.authority.AssignNext(ctx, q.IssuerID, numerator.KindQuote, q.IssueDate.Year())
			if err != nil {
				return err
			}
			if err := q.AssignNumber(assignment); err != nil {
				return err
			}
			q.Status = documents.StatusSent

			if err := s.repo.Update(ctx, q); err != nil {
				return fmt.Errorf("update quote: %w", err)
			}
			issued = q
			return nil
		})
		if err == nil {
			logger.Info(ctx, "quote issued", "id", issued.ID, "full_number", *issued.FullNumber)
			return issued, nil
		}
		if !apperror.IsConcurrentModification(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// ChangeStatus applies a sent-state decision (accepted, rejected, expired).
// Conversion goes through Convert, never through here.
func (s *Service) ChangeStatus(ctx context.Context, quoteID id.ID, to documents.Status) (*Quote, error) {
	q, err := s.GetByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if to == documents.StatusSent || to == documents.StatusConverted ||
		!documents.CanTransition(documents.KindQuote, q.Status, to) {
		return nil, apperror.NewInvalidState(fmt.Sprintf("cannot move quote from %s to %s", q.Status, to)).
			WithDetail("document_id", q.ID.String())
	}

	q.Status = to
	if err := s.repo.Update(ctx, q); err != nil {
		return nil, err
	}

	logger.Info(ctx, "quote status changed", "id", q.ID, "status", to)
	return q, nil
}

// Convert turns an accepted quote into a newly issued invoice. In one atomic
// unit of work: the new invoice is created and numbered from the issuer's
// invoice counter, the quote's back-reference is set, and the quote is marked
// converted. A partially applied conversion can never be observed.
func (s *Service) Convert(ctx context.Context, quoteID id.ID) (*invoice.Invoice, error) {
	var lastErr error
	for attempt := 0; attempt < maxIssueRetries; attempt++ {
		var created *invoice.Invoice
		err := s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
			q, err := s.repo.GetForUpdate(ctx, quoteID)
			if err != nil {
				return err
			}
			if q.IsConverted() {
				return apperror.NewAlreadyConverted(q.ID)
			}
			if q.Status != documents.StatusAccepted {
				return apperror.NewInvalidState("only accepted quotes can be converted").
					WithDetail("document_id", q.ID.String()).
					WithDetail("status", string(q.Status))
			}

			lines, err := s.repo.GetLines(ctx, quoteID)
			if err != nil {
				return fmt.Errorf("get lines: %w", err)
			}

			inv := invoice.New(q.IssuerID, q.ClientID, time.Now().UTC(), invoice.DefaultPaymentTermDays)
			inv.Notes = q.Notes
			if err := inv.ApplyLines(documents.CopyLines(lines)); err != nil {
				return err
			}

			assignment, err := s.authority.AssignNext(ctx, q.IssuerID, numerator.KindInvoice, inv.IssueDate.Year())
			if err != nil {
				return err
			}
			if err := inv.AssignNumber(assignment); err != nil {
				return err
			}
			inv.Status = documents.StatusIssued

			if err := s.invoices.Create(ctx, inv); err != nil {
				return fmt.Errorf("create invoice: %w", err)
			}
			if err := s.invoices.SaveLines(ctx, inv.ID, inv.Lines); err != nil {
				return fmt.Errorf("save invoice lines: %w", err)
			}

			invID := inv.ID
			q.InvoiceID = &invID
			q.Status = documents.StatusConverted
			if err := s.repo.Update(ctx, q); err != nil {
				return fmt.Errorf("update quote: %w", err)
			}

			created = inv
			return nil
		})
		if err == nil {
			logger.Info(ctx, "quote converted", "quote_id", quoteID, "invoice_id", created.ID, "full_number", *created.FullNumber)
			return created, nil
		}
		if !apperror.IsConcurrentModification(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// Delete removes a draft and its lines.
func (s *Service) Delete(ctx context.Context, quoteID id.ID) error {
	q, err := s.repo.GetByID(ctx, quoteID)
	if err != nil {
		return err
	}
	if err := q.CanModify(); err != nil {
		return err
	}
	return s.repo.Delete(ctx, quoteID)
}

// GetByID retrieves a quote with lines.
func (s *Service) GetByID(ctx context.Context, quoteID id.ID) (*Quote, error) {
	q, err := s.repo.GetByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.GetLines(ctx, quoteID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	q.Lines = lines
	return q, nil
}

// List retrieves quotes with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Quote], error) {
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
