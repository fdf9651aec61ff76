package quote

import (
	"context"
	"errors"
	"maps"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facturador/internal/core/apperror"
	"facturador/internal/core/id"
	"facturador/internal/core/numerator"
	"facturador/internal/core/types"
	"facturador/internal/domain"
	"facturador/internal/domain/catalogs/issuer"
	"facturador/internal/domain/documents"
	"facturador/internal/domain/documents/invoice"
)

// --- In-memory fakes ---

// snapshotter lets the fake transaction manager roll participants back.
type snapshotter interface {
	snapshot() func()
}

// fakeTxManager serializes transactions with a mutex and restores all
// participants when fn fails, imitating an aborted database transaction.
type fakeTxManager struct {
	mu           sync.Mutex
	participants []snapshotter
}

func (m *fakeTxManager) run(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	restores := make([]func(), len(m.participants))
	for i, p := range m.participants {
		restores[i] = p.snapshot()
	}

	if err := fn(ctx); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *fakeTxManager) RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

type authorityAdapter struct {
	m *numerator.MockAuthority
}

func (a authorityAdapter) snapshot() func() {
	saved := maps.Clone(a.m.Counters)
	return func() { a.m.Counters = saved }
}

// fakeQuoteRepo is an in-memory quote.Repository with optimistic locking.
type fakeQuoteRepo struct {
	mu    sync.Mutex
	store map[id.ID]*Quote
	lines map[id.ID][]documents.Line
}

func newFakeQuoteRepo() *fakeQuoteRepo {
	return &fakeQuoteRepo{
		store: make(map[id.ID]*Quote),
		lines: make(map[id.ID][]documents.Line),
	}
}

func cloneQuote(q *Quote) *Quote {
	c := *q
	if q.SequenceNumber != nil {
		v := *q.SequenceNumber
		c.SequenceNumber = &v
	}
	if q.Series != nil {
		v := *q.Series
		c.Series = &v
	}
	if q.FullNumber != nil {
		v := *q.FullNumber
		c.FullNumber = &v
	}
	if q.ValidUntil != nil {
		v := *q.ValidUntil
		c.ValidUntil = &v
	}
	if q.InvoiceID != nil {
		v := *q.InvoiceID
		c.InvoiceID = &v
	}
	c.Lines = nil
	return &c
}

func (r *fakeQuoteRepo) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	savedStore := make(map[id.ID]*Quote, len(r.store))
	for k, v := range r.store {
		savedStore[k] = cloneQuote(v)
	}
	savedLines := make(map[id.ID][]documents.Line, len(r.lines))
	for k, v := range r.lines {
		savedLines[k] = append([]documents.Line(nil), v...)
	}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.store = savedStore
		r.lines = savedLines
	}
}

func (r *fakeQuoteRepo) Create(ctx context.Context, q *Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.store[q.ID]; ok {
		return apperror.NewConflict("quote already exists")
	}
	r.store[q.ID] = cloneQuote(q)
	return nil
}

func (r *fakeQuoteRepo) GetByID(ctx context.Context, quoteID id.ID) (*Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.store[quoteID]
	if !ok {
		return nil, apperror.NewNotFound("quote", quoteID.String())
	}
	return cloneQuote(q), nil
}

func (r *fakeQuoteRepo) GetForUpdate(ctx context.Context, quoteID id.ID) (*Quote, error) {
	return r.GetByID(ctx, quoteID)
}

func (r *fakeQuoteRepo) Update(ctx context.Context, q *Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.store[q.ID]
	if !ok {
		return apperror.NewNotFound("quote", q.ID.String())
	}
	if current.Version != q.Version {
		return apperror.NewConcurrentModification("quote", q.ID)
	}
	updated := cloneQuote(q)
	updated.Version = q.Version + 1
	r.store[q.ID] = updated
	return nil
}

func (r *fakeQuoteRepo) Delete(ctx context.Context, quoteID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.store[quoteID]; !ok {
		return apperror.NewNotFound("quote", quoteID.String())
	}
	delete(r.store, quoteID)
	delete(r.lines, quoteID)
	return nil
}

func (r *fakeQuoteRepo) GetLines(ctx context.Context, quoteID id.ID) ([]documents.Line, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]documents.Line(nil), r.lines[quoteID]...), nil
}

func (r *fakeQuoteRepo) SaveLines(ctx context.Context, quoteID id.ID, lines []documents.Line) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[quoteID] = append([]documents.Line(nil), lines...)
	return nil
}

func (r *fakeQuoteRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Quote], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result domain.ListResult[*Quote]
	for _, q := range r.store {
		if filter.Status != nil && q.Status != *filter.Status {
			continue
		}
		result.Items = append(result.Items, cloneQuote(q))
	}
	result.TotalCount = int64(len(result.Items))
	return result, nil
}

// fakeInvoiceRepo is the minimal invoice.Repository the conversion needs.
type fakeInvoiceRepo struct {
	mu       sync.Mutex
	store    map[id.ID]*invoice.Invoice
	lines    map[id.ID][]documents.Line
	failNext error
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{
		store: make(map[id.ID]*invoice.Invoice),
		lines: make(map[id.ID][]documents.Line),
	}
}

func (r *fakeInvoiceRepo) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	savedStore := maps.Clone(r.store)
	savedLines := maps.Clone(r.lines)
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.store = savedStore
		r.lines = savedLines
	}
}

func (r *fakeInvoiceRepo) Create(ctx context.Context, inv *invoice.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return err
	}
	r.store[inv.ID] = inv
	return nil
}

func (r *fakeInvoiceRepo) GetByID(ctx context.Context, invoiceID id.ID) (*invoice.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.store[invoiceID]
	if !ok {
		return nil, apperror.NewNotFound("invoice", invoiceID.String())
	}
	return inv, nil
}

func (r *fakeInvoiceRepo) GetForUpdate(ctx context.Context, invoiceID id.ID) (*invoice.Invoice, error) {
	return r.GetByID(ctx, invoiceID)
}

func (r *fakeInvoiceRepo) Update(ctx context.Context, inv *invoice.Invoice) error { return nil }

func (r *fakeInvoiceRepo) Delete(ctx context.Context, invoiceID id.ID) error { return nil }

func (r *fakeInvoiceRepo) GetLines(ctx context.Context, invoiceID id.ID) ([]documents.Line, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]documents.Line(nil), r.lines[invoiceID]...), nil
}

func (r *fakeInvoiceRepo) SaveLines(ctx context.Context, invoiceID id.ID, lines []documents.Line) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[invoiceID] = append([]documents.Line(nil), lines...)
	return nil
}

func (r *fakeInvoiceRepo) List(ctx context.Context, filter invoice.ListFilter) (domain.ListResult[*invoice.Invoice], error) {
	return domain.ListResult[*invoice.Invoice]{}, nil
}

// fakeIssuerRepo is an in-memory issuer.Repository.
type fakeIssuerRepo struct {
	mu    sync.Mutex
	store map[id.ID]*issuer.Issuer
}

func newFakeIssuerRepo() *fakeIssuerRepo {
	return &fakeIssuerRepo{store: make(map[id.ID]*issuer.Issuer)}
}

func (r *fakeIssuerRepo) Create(ctx context.Context, iss *issuer.Issuer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store[iss.ID] = iss
	return nil
}

func (r *fakeIssuerRepo) GetByID(ctx context.Context, issuerID id.ID) (*issuer.Issuer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	iss, ok := r.store[issuerID]
	if !ok {
		return nil, apperror.NewNotFound("issuer", issuerID.String())
	}
	return iss, nil
}

func (r *fakeIssuerRepo) GetByTaxID(ctx context.Context, taxID string) (*issuer.Issuer, error) {
	return nil, apperror.NewNotFound("issuer", taxID)
}

func (r *fakeIssuerRepo) Update(ctx context.Context, iss *issuer.Issuer) error { return nil }

func (r *fakeIssuerRepo) Delete(ctx context.Context, issuerID id.ID) error { return nil }

func (r *fakeIssuerRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*issuer.Issuer], error) {
	return domain.ListResult[*issuer.Issuer]{}, nil
}

func (r *fakeIssuerRepo) Exists(ctx context.Context, issuerID id.ID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.store[issuerID]
	return ok, nil
}

// --- Test environment ---

type quoteEnv struct {
	repo      *fakeQuoteRepo
	invoices  *fakeInvoiceRepo
	issuers   *fakeIssuerRepo
	authority *numerator.MockAuthority
	svc       *Service
	issuerID  id.ID
	clientID  id.ID
}

func newQuoteEnv(t *testing.T) *quoteEnv {
	t.Helper()

	repo := newFakeQuoteRepo()
	invoices := newFakeInvoiceRepo()
	issuers := newFakeIssuerRepo()
	authority := numerator.NewMockAuthority()
	txm := &fakeTxManager{}
	txm.participants = []snapshotter{repo, invoices, authorityAdapter{authority}}

	iss := issuer.New("ZEBRA PUBLICIDAD SL", "B39302369")
	require.NoError(t, issuers.Create(context.Background(), iss))
	authority.Series[iss.ID] = iss.CurrentSeries

	return &quoteEnv{
		repo:      repo,
		invoices:  invoices,
		issuers:   issuers,
		authority: authority,
		svc:       NewService(repo, invoices, issuers, authority, txm),
		issuerID:  iss.ID,
		clientID:  id.New(),
	}
}

func testLines() []documents.Line {
	return []documents.Line{
		{Description: "Diseño de campaña", Quantity: types.MustMoney("10"), UnitPrice: types.MustMoney("20.00"), TaxRate: types.MustMoney("21")},
		{Description: "Impresión de carteles", Quantity: types.MustMoney("1"), UnitPrice: types.MustMoney("50.00"), TaxRate: types.MustMoney("10")},
	}
}

func issueDate2025() time.Time {
	return time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
}

// acceptedQuote creates, issues and accepts a quote, ready for conversion.
func (e *quoteEnv) acceptedQuote(t *testing.T) *Quote {
	t.Helper()
	ctx := context.Background()

	q := New(e.issuerID, e.clientID, issueDate2025(), 0)
	require.NoError(t, e.svc.CreateDraft(ctx, q, testLines()))

	_, err := e.svc.Issue(ctx, q.ID)
	require.NoError(t, err)

	accepted, err := e.svc.ChangeStatus(ctx, q.ID, documents.StatusAccepted)
	require.NoError(t, err)
	return accepted
}

// --- Tests ---

func TestCreateDraft_Quote(t *testing.T) {
	env := newQuoteEnv(t)

	q := New(env.issuerID, env.clientID, issueDate2025(), 0)
	require.NoError(t, env.svc.CreateDraft(context.Background(), q, testLines()))

	assert.Equal(t, documents.StatusDraft, q.Status)
	assert.Nil(t, q.FullNumber)
	require.NotNil(t, q.ValidUntil)
	assert.Equal(t, issueDate2025().AddDate(0, 0, DefaultValidityDays), *q.ValidUntil)
	assert.True(t, q.GrandTotal.Equal(types.MustMoney("297.00")))
}

func TestIssue_UsesFixedQuoteSeries(t *testing.T) {
	env := newQuoteEnv(t)
	ctx := context.Background()

	env.authority.SetCounter(env.issuerID, numerator.KindQuote, 3)

	q := New(env.issuerID, env.clientID, issueDate2025(), 0)
	require.NoError(t, env.svc.CreateDraft(ctx, q, testLines()))

	issued, err := env.svc.Issue(ctx, q.ID)
	require.NoError(t, err)

	assert.Equal(t, documents.StatusSent, issued.Status)
	require.NotNil(t, issued.FullNumber)
	assert.Equal(t, "P-2025-0004", *issued.FullNumber)

	// The invoice counter is untouched by quote numbering.
	assert.Equal(t, int64(0), env.authority.Counter(env.issuerID, numerator.KindInvoice))
}

func TestChangeStatus_SentDecisions(t *testing.T) {
	env := newQuoteEnv(t)
	ctx := context.Background()

	q := New(env.issuerID, env.clientID, issueDate2025(), 0)
	require.NoError(t, env.svc.CreateDraft(ctx, q, testLines()))
	_, err := env.svc.Issue(ctx, q.ID)
	require.NoError(t, err)

	rejected, err := env.svc.ChangeStatus(ctx, q.ID, documents.StatusRejected)
	require.NoError(t, err)
	assert.Equal(t, documents.StatusRejected, rejected.Status)

	// Terminal: no further transitions.
	_, err = env.svc.ChangeStatus(ctx, q.ID, documents.StatusAccepted)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestChangeStatus_CannotConvertThroughIt(t *testing.T) {
	env := newQuoteEnv(t)

	q := env.acceptedQuote(t)
	_, err := env.svc.ChangeStatus(context.Background(), q.ID, documents.StatusConverted)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestConvert(t *testing.T) {
	env := newQuoteEnv(t)
	ctx := context.Background()

	env.authority.SetCounter(env.issuerID, numerator.KindInvoice, 6)

	q := env.acceptedQuote(t)
	inv, err := env.svc.Convert(ctx, q.ID)
	require.NoError(t, err)

	// The invoice is issued and numbered from the invoice counter.
	assert.Equal(t, documents.StatusIssued, inv.Status)
	require.NotNil(t, inv.FullNumber)
	assert.Equal(t, int64(7), *inv.SequenceNumber)

	// Lines were copied with fresh ids, preserving order and amounts.
	quoteLines, err := env.repo.GetLines(ctx, q.ID)
	require.NoError(t, err)
	invoiceLines, err := env.invoices.GetLines(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, invoiceLines, len(quoteLines))
	for i := range invoiceLines {
		assert.Equal(t, quoteLines[i].LineNo, invoiceLines[i].LineNo)
		assert.Equal(t, quoteLines[i].Description, invoiceLines[i].Description)
		assert.True(t, quoteLines[i].Subtotal.Equal(invoiceLines[i].Subtotal))
		assert.NotEqual(t, quoteLines[i].LineID, invoiceLines[i].LineID)
	}
	assert.True(t, inv.GrandTotal.Equal(q.GrandTotal))

	// The quote carries the back-reference and is terminal.
	converted, err := env.svc.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, documents.StatusConverted, converted.Status)
	require.NotNil(t, converted.InvoiceID)
	assert.Equal(t, inv.ID, *converted.InvoiceID)
}

func TestConvert_ExactlyOnce(t *testing.T) {
	env := newQuoteEnv(t)
	ctx := context.Background()

	q := env.acceptedQuote(t)
	first, err := env.svc.Convert(ctx, q.ID)
	require.NoError(t, err)

	_, err = env.svc.Convert(ctx, q.ID)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeAlreadyConverted, appErr.Code)

	// Only the first conversion advanced the invoice counter.
	assert.Equal(t, int64(1), env.authority.Counter(env.issuerID, numerator.KindInvoice))

	converted, err := env.svc.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, *converted.InvoiceID)
}

func TestConvert_RequiresAccepted(t *testing.T) {
	env := newQuoteEnv(t)
	ctx := context.Background()

	q := New(env.issuerID, env.clientID, issueDate2025(), 0)
	require.NoError(t, env.svc.CreateDraft(ctx, q, testLines()))
	_, err := env.svc.Issue(ctx, q.ID)
	require.NoError(t, err)

	// Sent but not accepted.
	_, err = env.svc.Convert(ctx, q.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestConvert_AbortRollsBackEverything(t *testing.T) {
	env := newQuoteEnv(t)
	ctx := context.Background()

	env.authority.SetCounter(env.issuerID, numerator.KindInvoice, 6)
	q := env.acceptedQuote(t)

	// The invoice insert fails after the counter has advanced inside the
	// transaction.
	env.invoices.failNext = errors.New("connection reset")

	_, err := env.svc.Convert(ctx, q.ID)
	require.Error(t, err)

	// No partial conversion observable: counter, quote state and invoice
	// store are all back where they were.
	assert.Equal(t, int64(6), env.authority.Counter(env.issuerID, numerator.KindInvoice))
	stored, err := env.svc.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, documents.StatusAccepted, stored.Status)
	assert.Nil(t, stored.InvoiceID)
	assert.Empty(t, env.invoices.store)

	// A retry succeeds and gets the same number the aborted attempt held.
	inv, err := env.svc.Convert(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), *inv.SequenceNumber)
}

func TestEditDraft_Quote(t *testing.T) {
	env := newQuoteEnv(t)
	ctx := context.Background()

	q := New(env.issuerID, env.clientID, issueDate2025(), 0)
	require.NoError(t, env.svc.CreateDraft(ctx, q, testLines()))

	until := issueDate2025().AddDate(0, 0, 90)
	updated, err := env.svc.EditDraft(ctx, q.ID, EditDraftInput{
		ValidUntil: &until,
		Notes:      "validez ampliada",
		Lines: []documents.Line{
			{Description: "Única posición", Quantity: types.MustMoney("3"), UnitPrice: types.MustMoney("10.00"), TaxRate: types.MustMoney("21")},
		},
	})
	require.NoError(t, err)

	require.NotNil(t, updated.ValidUntil)
	assert.Equal(t, until, *updated.ValidUntil)
	assert.True(t, updated.TaxableBase.Equal(types.MustMoney("30.00")))

	stored, err := env.svc.GetByID(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, stored.Lines, 1)
	assert.Equal(t, "Única posición", stored.Lines[0].Description)
}

func TestDelete_QuoteDraftOnly(t *testing.T) {
	env := newQuoteEnv(t)
	ctx := context.Background()

	q := New(env.issuerID, env.clientID, issueDate2025(), 0)
	require.NoError(t, env.svc.CreateDraft(ctx, q, testLines()))
	require.NoError(t, env.svc.Delete(ctx, q.ID))

	sent := New(env.issuerID, env.clientID, issueDate2025(), 0)
	require.NoError(t, env.svc.CreateDraft(ctx, sent, testLines()))
	_, err := env.svc.Issue(ctx, sent.ID)
	require.NoError(t, err)

	err = env.svc.Delete(ctx, sent.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidState(err))
}
