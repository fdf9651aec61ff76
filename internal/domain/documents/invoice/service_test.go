package invoice

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

// authorityAdapter snapshots the mock authority's counters.
type authorityAdapter struct {
	m *numerator.MockAuthority
}

func (a authorityAdapter) snapshot() func() {
	saved := maps.Clone(a.m.Counters)
	return func() { a.m.Counters = saved }
}

// fakeInvoiceRepo is an in-memory invoice.Repository with optimistic locking.
type fakeInvoiceRepo struct {
	mu       sync.Mutex
	store    map[id.ID]*Invoice
	lines    map[id.ID][]documents.Line
	failNext error
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{
		store: make(map[id.ID]*Invoice),
		lines: make(map[id.ID][]documents.Line),
	}
}

func cloneInvoice(inv *Invoice) *Invoice {
	c := *inv
	if inv.SequenceNumber != nil {
		v := *inv.SequenceNumber
		c.SequenceNumber = &v
	}
	if inv.Series != nil {
		v := *inv.Series
		c.Series = &v
	}
	if inv.FullNumber != nil {
		v := *inv.FullNumber
		c.FullNumber = &v
	}
	if inv.DueDate != nil {
		v := *inv.DueDate
		c.DueDate = &v
	}
	c.Lines = nil
	return &c
}

func (r *fakeInvoiceRepo) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	savedStore := make(map[id.ID]*Invoice, len(r.store))
	for k, v := range r.store {
		savedStore[k] = cloneInvoice(v)
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

func (r *fakeInvoiceRepo) Create(ctx context.Context, inv *Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.store[inv.ID]; ok {
		return apperror.NewConflict("invoice already exists")
	}
	r.store[inv.ID] = cloneInvoice(inv)
	return nil
}

func (r *fakeInvoiceRepo) GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.store[invoiceID]
	if !ok {
		return nil, apperror.NewNotFound("invoice", invoiceID.String())
	}
	return cloneInvoice(inv), nil
}

func (r *fakeInvoiceRepo) GetForUpdate(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	return r.GetByID(ctx, invoiceID)
}

func (r *fakeInvoiceRepo) Update(ctx context.Context, inv *Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return err
	}
	current, ok := r.store[inv.ID]
	if !ok {
		return apperror.NewNotFound("invoice", inv.ID.String())
	}
	if current.Version != inv.Version {
		return apperror.NewConcurrentModification("invoice", inv.ID)
	}
	updated := cloneInvoice(inv)
	updated.Version = inv.Version + 1
	r.store[inv.ID] = updated
	return nil
}

func (r *fakeInvoiceRepo) Delete(ctx context.Context, invoiceID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.store[invoiceID]; !ok {
		return apperror.NewNotFound("invoice", invoiceID.String())
	}
	delete(r.store, invoiceID)
	delete(r.lines, invoiceID)
	return nil
}

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

func (r *fakeInvoiceRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result domain.ListResult[*Invoice]
	for _, inv := range r.store {
		if filter.Status != nil && inv.Status != *filter.Status {
			continue
		}
		result.Items = append(result.Items, cloneInvoice(inv))
	}
	result.TotalCount = int64(len(result.Items))
	return result, nil
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
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, iss := range r.store {
		if iss.TaxID == taxID {
			return iss, nil
		}
	}
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

type invoiceEnv struct {
	repo      *fakeInvoiceRepo
	issuers   *fakeIssuerRepo
	authority *numerator.MockAuthority
	txm       *fakeTxManager
	svc       *Service
	issuerID  id.ID
	clientID  id.ID
}

func newInvoiceEnv(t *testing.T) *invoiceEnv {
	t.Helper()

	repo := newFakeInvoiceRepo()
	issuers := newFakeIssuerRepo()
	authority := numerator.NewMockAuthority()
	txm := &fakeTxManager{}
	txm.participants = []snapshotter{repo, authorityAdapter{authority}}

	iss := issuer.New("ZEBRA PUBLICIDAD SL", "B39302369")
	require.NoError(t, issuers.Create(context.Background(), iss))
	authority.Series[iss.ID] = iss.CurrentSeries

	return &invoiceEnv{
		repo:      repo,
		issuers:   issuers,
		authority: authority,
		txm:       txm,
		svc:       NewService(repo, issuers, authority, txm),
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

func (e *invoiceEnv) createDraft(t *testing.T) *Invoice {
	t.Helper()
	inv := New(e.issuerID, e.clientID, issueDate2025(), 0)
	require.NoError(t, e.svc.CreateDraft(context.Background(), inv, testLines()))
	return inv
}

// --- Tests ---

func TestCreateDraft(t *testing.T) {
	env := newInvoiceEnv(t)
	ctx := context.Background()

	inv := env.createDraft(t)

	assert.Equal(t, documents.StatusDraft, inv.Status)
	assert.Nil(t, inv.FullNumber)
	assert.Equal(t, DefaultPaymentTermDays, inv.PaymentTermDays)
	require.NotNil(t, inv.DueDate)
	assert.Equal(t, issueDate2025().AddDate(0, 0, 30), *inv.DueDate)

	assert.True(t, inv.TaxableBase.Equal(types.MustMoney("250.00")), "taxable base: %s", inv.TaxableBase)
	assert.True(t, inv.TaxTotal.Equal(types.MustMoney("47.00")), "tax total: %s", inv.TaxTotal)
	assert.True(t, inv.GrandTotal.Equal(types.MustMoney("297.00")), "grand total: %s", inv.GrandTotal)

	stored, err := env.svc.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, stored.Lines, 2)
	assert.Equal(t, 1, stored.Lines[0].LineNo)
	assert.Equal(t, 2, stored.Lines[1].LineNo)
}

func TestCreateDraft_UnknownIssuer(t *testing.T) {
	env := newInvoiceEnv(t)

	inv := New(id.New(), env.clientID, issueDate2025(), 0)
	err := env.svc.CreateDraft(context.Background(), inv, testLines())

	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCreateDraft_NoValidLines(t *testing.T) {
	env := newInvoiceEnv(t)

	inv := New(env.issuerID, env.clientID, issueDate2025(), 0)
	err := env.svc.CreateDraft(context.Background(), inv, []documents.Line{
		{Description: "   ", Quantity: types.MustMoney("1"), UnitPrice: types.MustMoney("5")},
	})

	require.Error(t, err)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestIssue(t *testing.T) {
	env := newInvoiceEnv(t)
	ctx := context.Background()

	// The issuer has already issued six invoices.
	env.authority.SetCounter(env.issuerID, numerator.KindInvoice, 6)

	inv := env.createDraft(t)
	issued, err := env.svc.Issue(ctx, inv.ID)
	require.NoError(t, err)

	assert.Equal(t, documents.StatusIssued, issued.Status)
	require.NotNil(t, issued.SequenceNumber)
	assert.Equal(t, int64(7), *issued.SequenceNumber)
	require.NotNil(t, issued.Series)
	assert.Equal(t, "A", *issued.Series)
	require.NotNil(t, issued.FullNumber)
	assert.Equal(t, "A-2025-0007", *issued.FullNumber)
}

func TestIssue_Twice(t *testing.T) {
	env := newInvoiceEnv(t)
	ctx := context.Background()

	inv := env.createDraft(t)
	_, err := env.svc.Issue(ctx, inv.ID)
	require.NoError(t, err)

	_, err = env.svc.Issue(ctx, inv.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidState(err))

	// The counter did not advance for the failed attempt.
	assert.Equal(t, int64(1), env.authority.Counter(env.issuerID, numerator.KindInvoice))
}

func TestIssue_ConcurrentAssignmentsAreGapless(t *testing.T) {
	env := newInvoiceEnv(t)
	ctx := context.Background()

	const n = 50
	drafts := make([]*Invoice, n)
	for i := range drafts {
		drafts[i] = env.createDraft(t)
	}

	var wg sync.WaitGroup
	sequences := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(inv *Invoice) {
			defer wg.Done()
			issued, err := env.svc.Issue(ctx, inv.ID)
			if err != nil {
				t.Errorf("issue failed: %v", err)
				return
			}
			sequences <- *issued.SequenceNumber
		}(drafts[i])
	}
	wg.Wait()
	close(sequences)

	seen := make(map[int64]bool, n)
	for seq := range sequences {
		assert.False(t, seen[seq], "sequence %d assigned twice", seq)
		seen[seq] = true
	}
	require.Len(t, seen, n)
	for seq := int64(1); seq <= n; seq++ {
		assert.True(t, seen[seq], "gap at sequence %d", seq)
	}
}

func TestIssue_AbortLeavesCounterUntouched(t *testing.T) {
	env := newInvoiceEnv(t)
	ctx := context.Background()

	env.authority.SetCounter(env.issuerID, numerator.KindInvoice, 6)
	inv := env.createDraft(t)

	// The write after the counter increment fails, aborting the whole
	// transaction.
	env.repo.failNext = errors.New("connection reset")

	_, err := env.svc.Issue(ctx, inv.ID)
	require.Error(t, err)

	assert.Equal(t, int64(6), env.authority.Counter(env.issuerID, numerator.KindInvoice))

	stored, err := env.svc.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, documents.StatusDraft, stored.Status)
	assert.Nil(t, stored.FullNumber)

	// The next issue attempt gets the number the aborted one would have had.
	issued, err := env.svc.Issue(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "A-2025-0007", *issued.FullNumber)
}

func TestCreateIssued(t *testing.T) {
	env := newInvoiceEnv(t)

	inv := New(env.issuerID, env.clientID, issueDate2025(), 0)
	require.NoError(t, env.svc.CreateIssued(context.Background(), inv, testLines()))

	assert.Equal(t, documents.StatusIssued, inv.Status)
	require.NotNil(t, inv.FullNumber)
	assert.Equal(t, "A-2025-0001", *inv.FullNumber)
}

func TestCreateIssued_RetriesOnConflict(t *testing.T) {
	env := newInvoiceEnv(t)

	attempts := 0
	env.authority.AssignNextFunc = func(ctx context.Context, issuerID id.ID, kind numerator.DocumentKind, issueYear int) (numerator.Assignment, error) {
		attempts++
		if attempts < 3 {
			return numerator.Assignment{}, apperror.NewConcurrentModification("issuer", issuerID)
		}
		return numerator.Assignment{Sequence: 9, Series: "A", FullNumber: numerator.FormatFullNumber("A", issueYear, 9)}, nil
	}

	inv := New(env.issuerID, env.clientID, issueDate2025(), 0)
	require.NoError(t, env.svc.CreateIssued(context.Background(), inv, testLines()))

	assert.Equal(t, 3, attempts)
	assert.Equal(t, "A-2025-0009", *inv.FullNumber)
}

func TestEditDraft(t *testing.T) {
	env := newInvoiceEnv(t)
	ctx := context.Background()

	inv := env.createDraft(t)

	updated, err := env.svc.EditDraft(ctx, inv.ID, EditDraftInput{
		PaymentTermDays: 60,
		Notes:           "pago a 60 días",
		Lines: []documents.Line{
			{Description: "Nueva posición", Quantity: types.MustMoney("2"), UnitPrice: types.MustMoney("100.00"), TaxRate: types.MustMoney("21")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 60, updated.PaymentTermDays)
	require.NotNil(t, updated.DueDate)
	assert.Equal(t, issueDate2025().AddDate(0, 0, 60), *updated.DueDate)
	assert.True(t, updated.TaxableBase.Equal(types.MustMoney("200.00")))
	assert.True(t, updated.GrandTotal.Equal(types.MustMoney("242.00")))

	// The line table was replaced wholesale.
	stored, err := env.svc.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, stored.Lines, 1)
	assert.Equal(t, "Nueva posición", stored.Lines[0].Description)
	assert.Equal(t, 1, stored.Lines[0].LineNo)
}

func TestEditDraft_AfterIssue(t *testing.T) {
	env := newInvoiceEnv(t)
	ctx := context.Background()

	inv := env.createDraft(t)
	_, err := env.svc.Issue(ctx, inv.ID)
	require.NoError(t, err)

	_, err = env.svc.EditDraft(ctx, inv.ID, EditDraftInput{Lines: testLines()})
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestChangeStatus(t *testing.T) {
	env := newInvoiceEnv(t)
	ctx := context.Background()

	inv := env.createDraft(t)
	_, err := env.svc.Issue(ctx, inv.ID)
	require.NoError(t, err)

	sent, err := env.svc.ChangeStatus(ctx, inv.ID, documents.StatusSent)
	require.NoError(t, err)
	assert.Equal(t, documents.StatusSent, sent.Status)

	paid, err := env.svc.ChangeStatus(ctx, inv.ID, documents.StatusPaid)
	require.NoError(t, err)
	assert.Equal(t, documents.StatusPaid, paid.Status)
}

func TestChangeStatus_CannotIssueThroughIt(t *testing.T) {
	env := newInvoiceEnv(t)

	inv := env.createDraft(t)
	_, err := env.svc.ChangeStatus(context.Background(), inv.ID, documents.StatusIssued)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestChangeStatus_InvalidTransition(t *testing.T) {
	env := newInvoiceEnv(t)

	inv := env.createDraft(t)
	_, err := env.svc.ChangeStatus(context.Background(), inv.ID, documents.StatusPaid)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestDelete_DraftOnly(t *testing.T) {
	env := newInvoiceEnv(t)
	ctx := context.Background()

	draft := env.createDraft(t)
	require.NoError(t, env.svc.Delete(ctx, draft.ID))
	_, err := env.svc.GetByID(ctx, draft.ID)
	assert.True(t, apperror.IsNotFound(err))

	issuedDraft := env.createDraft(t)
	_, err = env.svc.Issue(ctx, issuedDraft.ID)
	require.NoError(t, err)

	err = env.svc.Delete(ctx, issuedDraft.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidState(err))
}
