package integration

import (
	"context"
	"fmt"
	"sync"

	"splitledger/internal/core/domain"
	"splitledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory User Repo ---

type inMemoryUserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *inMemoryUserRepo) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if u.Email != nil && existing.Email != nil && *existing.Email == *u.Email {
			return fmt.Errorf("email already exists")
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *inMemoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *inMemoryUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	normalized := domain.NormalizeEmail(email)
	for _, u := range r.users {
		if u.Email != nil && *u.Email == normalized {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryUserRepo) GetByMobileKey(ctx context.Context, mobileKey string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Mobile != "" && domain.PhoneLookupKey(u.Mobile) == mobileKey {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryUserRepo) Update(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return fmt.Errorf("user not found")
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

// --- In-Memory Group Repo ---

type inMemoryGroupRepo struct {
	mu     sync.RWMutex
	groups map[uuid.UUID]*domain.Group
}

func newInMemoryGroupRepo() *inMemoryGroupRepo {
	return &inMemoryGroupRepo{groups: make(map[uuid.UUID]*domain.Group)}
}

func (r *inMemoryGroupRepo) Create(ctx context.Context, g *domain.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *g
	r.groups[g.ID] = &cp
	return nil
}

func (r *inMemoryGroupRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.groups[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

func (r *inMemoryGroupRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Group
	for _, g := range r.groups {
		if g.CreatedBy == userID || g.HasMember(userID) {
			result = append(result, *g)
		}
	}
	return result, nil
}

func (r *inMemoryGroupRepo) Update(ctx context.Context, g *domain.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[g.ID]; !ok {
		return fmt.Errorf("group not found")
	}
	cp := *g
	r.groups[g.ID] = &cp
	return nil
}

func (r *inMemoryGroupRepo) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[id]; !ok {
		return fmt.Errorf("group not found")
	}
	delete(r.groups, id)
	return nil
}

// --- In-Memory Expense Repo ---

type inMemoryExpenseRepo struct {
	mu       sync.RWMutex
	expenses map[uuid.UUID]*domain.Expense
}

func newInMemoryExpenseRepo() *inMemoryExpenseRepo {
	return &inMemoryExpenseRepo{expenses: make(map[uuid.UUID]*domain.Expense)}
}

func (r *inMemoryExpenseRepo) Create(ctx context.Context, e *domain.Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *e
	r.expenses[e.ID] = &cp
	return nil
}

func (r *inMemoryExpenseRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.expenses[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (r *inMemoryExpenseRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Expense
	for _, e := range r.expenses {
		if e.PaidBy == userID || e.IsParticipant(userID) {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (r *inMemoryExpenseRepo) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]domain.Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Expense
	for _, e := range r.expenses {
		if e.GroupID != nil && *e.GroupID == groupID {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (r *inMemoryExpenseRepo) Update(ctx context.Context, e *domain.Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.expenses[e.ID]; !ok {
		return fmt.Errorf("expense not found")
	}
	cp := *e
	r.expenses[e.ID] = &cp
	return nil
}

func (r *inMemoryExpenseRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.expenses[id]; !ok {
		return fmt.Errorf("expense not found")
	}
	delete(r.expenses, id)
	return nil
}

func (r *inMemoryExpenseRepo) DeleteByGroup(ctx context.Context, tx pgx.Tx, groupID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for id, e := range r.expenses {
		if e.GroupID != nil && *e.GroupID == groupID {
			delete(r.expenses, id)
			count++
		}
	}
	return count, nil
}

// --- In-Memory Settlement Repo ---

type inMemorySettlementRepo struct {
	mu          sync.RWMutex
	settlements map[uuid.UUID]*domain.Settlement
}

func newInMemorySettlementRepo() *inMemorySettlementRepo {
	return &inMemorySettlementRepo{settlements: make(map[uuid.UUID]*domain.Settlement)}
}

func (r *inMemorySettlementRepo) Create(ctx context.Context, s *domain.Settlement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.settlements[s.ID] = &cp
	return nil
}

func (r *inMemorySettlementRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Settlement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Settlement
	for _, s := range r.settlements {
		if s.Involves(userID) {
			result = append(result, *s)
		}
	}
	return result, nil
}

// --- In-Memory Transactor (no-op tx) ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }

// --- Capture stubs for outbound adapters ---

// captureSMS records sent messages so tests can read the delivered OTP code.
type captureSMS struct {
	mu       sync.Mutex
	messages map[string]string // mobile -> last message body
}

func newCaptureSMS() *captureSMS {
	return &captureSMS{messages: make(map[string]string)}
}

func (s *captureSMS) Send(ctx context.Context, mobile, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[mobile] = message
	return nil
}

func (s *captureSMS) lastMessage(mobile string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages[mobile]
}

// capturePush counts notifications without delivering anything.
type capturePush struct {
	mu    sync.Mutex
	count int
}

func (p *capturePush) Notify(ctx context.Context, pushToken, title, body string, data map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.count++
	return nil
}

// inMemoryObjectStore returns a deterministic URL for uploaded objects.
type inMemoryObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte // bucket/path -> data
}

func newInMemoryObjectStore() *inMemoryObjectStore {
	return &inMemoryObjectStore{objects: make(map[string][]byte)}
}

func (s *inMemoryObjectStore) Upload(ctx context.Context, req ports.UploadRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := req.Bucket + "/" + req.ObjectPath
	s.objects[key] = req.Data
	return "https://storage.test/" + key, nil
}
