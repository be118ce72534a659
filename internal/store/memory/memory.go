// Package memory implements the domain stores with plain in-process maps.
// It backs the dev mode and the service tests; the postgres package is
// the production implementation. A single mutex serializes units of work,
// which also satisfies the engine's one-writer-per-fund assumption.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/alanyoungcy/groupfund/internal/domain"
)

// Store holds all records and implements domain.UnitOfWork plus every
// record store interface.
type Store struct {
	mu        sync.Mutex
	funds     map[string]domain.Fund
	members   map[string]map[string]domain.Member // groupID -> wallet
	trades    map[string]domain.Trade
	proposals map[string]map[uint64]domain.TradeProposal
	audit     []domain.AuditEntry
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		funds:     make(map[string]domain.Fund),
		members:   make(map[string]map[string]domain.Member),
		trades:    make(map[string]domain.Trade),
		proposals: make(map[string]map[uint64]domain.TradeProposal),
	}
}

// Do runs fn while holding the store mutex. Mutations made through the
// tx view are applied to staged copies and swapped in only when fn
// returns nil, so a failed unit of work leaves no partial state.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, st domain.Stores) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txView{
		base:      s,
		funds:     make(map[string]domain.Fund),
		members:   make(map[string]domain.Member),
		trades:    make(map[string]domain.Trade),
		proposals: make(map[string]domain.TradeProposal),
		deleted:   make(map[string]bool),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// Funds implements domain.Stores for direct (non-transactional) reads.
func (s *Store) Funds() domain.FundStore { return &fundStore{s: s} }

// Members implements domain.Stores for direct reads.
func (s *Store) Members() domain.MemberStore { return &memberStore{s: s} }

// Trades implements domain.Stores for direct reads.
func (s *Store) Trades() domain.TradeStore { return &tradeStore{s: s} }

// Proposals implements domain.Stores for direct reads.
func (s *Store) Proposals() domain.ProposalStore { return &proposalStore{s: s} }

// Audit returns the in-memory audit store.
func (s *Store) Audit() domain.AuditStore { return &auditStore{s: s} }

func memberKey(groupID, wallet string) string { return groupID + "\x00" + wallet }

// ---------------------------------------------------------------------------
// Transactional view
// ---------------------------------------------------------------------------

type txView struct {
	base      *Store
	funds     map[string]domain.Fund
	members   map[string]domain.Member
	trades    map[string]domain.Trade
	proposals map[string]domain.TradeProposal
	deleted   map[string]bool // staged fund deletions by group id
}

func (t *txView) commit() {
	for id, f := range t.funds {
		t.base.funds[id] = f
	}
	for id := range t.deleted {
		delete(t.base.funds, id)
	}
	for _, m := range t.members {
		byWallet := t.base.members[m.GroupID]
		if byWallet == nil {
			byWallet = make(map[string]domain.Member)
			t.base.members[m.GroupID] = byWallet
		}
		byWallet[m.Wallet] = m
	}
	for id, tr := range t.trades {
		t.base.trades[id] = tr
	}
	for _, p := range t.proposals {
		byID := t.base.proposals[p.GroupID]
		if byID == nil {
			byID = make(map[uint64]domain.TradeProposal)
			t.base.proposals[p.GroupID] = byID
		}
		byID[p.ProposalID] = p
	}
}

func (t *txView) Funds() domain.FundStore         { return &txFundStore{t: t} }
func (t *txView) Members() domain.MemberStore     { return &txMemberStore{t: t} }
func (t *txView) Trades() domain.TradeStore       { return &txTradeStore{t: t} }
func (t *txView) Proposals() domain.ProposalStore { return &txProposalStore{t: t} }

type txFundStore struct{ t *txView }

func (fs *txFundStore) Create(_ context.Context, f domain.Fund) error {
	if _, ok := fs.t.funds[f.GroupID]; ok {
		return domain.ErrAlreadyExists
	}
	if _, ok := fs.t.base.funds[f.GroupID]; ok {
		return domain.ErrAlreadyExists
	}
	fs.t.funds[f.GroupID] = f
	return nil
}

func (fs *txFundStore) Get(_ context.Context, groupID string) (domain.Fund, error) {
	if f, ok := fs.t.funds[groupID]; ok {
		return f, nil
	}
	if fs.t.deleted[groupID] {
		return domain.Fund{}, domain.ErrNotFound
	}
	if f, ok := fs.t.base.funds[groupID]; ok {
		return f, nil
	}
	return domain.Fund{}, domain.ErrNotFound
}

func (fs *txFundStore) Update(_ context.Context, f domain.Fund) error {
	fs.t.funds[f.GroupID] = f
	return nil
}

func (fs *txFundStore) Delete(_ context.Context, groupID string) error {
	delete(fs.t.funds, groupID)
	fs.t.deleted[groupID] = true
	return nil
}

func (fs *txFundStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Fund, error) {
	return (&fundStore{s: fs.t.base}).listLocked(opts), nil
}

type txMemberStore struct{ t *txView }

func (ms *txMemberStore) Create(_ context.Context, m domain.Member) error {
	k := memberKey(m.GroupID, m.Wallet)
	if _, ok := ms.t.members[k]; ok {
		return domain.ErrAlreadyExists
	}
	if byWallet, ok := ms.t.base.members[m.GroupID]; ok {
		if _, ok := byWallet[m.Wallet]; ok {
			return domain.ErrAlreadyExists
		}
	}
	ms.t.members[k] = m
	return nil
}

func (ms *txMemberStore) Get(_ context.Context, groupID, wallet string) (domain.Member, error) {
	if m, ok := ms.t.members[memberKey(groupID, wallet)]; ok {
		return m, nil
	}
	if byWallet, ok := ms.t.base.members[groupID]; ok {
		if m, ok := byWallet[wallet]; ok {
			return m, nil
		}
	}
	return domain.Member{}, domain.ErrNotFound
}

func (ms *txMemberStore) Update(_ context.Context, m domain.Member) error {
	ms.t.members[memberKey(m.GroupID, m.Wallet)] = m
	return nil
}

func (ms *txMemberStore) ListByFund(_ context.Context, groupID string) ([]domain.Member, error) {
	seen := make(map[string]domain.Member)
	if byWallet, ok := ms.t.base.members[groupID]; ok {
		for w, m := range byWallet {
			seen[w] = m
		}
	}
	for _, m := range ms.t.members {
		if m.GroupID == groupID {
			seen[m.Wallet] = m
		}
	}
	out := make([]domain.Member, 0, len(seen))
	for _, m := range seen {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Wallet < out[j].Wallet })
	return out, nil
}

type txTradeStore struct{ t *txView }

func (ts *txTradeStore) Create(_ context.Context, tr domain.Trade) error {
	if _, ok := ts.t.trades[tr.ID]; ok {
		return domain.ErrAlreadyExists
	}
	if _, ok := ts.t.base.trades[tr.ID]; ok {
		return domain.ErrAlreadyExists
	}
	ts.t.trades[tr.ID] = tr
	return nil
}

func (ts *txTradeStore) Get(_ context.Context, id string) (domain.Trade, error) {
	if tr, ok := ts.t.trades[id]; ok {
		return tr, nil
	}
	if tr, ok := ts.t.base.trades[id]; ok {
		return tr, nil
	}
	return domain.Trade{}, domain.ErrNotFound
}

func (ts *txTradeStore) Update(_ context.Context, tr domain.Trade) error {
	ts.t.trades[tr.ID] = tr
	return nil
}

func (ts *txTradeStore) ListByFund(_ context.Context, groupID string, opts domain.ListOpts) ([]domain.Trade, error) {
	return (&tradeStore{s: ts.t.base}).listByFundLocked(groupID, opts), nil
}

func (ts *txTradeStore) ListSettledBefore(_ context.Context, before time.Time) ([]domain.Trade, error) {
	return (&tradeStore{s: ts.t.base}).listSettledBeforeLocked(before), nil
}

type txProposalStore struct{ t *txView }

func (ps *txProposalStore) key(groupID string, id uint64) string {
	return groupID + "\x00" + uitoa(id)
}

func (ps *txProposalStore) Create(_ context.Context, p domain.TradeProposal) error {
	k := ps.key(p.GroupID, p.ProposalID)
	if _, ok := ps.t.proposals[k]; ok {
		return domain.ErrAlreadyExists
	}
	if byID, ok := ps.t.base.proposals[p.GroupID]; ok {
		if _, ok := byID[p.ProposalID]; ok {
			return domain.ErrAlreadyExists
		}
	}
	ps.t.proposals[k] = p
	return nil
}

func (ps *txProposalStore) Get(_ context.Context, groupID string, id uint64) (domain.TradeProposal, error) {
	if p, ok := ps.t.proposals[ps.key(groupID, id)]; ok {
		return p, nil
	}
	if byID, ok := ps.t.base.proposals[groupID]; ok {
		if p, ok := byID[id]; ok {
			return p, nil
		}
	}
	return domain.TradeProposal{}, domain.ErrNotFound
}

func (ps *txProposalStore) Update(_ context.Context, p domain.TradeProposal) error {
	ps.t.proposals[ps.key(p.GroupID, p.ProposalID)] = p
	return nil
}

func (ps *txProposalStore) ListByFund(_ context.Context, groupID string, opts domain.ListOpts) ([]domain.TradeProposal, error) {
	return (&proposalStore{s: ps.t.base}).listByFundLocked(groupID, opts), nil
}

// ---------------------------------------------------------------------------
// Direct (auto-locking) stores
// ---------------------------------------------------------------------------

type fundStore struct{ s *Store }

func (fs *fundStore) Create(ctx context.Context, f domain.Fund) error {
	return fs.s.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		return st.Funds().Create(ctx, f)
	})
}

func (fs *fundStore) Get(_ context.Context, groupID string) (domain.Fund, error) {
	fs.s.mu.Lock()
	defer fs.s.mu.Unlock()
	if f, ok := fs.s.funds[groupID]; ok {
		return f, nil
	}
	return domain.Fund{}, domain.ErrNotFound
}

func (fs *fundStore) Update(ctx context.Context, f domain.Fund) error {
	return fs.s.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		return st.Funds().Update(ctx, f)
	})
}

func (fs *fundStore) Delete(ctx context.Context, groupID string) error {
	return fs.s.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		return st.Funds().Delete(ctx, groupID)
	})
}

func (fs *fundStore) List(_ context.Context, opts domain.ListOpts) ([]domain.Fund, error) {
	fs.s.mu.Lock()
	defer fs.s.mu.Unlock()
	return fs.listLocked(opts), nil
}

func (fs *fundStore) listLocked(opts domain.ListOpts) []domain.Fund {
	out := make([]domain.Fund, 0, len(fs.s.funds))
	for _, f := range fs.s.funds {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GroupID < out[j].GroupID })
	return paginate(out, opts)
}

type memberStore struct{ s *Store }

func (ms *memberStore) Create(ctx context.Context, m domain.Member) error {
	return ms.s.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		return st.Members().Create(ctx, m)
	})
}

func (ms *memberStore) Get(_ context.Context, groupID, wallet string) (domain.Member, error) {
	ms.s.mu.Lock()
	defer ms.s.mu.Unlock()
	if byWallet, ok := ms.s.members[groupID]; ok {
		if m, ok := byWallet[wallet]; ok {
			return m, nil
		}
	}
	return domain.Member{}, domain.ErrNotFound
}

func (ms *memberStore) Update(ctx context.Context, m domain.Member) error {
	return ms.s.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		return st.Members().Update(ctx, m)
	})
}

func (ms *memberStore) ListByFund(_ context.Context, groupID string) ([]domain.Member, error) {
	ms.s.mu.Lock()
	defer ms.s.mu.Unlock()
	byWallet := ms.s.members[groupID]
	out := make([]domain.Member, 0, len(byWallet))
	for _, m := range byWallet {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Wallet < out[j].Wallet })
	return out, nil
}

type tradeStore struct{ s *Store }

func (ts *tradeStore) Create(ctx context.Context, tr domain.Trade) error {
	return ts.s.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		return st.Trades().Create(ctx, tr)
	})
}

func (ts *tradeStore) Get(_ context.Context, id string) (domain.Trade, error) {
	ts.s.mu.Lock()
	defer ts.s.mu.Unlock()
	if tr, ok := ts.s.trades[id]; ok {
		return tr, nil
	}
	return domain.Trade{}, domain.ErrNotFound
}

func (ts *tradeStore) Update(ctx context.Context, tr domain.Trade) error {
	return ts.s.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		return st.Trades().Update(ctx, tr)
	})
}

func (ts *tradeStore) ListByFund(_ context.Context, groupID string, opts domain.ListOpts) ([]domain.Trade, error) {
	ts.s.mu.Lock()
	defer ts.s.mu.Unlock()
	return ts.listByFundLocked(groupID, opts), nil
}

func (ts *tradeStore) listByFundLocked(groupID string, opts domain.ListOpts) []domain.Trade {
	var out []domain.Trade
	for _, tr := range ts.s.trades {
		if tr.GroupID == groupID {
			out = append(out, tr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return paginate(out, opts)
}

func (ts *tradeStore) ListSettledBefore(_ context.Context, before time.Time) ([]domain.Trade, error) {
	ts.s.mu.Lock()
	defer ts.s.mu.Unlock()
	return ts.listSettledBeforeLocked(before), nil
}

func (ts *tradeStore) listSettledBeforeLocked(before time.Time) []domain.Trade {
	var out []domain.Trade
	for _, tr := range ts.s.trades {
		if tr.IsSettled && tr.Timestamp.Before(before) {
			out = append(out, tr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

type proposalStore struct{ s *Store }

func (ps *proposalStore) Create(ctx context.Context, p domain.TradeProposal) error {
	return ps.s.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		return st.Proposals().Create(ctx, p)
	})
}

func (ps *proposalStore) Get(_ context.Context, groupID string, id uint64) (domain.TradeProposal, error) {
	ps.s.mu.Lock()
	defer ps.s.mu.Unlock()
	if byID, ok := ps.s.proposals[groupID]; ok {
		if p, ok := byID[id]; ok {
			return p, nil
		}
	}
	return domain.TradeProposal{}, domain.ErrNotFound
}

func (ps *proposalStore) Update(ctx context.Context, p domain.TradeProposal) error {
	return ps.s.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		return st.Proposals().Update(ctx, p)
	})
}

func (ps *proposalStore) ListByFund(_ context.Context, groupID string, opts domain.ListOpts) ([]domain.TradeProposal, error) {
	ps.s.mu.Lock()
	defer ps.s.mu.Unlock()
	return ps.listByFundLocked(groupID, opts), nil
}

func (ps *proposalStore) listByFundLocked(groupID string, opts domain.ListOpts) []domain.TradeProposal {
	byID := ps.s.proposals[groupID]
	out := make([]domain.TradeProposal, 0, len(byID))
	for _, p := range byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProposalID < out[j].ProposalID })
	return paginate(out, opts)
}

type auditStore struct{ s *Store }

func (as *auditStore) Log(_ context.Context, event string, detail map[string]any) error {
	as.s.mu.Lock()
	defer as.s.mu.Unlock()
	as.s.audit = append(as.s.audit, domain.AuditEntry{
		ID:        int64(len(as.s.audit) + 1),
		Event:     event,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (as *auditStore) List(_ context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	as.s.mu.Lock()
	defer as.s.mu.Unlock()
	out := make([]domain.AuditEntry, len(as.s.audit))
	copy(out, as.s.audit)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return paginate(out, opts), nil
}

func (as *auditStore) ListBefore(_ context.Context, before time.Time) ([]domain.AuditEntry, error) {
	as.s.mu.Lock()
	defer as.s.mu.Unlock()
	var out []domain.AuditEntry
	for _, e := range as.s.audit {
		if e.CreatedAt.Before(before) {
			out = append(out, e)
		}
	}
	return out, nil
}

func paginate[T any](in []T, opts domain.ListOpts) []T {
	if opts.Offset > 0 {
		if opts.Offset >= len(in) {
			return nil
		}
		in = in[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(in) {
		in = in[:opts.Limit]
	}
	return in
}

func uitoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// Compile-time interface checks.
var (
	_ domain.UnitOfWork = (*Store)(nil)
	_ domain.Stores     = (*Store)(nil)
	_ domain.Stores     = (*txView)(nil)
)
