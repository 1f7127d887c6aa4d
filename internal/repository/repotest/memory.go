// Package repotest provides an in-memory store implementing the repository
// interfaces, for use in tests of the packages built on top of them.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/baharkarakas/checkin-backend/internal/models"
	"github.com/baharkarakas/checkin-backend/internal/repository"
)

// Store holds every table behind one mutex, which is what makes
// IncrementScan behave like the single UPDATE statement it stands in for.
type Store struct {
	mu       sync.Mutex
	accounts map[int64]models.Account
	profiles map[int64]models.Profile
	badges   map[string]models.Badge
	logs     map[int64]models.AuditLog
	nextID   int64
	nextLog  int64

	// Injected failures, checked before the operation runs.
	LookupErr    error
	IncrementErr error
	AuditErr     error
	ContactsErr  error
}

func New() *Store {
	return &Store{
		accounts: map[int64]models.Account{},
		profiles: map[int64]models.Profile{},
		badges:   map[string]models.Badge{},
		logs:     map[int64]models.AuditLog{},
	}
}

func (s *Store) Accounts() repository.Accounts   { return accounts{s} }
func (s *Store) Badges() repository.Badges       { return badges{s} }
func (s *Store) AuditLogs() repository.AuditLogs { return auditLogs{s} }

// AddAccount inserts a, assigning an id when a.ID is zero.
func (s *Store) AddAccount(a models.Account) models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		s.nextID++
		a.ID = s.nextID
	} else if a.ID > s.nextID {
		s.nextID = a.ID
	}
	if a.Role == "" {
		a.Role = models.RoleUser
	}
	if a.ApprovalStatus == "" {
		a.ApprovalStatus = models.ApprovalPending
	}
	now := time.Now()
	a.CreatedAt, a.UpdatedAt = now, now
	s.accounts[a.ID] = a
	return a
}

func (s *Store) SetProfile(p models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.AccountID] = p
}

// Rename changes an account's name/email in place, as a later edit would.
func (s *Store) Rename(id int64, name, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.accounts[id]
	a.Name, a.Email = name, email
	s.accounts[id] = a
}

func (s *Store) DeleteAccount(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accounts, id)
	for tok, b := range s.badges {
		if b.AccountID == id {
			delete(s.badges, tok)
		}
	}
}

func (s *Store) Badge(token string) (models.Badge, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.badges[token]
	return b, ok
}

func (s *Store) Logs() []models.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AuditLog, 0, len(s.logs))
	for _, l := range s.logs {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type accounts struct{ s *Store }

func (r accounts) GetByID(_ context.Context, id int64) (models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.LookupErr != nil {
		return models.Account{}, r.s.LookupErr
	}
	a, ok := r.s.accounts[id]
	if !ok {
		return models.Account{}, repository.ErrNotFound
	}
	return a, nil
}

func (r accounts) GetByEmail(_ context.Context, email string) (models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.LookupErr != nil {
		return models.Account{}, r.s.LookupErr
	}
	for _, a := range r.s.accounts {
		if strings.EqualFold(a.Email, email) {
			return a, nil
		}
	}
	return models.Account{}, repository.ErrNotFound
}

func (r accounts) Contacts(_ context.Context, ids ...int64) (map[int64]models.Contact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.ContactsErr != nil {
		return nil, r.s.ContactsErr
	}
	out := map[int64]models.Contact{}
	for _, id := range ids {
		if a, ok := r.s.accounts[id]; ok {
			out[id] = models.Contact{Name: a.Name, Email: a.Email}
		}
	}
	return out, nil
}

func (r accounts) UpdateApproval(_ context.Context, id int64, status models.ApprovalStatus, approvedBy *int64) (models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return models.Account{}, repository.ErrNotFound
	}
	a.ApprovalStatus = status
	a.ApprovedBy = approvedBy
	a.ApprovedAt = nil
	if status == models.ApprovalApproved {
		now := time.Now()
		a.ApprovedAt = &now
	}
	r.s.accounts[id] = a
	return a, nil
}

type badges struct{ s *Store }

func (r badges) holder(b models.Badge) (models.BadgeHolder, bool) {
	a, ok := r.s.accounts[b.AccountID]
	if !ok {
		return models.BadgeHolder{}, false
	}
	h := models.BadgeHolder{Badge: b, Account: a}
	if p, ok := r.s.profiles[a.ID]; ok {
		h.Profile = &p
	}
	return h, true
}

func (r badges) FindByAccountID(_ context.Context, accountID int64) (models.BadgeHolder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.LookupErr != nil {
		return models.BadgeHolder{}, r.s.LookupErr
	}
	for _, b := range r.s.badges {
		if b.AccountID == accountID {
			if h, ok := r.holder(b); ok {
				return h, nil
			}
		}
	}
	return models.BadgeHolder{}, repository.ErrNotFound
}

func (r badges) FindApprovedByToken(_ context.Context, token string) (models.BadgeHolder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.LookupErr != nil {
		return models.BadgeHolder{}, r.s.LookupErr
	}
	b, ok := r.s.badges[token]
	if !ok {
		return models.BadgeHolder{}, repository.ErrNotFound
	}
	h, ok := r.holder(b)
	if !ok || !h.Account.Approved() {
		return models.BadgeHolder{}, repository.ErrNotFound
	}
	return h, nil
}

func (r badges) IncrementScan(_ context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.IncrementErr != nil {
		return r.s.IncrementErr
	}
	b, ok := r.s.badges[token]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now()
	b.ScanCount++
	b.LastScannedAt = &now
	r.s.badges[token] = b
	return nil
}

func (r badges) Create(_ context.Context, accountID int64, token string) (models.Badge, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.accounts[accountID]; !ok {
		return models.Badge{}, repository.ErrNotFound
	}
	if _, ok := r.s.badges[token]; ok {
		return models.Badge{}, repository.ErrConflict
	}
	for _, b := range r.s.badges {
		if b.AccountID == accountID {
			return models.Badge{}, repository.ErrConflict
		}
	}
	b := models.Badge{
		ID:        token + "-id",
		AccountID: accountID,
		Token:     token,
		CreatedAt: time.Now(),
	}
	r.s.badges[token] = b
	return b, nil
}

type auditLogs struct{ s *Store }

func (r auditLogs) Create(_ context.Context, l *models.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.AuditErr != nil {
		return r.s.AuditErr
	}
	r.s.nextLog++
	l.ID = r.s.nextLog
	l.CreatedAt = time.Now()
	r.s.logs[l.ID] = *l
	return nil
}

func (r auditLogs) Delete(_ context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.logs[id]; !ok {
		return false, nil
	}
	delete(r.s.logs, id)
	return true, nil
}

func (r auditLogs) List(_ context.Context, f repository.AuditFilter) ([]models.AuditLog, int, error) {
	r.s.mu.Lock()
	var all []models.AuditLog
	for _, l := range r.s.logs {
		if f.Action != nil && string(l.Action) != *f.Action {
			continue
		}
		if f.ActorID != nil && (l.ActorAccountID == nil || *l.ActorAccountID != *f.ActorID) {
			continue
		}
		if f.TargetID != nil && (l.TargetAccountID == nil || *l.TargetAccountID != *f.TargetID) {
			continue
		}
		all = append(all, l)
	}
	r.s.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := len(all)
	limit := f.PageLimit()
	start := min(max(f.Offset, 0), total)
	end := min(start+limit, total)
	return all[start:end], total, nil
}
