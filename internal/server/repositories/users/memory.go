package users

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps users in process memory. Records are copied on the
// way in and out, so callers never alias stored state.
type MemoryRepository struct {
	mu    sync.RWMutex
	byID  map[string]*models.User
	email map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:  make(map[string]*models.User),
		email: make(map[string]string),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.email[user.Email]; taken {
		return nil, common.ErrDuplicateEmail
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	r.byID[user.ID] = user.Clone()
	r.email[user.Email] = user.ID
	return user, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u.Clone(), nil
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.email[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r.byID[id].Clone(), nil
}

func (r *MemoryRepository) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if token == "" {
		return nil, common.ErrorNotFound
	}
	for _, u := range r.byID {
		if u.PasswordResetToken == token {
			return u.Clone(), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) Update(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.byID[user.ID]
	if !ok {
		return common.ErrorNotFound
	}
	if old.Email != user.Email {
		if _, taken := r.email[user.Email]; taken {
			return common.ErrDuplicateEmail
		}
		delete(r.email, old.Email)
		r.email[user.Email] = user.ID
	}

	r.byID[user.ID] = user.Clone()
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	delete(r.email, u.Email)
	delete(r.byID, id)
	return nil
}

func (r *MemoryRepository) List(ctx context.Context, f ListFilter) ([]*models.User, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(f.Search)
	var matched []*models.User
	for _, u := range r.byID {
		if search != "" &&
			!strings.Contains(strings.ToLower(u.Name), search) &&
			!strings.Contains(strings.ToLower(u.Email), search) {
			continue
		}
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Verified != nil && u.IsEmailVerified != *f.Verified {
			continue
		}
		if f.Suspended != nil && u.IsSuspended != *f.Suspended {
			continue
		}
		matched = append(matched, u)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		c := compareUsers(matched[i], matched[j], f.SortBy)
		if c == 0 {
			return matched[i].ID < matched[j].ID
		}
		if f.SortAsc {
			return c < 0
		}
		return c > 0
	})

	total := len(matched)
	start := min(f.Offset, total)
	end := total
	if f.Limit > 0 {
		end = min(start+f.Limit, total)
	}

	page := make([]*models.User, 0, end-start)
	for _, u := range matched[start:end] {
		page = append(page, u.Clone())
	}
	return page, total, nil
}

func compareUsers(a, b *models.User, sortBy string) int {
	switch sortBy {
	case SortByName:
		return strings.Compare(a.Name, b.Name)
	case SortByEmail:
		return strings.Compare(a.Email, b.Email)
	case SortByLastLogin:
		switch {
		case a.LastLogin == nil && b.LastLogin == nil:
			return 0
		case a.LastLogin == nil:
			return -1
		case b.LastLogin == nil:
			return 1
		}
		return a.LastLogin.Compare(*b.LastLogin)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func (r *MemoryRepository) Count(ctx context.Context, f CountFilter) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, u := range r.byID {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Verified != nil && u.IsEmailVerified != *f.Verified {
			continue
		}
		if f.Suspended != nil && u.IsSuspended != *f.Suspended {
			continue
		}
		if f.CreatedSince != nil && u.CreatedAt.Before(*f.CreatedSince) {
			continue
		}
		n++
	}
	return n, nil
}
