// Package memory implements the repository interfaces in process memory.
// It backs STORAGE_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/repository"
)

// Store holds every table behind one lock.
type Store struct {
	mu         sync.RWMutex
	now        func() time.Time
	users      map[uuid.UUID]models.User
	addresses  map[uuid.UUID]models.Address
	orders     map[uuid.UUID]models.Order
	products   map[uuid.UUID]models.Product
	categories map[uuid.UUID]models.Category
	// product id -> category ids
	links map[uuid.UUID][]uuid.UUID
}

func NewStore() *Store {
	return &Store{
		now:        time.Now,
		users:      make(map[uuid.UUID]models.User),
		addresses:  make(map[uuid.UUID]models.Address),
		orders:     make(map[uuid.UUID]models.Order),
		products:   make(map[uuid.UUID]models.Product),
		categories: make(map[uuid.UUID]models.Category),
		links:      make(map[uuid.UUID][]uuid.UUID),
	}
}

// stamp fills id and timestamps. Creation times are strictly increasing so
// ordering by creation is stable.
func (s *Store) stamp(b *models.BaseModel, last time.Time) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	now := s.now()
	if !now.After(last) {
		now = last.Add(time.Microsecond)
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

func (s *Store) Users() repository.UserRepository          { return userRepo{s} }
func (s *Store) Addresses() repository.AddressRepository    { return addressRepo{s} }
func (s *Store) Orders() repository.OrderRepository         { return orderRepo{s} }
func (s *Store) Products() repository.ProductRepository     { return productRepo{s} }
func (s *Store) Categories() repository.CategoryRepository { return categoryRepo{s} }

// AddCategory inserts a catalog category.
func (s *Store) AddCategory(c models.Category) models.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp(&c.BaseModel, time.Time{})
	c.Products = nil
	s.categories[c.ID] = c
	return c
}

// AddProduct inserts a product linked to the given categories.
func (s *Store) AddProduct(p models.Product, categoryIDs ...uuid.UUID) models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp(&p.BaseModel, time.Time{})
	p.Categories = nil
	s.products[p.ID] = p
	s.links[p.ID] = append([]uuid.UUID(nil), categoryIDs...)
	return s.withCategories(p)
}

func (s *Store) withCategories(p models.Product) models.Product {
	ids := s.links[p.ID]
	if len(ids) == 0 {
		return p
	}
	p.Categories = make([]models.Category, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.categories[id]; ok {
			p.Categories = append(p.Categories, c)
		}
	}
	return p
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	r.s.stamp(&user.BaseModel, time.Time{})
	r.s.users[user.ID] = *user
	return nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r userRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r userRepo) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = r.s.now()
	r.s.users[id] = u
	return nil
}

type addressRepo struct{ s *Store }

func (r addressRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Address, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.Address
	for _, a := range r.s.addresses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r addressRepo) latest() time.Time {
	var last time.Time
	for _, a := range r.s.addresses {
		if a.CreatedAt.After(last) {
			last = a.CreatedAt
		}
	}
	return last
}

func (r addressRepo) Create(_ context.Context, address *models.Address) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.stamp(&address.BaseModel, r.latest())
	r.s.addresses[address.ID] = *address
	return nil
}

func (r addressRepo) FindOwned(_ context.Context, id, userID uuid.UUID) (*models.Address, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.addresses[id]
	if !ok || a.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r addressRepo) Save(_ context.Context, address *models.Address) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.addresses[address.ID]
	if !ok || existing.UserID != address.UserID {
		return repository.ErrNotFound
	}
	address.CreatedAt = existing.CreatedAt
	address.UpdatedAt = r.s.now()
	r.s.addresses[address.ID] = *address
	return nil
}

func (r addressRepo) Delete(_ context.Context, id, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.addresses[id]
	if !ok || a.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.s.addresses, id)
	return nil
}

type orderRepo struct{ s *Store }

func cloneOrder(o models.Order) models.Order {
	o.Items = o.Items.Clone()
	if o.NotifiedAt != nil {
		t := *o.NotifiedAt
		o.NotifiedAt = &t
	}
	return o
}

func (r orderRepo) latest() time.Time {
	var last time.Time
	for _, o := range r.s.orders {
		if o.CreatedAt.After(last) {
			last = o.CreatedAt
		}
	}
	return last
}

func (r orderRepo) Create(_ context.Context, order *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.stamp(&order.BaseModel, r.latest())
	r.s.orders[order.ID] = cloneOrder(*order)
	return nil
}

func (r orderRepo) UpdateNotification(_ context.Context, order *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.orders[order.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.NotifiedAt = nil
	if order.NotifiedAt != nil {
		t := *order.NotifiedAt
		stored.NotifiedAt = &t
	}
	stored.NotifyError = order.NotifyError
	stored.UpdatedAt = r.s.now()
	r.s.orders[order.ID] = stored
	return nil
}

func (r orderRepo) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var all []models.Order
	for _, o := range r.s.orders {
		if o.UserID == userID {
			all = append(all, cloneOrder(o))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return page(all, limit, offset), int64(len(all)), nil
}

func (r orderRepo) GetOwned(_ context.Context, id, userID uuid.UUID) (*models.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.orders[id]
	if !ok || o.UserID != userID {
		return nil, repository.ErrNotFound
	}
	o = cloneOrder(o)
	return &o, nil
}

type productRepo struct{ s *Store }

func (r productRepo) sorted(keep func(models.Product) bool) []models.Product {
	var out []models.Product
	for _, p := range r.s.products {
		if keep(p) {
			out = append(out, r.s.withCategories(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r productRepo) List(_ context.Context, limit, offset int) ([]models.Product, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	all := r.sorted(func(models.Product) bool { return true })
	return page(all, limit, offset), int64(len(all)), nil
}

func (r productRepo) Get(_ context.Context, id uuid.UUID) (*models.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p = r.s.withCategories(p)
	return &p, nil
}

func (r productRepo) ListByCategory(_ context.Context, categoryID uuid.UUID) ([]models.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.sorted(func(p models.Product) bool {
		for _, id := range r.s.links[p.ID] {
			if id == categoryID {
				return true
			}
		}
		return false
	}), nil
}

func (r productRepo) Search(_ context.Context, filter repository.ProductFilter) ([]models.Product, error) {
	name := strings.ToLower(strings.TrimSpace(filter.Name))
	size := strings.TrimSpace(filter.Size)

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.sorted(func(p models.Product) bool {
		if name != "" && !strings.Contains(strings.ToLower(p.Name), name) {
			return false
		}
		if size != "" && !p.HasSize(size) {
			return false
		}
		return true
	}), nil
}

type categoryRepo struct{ s *Store }

func (r categoryRepo) List(_ context.Context) ([]models.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]models.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r categoryRepo) Get(_ context.Context, id uuid.UUID) (*models.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
