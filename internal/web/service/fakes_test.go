package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/web/apiclient"
)

type memUsers struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]domain.User
	err    error
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]domain.User)}
}

func (m *memUsers) CreateUser(ctx context.Context, u domain.User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	if _, ok := m.users[u.Username]; ok {
		return 0, domain.ErrDuplicateKey
	}
	m.nextID++
	u.ID = m.nextID
	m.users[u.Username] = u
	return u.ID, nil
}

func (m *memUsers) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *memUsers) UsernameExists(ctx context.Context, username string) (bool, error) {
	u, err := m.GetUserByUsername(ctx, username)
	return u != nil, err
}

func (m *memUsers) EmailExists(ctx context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

type cartKey struct {
	user    int64
	product string
}

type memCarts struct {
	mu    sync.Mutex
	lines map[cartKey]domain.CartLine
	clock time.Time
}

func newMemCarts() *memCarts {
	return &memCarts{lines: make(map[cartKey]domain.CartLine), clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *memCarts) ListCart(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.CartLine{}
	for k, l := range m.lines {
		if k.user == userID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AddedAt.Before(out[j].AddedAt) })
	return out, nil
}

func (m *memCarts) GetCartLine(ctx context.Context, userID int64, productID string) (*domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lines[cartKey{userID, productID}]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (m *memCarts) AddToCart(ctx context.Context, userID int64, productID string, quantity int) (*domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := cartKey{userID, productID}
	l, ok := m.lines[k]
	if ok {
		l.Quantity += quantity
	} else {
		m.clock = m.clock.Add(time.Second)
		l = domain.CartLine{UserID: userID, ProductID: productID, Quantity: quantity, AddedAt: m.clock}
	}
	m.lines[k] = l
	return &l, nil
}

func (m *memCarts) SetCartQuantity(ctx context.Context, userID int64, productID string, quantity int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := cartKey{userID, productID}
	l, ok := m.lines[k]
	if !ok {
		return false, nil
	}
	l.Quantity = quantity
	m.lines[k] = l
	return true, nil
}

func (m *memCarts) RemoveCartLine(ctx context.Context, userID int64, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lines, cartKey{userID, productID})
	return nil
}

func (m *memCarts) RemoveCartLines(ctx context.Context, userID int64, productIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range productIDs {
		delete(m.lines, cartKey{userID, id})
	}
	return nil
}

type memSessions struct {
	mu       sync.Mutex
	next     int
	sessions map[string]domain.Principal
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: make(map[string]domain.Principal)}
}

func (m *memSessions) Create(ctx context.Context, p domain.Principal) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	token := fmt.Sprintf("token-%d", m.next)
	m.sessions[token] = p
	return token, nil
}

func (m *memSessions) Get(ctx context.Context, token string) (*domain.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.sessions[token]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memSessions) Delete(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

// fakeAPI stands in for the storefront API: customers, products and orders.
type fakeAPI struct {
	mu        sync.Mutex
	customers map[string]domain.Customer
	products  map[string]domain.Product
	orders    []domain.Order
	keys      map[string]bool
	orderErr  map[string]error
	deleted   []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		customers: make(map[string]domain.Customer),
		products:  make(map[string]domain.Product),
		keys:      make(map[string]bool),
		orderErr:  make(map[string]error),
	}
}

func (f *fakeAPI) CreateCustomer(ctx context.Context, in apiclient.CustomerRequest) (*domain.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := domain.Customer{ID: fmt.Sprintf("cust-%d", len(f.customers)+1), Username: in.Username, Email: in.Email, Name: in.Name}
	f.customers[c.ID] = c
	return &c, nil
}

func (f *fakeAPI) DeleteCustomer(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.customers, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAPI) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakeAPI) CreateOrder(ctx context.Context, customerID, productID string, quantity int, key string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.orderErr[productID]; err != nil {
		return nil, err
	}
	if key != "" {
		if f.keys[key] {
			return nil, &apiclient.APIError{Status: 409, Code: "CONFLICT", Message: "duplicate request"}
		}
		f.keys[key] = true
	}
	p := f.products[productID]
	if p.Stock < quantity {
		return nil, &apiclient.APIError{Status: 400, Code: "INVALID_INPUT", Message: fmt.Sprintf("Insufficient stock. Available: %d", p.Stock)}
	}
	p.Stock -= quantity
	f.products[productID] = p
	o := domain.Order{
		ID: fmt.Sprintf("order-%d", len(f.orders)+1), CustomerID: customerID, ProductID: productID,
		Quantity: quantity, UnitPrice: p.Price, TotalPrice: domain.Total(p.Price, quantity), Status: domain.OrderStatusSubmitted,
	}
	f.orders = append(f.orders, o)
	return &o, nil
}
