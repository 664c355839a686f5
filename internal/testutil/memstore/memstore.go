// Package memstore is an in-memory stand-in for the postgres repositories.
//
// Transactions are serialized on one mutex, which gives the same outcome
// as row locks for the tests that use it. A transaction that returns an
// error restores the snapshot taken when it started.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	orderModel "pointshop-backend/internal/domains/order/model"
	pointsModel "pointshop-backend/internal/domains/points/model"
	productModel "pointshop-backend/internal/domains/product/model"
	userModel "pointshop-backend/internal/domains/user/model"
	"pointshop-backend/pkg/database"
)

type state struct {
	users      map[uuid.UUID]userModel.User
	categories map[uuid.UUID]productModel.Category
	products   map[uuid.UUID]productModel.Product
	orders     map[uuid.UUID]orderModel.Order
	items      []orderModel.OrderItem
	coupons    map[uuid.UUID]pointsModel.Coupon
	ledger     []pointsModel.PointsTransaction
}

func (s *state) clone() *state {
	c := &state{
		users:      make(map[uuid.UUID]userModel.User, len(s.users)),
		categories: make(map[uuid.UUID]productModel.Category, len(s.categories)),
		products:   make(map[uuid.UUID]productModel.Product, len(s.products)),
		orders:     make(map[uuid.UUID]orderModel.Order, len(s.orders)),
		items:      append([]orderModel.OrderItem(nil), s.items...),
		coupons:    make(map[uuid.UUID]pointsModel.Coupon, len(s.coupons)),
		ledger:     append([]pointsModel.PointsTransaction(nil), s.ledger...),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.coupons {
		c.coupons[k] = v
	}
	return c
}

// Store holds every table and hands out repository views over them
type Store struct {
	txMu sync.Mutex // one transaction at a time
	mu   sync.Mutex // guards data and faults
	data *state

	faults map[string]error
	txs    int
}

var _ database.TxManager = (*Store)(nil)

func New() *Store {
	return &Store{
		data: &state{
			users:      map[uuid.UUID]userModel.User{},
			categories: map[uuid.UUID]productModel.Category{},
			products:   map[uuid.UUID]productModel.Product{},
			orders:     map[uuid.UUID]orderModel.Order{},
			coupons:    map[uuid.UUID]pointsModel.Coupon{},
		},
		faults: map[string]error{},
	}
}

// WithTx runs fn with a nil pgx.Tx. Repository views ignore the tx argument.
// An error or a panic from fn restores the snapshot; the panic is re-raised.
func (s *Store) WithTx(ctx context.Context, fn database.TxFunc) (err error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	snapshot := s.data.clone()
	s.txs++
	s.mu.Unlock()

	defer func() {
		p := recover()
		if p != nil || err != nil {
			s.mu.Lock()
			s.data = snapshot
			s.mu.Unlock()
		}
		if p != nil {
			panic(p)
		}
	}()

	var tx pgx.Tx
	return fn(tx)
}

// Transactions counts WithTx calls, useful to assert work was rejected early
func (s *Store) Transactions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txs
}

// FailOn makes the named operation return err until cleared with a nil err.
// Names are "<repo>.<Method>", e.g. "points.CreateTransactionWithTx".
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, op)
		return
	}
	s.faults[op] = err
}

// fault must be called with mu held
func (s *Store) fault(op string) error {
	return s.faults[op]
}

// ========================================
// SEEDING & INSPECTION
// ========================================

func (s *Store) PutUser(u userModel.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.users[u.ID] = u
}

func (s *Store) PutCategory(c productModel.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.categories[c.ID] = c
}

func (s *Store) PutProduct(p productModel.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.products[p.ID] = p
}

func (s *Store) PutCoupon(c pointsModel.Coupon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.coupons[c.ID] = c
}

func (s *Store) PutTransaction(t pointsModel.PointsTransaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.ledger = append(s.data.ledger, t)
}

func (s *Store) User(id uuid.UUID) (userModel.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.data.users[id]
	return u, ok
}

func (s *Store) Product(id uuid.UUID) (productModel.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.data.products[id]
	return p, ok
}

func (s *Store) Coupon(id uuid.UUID) (pointsModel.Coupon, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.data.coupons[id]
	return c, ok
}

func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.orders)
}

func (s *Store) OrderItems(orderID uuid.UUID) []orderModel.OrderItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []orderModel.OrderItem
	for _, it := range s.data.items {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	return out
}

// Ledger returns the entries of userID in insertion order
func (s *Store) Ledger(userID uuid.UUID) []pointsModel.PointsTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []pointsModel.PointsTransaction
	for _, t := range s.data.ledger {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

// LedgerSum is the signed sum of the ledger of userID
func (s *Store) LedgerSum(userID uuid.UUID) int {
	sum := 0
	for _, t := range s.Ledger(userID) {
		sum += t.Signed()
	}
	return sum
}

func sortProducts(ps []productModel.Product) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].Name < ps[j].Name })
}
