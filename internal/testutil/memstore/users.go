package memstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"pointshop-backend/internal/domains/user/model"
	"pointshop-backend/internal/domains/user/repository"
)

type userRepo struct{ s *Store }

// Users is the UserRepository view of the store
func (s *Store) Users() repository.UserRepository { return userRepo{s} }

func (r userRepo) CreateWithTx(_ context.Context, _ pgx.Tx, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("users.CreateWithTx"); err != nil {
		return err
	}
	for _, existing := range r.s.data.users {
		if existing.Email == u.Email {
			return model.ErrEmailTaken
		}
		if existing.Username == u.Username {
			return model.ErrUsernameTaken
		}
	}
	r.s.data.users[u.ID] = *u
	return nil
}

func (r userRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.data.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return &u, nil
}

func (r userRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.data.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (r userRepo) ExistsByEmailOrUsername(_ context.Context, email, username string, excludeID uuid.UUID) (bool, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var emailTaken, usernameTaken bool
	for id, u := range r.s.data.users {
		if id == excludeID {
			continue
		}
		emailTaken = emailTaken || u.Email == email
		usernameTaken = usernameTaken || u.Username == username
	}
	return emailTaken, usernameTaken, nil
}

func (r userRepo) UpdateProfile(_ context.Context, id uuid.UUID, username, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.data.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	u.Username = username
	u.Email = email
	u.UpdatedAt = time.Now()
	r.s.data.users[id] = u
	return &u, nil
}

func (r userRepo) GetForUpdateWithTx(ctx context.Context, _ pgx.Tx, id uuid.UUID) (*model.User, error) {
	return r.FindByID(ctx, id)
}

func (r userRepo) ApplyWalletDeltaWithTx(_ context.Context, _ pgx.Tx, id uuid.UUID, balanceDelta decimal.Decimal, pointsDelta int) (*model.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("users.ApplyWalletDeltaWithTx"); err != nil {
		return nil, err
	}
	u, ok := r.s.data.users[id]
	if !ok {
		return nil, model.ErrWalletUnderflow
	}
	balance := u.Balance.Add(balanceDelta)
	points := u.Points + pointsDelta
	if balance.IsNegative() || points < 0 {
		return nil, model.ErrWalletUnderflow
	}
	u.Balance = balance
	u.Points = points
	u.UpdatedAt = time.Now()
	r.s.data.users[id] = u
	return &model.Wallet{Balance: balance, Points: points}, nil
}
