package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/HendryAvila/ikitsuke/internal/kv"
)

// bcryptCost is a package-level var so tests can use the minimum cost.
var bcryptCost = bcrypt.DefaultCost

// UserStore owns the users collection, a map from user id to User.
type UserStore struct {
	kv kv.Store
	mu sync.Mutex
}

// NewUserStore creates a UserStore over the given transport.
func NewUserStore(s kv.Store) *UserStore {
	return &UserStore{kv: s}
}

func (u *UserStore) load(ctx context.Context) (map[string]User, error) {
	users := map[string]User{}
	if err := kv.Load(ctx, u.kv, UsersCollection, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Register creates an account. Every field is required and ids are unique.
func (u *UserStore) Register(ctx context.Context, id, name, password string) (User, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" || name == "" || password == "" {
		return User{}, fmt.Errorf("%w: user id, name and password are all required", ErrMalformedInput)
	}
	if id == SystemCreatorID {
		return User{}, fmt.Errorf("user %q: %w", id, ErrDuplicateID)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return User{}, fmt.Errorf("hashing password: %w", err)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	users, err := u.load(ctx)
	if err != nil {
		return User{}, err
	}
	if _, taken := users[id]; taken {
		return User{}, fmt.Errorf("user %q: %w", id, ErrDuplicateID)
	}

	user := User{ID: id, Name: name, PasswordHash: string(hash)}
	users[id] = user
	if err := kv.Save(ctx, u.kv, UsersCollection, users); err != nil {
		return User{}, err
	}
	return user, nil
}

// Authenticate checks a password. Unknown ids and wrong passwords both
// return ErrInvalidCredentials.
func (u *UserStore) Authenticate(ctx context.Context, id, password string) (User, error) {
	user, err := u.Get(ctx, strings.TrimSpace(id))
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Get returns a user by id.
func (u *UserStore) Get(ctx context.Context, id string) (User, error) {
	users, err := u.load(ctx)
	if err != nil {
		return User{}, err
	}
	user, ok := users[id]
	if !ok {
		return User{}, fmt.Errorf("user %q: %w", id, ErrNotFound)
	}
	return user, nil
}
