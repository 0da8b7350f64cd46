package devserver

import (
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/jrsteele09/go-storefront-session/claims"
	apperrors "github.com/jrsteele09/go-storefront-session/internal/errors"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// ErrEmailTaken is returned when registering an email that already has an account.
var ErrEmailTaken = errors.New("email already registered")

type User struct {
	ID           int64
	Email        string
	Name         string
	Phone        *string
	PasswordHash string
	Role         claims.Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters long")
	}

	var hasUpper, hasLower, hasNumber bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		}
	}

	if !hasUpper {
		return errors.New("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return errors.New("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return errors.New("password must contain at least one number")
	}
	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// userRepo keeps accounts in memory, keyed by id and by lower-cased email
type userRepo struct {
	users    map[int64]*User
	emailIDs map[string]int64
	nextID   int64
	lock     sync.RWMutex
}

func newUserRepo() *userRepo {
	return &userRepo{
		users:    make(map[int64]*User),
		emailIDs: make(map[string]int64),
		nextID:   1,
	}
}

// Insert assigns the next id to user and stores it.
func (ur *userRepo) Insert(user *User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	key := strings.ToLower(user.Email)
	if _, ok := ur.emailIDs[key]; ok {
		return ErrEmailTaken
	}
	user.ID = ur.nextID
	ur.nextID++
	ur.users[user.ID] = user
	ur.emailIDs[key] = user.ID
	return nil
}

// Update stores changes made to a copy of a user returned by Get*.
func (ur *userRepo) Update(user *User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()
	if _, ok := ur.users[user.ID]; !ok {
		return apperrors.ErrNotFound
	}
	ur.users[user.ID] = user
	return nil
}

func (ur *userRepo) GetByID(id int64) (*User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()
	u, ok := ur.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (ur *userRepo) GetByEmail(email string) (*User, error) {
	ur.lock.RLock()
	id, ok := ur.emailIDs[strings.ToLower(email)]
	ur.lock.RUnlock()
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return ur.GetByID(id)
}

func (s *Server) createUser(email, password, name string, phone *string, role claims.Role) (*User, error) {
	if !role.Valid() {
		return nil, errors.Errorf("invalid role %q", role)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, errors.Wrap(err, "[createUser] hash password")
	}
	now := NowTimeFunc()
	u := &User{
		Email:        strings.TrimSpace(email),
		Name:         name,
		Phone:        phone,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Insert(u); err != nil {
		return nil, err
	}
	return u, nil
}
