package services

import (
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/soaringjerry/hrpulse/internal/models"
)

type AuthStore interface {
	GetUser(id int64) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	CreateUser(u *models.User) (*models.User, error)
}

var errNoSigner = errors.New("auth: token signer not configured")

// bcrypt only hashes the first 72 bytes and rejects anything longer.
const maxPasswordBytes = 72

type TokenSigner func(userID int64, username string, ttl time.Duration) (string, error)

type AuthService struct {
	store     AuthStore
	now       func() time.Time
	signToken TokenSigner
	tokenTTL  time.Duration
	cost      int
	// serializes the username check and the insert
	registerMu sync.Mutex
}

type AuthResult struct {
	Token string
	User  *models.User
}

type RegisterInput struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	Name     *string `json:"name"`
	Role     *string `json:"role"`
}

func NewAuthService(store AuthStore, signer TokenSigner, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &AuthService{
		store:     store,
		now:       utcNow,
		signToken: signer,
		tokenTTL:  ttl,
		cost:      bcrypt.DefaultCost,
	}
}

func (s *AuthService) Register(in RegisterInput) (*AuthResult, error) {
	username := strings.TrimSpace(in.Username)
	fields := map[string]string{}
	if utf8.RuneCountInString(username) < 3 {
		fields["username"] = "username must have at least 3 characters"
	}
	if utf8.RuneCountInString(in.Password) < 6 {
		fields["password"] = "password must have at least 6 characters"
	} else if len(in.Password) > maxPasswordBytes {
		fields["password"] = "password must be at most 72 bytes"
	}
	if err := NewFieldError("invalid registration data", fields); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, err
	}

	s.registerMu.Lock()
	defer s.registerMu.Unlock()
	existing, err := s.store.GetUserByUsername(username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewConflictError("username already exists")
	}
	u, err := s.store.CreateUser(&models.User{
		Username:  username,
		PassHash:  hash,
		Name:      trimmedOrNil(in.Name),
		Role:      trimmedOrNil(in.Role),
		CreatedAt: s.now(),
	})
	if err != nil {
		return nil, err
	}
	return s.issue(u)
}

func (s *AuthService) Login(username, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, NewInvalidError("username and password required")
	}
	u, err := s.store.GetUserByUsername(username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(u.PassHash, []byte(password)); err != nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	return s.issue(u)
}

// CurrentUser resolves the user behind an authenticated session.
func (s *AuthService) CurrentUser(userID int64) (*models.User, error) {
	u, err := s.store.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NewUnauthorizedError("session user no longer exists")
	}
	return u, nil
}

func (s *AuthService) TokenTTL() time.Duration {
	return s.tokenTTL
}

func (s *AuthService) issue(u *models.User) (*AuthResult, error) {
	if s.signToken == nil {
		return nil, errNoSigner
	}
	token, err := s.signToken(u.ID, u.Username, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: u}, nil
}

func trimmedOrNil(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
