package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mamadbah2/packhouse/internal/domain/models"
	"github.com/mamadbah2/packhouse/internal/repository/mongodb"
)

// ErrInvalidTransition is returned when a session is driven out of order.
var ErrInvalidTransition = errors.New("invalid session transition")

// Claims is the JWT payload issued at sign-in.
type Claims struct {
	UserID string      `json:"user_id"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Service signs users in and out and verifies bearer tokens.
type Service struct {
	users  mongodb.UserStore
	secret []byte
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	revoked   map[string]time.Time
	listeners map[int]Listener
	nextID    int
}

// NewService wires a new auth service. A non-positive ttl defaults to 12 hours.
func NewService(users mongodb.UserStore, secret string, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Service{
		users:     users,
		secret:    []byte(secret),
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
		revoked:   make(map[string]time.Time),
		listeners: make(map[int]Listener),
	}
}

// OnAuthStateChange registers a listener for every session transition and
// returns a function that removes it.
func (s *Service) OnAuthStateChange(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Service) emit(ev Event) {
	s.mu.Lock()
	fns := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// NewSession returns an anonymous session reporting to the registered listeners.
func (s *Service) NewSession() *Session {
	return newSession(s.emit, s.now)
}

// SignInWithPassword authenticates a session with email and password.
// A failed attempt returns the session to anonymous.
func (s *Service) SignInWithPassword(ctx context.Context, sess *Session, email, password string) error {
	if err := sess.transition(StateAuthenticating, nil); err != nil {
		return err
	}

	user, err := s.verifyPassword(ctx, email, password)
	if err != nil {
		_ = sess.transition(StateAnonymous, nil)
		return err
	}

	token, tokenID, err := s.issue(user)
	if err != nil {
		_ = sess.transition(StateAnonymous, nil)
		return err
	}

	sess.mu.Lock()
	sess.token, sess.tokenID = token, tokenID
	sess.mu.Unlock()

	if err := sess.transition(StateAuthenticated, &user); err != nil {
		return err
	}
	s.logger.Info("user signed in", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return nil
}

// Resume rebuilds an authenticated session from a bearer token.
func (s *Service) Resume(ctx context.Context, token string) (*Session, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.UserByID(ctx, claims.UserID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	sess := s.NewSession()
	sess.state = StateAuthenticated
	sess.user = &user
	sess.token = token
	sess.tokenID = claims.ID
	return sess, nil
}

// CurrentUser returns the user behind a valid, unrevoked token.
func (s *Service) CurrentUser(ctx context.Context, token string) (models.User, error) {
	sess, err := s.Resume(ctx, token)
	if err != nil {
		return models.User{}, err
	}
	user, _ := sess.User()
	return user, nil
}

// SignOut revokes the session token and moves the session to signed_out.
func (s *Service) SignOut(_ context.Context, sess *Session) error {
	sess.mu.Lock()
	tokenID := sess.tokenID
	token := sess.token
	sess.mu.Unlock()

	if err := sess.transition(StateSignedOut, nil); err != nil {
		return err
	}

	expires := s.now().Add(s.ttl)
	if claims, err := s.parse(token); err == nil && claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	s.revoke(tokenID, expires)

	if user, ok := sess.User(); ok {
		s.logger.Info("user signed out", zap.String("user_id", user.ID))
	}
	return nil
}

// Bootstrap creates the first account when no account uses the email yet.
func (s *Service) Bootstrap(ctx context.Context, email, password string, role models.Role) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}
	if !role.Valid() {
		return models.InvalidInput("unknown role %q", role)
	}

	_, err := s.users.UserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("look up bootstrap user: %w", err)
	}

	if _, err := s.CreateUser(ctx, email, password, role); err != nil {
		return err
	}
	s.logger.Info("bootstrap user created", zap.String("email", email), zap.String("role", string(role)))
	return nil
}

// CreateUser stores a new account with a bcrypt password hash.
func (s *Service) CreateUser(ctx context.Context, email, password string, role models.Role) (models.User, error) {
	if !role.Valid() {
		return models.User{}, models.InvalidInput("unknown role %q", role)
	}
	if len(password) < 8 {
		return models.User{}, models.InvalidInput("password must have at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    s.now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, mongodb.ErrDuplicateKey) {
			return models.User{}, models.InvalidInput("email %s is already registered", user.Email)
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *Service) verifyPassword(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.users.UserByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return models.User{}, models.ErrUnauthorized
	}
	if err != nil {
		return models.User{}, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, models.ErrUnauthorized
	}
	return user, nil
}

func (s *Service) issue(user models.User) (string, string, error) {
	now := s.now()
	tokenID := uuid.NewString()
	claims := &Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", fmt.Errorf("sign token: %w", err)
	}
	return token, tokenID, nil
}

func (s *Service) parse(token string) (*Claims, error) {
	if token == "" {
		return nil, models.ErrUnauthorized
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUnauthorized, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return nil, models.ErrUnauthorized
	}
	if s.isRevoked(claims.ID) {
		return nil, fmt.Errorf("%w: token revoked", models.ErrUnauthorized)
	}
	return claims, nil
}

func (s *Service) revoke(tokenID string, until time.Time) {
	if tokenID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, exp := range s.revoked {
		if now.After(exp) {
			delete(s.revoked, id)
		}
	}
	s.revoked[tokenID] = until
}

func (s *Service) isRevoked(tokenID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[tokenID]
	return ok
}
