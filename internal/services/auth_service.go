package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"boutique/internal/domain"
	"boutique/internal/repos"
	"boutique/internal/validate"
)

var ErrBadCreds = errors.New("invalid email or password")

type AuthConfig struct {
	Secret   string
	TokenTTL time.Duration
}

type AuthService struct {
	Users  *repos.UserRepo
	secret []byte
	ttl    time.Duration
	opt    Options
}

func NewAuthService(users *repos.UserRepo, cfg AuthConfig, opt Options) *AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 12 * time.Hour
	}
	return &AuthService{Users: users, secret: []byte(cfg.Secret), ttl: cfg.TokenTTL, opt: opt.withDefaults()}
}

// Claims ties a bearer token to a server-side session via the jti.
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *domain.User `json:"user"`
}

// dummyHash keeps unknown-email logins as slow as wrong-password ones.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	ctx, cancel := s.opt.timeout(ctx)
	defer cancel()

	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		if errors.Is(err, domain.ErrNotFound) {
			return Session{}, ErrBadCreds
		}
		return Session{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return Session{}, ErrBadCreds
	}

	sid := uuid.NewString()
	if err := s.Users.BindSession(ctx, sid, u.ID); err != nil {
		return Session{}, err
	}
	now := s.opt.Now()
	exp := now.Add(s.ttl)
	claims := Claims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sid,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}
	return Session{Token: tok, ExpiresAt: exp, User: u}, nil
}

func (s *AuthService) parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.opt.Now))
	if err != nil || claims.ID == "" {
		return nil, fmt.Errorf("%w: invalid token", domain.ErrUnauthenticated)
	}
	return claims, nil
}

// Authenticate resolves a bearer token to its user. The session must still
// exist, so logging out revokes the token before it expires.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.opt.timeout(ctx)
	defer cancel()
	u, err := s.Users.SessionUser(ctx, claims.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: session ended", domain.ErrUnauthenticated)
	}
	return u, err
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return err
	}
	ctx, cancel := s.opt.timeout(ctx)
	defer cancel()
	return s.Users.UnbindSession(ctx, claims.ID)
}

type NewUser struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Name     string `json:"name" validate:"required,max=120"`
	Role     string `json:"role" validate:"required,role"`
	Password string `json:"password" validate:"required,password"`
}

func (s *AuthService) CreateUser(ctx context.Context, actor *domain.User, in NewUser) (*domain.User, error) {
	if err := authorize(actor, domain.CapManageUsers); err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	email, _ := validate.Email(in.Email)
	name, ok := validate.Name(in.Name, 120)
	if !ok {
		return nil, domain.Invalidf("name is required")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{Email: email, Name: name, Role: domain.Role(in.Role), Hash: string(h)}

	ctx, cancel := s.opt.timeout(ctx)
	defer cancel()
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) ListUsers(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	if err := authorize(actor, domain.CapManageUsers); err != nil {
		return nil, err
	}
	ctx, cancel := s.opt.timeout(ctx)
	defer cancel()
	return s.Users.List(ctx)
}
