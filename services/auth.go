package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"naagrik-api/models"
	"naagrik-api/store"
	authUtils "naagrik-api/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const minPasswordLength = 6

// AuthDeps wires an AuthService.
type AuthDeps struct {
	Users       UserStore
	Tokens      *authUtils.TokenIssuer
	Policy      *Policy
	Logger      *zap.Logger
	BcryptCost  int
	AdminEmails []string
	Now         func() time.Time
}

// AuthService registers accounts, exchanges credentials for tokens and turns
// tokens back into principals.
type AuthService struct {
	users  UserStore
	tokens *authUtils.TokenIssuer
	policy *Policy
	log    *zap.Logger
	cost   int
	admins map[string]struct{}
	now    func() time.Time

	// dummy is compared against when the email is unknown so that both
	// failure paths cost one bcrypt comparison.
	dummy models.User
}

func NewAuthService(d AuthDeps) (*AuthService, error) {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := d.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	admins := make(map[string]struct{}, len(d.AdminEmails))
	for _, e := range d.AdminEmails {
		if e = strings.TrimSpace(e); e != "" {
			admins[e] = struct{}{}
		}
	}

	s := &AuthService{
		users:  d.Users,
		tokens: d.Tokens,
		policy: d.Policy,
		log:    log,
		cost:   d.BcryptCost,
		admins: admins,
		now:    now,
		dummy:  models.User{Password: "naagrik-unknown-account"},
	}
	if err := s.dummy.HashPassword(s.cost); err != nil {
		return nil, err
	}
	return s, nil
}

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a USER account, or an ADMIN account for a configured
// administrator email.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*UserView, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if username == "" || email == "" || in.Password == "" {
		return nil, ValidationError("Username, email, and password are required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, ValidationError("Password must be at least 6 characters long")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ValidationError("Email already registered")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, UnexpectedError("Failed to check email", err)
	}

	role := models.RoleUser
	if _, ok := s.admins[email]; ok {
		role = models.RoleAdmin
	}
	now := s.now()
	u := &models.User{
		Username:  username,
		Email:     email,
		Password:  in.Password,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.HashPassword(s.cost); err != nil {
		return nil, UnexpectedError("Failed to hash password", err)
	}
	if err := s.users.Insert(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ValidationError("Email already registered")
		}
		return nil, UnexpectedError("Failed to create user", err)
	}

	s.log.Info("user registered", zap.String("user_id", u.ID.Hex()), zap.String("role", string(role)))
	v := NewUserView(u)
	return &v, nil
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

// Login verifies credentials. Unknown emails and wrong passwords fail the
// same way.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return nil, ValidationError("Email and password are required")
	}

	u, err := s.users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.dummy.ComparePassword(in.Password)
		return nil, Unauthenticated("Invalid credentials")
	case err != nil:
		return nil, UnexpectedError("Failed to load user", err)
	}
	if !u.ComparePassword(in.Password) {
		return nil, Unauthenticated("Invalid credentials")
	}

	token, err := s.tokens.GenerateToken(u.ID.Hex(), u.Email, string(u.Role))
	if err != nil {
		return nil, UnexpectedError("Failed to issue token", err)
	}
	return &LoginResult{Token: token, User: NewUserView(u)}, nil
}

// Me returns the caller's own account.
func (s *AuthService) Me(ctx context.Context, p *Principal) (*UserView, error) {
	if err := s.policy.Authorize(p, ActionViewSelf); err != nil {
		return nil, err
	}
	u, err := s.users.FindByID(ctx, p.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NotFound("User not found")
	}
	if err != nil {
		return nil, UnexpectedError("Failed to load user", err)
	}
	v := NewUserView(u)
	return &v, nil
}

// Verify turns a bearer token into a principal. Any defect in the token
// yields nil, never a partial identity.
func (s *AuthService) Verify(token string) *Principal {
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil
	}
	role, ok := models.ParseRole(claims.Role)
	if !ok {
		return nil
	}
	return &Principal{UserID: id, Email: claims.Email, Role: role}
}
