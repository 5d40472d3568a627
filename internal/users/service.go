package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"jobboard-backend/internal/shared/apperr"
	"jobboard-backend/internal/shared/auth"
	"jobboard-backend/internal/shared/identity"
	"jobboard-backend/internal/shared/validation"
)

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Sign(userID, email string, role identity.Role) (string, error)
}

type Service struct {
	Repo   Repo
	Tokens TokenIssuer
}

func NewService(repo Repo, tokens TokenIssuer) *Service {
	return &Service{Repo: repo, Tokens: tokens}
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Name     string        `json:"name" validate:"required,min=2,max=50"`
	Email    string        `json:"email" validate:"required,email,max=254"`
	Password string        `json:"password" validate:"required,min=6,max=128"`
	Role     identity.Role `json:"role" validate:"omitempty,oneof=job_seeker employer"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is a user plus the token that authenticates them.
type Session struct {
	User  User
	Token string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if in.Role == "" {
		in.Role = identity.RoleJobSeeker
	}
	if fields := validation.Struct(in); len(fields) > 0 {
		return Session{}, apperr.Validation(fields...)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return Session{}, err
	}
	user := User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return Session{}, apperr.Conflict("email already registered")
		}
		return Session{}, apperr.Unavailable("failed to create user", err)
	}
	created, err := s.Repo.GetByID(ctx, user.ID)
	if err != nil {
		created = user
	}
	return s.session(created)
}

func (s *Service) Login(ctx context.Context, in LoginInput) (Session, error) {
	in.Email = normalizeEmail(in.Email)
	if fields := validation.Struct(in); len(fields) > 0 {
		return Session{}, apperr.Validation(fields...)
	}
	user, err := s.Repo.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, apperr.Unauthorized("invalid email or password")
		}
		return Session{}, apperr.Unavailable("failed to load user", err)
	}
	if user.PasswordHash == "" {
		return Session{}, apperr.Unauthorized("invalid email or password")
	}
	if err := auth.CheckPassword(user.PasswordHash, in.Password); err != nil {
		return Session{}, apperr.Unauthorized("invalid email or password")
	}
	return s.session(user)
}

// SignInExternal finds the user with the verified email or registers a new
// job seeker for it.
func (s *Service) SignInExternal(ctx context.Context, email, name, subject string) (Session, error) {
	email = normalizeEmail(email)
	if email == "" || strings.TrimSpace(subject) == "" {
		return Session{}, apperr.Validation(apperr.Field("email", "verified email is required"))
	}
	user, err := s.Repo.GetByEmail(ctx, email)
	if err == nil {
		return s.session(user)
	}
	if !errors.Is(err, ErrNotFound) {
		return Session{}, apperr.Unavailable("failed to load user", err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	user = User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Role:      identity.RoleJobSeeker,
		GoogleSub: subject,
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			// Lost a race with a concurrent sign-in for the same email.
			existing, getErr := s.Repo.GetByEmail(ctx, email)
			if getErr == nil {
				return s.session(existing)
			}
		}
		return Session{}, apperr.Unavailable("failed to create user", err)
	}
	return s.session(user)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if strings.TrimSpace(userID) == "" {
		return User{}, apperr.Unauthorized("missing identity")
	}
	user, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, apperr.NotFound("user not found")
		}
		return User{}, apperr.Unavailable("failed to load user", err)
	}
	return user, nil
}

// Summaries resolves many user ids in one lookup. Unknown ids are omitted.
func (s *Service) Summaries(ctx context.Context, userIDs []string) (map[string]Summary, error) {
	ids := dedupe(userIDs)
	if len(ids) == 0 {
		return map[string]Summary{}, nil
	}
	out, err := s.Repo.GetSummaries(ctx, ids)
	if err != nil {
		return nil, apperr.Unavailable("failed to load users", err)
	}
	return out, nil
}

func (s *Service) session(user User) (Session, error) {
	if s.Tokens == nil {
		return Session{}, errors.New("token issuer not configured")
	}
	token, err := s.Tokens.Sign(user.ID, user.Email, user.Role)
	if err != nil {
		return Session{}, err
	}
	return Session{User: user, Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
