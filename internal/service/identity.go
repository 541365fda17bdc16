package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"sync"

	"github.com/01moynul/fvcommerce-golang/internal/apperr"
	"github.com/01moynul/fvcommerce-golang/internal/models"
	"github.com/01moynul/fvcommerce-golang/internal/store"
	"github.com/rs/zerolog"
)

// bcrypt refuses inputs longer than this many bytes.
const maxPasswordBytes = 72

// RegisterInput defines the JSON for creating an account.
type RegisterInput struct {
	Email    string  `json:"email" form:"email" validate:"required,email,max=255"`
	Username string  `json:"username" form:"username" validate:"required,min=3,max=100"`
	Password string  `json:"password" form:"password" validate:"required,min=8,max=72"`
	FullName *string `json:"full_name" form:"full_name" validate:"omitempty,max=255"`
	Phone    *string `json:"phone" form:"phone" validate:"omitempty,max=50"`
	Address  *string `json:"address" form:"address" validate:"omitempty,max=2000"`
	Role     string  `json:"role" form:"role" validate:"omitempty,oneof=user admin"`
	AdminKey string  `json:"admin_key" form:"admin_key"`
}

func (in *RegisterInput) Validate() error {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	in.FullName = trimPtr(in.FullName)
	in.Phone = trimPtr(in.Phone)
	in.Address = trimPtr(in.Address)

	if err := validateStruct(in); err != nil {
		return err
	}
	if len(in.Password) > maxPasswordBytes {
		return apperr.Validation("password must be at most 72 bytes")
	}
	if strings.ContainsAny(in.Username, " \t\r\n@") {
		return apperr.Validation("username must not contain spaces or '@'")
	}
	return nil
}

// Identity registers and authenticates users and resolves bearer identities.
type Identity struct {
	store    store.Store
	adminKey string
	log      zerolog.Logger

	// dummyHash is compared against when the user does not exist, so unknown
	// users take as long to reject as wrong passwords.
	dummyHash func() string
}

func newIdentity(st store.Store, adminKey string, log zerolog.Logger) *Identity {
	return &Identity{
		store:    st,
		adminKey: adminKey,
		log:      log,
		dummyHash: sync.OnceValue(func() string {
			var p models.Password
			_ = p.Set("not-a-real-password")
			return p.Hash
		}),
	}
}

// Register creates a user. role=admin requires the configured admin key.
func (s *Identity) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	// 1. --- Validate Input ---
	if err := in.Validate(); err != nil {
		return nil, err
	}
	role, err := models.ParseRole(in.Role)
	if err != nil {
		return nil, apperr.Validation("role must be one of: user admin")
	}
	if role == models.RoleAdmin && !s.adminKeyMatches(in.AdminKey) {
		return nil, apperr.Forbidden("admin registration not permitted")
	}

	// 2. --- Hash Password ---
	var pw models.Password
	if err := pw.Set(in.Password); err != nil {
		return nil, apperr.Internal(err)
	}

	// 3. --- Persist ---
	user := &models.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: pw.Hash,
		FullName:     in.FullName,
		Phone:        in.Phone,
		Address:      in.Address,
		Role:         role,
		IsActive:     true,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", user.ID).Str("role", string(role)).Msg("user registered")
	return user, nil
}

func (s *Identity) adminKeyMatches(key string) bool {
	if s.adminKey == "" || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.adminKey), []byte(key)) == 1
}

var errBadCredentials = apperr.Unauthorized("incorrect username or password")

// Authenticate checks a username-or-email and password pair. Unknown users
// and wrong passwords fail identically.
func (s *Identity) Authenticate(ctx context.Context, identifier, password string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, apperr.Validation("username and password are required")
	}

	user, err := s.lookup(ctx, identifier)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		pw := models.Password{Hash: s.dummyHash()}
		_, _ = pw.Matches(password)
		return nil, errBadCredentials
	}

	pw := models.Password{Hash: user.PasswordHash}
	ok, err := pw.Matches(password)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		return nil, errBadCredentials
	}

	if !user.IsActive {
		return nil, apperr.Forbidden("inactive user")
	}
	return user, nil
}

// lookup tries the identifier as a username first, then as an email.
func (s *Identity) lookup(ctx context.Context, identifier string) (*models.User, error) {
	user, err := s.store.GetUserByUsername(ctx, identifier)
	if err == nil || !errors.Is(err, apperr.ErrNotFound) || !strings.Contains(identifier, "@") {
		return user, err
	}
	return s.store.GetUserByEmail(ctx, strings.ToLower(identifier))
}

// ResolveUser maps the subject of a verified token to an active user.
func (s *Identity) ResolveUser(ctx context.Context, username string) (*models.User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Unauthorized("could not validate credentials")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.Forbidden("inactive user")
	}
	return user, nil
}

// RequireRole fails with Forbidden unless user holds (or outranks) role.
func RequireRole(user *models.User, role models.Role) error {
	if user == nil {
		return apperr.Unauthorized("not authenticated")
	}
	if !user.Role.Satisfies(role) {
		return apperr.Forbidden("not enough permissions")
	}
	return nil
}

// ListUsers is the admin view of every account.
func (s *Identity) ListUsers(ctx context.Context, page Page) ([]models.User, error) {
	page, err := page.normalize(userPageSize)
	if err != nil {
		return nil, err
	}
	return s.store.ListUsers(ctx, page.Offset, page.Limit)
}
