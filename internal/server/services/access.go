package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sheetkeeper/internal/common"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/auth"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/models"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/repositories/characters"
)

// Grant is the edit capability issued after a successful password check.
type Grant struct {
	Token     string
	ExpiresAt time.Time
}

// AccessService decides whether a caller may edit a record.
type AccessService struct {
	characters characters.Repository
	secret     []byte
	validity   time.Duration
	now        func() time.Time
}

func NewAccessService(chars characters.Repository, secret string, validity time.Duration) *AccessService {
	return &AccessService{
		characters: chars,
		secret:     []byte(secret),
		validity:   validity,
		now:        time.Now,
	}
}

// load reads the record for an access decision. Records not yet migrated off
// their legacy key still carry a password, so they are consulted too.
func (s *AccessService) load(ctx context.Context, id string) (*models.Character, error) {
	c, err := s.characters.Get(ctx, id)
	if errors.Is(err, common.ErrNotFound) && characters.ValidID(id) {
		c, err = s.characters.GetRaw(ctx, s.characters.LegacyKey(id))
	}
	if errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrAuthCheckFailed, err)
	}
	return c, nil
}

// Verify checks submitted against the record's password. Records without a
// password are open to everyone.
func (s *AccessService) Verify(ctx context.Context, id, submitted string) (*Grant, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.HasPassword() && subtle.ConstantTimeCompare([]byte(c.Password), []byte(submitted)) != 1 {
		return nil, common.ErrDenied
	}

	token, exp, err := auth.GenerateEditToken(id, s.secret, s.validity, s.now())
	if err != nil {
		return nil, fmt.Errorf("%w: sign token: %w", common.ErrAuthCheckFailed, err)
	}
	return &Grant{Token: token, ExpiresAt: exp}, nil
}

// Guard allows an edit on id when the record has no password or token is a
// live edit token for that same id.
func (s *AccessService) Guard(ctx context.Context, id, token string) error {
	c, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !c.HasPassword() {
		return nil
	}

	if token == "" {
		return common.ErrDenied
	}
	claims, err := auth.ParseEditToken(token, s.secret)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrDenied, err)
	}
	if !claims.Allows(id) {
		return common.ErrDenied
	}
	return nil
}
