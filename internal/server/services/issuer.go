// Package services contains server-side business logic. This file implements
// IssuerService: authenticating credentials, minting access/renewal token
// pairs, rotating renewal tokens on refresh, and revoking them on logout.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
	"github.com/dmitrijs2005/tokenkeeper/internal/dbx"
	"github.com/dmitrijs2005/tokenkeeper/internal/logging"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/auth"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/config"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/models"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TokenPair bundles a short-lived access token, its absolute expiry, and a
// long-lived renewal token.
type TokenPair struct {
	AccessToken  string
	RenewalToken string
	ExpiresAt    time.Time
}

// renewalTokenBytes is the entropy of an opaque renewal token; the wire
// form is twice as many hex characters.
const renewalTokenBytes = 32

// dummyHash is compared against when the login is unknown so that missing
// and wrong-password logins take comparable time.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// IssuerService provides the issuance protocol:
//   - Login: verify credentials and mint a token pair
//   - Refresh: redeem-and-rotate a renewal token, mint a new pair
//   - Logout: revoke a renewal token (idempotent)
//   - Validate: verify an access token and return the caller's identity
//
// All authentication failures collapse into common.ErrorUnauthorized at
// this boundary; the underlying cause is logged for operators only.
type IssuerService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	codec           *auth.Codec
	accessTokenTTL  time.Duration
	renewalTokenTTL time.Duration
	logger          logging.Logger
}

// now is a test seam.
var now = time.Now

// NewIssuerService constructs an IssuerService from repositories, the token
// codec, and server config.
func NewIssuerService(db *sql.DB, m repomanager.RepositoryManager, codec *auth.Codec, cfg *config.Config, logger logging.Logger) *IssuerService {
	return &IssuerService{
		db:              db,
		repomanager:     m,
		codec:           codec,
		accessTokenTTL:  cfg.AccessTokenTTL,
		renewalTokenTTL: cfg.RenewalTokenTTL,
		logger:          logger.With("module", "issuer"),
	}
}

// Register creates a new user with a bcrypt-hashed password.
func (s *IssuerService) Register(ctx context.Context, login, password, role string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.Create(ctx, &models.User{
		Login:        login,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return user, nil
}

// Login verifies the provided credentials and, on success, returns a fresh
// token pair rooted in a brand-new rotation lineage. The failure is the
// same regardless of whether the login, the password, or the active flag
// was at fault.
func (s *IssuerService) Login(ctx context.Context, login, password string) (*TokenPair, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			s.logger.Info(ctx, "login rejected", "reason", "unknown login")
			return nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "login lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info(ctx, "login rejected", "reason", "password mismatch", "subject", user.ID)
		return nil, common.ErrorUnauthorized
	}

	if !user.Active {
		s.logger.Info(ctx, "login rejected", "reason", "inactive account", "subject", user.ID)
		return nil, common.ErrorUnauthorized
	}

	pair, err := s.generateTokenPair(ctx, user, uuid.NewString(), s.db)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "token pair issued", "subject", user.ID)
	return pair, nil
}

// Refresh redeems the presented renewal token and rotates it: the old
// record is revoked and a replacement is minted atomically with respect to
// concurrent refresh attempts. Redeeming an already-revoked token is
// treated as replay: the whole lineage is revoked and the caller gets the
// same generic failure as any other bad token.
func (s *IssuerService) Refresh(ctx context.Context, renewalToken string) (*TokenPair, error) {
	var pair *TokenPair

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.RenewalTokens(tx)

		rec, err := repo.Redeem(ctx, renewalToken)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return errDeadRenewalToken
			}
			return fmt.Errorf("error redeeming renewal token: %w", err)
		}

		user, err := s.repomanager.Users(tx).GetUserByID(ctx, rec.UserID)
		if err != nil {
			return fmt.Errorf("error loading subject: %w", err)
		}
		if !user.Active {
			s.logger.Info(ctx, "refresh rejected", "reason", "inactive account", "subject", user.ID)
			return common.ErrorUnauthorized
		}

		pair, err = s.generateTokenPair(ctx, user, rec.LineageID, tx)
		return err
	})

	if err != nil {
		switch {
		case errors.Is(err, errDeadRenewalToken):
			// Outside the transaction so a lineage revocation is not
			// rolled back together with the failed redemption.
			s.handleDeadToken(ctx, renewalToken)
			return nil, common.ErrorUnauthorized
		case errors.Is(err, common.ErrorUnauthorized):
			return nil, common.ErrorUnauthorized
		default:
			s.logger.Error(ctx, "refresh failed", "error", err)
			return nil, common.ErrorInternal
		}
	}

	return pair, nil
}

// errDeadRenewalToken aborts the refresh transaction when the presented
// token could not be redeemed; classification happens afterwards.
var errDeadRenewalToken = errors.New("renewal token not redeemable")

// handleDeadToken classifies a failed redemption. Every path ends in the
// same generic failure for the caller; they differ only in what gets
// logged and whether the lineage is taken down.
func (s *IssuerService) handleDeadToken(ctx context.Context, renewalToken string) {
	repo := s.repomanager.RenewalTokens(s.db)

	prev, err := repo.Find(ctx, renewalToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Info(ctx, "refresh rejected", "reason", "unknown renewal token")
		} else {
			s.logger.Error(ctx, "renewal token inspection failed", "error", err)
		}
		return
	}

	if prev.Revoked {
		// Security event: a consumed token came back. Whoever holds the
		// live descendant can no longer use it either.
		s.logger.Warn(ctx, "renewal token replay detected, revoking lineage",
			"error", common.ErrReplayDetected, "subject", prev.UserID, "lineage", prev.LineageID)
		if err := repo.RevokeLineage(ctx, prev.LineageID); err != nil {
			s.logger.Error(ctx, "lineage revocation failed", "error", err, "lineage", prev.LineageID)
		}
		return
	}

	s.logger.Info(ctx, "refresh rejected",
		"reason", common.ErrRenewalTokenExpired.Error(), "subject", prev.UserID)
}

// Logout revokes the named renewal token. Revoking an unknown or already
// revoked token is not an error.
func (s *IssuerService) Logout(ctx context.Context, renewalToken string) error {
	repo := s.repomanager.RenewalTokens(s.db)
	if err := repo.Revoke(ctx, renewalToken); err != nil {
		s.logger.Error(ctx, "logout revoke failed", "error", err)
		return common.ErrorInternal
	}
	return nil
}

// Validate verifies an access token and returns the embedded identity.
// Codec-level outcomes (malformed, bad signature, expired) are logged and
// collapsed into common.ErrorUnauthorized.
func (s *IssuerService) Validate(ctx context.Context, accessToken string) (*auth.Identity, error) {
	id, err := s.codec.Verify(accessToken)
	if err != nil {
		s.logger.Info(ctx, "token rejected", "reason", err.Error())
		return nil, common.ErrorUnauthorized
	}
	return id, nil
}

// --- helpers below ---

func (s *IssuerService) generateTokenPair(ctx context.Context, user *models.User, lineageID string, tx dbx.DBTX) (*TokenPair, error) {
	access, expiresAt, err := s.codec.Mint(user.ID, user.Role, s.accessTokenTTL)
	if err != nil {
		s.logger.Error(ctx, "access token mint failed", "error", err)
		return nil, common.ErrorInternal
	}

	renewal, err := common.MakeRandHexString(renewalTokenBytes)
	if err != nil {
		s.logger.Error(ctx, "renewal token generation failed", "error", err)
		return nil, common.ErrorInternal
	}

	issuedAt := now()
	repo := s.repomanager.RenewalTokens(tx)
	err = repo.Create(ctx, &models.RenewalToken{
		ID:        uuid.NewString(),
		Token:     renewal,
		UserID:    user.ID,
		LineageID: lineageID,
		CreatedAt: issuedAt,
		ExpiresAt: issuedAt.Add(s.renewalTokenTTL),
	})
	if err != nil {
		s.logger.Error(ctx, "renewal token persist failed", "error", err)
		return nil, common.ErrorInternal
	}

	return &TokenPair{AccessToken: access, RenewalToken: renewal, ExpiresAt: expiresAt}, nil
}
