package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/worldtrek/warden/internal/database/models"
	"github.com/worldtrek/warden/internal/database/types"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// StaffService resolves staff identities from account secrets.
type StaffService struct {
	model  *models.UserModel
	logger *zap.Logger
}

// NewStaff creates a new staff service.
func NewStaff(model *models.UserModel, logger *zap.Logger) *StaffService {
	return &StaffService{
		model:  model,
		logger: logger.Named("staff_service"),
	}
}

// HashSecret returns the stored form of an account secret.
func HashSecret(secret string) string {
	sum := blake2b.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// ResolveStaffIdentity looks up the account owning the credential.
// Returns types.ErrInvalidCredential when no account matches. The caller decides what IsStaff means.
func (s *StaffService) ResolveStaffIdentity(ctx context.Context, credential string) (*types.StaffIdentity, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, types.ErrInvalidCredential
	}

	user, err := s.model.GetBySecretHash(ctx, HashSecret(credential))
	if err != nil {
		if errors.Is(err, types.ErrUserNotFound) {
			return nil, types.ErrInvalidCredential
		}
		return nil, fmt.Errorf("failed to resolve staff identity: %w", err)
	}

	if !user.IsStaff {
		s.logger.Warn("Non-staff credential used for moderation",
			zap.Int64("user_id", user.ID))
	}

	return &types.StaffIdentity{
		ID:       user.ID,
		Username: user.Username,
		IsStaff:  user.IsStaff,
	}, nil
}
