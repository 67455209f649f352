package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"
	"github.com/worldtrek/warden/internal/database/service"
	"go.uber.org/zap"
)

// StaffCommands returns the staff credential commands.
func StaffCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "staff",
			Usage: "Manage staff credentials",
			Commands: []*cli.Command{
				{
					Name:      "grant",
					Usage:     "Mark a user as staff and issue a new credential",
					ArgsUsage: "USER_ID",
					Action:    handleStaffCredential(deps, true),
				},
				{
					Name:      "revoke",
					Usage:     "Remove staff rights and invalidate the credential",
					ArgsUsage: "USER_ID",
					Action:    handleStaffCredential(deps, false),
				},
			},
		},
	}
}

func handleStaffCredential(deps *CLIDependencies, grant bool) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() != 1 {
			return ErrUserIDRequired
		}

		userID, err := strconv.ParseInt(c.Args().First(), 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrUserIDRequired, err)
		}

		if !grant {
			if err := deps.DB.Model().User().SetStaffCredential(ctx, userID, "", false); err != nil {
				return err
			}

			deps.Logger.Info("Revoked staff credential", zap.Int64("user_id", userID))
			return nil
		}

		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("failed to generate credential: %w", err)
		}
		credential := base64.RawURLEncoding.EncodeToString(secret)

		if err := deps.DB.Model().User().SetStaffCredential(ctx, userID, service.HashSecret(credential), true); err != nil {
			return err
		}

		deps.Logger.Info("Granted staff credential", zap.Int64("user_id", userID))
		fmt.Println(credential)

		return nil
	}
}
