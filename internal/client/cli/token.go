package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/timecapsule/internal/server/auth"
)

const secretEnv = "JWT_SECRET"

// Token mints a bearer token signed with the server's secret.
func (a *App) Token(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	userID := fs.String("user", "", "user id to put into the token")
	ttl := fs.Duration("ttl", 24*time.Hour, "token validity")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*userID) == "" {
		return errors.New("token: -user is required")
	}
	if _, err := uuid.Parse(*userID); err != nil {
		return fmt.Errorf("token: -user must be a uuid: %w", err)
	}
	if *ttl <= 0 {
		return fmt.Errorf("token: -ttl must be positive, got %s", *ttl)
	}

	secret := []byte(getenv(secretEnv))
	if len(secret) == 0 {
		var err error
		secret, err = GetSecret("Enter JWT secret", a.out)
		if err != nil {
			return fmt.Errorf("token: read secret: %w", err)
		}
		defer clear(secret)
	}
	if len(secret) == 0 {
		return errors.New("token: secret is empty")
	}

	tok, err := auth.GenerateToken(*userID, secret, *ttl)
	if err != nil {
		return fmt.Errorf("token: %w", err)
	}

	_, err = fmt.Fprintln(a.out, tok)
	return err
}
