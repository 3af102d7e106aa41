package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"bossai/internal/domain"
	"bossai/internal/infra"
	"bossai/internal/sqlinline"
)

func main() {
	var (
		userFlag   string
		roleFlag   string
		unlockFlag bool
	)

	flag.StringVar(&userFlag, "user", "", "username of the account to manage")
	flag.StringVar(&roleFlag, "role", "", "role to assign (USER or ADMIN)")
	flag.BoolVar(&unlockFlag, "unlock", false, "clear failed login attempts and reactivate the account")
	flag.Parse()

	username := strings.TrimSpace(userFlag)
	role := strings.TrimSpace(strings.ToUpper(roleFlag))

	if username == "" {
		exitWithError(errors.New("-user is required"))
	}
	if role == "" && !unlockFlag {
		exitWithError(errors.New("nothing to do: provide -role or -unlock"))
	}
	if role != "" {
		switch domain.UserRole(role) {
		case domain.UserRoleUser, domain.UserRoleAdmin:
		default:
			exitWithError(fmt.Errorf("unsupported role %q", roleFlag))
		}
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "userrole").Logger()
	runner := infra.NewSQLRunner(pool, logger)

	if role != "" {
		updateCtx, cancelUpdate := context.WithTimeout(context.Background(), 5*time.Second)
		row := runner.QueryRow(updateCtx, sqlinline.QSetUserRole, username, role)
		var (
			id          string
			updatedRole string
		)
		scanErr := row.Scan(&id, &updatedRole)
		cancelUpdate()
		if scanErr != nil {
			if infra.IsNoRows(scanErr) {
				exitWithError(fmt.Errorf("no user with username %q", username))
			}
			exitWithError(fmt.Errorf("failed to update role: %w", scanErr))
		}
		fmt.Printf("User %s (%s) role set to %s\n", username, id, updatedRole)
	}

	if unlockFlag {
		unlockCtx, cancelUnlock := context.WithTimeout(context.Background(), 5*time.Second)
		row := runner.QueryRow(unlockCtx, sqlinline.QUnlockUser, username)
		var id string
		scanErr := row.Scan(&id)
		cancelUnlock()
		if scanErr != nil {
			if infra.IsNoRows(scanErr) {
				exitWithError(fmt.Errorf("no user with username %q", username))
			}
			exitWithError(fmt.Errorf("failed to unlock user: %w", scanErr))
		}
		fmt.Printf("User %s (%s) unlocked\n", username, id)
	}
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
