package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/secrets/internal/auth"
	"github.com/mrlokans/secrets/internal/config"
	"github.com/mrlokans/secrets/internal/database"
	"github.com/mrlokans/secrets/internal/scheduler"
	"github.com/mrlokans/secrets/internal/tokenstore"
)

// SweepSessionsCommand deletes expired sessions and provider tokens once.
type SweepSessionsCommand struct {
	DatabasePath  string
	EncryptionKey string

	Out io.Writer
}

func NewSweepSessionsCommand() *SweepSessionsCommand {
	cfg := config.NewConfig()
	return &SweepSessionsCommand{
		DatabasePath:  cfg.Database.Path,
		EncryptionKey: cfg.TokenStore.EncryptionKey,
		Out:           os.Stdout,
	}
}

func (cmd *SweepSessionsCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("sweep-sessions", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", cmd.DatabasePath, "Path to the database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s sweep-sessions [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Delete expired sessions. Expired provider tokens are deleted too when TOKEN_ENCRYPTION_KEY is set.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *SweepSessionsCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	if err := auth.EnsureSessionsTable(sqlDB); err != nil {
		return err
	}

	targets := []scheduler.Target{{
		Name:  "sessions",
		Sweep: func(ctx context.Context) (int64, error) { return auth.SweepExpiredSessions(ctx, sqlDB) },
	}}
	if cmd.EncryptionKey != "" {
		tokens, err := tokenstore.NewFromKey(db.DB, cmd.EncryptionKey)
		if err != nil {
			return err
		}
		targets = append(targets, scheduler.Target{Name: "provider tokens", Sweep: tokens.DeleteExpired})
	}

	var failed error
	for _, result := range scheduler.Sweep(context.Background(), targets...) {
		if result.Err != nil {
			failed = result.Err
			fmt.Fprintf(cmd.Out, "%s: %v\n", result.Name, result.Err)
			continue
		}
		fmt.Fprintf(cmd.Out, "%s: deleted %d\n", result.Name, result.Deleted)
	}
	return failed
}
