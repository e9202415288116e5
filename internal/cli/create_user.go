package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mrlokans/secrets/internal/auth"
	"github.com/mrlokans/secrets/internal/config"
	"github.com/mrlokans/secrets/internal/database"
	"github.com/mrlokans/secrets/internal/database/users"
)

// CreateUserCommand registers a local user from the command line.
type CreateUserCommand struct {
	Username     string
	Password     string
	DatabasePath string
	Auth         config.Auth

	In  io.Reader
	Out io.Writer
}

func NewCreateUserCommand() *CreateUserCommand {
	cfg := config.NewConfig()
	return &CreateUserCommand{
		DatabasePath: cfg.Database.Path,
		Auth:         cfg.Auth,
		In:           os.Stdin,
		Out:          os.Stdout,
	}
}

func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)

	fs.StringVar(&cmd.Username, "username", "", "Username of the new account (required)")
	fs.StringVar(&cmd.Password, "password", "", "Password; read from stdin when omitted")
	fs.StringVar(&cmd.DatabasePath, "db", cmd.DatabasePath, "Path to the database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-user [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Register a local user with a password.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s create-user -username alice\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  echo \"$PASSWORD\" | %s create-user -username alice -db ./secrets.db\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" {
		fs.Usage()
		return fmt.Errorf("username is required")
	}

	return nil
}

func (cmd *CreateUserCommand) Run() error {
	password := cmd.Password
	if password == "" {
		line, err := bufio.NewReader(cmd.In).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	verifier := auth.NewLocalVerifier(users.NewRepository(db.DB), cmd.Auth)
	user, err := verifier.Register(context.Background(), cmd.Username, password)
	if errors.Is(err, auth.ErrConflict) {
		return fmt.Errorf("username %q is already taken", cmd.Username)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.Out, "Created user %s (id %s)\n", cmd.Username, user.ID)
	return nil
}
