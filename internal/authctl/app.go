// Package authctl implements the operator commands run against the store
// directly, without going through the gRPC API:
//
//	make-admin <email>     promote an account to admin
//	set-password <email>   overwrite a password (prompted twice) and end its sessions
//	purge-tokens           delete expired refresh token records
package authctl

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

const minPasswordLength = 8

var (
	ErrUsage            = errors.New("usage: authctl <make-admin <email> | set-password <email> | purge-tokens> [config flags]")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", minPasswordLength)
)

// Admin is the part of the admin workflow the commands need.
type Admin interface {
	MakeAdmin(ctx context.Context, email string) (bool, error)
	SetPassword(ctx context.Context, email, password string) error
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

type App struct {
	admin  Admin
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(admin Admin, in io.Reader, out io.Writer) *App {
	return &App{admin: admin, reader: bufio.NewReader(in), out: out}
}

// Run executes one command. args are the positional arguments, command
// first.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "make-admin":
		return a.makeAdmin(ctx, rest)
	case "set-password":
		return a.setPassword(ctx, rest)
	case "purge-tokens":
		return a.purgeTokens(ctx)
	case "help", "-h", "--help":
		fmt.Fprintln(a.out, ErrUsage.Error())
		return nil
	}
	return fmt.Errorf("unknown command %q: %w", cmd, ErrUsage)
}

// email takes the address from args or asks for it.
func (a *App) email(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	email, err := GetSimpleText(a.reader, "Enter user email", a.out)
	if err != nil {
		return "", err
	}
	if email == "" {
		return "", ErrUsage
	}
	return email, nil
}

func (a *App) makeAdmin(ctx context.Context, args []string) error {
	email, err := a.email(args)
	if err != nil {
		return err
	}

	promoted, err := a.admin.MakeAdmin(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("no user with email %s", email)
		}
		return err
	}

	if promoted {
		fmt.Fprintf(a.out, "%s is now an admin\n", email)
	} else {
		fmt.Fprintf(a.out, "%s already is an admin\n", email)
	}
	return nil
}

func (a *App) setPassword(ctx context.Context, args []string) error {
	email, err := a.email(args)
	if err != nil {
		return err
	}

	pw, err := GetPassword(a.reader, "New password: ", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	confirm, err := GetPassword(a.reader, "Repeat password: ", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if len(pw) < minPasswordLength {
		return ErrPasswordTooShort
	}
	if !bytes.Equal(pw, confirm) {
		return ErrPasswordMismatch
	}

	if err := a.admin.SetPassword(ctx, email, string(pw)); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("no user with email %s", email)
		}
		return err
	}
	fmt.Fprintf(a.out, "password updated for %s, existing sessions revoked\n", email)
	return nil
}

func (a *App) purgeTokens(ctx context.Context) error {
	n, err := a.admin.PurgeExpiredTokens(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "purged %d expired refresh tokens\n", n)
	return nil
}
