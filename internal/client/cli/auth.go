package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/closetsync/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for a username, email and password and creates a local
// account. The cloud account is created in the background.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.auth.Register(ctx, userName, email, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered %s (%s)\n", user.Username, user.ID)
	return nil
}

// Login prompts for credentials and remembers the user for later commands.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, _, err := a.auth.Login(ctx, userName, password)
	if err != nil {
		return err
	}

	a.userID, a.userName = user.ID, user.Username
	fmt.Fprintf(a.out, "Logged in as %s\n", user.Username)
	return nil
}

// Logout forgets the current user.
func (a *App) Logout(ctx context.Context) error {
	a.userID, a.userName = "", ""
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func printKV(w io.Writer, kv ...any) {
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(w, "  %-14s %v\n", fmt.Sprint(kv[i])+":", kv[i+1])
	}
}
