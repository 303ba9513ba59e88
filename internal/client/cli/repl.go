package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Add(ctx context.Context) error
	Delete(ctx context.Context) error
	BatchDelete(ctx context.Context) error
	Favorite(ctx context.Context) error
	Favorites(ctx context.Context) error
	Sync(ctx context.Context) error
	History(ctx context.Context) error
	Status(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL starts a read-eval-print loop for the closetsync CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. The loop exits on scanner EOF
// or when the user types "exit" or "quit".
//
//	Not logged in:
//	  - help           show available commands
//	  - register       create an account
//	  - login          authenticate
//	  - status         node status
//	  - exit | quit    leave the program
//
//	Logged in, additionally:
//	  - list [page] [category]  list images
//	  - add                     add an image file from disk
//	  - delete | rm             delete one image
//	  - batch-delete            delete several images
//	  - fav                     mark an image as favorite
//	  - favs                    list favorites
//	  - sync                    export to the cloud node
//	  - history                 recent sync attempts
//	  - logout                  log out
//
// Errors returned by command handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("closet %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if !a.isLoggedIn() {
			switch cmd {
			case "list", "l", "add", "delete", "rm", "batch-delete", "fav", "favs", "sync", "history", "logout":
				printlnFn("Please log in first")
				continue
			}
		}

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: (l)ist, add, delete, batch-delete, fav, favs, sync, history, status, logout, exit")
			} else {
				printlnFn("Available commands: register, login, status, exit")
			}
		case "register":
			err = a.Register(ctx)
		case "login":
			err = a.Login(ctx)
		case "l", "list":
			err = a.List(ctx, args)
		case "add":
			err = a.Add(ctx)
		case "delete", "rm":
			err = a.Delete(ctx)
		case "batch-delete":
			err = a.BatchDelete(ctx)
		case "fav":
			err = a.Favorite(ctx)
		case "favs":
			err = a.Favorites(ctx)
		case "sync":
			err = a.Sync(ctx)
		case "history":
			err = a.History(ctx)
		case "status":
			err = a.Status(ctx)
		case "logout":
			err = a.Logout(ctx)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}
		if err != nil {
			printlnFn("Error:", err)
		}
	}
}

func (a *App) getStatus() string {
	s := ""
	if a.userName != "" {
		s = a.userName + " "
	}
	if a.Mode != "" {
		s = s + string(a.Mode)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", strings.TrimSpace(s))
	}
	return s
}

// Root runs the REPL on stdin until the user exits or ctx is done.
func (a *App) Root(ctx context.Context, onlineCheckInterval time.Duration) {
	log.Println("Welcome to closetsync CLI (type 'help' for commands)")

	go a.StartOnlineStatusWatcher(ctx, onlineCheckInterval)

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(os.Stdin))
}
