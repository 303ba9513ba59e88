package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	failSync bool

	calls    []string
	listArgs []string
}

func (f *fakeExec) record(name string) error {
	f.calls = append(f.calls, name)
	return nil
}

func (f *fakeExec) isLoggedIn() bool                     { return f.loggedIn }
func (f *fakeExec) Register(ctx context.Context) error    { return f.record("register") }
func (f *fakeExec) Add(ctx context.Context) error         { return f.record("add") }
func (f *fakeExec) Delete(ctx context.Context) error      { return f.record("delete") }
func (f *fakeExec) BatchDelete(ctx context.Context) error { return f.record("batch-delete") }
func (f *fakeExec) Favorite(ctx context.Context) error    { return f.record("fav") }
func (f *fakeExec) Favorites(ctx context.Context) error   { return f.record("favs") }
func (f *fakeExec) History(ctx context.Context) error     { return f.record("history") }
func (f *fakeExec) Status(ctx context.Context) error      { return f.record("status") }

func (f *fakeExec) Login(ctx context.Context) error {
	f.loggedIn = true
	return f.record("login")
}

func (f *fakeExec) Logout(ctx context.Context) error {
	f.loggedIn = false
	return f.record("logout")
}

func (f *fakeExec) List(ctx context.Context, args []string) error {
	f.listArgs = args
	return f.record("list")
}

func (f *fakeExec) Sync(ctx context.Context) error {
	_ = f.record("sync")
	if f.failSync {
		return errors.New("cloud down")
	}
	return nil
}

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSpace(fmt.Sprintln(a...)))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	out := captureOutput(t)

	input := strings.NewReader(strings.Join([]string{
		"help",
		"list",
		"login",
		"help",
		"add",
		"l 2 subject",
		"fav",
		"favs",
		"rm",
		"batch-delete",
		"sync",
		"history",
		"status",
		"foobar",
		"logout",
		"sync",
		"exit",
		"list",
	}, "\n"))

	exec := &fakeExec{failSync: true}
	runREPL(context.Background(), exec, func() string { return "status" }, bufio.NewScanner(input))

	assert.Equal(t, []string{
		"login", "add", "list", "fav", "favs", "delete", "batch-delete",
		"sync", "history", "status", "logout",
	}, exec.calls)
	assert.Equal(t, []string{"2", "subject"}, exec.listArgs)

	joined := strings.Join(*out, "\n")
	assert.Contains(t, joined, "Available commands: register, login, status, exit")
	assert.Contains(t, joined, "Please log in first")
	assert.Contains(t, joined, "Error: cloud down")
	assert.Contains(t, joined, "Unknown command: foobar")
	assert.Contains(t, joined, "Bye!")
}

func TestRunREPL_EOFStops(t *testing.T) {
	captureOutput(t)

	exec := &fakeExec{loggedIn: true}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewScanner(strings.NewReader("\n\nstatus")))

	assert.Equal(t, []string{"status"}, exec.calls)
}

func TestGetStatus(t *testing.T) {
	a := &App{}
	assert.Equal(t, "", a.getStatus())

	a.userName = "alice"
	assert.Equal(t, "(alice)", a.getStatus())

	a.Mode = ModeOnline
	assert.Equal(t, "(alice online)", a.getStatus())
}
