// Package cli is the interactive terminal client: a read-eval-print loop over
// the auth procedures whose prompt and messages follow the session state.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spec-kit/user-registry/internal/client"
	"github.com/spec-kit/user-registry/internal/session"
	apperrors "github.com/spec-kit/user-registry/pkg/util"
)

// App is one terminal client with its own session.
type App struct {
	flow   *client.Flow
	reader *bufio.Reader
	out    io.Writer
	fd     int
}

// NewApp builds an App reading commands from in and writing to out. fd is the
// descriptor checked for a terminal when prompting for passwords.
func NewApp(flow *client.Flow, in io.Reader, fd int, out io.Writer) *App {
	return &App{flow: flow, reader: bufio.NewReader(in), out: out, fd: fd}
}

// Run processes commands until quit or end of input.
func (a *App) Run(ctx context.Context) error {
	unsubscribe := a.flow.Session().Subscribe(a.render)
	defer unsubscribe()

	a.printf("Type 'help' for commands.\n")
	for {
		a.printf("%s> ", a.prompt())
		line, err := a.reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := err != nil

		fields := strings.Fields(line)
		if len(fields) > 0 {
			if quit := a.dispatch(ctx, fields[0]); quit {
				return nil
			}
		}
		if eof {
			a.printf("\n")
			return nil
		}
	}
}

func (a *App) dispatch(ctx context.Context, cmd string) (quit bool) {
	var err error
	switch cmd {
	case "help":
		a.help()
	case "register":
		err = a.Register(ctx)
	case "login":
		err = a.Login(ctx)
	case "logout":
		a.flow.SignOut()
	case "whoami":
		err = a.WhoAmI(ctx)
	case "users":
		err = a.Users(ctx)
	case "quit", "exit":
		a.printf("Bye!\n")
		return true
	default:
		a.printf("Unknown command: %s\n", cmd)
	}
	if err != nil {
		a.printError(err)
	}
	return false
}

// Register prompts for name, email and password and creates an account.
func (a *App) Register(ctx context.Context) error {
	name, err := GetSimpleText(a.reader, "Name", a.out)
	if err != nil {
		return err
	}
	email, err := GetSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.reader, a.fd, a.out)
	if err != nil {
		return err
	}

	out, err := a.flow.SignUp(ctx, name, email, password)
	if err != nil {
		return err
	}
	a.printf("%s: %s <%s>\n", out.Message, out.User.Name, out.User.Email)
	return nil
}

// Login prompts for credentials and signs the session in.
func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.reader, a.fd, a.out)
	if err != nil {
		return err
	}
	_, err = a.flow.SignIn(ctx, email, password)
	return err
}

// WhoAmI prints the user the server associates with the session token.
func (a *App) WhoAmI(ctx context.Context) error {
	user, err := a.flow.WhoAmI(ctx)
	if err != nil {
		return err
	}
	a.printf("%s <%s> (%s)\n", user.Name, user.Email, user.ID)
	return nil
}

// Users prints every registered user.
func (a *App) Users(ctx context.Context) error {
	users, err := a.flow.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		a.printf("No users yet.\n")
		return nil
	}
	for _, u := range users {
		a.printf("  %s  %s <%s>\n", u.ID, u.Name, u.Email)
	}
	return nil
}

func (a *App) render(st session.State) {
	if st.IsAuthenticated() {
		a.printf("Signed in as %s <%s>\n", st.CurrentUser.Name, st.CurrentUser.Email)
		return
	}
	a.printf("Signed out\n")
}

func (a *App) prompt() string {
	st := a.flow.Session().State()
	if st.IsAuthenticated() {
		return st.CurrentUser.Email
	}
	return string(session.StatusAnonymous)
}

func (a *App) help() {
	if a.flow.Session().IsAuthenticated() {
		a.printf("Commands: whoami, users, logout, quit\n")
		return
	}
	a.printf("Commands: register, login, users, quit\n")
}

func (a *App) printError(err error) {
	var derr *apperrors.DomainError
	if !errors.As(err, &derr) {
		a.printf("error: %v\n", err)
		return
	}
	a.printf("%s: %s\n", derr.Code, derr.Message)
	fields := make([]string, 0, len(derr.Fields))
	for field := range derr.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		a.printf("  %s: %s\n", field, derr.Fields[field])
	}
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
