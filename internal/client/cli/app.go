package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/thoughtboard/internal/client/api"
	"github.com/dmitrijs2005/thoughtboard/internal/client/config"
	"github.com/dmitrijs2005/thoughtboard/internal/flagx"
)

// ErrUsage is returned for an unknown command or bad arguments.
var ErrUsage = errors.New("usage error")

// ErrNoToken is returned by commands that need an access token when none
// was configured.
var ErrNoToken = fmt.Errorf("not logged in: pass -token or set %s", config.EnvToken)

// Service is the server API used by the commands.
type Service interface {
	Register(ctx context.Context, username, password string) (*api.User, error)
	Login(ctx context.Context, username, password string) (*api.Token, error)
	PostThought(ctx context.Context, token, content string) (*api.Thought, error)
	ListThoughts(ctx context.Context, skip, limit int) ([]api.Thought, error)
}

type App struct {
	config *config.Config
	client Service
	reader *bufio.Reader
	out    io.Writer
	errOut io.Writer
}

// NewApp builds an App talking to the server named in c.
func NewApp(c *config.Config, in io.Reader, out, errOut io.Writer) *App {
	return newApp(c, api.New(c.ServerURL, c.Timeout), in, out, errOut)
}

func newApp(c *config.Config, s Service, in io.Reader, out, errOut io.Writer) *App {
	return &App{config: c, client: s, reader: bufio.NewReader(in), out: out, errOut: errOut}
}

const usage = `Usage: client [-a URL] [-token TOKEN] [-timeout D] [-c FILE] <command> [args]

Commands:
  register            create an account
  login               print an access token
  post [text...]      publish a thought (reads stdin when no text is given)
  list [-skip N] [-limit N]
                      show recent thoughts
  help                show this message
`

// Run executes the command in args, which excludes the program name.
func (a *App) Run(ctx context.Context, args []string) error {
	rest := positionals(args)
	if len(rest) == 0 {
		fmt.Fprint(a.errOut, usage)
		return ErrUsage
	}

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "register":
		return a.register(ctx)
	case "login":
		return a.login(ctx)
	case "post":
		return a.post(ctx, cmdArgs)
	case "list":
		return a.list(ctx, args)
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		fmt.Fprintf(a.errOut, "Unknown command: %s\n\n%s", cmd, usage)
		return ErrUsage
	}
}

func (a *App) readCredentials() (string, string, error) {
	username, err := GetSimpleText(a.reader, "Enter username", a.errOut)
	if err != nil {
		return "", "", err
	}
	password, err := GetPassword(a.errOut, "Enter password: ")
	if err != nil {
		return "", "", err
	}
	return username, password, nil
}

func (a *App) register(ctx context.Context) error {
	username, password, err := a.readCredentials()
	if err != nil {
		return err
	}
	confirm, err := GetPassword(a.errOut, "Repeat password: ")
	if err != nil {
		return err
	}
	if confirm != password {
		return errors.New("passwords do not match")
	}

	u, err := a.client.Register(ctx, username, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registered %s (id %d)\n", u.Username, u.ID)
	return nil
}

func (a *App) login(ctx context.Context) error {
	username, password, err := a.readCredentials()
	if err != nil {
		return err
	}

	tok, err := a.client.Login(ctx, username, password)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, tok.AccessToken)
	return nil
}

func (a *App) post(ctx context.Context, words []string) error {
	if a.config.Token == "" {
		return ErrNoToken
	}

	content := strings.Join(words, " ")
	if strings.TrimSpace(content) == "" {
		var err error
		content, err = GetMultiline(a.reader, "Enter your thought", a.errOut)
		if err != nil {
			return err
		}
	}

	t, err := a.client.PostThought(ctx, a.config.Token, content)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Posted thought #%d\n", t.ID)
	return nil
}

func (a *App) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	skip := fs.Int("skip", 0, "number of thoughts to skip")
	limit := fs.Int("limit", 0, "page size (server default when 0)")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-skip", "-limit"})); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}

	items, err := a.client.ListThoughts(ctx, *skip, *limit)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No thoughts yet.")
		return nil
	}
	for _, t := range items {
		fmt.Fprintf(a.out, "#%d  %s  %s\n", t.ID, t.CreatedAt.Local().Format("2006-01-02 15:04"), t.Content)
	}
	return nil
}

// positionals returns the non-flag arguments. Every flag takes a value, so
// "-x v" skips both; "--" ends flag processing.
func positionals(args []string) []string {
	var out []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			return append(out, args[i+1:]...)
		case arg == "-h" || arg == "--help":
			out = append(out, arg)
		case strings.HasPrefix(arg, "-") && len(arg) > 1:
			if !strings.Contains(arg, "=") {
				i++
			}
		default:
			out = append(out, arg)
		}
	}
	return out
}
