package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

var errUsage = errors.New("usage: capsulectl <token|health> [flags]")

// getenv is a test seam for os.Getenv.
var getenv = os.Getenv

type App struct {
	out io.Writer
}

func NewApp(out io.Writer) *App {
	return &App{out: out}
}

// Run executes the command named by args[0].
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "token":
		return a.Token(ctx, args[1:])
	case "health":
		return a.Health(ctx, args[1:])
	case "help", "-h", "--help":
		_, err := fmt.Fprintln(a.out, errUsage.Error())
		return err
	default:
		return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
	}
}
