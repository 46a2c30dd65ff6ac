package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/cinemax/cinemax/internal/config"
)

// Run bootstraps the Cinemax application and dispatches the command.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	deps, err := buildDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	command, rest := args[0], args[1:]
	switch command {
	case "login":
		return runLogin(ctx, deps, rest)
	case "logout":
		return runLogout(ctx, deps)
	case "whoami":
		return runWhoami(deps)
	case "users":
		return runUsers(deps, rest)
	case "add-user":
		return runAddUser(ctx, deps, rest)
	case "toggle-download":
		return runToggleDownload(ctx, deps, rest)
	case "toggle-block":
		return runToggleBlock(ctx, deps, rest)
	case "catalog":
		return runCatalog(deps, rest)
	case "upload":
		return runUpload(ctx, deps, rest)
	case "play":
		return runPlay(ctx, deps, rest)
	case "download":
		return runDownload(ctx, deps, rest)
	case "export":
		return runExport(ctx, deps)
	case "import":
		return runImport(ctx, deps, rest)
	case "reset":
		return runReset(ctx, deps)
	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}
}

const usage = `expected a command:
  login <name> <password>     sign in
  logout                      clear the session
  whoami                      show the active session
  users [query]               list users
  add-user <name> <password>  create an account
  toggle-download <userId>    flip a user's download access
  toggle-block <userId>       block or unblock a user
  catalog [query]             browse the catalog rows
  upload [flags]              publish a movie (see upload -h)
  play <movieId>              resolve a movie for playback
  download <movieId> [dest]   save a movie to disk
  export                      print the sync snapshot
  import [file]               load a sync snapshot (default: stdin)
  reset                       clear all movies and users`

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
