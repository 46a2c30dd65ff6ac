package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/cinemax/cinemax/internal/catalog"
	"github.com/cinemax/cinemax/internal/models"
	"github.com/cinemax/cinemax/internal/upload"
)

func runLogin(ctx context.Context, deps *Dependencies, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: login <name> <password>")
	}

	user, err := deps.Auth.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}

	fmt.Printf("signed in as %s (%s)\n", user.Name, user.Role)
	return nil
}

func runLogout(ctx context.Context, deps *Dependencies) error {
	if err := deps.Auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("signed out")
	return nil
}

func runWhoami(deps *Dependencies) error {
	session := deps.Auth.Current()
	if !session.IsAuthenticated || session.User == nil {
		fmt.Println("not signed in")
		return nil
	}
	fmt.Printf("%s (%s) last login %s\n", session.User.Name, session.User.Role, session.User.LastLogin)
	return nil
}

func runUsers(deps *Dependencies, args []string) error {
	users := deps.Catalog.Users()
	if len(args) > 0 {
		users = catalog.FilterUsers(users, args[0])
	}

	for _, u := range users {
		status := "active"
		if u.IsBlocked {
			status = "blocked"
		}
		download := "no-download"
		if u.CanDownload {
			download = "download"
		}
		fmt.Printf("%s\t%s\t%s\t%s\t%s\tlast login %s\n", u.ID, u.Name, u.Role, status, download, u.LastLogin)
	}
	return nil
}

func runAddUser(ctx context.Context, deps *Dependencies, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: add-user <name> <password>")
	}
	if args[0] == "" || args[1] == "" {
		return errors.New("name and password must not be empty")
	}

	user := models.User{
		ID:        "user-" + uuid.NewString(),
		Name:      args[0],
		Password:  args[1],
		Role:      models.RoleUser,
		LastLogin: models.LastLoginNever,
	}
	if err := deps.Catalog.AddUser(ctx, user); err != nil {
		return err
	}

	fmt.Printf("created user %s (%s)\n", user.Name, user.ID)
	return nil
}

func runToggleDownload(ctx context.Context, deps *Dependencies, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: toggle-download <userId>")
	}
	return deps.Catalog.ToggleDownload(ctx, args[0])
}

func runToggleBlock(ctx context.Context, deps *Dependencies, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: toggle-block <userId>")
	}
	return deps.Auth.ToggleBlock(ctx, args[0])
}

func runCatalog(deps *Dependencies, args []string) error {
	movies := deps.Catalog.Movies()
	if len(args) > 0 {
		movies = catalog.FilterMovies(movies, args[0])
	}
	if len(movies) == 0 {
		fmt.Println("the catalog is empty")
		return nil
	}

	for _, row := range catalog.Rows(movies) {
		fmt.Printf("%s\n", row.Title)
		for _, mv := range row.Movies {
			kind := mv.StorageType
			if kind == "" {
				kind = models.StorageExternal
			}
			fmt.Printf("  %s\t%s (%s, %s, %s)\n", mv.ID, mv.Title, mv.Genre, kind, mv.Rating)
		}
	}
	return nil
}

func runUpload(ctx context.Context, deps *Dependencies, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	title := fs.String("title", "", "movie title")
	genre := fs.String("genre", "", "movie genre")
	file := fs.String("file", "", "path to a video file on this device")
	rawURL := fs.String("url", "", "external video url")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := upload.Request{
		Title: *title,
		Genre: *genre,
		Progress: func(pct int) {
			fmt.Printf("\rprogress %3d%%", pct)
			if pct == 0 {
				fmt.Println()
			}
		},
	}

	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			return fmt.Errorf("open video file: %w", err)
		}
		defer f.Close()
		req.Method = upload.MethodFile
		req.FileName = filepath.Base(*file)
		req.File = f
	} else {
		req.Method = upload.MethodURL
		req.ExternalURL = *rawURL
	}

	movie, err := deps.Uploader.Upload(ctx, req)
	if err != nil {
		return err
	}

	fmt.Printf("published %q as %s (%s, .%s)\n", movie.Title, movie.ID, movie.StorageType, movie.OriginalExtension)
	return nil
}

func runPlay(ctx context.Context, deps *Dependencies, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: play <movieId>")
	}

	movie, err := findMovie(deps, args[0])
	if err != nil {
		return err
	}

	src, err := deps.Resolver.ResolvePlayable(ctx, movie)
	if err != nil {
		return err
	}
	defer src.Close()

	if src.URL != "" {
		fmt.Printf("streaming %q from %s\n", movie.Title, src.URL)
		return nil
	}
	fmt.Printf("playing %q from device storage (%d bytes)\n", movie.Title, src.Size)
	return nil
}

func runDownload(ctx context.Context, deps *Dependencies, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: download <movieId> [dest]")
	}

	session := deps.Auth.Current()
	if !session.IsAuthenticated || session.User == nil {
		return errors.New("sign in before downloading")
	}

	movie, err := findMovie(deps, args[0])
	if err != nil {
		return err
	}

	src, err := deps.Resolver.ResolveDownloadable(ctx, movie, *session.User)
	if err != nil {
		return err
	}
	defer src.Close()

	dest := src.Filename
	if len(args) == 2 {
		dest = args[1]
	}

	if src.URL != "" {
		fmt.Printf("download %q directly from %s\n", movie.Title, src.URL)
		return nil
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src.Reader); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}

	fmt.Printf("saved %q to %s\n", movie.Title, dest)
	return nil
}

func runExport(ctx context.Context, deps *Dependencies) error {
	payload, err := deps.Syncer.Export(ctx)
	if err != nil {
		return err
	}
	fmt.Println(payload)
	return nil
}

func runImport(ctx context.Context, deps *Dependencies, args []string) error {
	var payload []byte
	var err error
	if len(args) > 0 {
		payload, err = os.ReadFile(args[0])
	} else {
		payload, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("read sync payload: %w", err)
	}

	if err := deps.Syncer.Import(ctx, string(payload)); err != nil {
		return err
	}
	fmt.Println("sync complete")
	return nil
}

func runReset(ctx context.Context, deps *Dependencies) error {
	if err := deps.State.Reset(ctx); err != nil {
		return err
	}
	fmt.Println("all movies and users cleared")
	return nil
}

func findMovie(deps *Dependencies, id string) (models.Movie, error) {
	for _, mv := range deps.Catalog.Movies() {
		if mv.ID == id {
			return mv, nil
		}
	}
	return models.Movie{}, fmt.Errorf("no movie with id %q", id)
}
