package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/gin-gonic/gin"
	"golang.org/x/term"

	"github.com/thedittmer/daily-riff/internal/api"
	"github.com/thedittmer/daily-riff/internal/app"
	"github.com/thedittmer/daily-riff/internal/models"
)

func runGenerate(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	modelName := fs.String("model", "", "model to use: pro or flash (default from settings)")
	save := fs.Bool("save", false, "save every generated riff locally")
	export := fs.Bool("export", false, "export every generated riff to Google Drive")
	fromFeed := fs.String("from-feed", "", "use the newest headline of this feed as the topic")
	copyN := fs.Int("copy", 0, "copy riff N (1-based) to the clipboard")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	if *copyN < 0 {
		return usageError("--copy takes a riff number starting at 1")
	}

	var model models.Model
	if *modelName != "" {
		m, ok := models.ParseModel(*modelName)
		if !ok {
			return usageError(fmt.Sprintf("unknown model %q", *modelName))
		}
		model = m
	}

	topic := strings.Join(fs.Args(), " ")
	if *fromFeed != "" {
		item, err := e.feeds.Latest(ctx, *fromFeed)
		if err != nil {
			return err
		}
		topic = item.Title
	}

	if strings.TrimSpace(topic) == "" {
		return usageError("generate needs a TOPIC or --from-feed URL")
	}

	if model == "" {
		model = e.svc.Settings().Model
	}
	e.out.Info(fmt.Sprintf("Riffing on %q with %s...", topic, model.DisplayName()))

	gen, err := e.svc.Generate(ctx, topic, model)
	if err != nil {
		return err
	}
	e.out.Generation(gen)

	for _, article := range gen.Articles {
		article.SearchAttribution = gen.Citations

		if *save {
			post, err := e.svc.SaveLocally(ctx, article)
			if err != nil {
				e.out.Error(app.Message(err))
				continue
			}
			e.out.Success(fmt.Sprintf("Saved %q locally (%s)", post.Title, post.ID))
		}

		if *export {
			res, err := e.svc.ExportToDrive(ctx, article)
			if err != nil {
				e.out.Error(app.Message(err))
				continue
			}
			e.out.Success(app.ExportMessage(article.Title))
			e.out.Info(res.URL)
		}
	}

	if *copyN > 0 {
		article, err := pickArticle(gen.Articles, *copyN)
		if err != nil {
			return err
		}
		if err := copyArticle(article); err != nil {
			return err
		}
		e.out.Success(app.MsgCopied)
	}

	return nil
}

// clipboardWrite is swapped out in tests.
var clipboardWrite = clipboard.WriteAll

func clipboardText(a models.Article) string {
	return a.Title + "\n\n" + a.Content
}

func copyArticle(a models.Article) error {
	if err := clipboardWrite(clipboardText(a)); err != nil {
		return fmt.Errorf("%w: %w", app.ErrCopyFailed, err)
	}
	return nil
}

// pickArticle returns the nth (1-based) article of a generation.
func pickArticle(articles []models.Article, n int) (models.Article, error) {
	if n < 1 || n > len(articles) {
		return models.Article{}, usageError(fmt.Sprintf("--copy %d is out of range: generated %d riffs", n, len(articles)))
	}
	return articles[n-1], nil
}

func runSaved(ctx context.Context, e *env, args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}

	needID := func() (string, error) {
		if len(args) < 2 || strings.TrimSpace(args[1]) == "" {
			return "", usageError(fmt.Sprintf("saved %s needs an ID", args[0]))
		}
		return args[1], nil
	}

	switch args[0] {
	case "list", "ls":
		posts, err := e.svc.ListSaved(ctx)
		if err != nil {
			return err
		}
		e.out.Header(fmt.Sprintf("Saved riffs (%d)", len(posts)))
		e.out.SavedList(posts)

	case "show":
		id, err := needID()
		if err != nil {
			return err
		}
		post, err := e.store.Get(ctx, id)
		if err != nil {
			return err
		}
		e.out.SavedArticle(post)

	case "copy", "cp":
		id, err := needID()
		if err != nil {
			return err
		}
		post, err := e.store.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := copyArticle(post.Article); err != nil {
			return err
		}
		e.out.Success(app.MsgCopied)

	case "delete", "rm":
		id, err := needID()
		if err != nil {
			return err
		}
		if err := e.svc.DeleteSaved(ctx, id); err != nil {
			return err
		}
		e.out.Success("Deleted " + id)

	case "export":
		id, err := needID()
		if err != nil {
			return err
		}
		res, post, err := e.svc.ExportSaved(ctx, id)
		if err != nil {
			return err
		}
		e.out.Success(app.ExportMessage(post.Title))
		e.out.Info(res.URL)

	case "dump":
		if len(args) < 2 {
			return usageError("saved dump needs a DIR")
		}
		files, err := e.svc.DumpSaved(ctx, args[1])
		if err != nil {
			return err
		}
		e.out.Success(fmt.Sprintf("Wrote %d Markdown files to %s", len(files), args[1]))

	default:
		return usageError(fmt.Sprintf("unknown saved command %q", args[0]))
	}

	return nil
}

func runSettings(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("settings", flag.ContinueOnError)
	askKey := fs.Bool("api-key", false, "prompt for the Gemini API key")
	clientID := fs.String("client-id", "", "Google OAuth client id for Drive export")
	clientSecret := fs.String("client-secret", "", "Google OAuth client secret")
	modelName := fs.String("model", "", "default model: pro or flash")
	sheetID := fs.String("sheet-id", "", "spreadsheet to append an export index to")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}

	settings := e.svc.Settings()
	changed := false
	fs.Visit(func(f *flag.Flag) {
		changed = true
		switch f.Name {
		case "client-id":
			settings.ClientID = *clientID
		case "client-secret":
			settings.ClientSecret = *clientSecret
		case "model":
			settings.Model = models.Model(*modelName)
		case "sheet-id":
			settings.SheetID = *sheetID
		}
	})

	if *askKey {
		key, err := readSecret("Gemini API key: ")
		if err != nil {
			return err
		}
		settings.APIKey = key
	}

	if changed {
		if err := e.svc.SaveSettings(ctx, settings); err != nil {
			return err
		}
		e.out.Success("Settings saved")
	}

	e.out.Header("Settings")
	e.out.Settings(e.svc.Settings(), e.cfg.Path())
	return nil
}

// readSecret reads a line without echo when stdin is a terminal.
func readSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read secret: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func runTopics(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("topics", flag.ContinueOnError)
	limit := fs.Int("limit", 10, "number of headlines to show")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}

	urls, invalid, err := e.storage.LoadFeeds()
	if err != nil {
		return err
	}
	for _, line := range invalid {
		e.out.Warn("skipping invalid feed " + line)
	}

	e.out.Header("Topic ideas")
	e.out.Topics(e.feeds.Topics(ctx, urls, *limit))
	e.out.Info(`Riff on one with: riff generate "<headline>"`)
	return nil
}

func runServe(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", e.cfg.Server.Addr, "listen address")
	level := fs.String("log-level", e.cfg.Logging.Level, "log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	e.logger.SetLevel(*level)

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              *addr,
		Handler:           api.NewRouter(e.svc, e.cfg.Server.AllowedOrigins, e.logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		e.logger.Info("serving riff api", "addr", *addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	e.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
