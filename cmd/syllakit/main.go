package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/coursepaw/syllakit/internal/app"
	"github.com/coursepaw/syllakit/internal/detect"
	"github.com/coursepaw/syllakit/internal/lang"
	"github.com/coursepaw/syllakit/internal/page"
	"github.com/coursepaw/syllakit/internal/session"
	"github.com/coursepaw/syllakit/internal/workflow"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cliApp := &cli.App{
		Name:  "syllakit",
		Usage: "Detect, simplify, translate and export syllabus pages",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "Path to YAML config file"},
			&cli.StringFlag{Name: "service", Usage: "Companion service base URL"},
			&cli.StringFlag{Name: "app-url", Usage: "Companion web app base URL"},
			&cli.StringFlag{Name: "session-dir", Usage: "Directory for the session database"},
			&cli.StringFlag{Name: "download-dir", Usage: "Directory for exported documents"},
			&cli.StringFlag{Name: "token", Usage: "Access token for calendar writes"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Verbose logging"},
		},
		Commands: []*cli.Command{
			detectCmd(),
			runCmd(),
			sessionCmd(),
			languagesCmd(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Error().Err(err).Msg("run failed")
		if errors.Is(err, app.ErrNoSyllabus) {
			os.Exit(2)
		}
		if workflow.IsGuard(err) {
			os.Exit(3)
		}
		os.Exit(1)
	}
}

// buildConfig merges flags, environment, and the optional config file, in
// that order of precedence.
func buildConfig(c *cli.Context) (app.Config, error) {
	cfg := app.Config{
		ServiceBaseURL: c.String("service"),
		AppBaseURL:     c.String("app-url"),
		SessionDir:     c.String("session-dir"),
		DownloadDir:    c.String("download-dir"),
		AccessToken:    c.String("token"),
		Verbose:        c.Bool("verbose"),
	}
	app.ApplyEnvToConfig(&cfg)
	fc, err := app.LoadConfigFile(c.String("config"))
	if err != nil {
		return cfg, err
	}
	app.ApplyFileConfig(&cfg, fc)
	app.ApplyDefaults(&cfg)
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	return cfg, nil
}

func detectCmd() *cli.Command {
	return &cli.Command{
		Name:  "detect",
		Usage: "Fetch a page, extract its content and classify it",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Required: true, Usage: "Page URL"},
			&cli.BoolFlag{Name: "json", Usage: "Print the full snapshot as JSON"},
		},
		Action: func(c *cli.Context) error {
			fetcher := &page.Fetcher{}
			loaded, err := fetcher.Fetch(context.Background(), c.String("url"))
			if err != nil {
				return err
			}
			if loaded.Doc == nil {
				fmt.Printf("kind: %s\npdf: %s\n", loaded.Info.Kind, loaded.Info.PDFURL)
				return nil
			}
			snap, err := page.Extract(loaded.Doc, loaded.Info.URL)
			if err != nil {
				return err
			}
			verdict := detect.Detect(snap.CleanedText)
			if c.Bool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Snapshot  *page.Snapshot `json:"snapshot"`
					Detection detect.Result  `json:"detection"`
				}{snap, verdict})
			}
			fmt.Printf("title: %s\nkind: %s\nchars: %d words: %d headings: %d\n",
				snap.Title, loaded.Info.Kind, snap.CharCount, snap.WordCount, len(snap.Headings))
			fmt.Printf("syllabus: %t confidence: %.2f matched: %v\n",
				verdict.IsMatch, verdict.Confidence, verdict.MatchedTerms)
			fmt.Printf("language: %s\n", lang.DetectBase(snap.CleanedText))
			return nil
		},
	}
}

func runCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the full workflow against a page",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Required: true, Usage: "Page URL"},
			&cli.BoolFlag{Name: "simplify", Usage: "Produce the simplified version"},
			&cli.StringFlag{Name: "translate", Usage: "Translate to a language code (implies --simplify)"},
			&cli.BoolFlag{Name: "calendar", Usage: "Add detected events to the calendar"},
			&cli.StringFlag{Name: "calendar-name", Usage: "Calendar name (defaults to the course title)"},
			&cli.BoolFlag{Name: "download", Usage: "Download the current preview as PDF"},
			&cli.BoolFlag{Name: "preview", Usage: "Print the final preview to stdout"},
			&cli.BoolFlag{Name: "html", Usage: "Render the printed preview as HTML"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := buildConfig(c)
			if err != nil {
				return err
			}
			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Run(context.Background(), app.RunOptions{
				URL:          c.String("url"),
				Simplify:     c.Bool("simplify"),
				TranslateTo:  c.String("translate"),
				AddEvents:    c.Bool("calendar"),
				CalendarName: c.String("calendar-name"),
				Download:     c.Bool("download"),
				ShowPreview:  c.Bool("preview"),
				HTMLPreview:  c.Bool("html"),
			})
		},
	}
}

func sessionCmd() *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "Inspect or clear the persisted session for a page",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the stored session, if still live",
				Flags: []cli.Flag{&cli.StringFlag{Name: "url", Required: true}},
				Action: func(c *cli.Context) error {
					cfg, err := buildConfig(c)
					if err != nil {
						return err
					}
					app.ApplyDefaults(&cfg)
					store, err := session.Open(cfg.SessionDir)
					if err != nil {
						return err
					}
					defer store.Close()
					var sess workflow.Session
					found, err := store.Load(session.PageKey(c.String("url")), &sess)
					if err != nil {
						return err
					}
					if !found {
						fmt.Println("no live session")
						return nil
					}
					enc := json.NewEncoder(os.Stdout)
					enc.SetIndent("", "  ")
					return enc.Encode(sess)
				},
			},
			{
				Name:  "clear",
				Usage: "Delete the stored session",
				Flags: []cli.Flag{&cli.StringFlag{Name: "url", Required: true}},
				Action: func(c *cli.Context) error {
					cfg, err := buildConfig(c)
					if err != nil {
						return err
					}
					app.ApplyDefaults(&cfg)
					store, err := session.Open(cfg.SessionDir)
					if err != nil {
						return err
					}
					defer store.Close()
					return store.Clear(session.PageKey(c.String("url")))
				},
			},
		},
	}
}

func languagesCmd() *cli.Command {
	return &cli.Command{
		Name:  "languages",
		Usage: "List supported translation languages",
		Action: func(*cli.Context) error {
			codes, names := lang.Supported()
			for _, code := range codes {
				fmt.Printf("%-6s %s\n", code, names[code])
			}
			return nil
		},
	}
}
