package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/EightFlix/Error/internal/config"
	"github.com/EightFlix/Error/internal/errors"
	"github.com/EightFlix/Error/internal/logger"
	"github.com/EightFlix/Error/internal/ops"
	"github.com/EightFlix/Error/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(catalog *ops.Catalog, cfg *config.Config, log *logger.Logger) *cli.App {
	app := &cli.App{
		Name:    "eightflix",
		Usage:   "Media catalogue search",
		Version: Version,
		Commands: []*cli.Command{
			searchCmd(catalog),
			pageCmd(catalog),
			getCmd(catalog),
			saveCmd(catalog),
			updateCaptionCmd(catalog),
			updateQualityCmd(catalog),
			deleteCmd(catalog),
			healthCmd(catalog),
			serveCmd(catalog, cfg, log),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// searchCmd creates the search command.
func searchCmd(catalog *ops.Catalog) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the catalogue",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Usage: "Result offset"},
			&cli.IntFlag{Name: "max", Aliases: []string{"n"}, Usage: "Page size (default from config)"},
			&cli.Int64Flag{Name: "chat-id", Usage: "Chat the results are shown in"},
			&cli.Int64Flag{Name: "owner-id", Usage: "User allowed to page through the results"},
		},
		Action: func(c *cli.Context) error {
			query := joinArgs(c)
			if query == "" {
				return outputError(errors.NewInvalidRequest("query is required"))
			}
			if c.Int("offset") < 0 {
				return outputError(errors.NewInvalidRequest("offset must not be negative"))
			}

			output := catalog.Search(c.Context, ops.SearchInput{
				Query:      query,
				Offset:     c.Int("offset"),
				MaxResults: c.Int("max"),
				ChatID:     c.Int64("chat-id"),
				OwnerID:    c.Int64("owner-id"),
			})
			return outputJSON(c.App.Writer, output)
		},
	}
}

// pageCmd creates the page command.
func pageCmd(catalog *ops.Catalog) *cli.Command {
	return &cli.Command{
		Name:      "page",
		Usage:     "Fetch the page a callback (page#<token>#<offset>) points at",
		ArgsUsage: "<callback>",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "requester-id", Usage: "User asking for the page"},
			&cli.IntFlag{Name: "max", Aliases: []string{"n"}, Usage: "Page size (default from config)"},
		},
		Action: func(c *cli.Context) error {
			output, err := catalog.Page(c.Context, ops.PageInput{
				Callback:    c.Args().First(),
				RequesterID: c.Int64("requester-id"),
				MaxResults:  c.Int("max"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// getCmd creates the get command.
func getCmd(catalog *ops.Catalog) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Get a file record by id",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			rec, err := catalog.GetByID(c.Context, c.Args().First())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, rec)
		},
	}
}

// saveCmd creates the save command. A rejected record prints its "err"
// result and exits non-zero.
func saveCmd(catalog *ops.Catalog) *cli.Command {
	return &cli.Command{
		Name:  "save",
		Usage: "Index a media file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "ref", Required: true, Usage: "Provider file reference (base64url)"},
			&cli.StringFlag{Name: "name", Required: true, Usage: "File name"},
			&cli.StringFlag{Name: "caption", Usage: "Caption"},
			&cli.Int64Flag{Name: "size", Usage: "Size in bytes"},
		},
		Action: func(c *cli.Context) error {
			output := catalog.Save(c.Context, ops.SaveInput{
				FileRef:  c.String("ref"),
				FileName: c.String("name"),
				Caption:  c.String("caption"),
				FileSize: c.Int64("size"),
			})
			if err := outputJSON(c.App.Writer, output); err != nil {
				return err
			}
			if output.Result == ops.SaveFailed {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

// updateCaptionCmd creates the update-caption command.
func updateCaptionCmd(catalog *ops.Catalog) *cli.Command {
	return &cli.Command{
		Name:      "update-caption",
		Usage:     "Replace a file's caption",
		ArgsUsage: "<id> <caption>",
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			caption := strings.Join(c.Args().Tail(), " ")

			ok, err := catalog.UpdateCaption(c.Context, id, caption)
			if err != nil {
				return outputError(err)
			}
			if !ok {
				return outputError(errors.NewNotFound(id))
			}
			return outputJSON(c.App.Writer, ops.UpdateOutput{Updated: true, ID: id})
		},
	}
}

// updateQualityCmd creates the update-quality command.
func updateQualityCmd(catalog *ops.Catalog) *cli.Command {
	return &cli.Command{
		Name:      "update-quality",
		Usage:     "Re-derive a file's quality from a new file name",
		ArgsUsage: "<id> <file name>",
		Action: func(c *cli.Context) error {
			id := c.Args().First()

			ok, err := catalog.UpdateQuality(c.Context, id, strings.Join(c.Args().Tail(), " "))
			if err != nil {
				return outputError(err)
			}
			if !ok {
				return outputError(errors.NewNotFound(id))
			}

			rec, err := catalog.GetByID(c.Context, id)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, ops.UpdateOutput{Updated: true, ID: id, Quality: rec.Quality})
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(catalog *ops.Catalog) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete every file whose name contains the pattern",
		ArgsUsage: "<pattern>",
		Action: func(c *cli.Context) error {
			output, err := catalog.DeleteByPattern(c.Context, joinArgs(c))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// healthCmd creates the health command.
func healthCmd(catalog *ops.Catalog) *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Report store connectivity and catalogue size",
		Action: func(c *cli.Context) error {
			output := catalog.Health(c.Context)
			if err := outputJSON(c.App.Writer, output); err != nil {
				return err
			}
			if output.Status != ops.StatusOK {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(catalog *ops.Catalog, cfg *config.Config, log *logger.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the HTTP API and /metrics",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Listen address (default from config)"},
		},
		Action: func(c *cli.Context) error {
			if addr := c.String("addr"); addr != "" {
				cfg.HTTPAddr = addr
			}
			return web.Run(web.NewServer(catalog, cfg, log), log)
		},
	}
}

// Helper functions

// joinArgs returns all positional arguments as one trimmed string.
func joinArgs(c *cli.Context) string {
	return strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
}

// outputJSON marshals v to w as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if fErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", fErr.Code, fErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
