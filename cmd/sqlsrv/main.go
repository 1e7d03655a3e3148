package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/johndauphine/sqlsrv-adapter/internal/driver"
	"github.com/johndauphine/sqlsrv-adapter/internal/exitcodes"
	"github.com/johndauphine/sqlsrv-adapter/internal/logging"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "sqlsrv",
		Usage:   "Inspect and modify SQL Server tables through the adapter",
		Version: version,
		Flags:   globalFlags(),
		Before: func(c *cli.Context) error {
			if v := c.String("verbosity"); v != "" {
				level, err := logging.ParseLevel(v)
				if err != nil {
					return err
				}
				logging.SetLevel(level)
			}
			if f := c.String("log-format"); f != "" {
				if _, err := logging.ParseFormat(f); err != nil {
					return err
				}
				logging.SetFormat(f)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "describe",
				Usage:     "Show columns, indexes and foreign keys of a table",
				ArgsUsage: "<table>",
				Action:    describeTable,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "indexes", Value: true, Usage: "Include indexes"},
					&cli.BoolFlag{Name: "references", Value: true, Usage: "Include foreign keys"},
					&cli.BoolFlag{Name: "options", Usage: "Include table options"},
				},
			},
			{
				Name:      "query",
				Usage:     "Run a row-returning statement",
				ArgsUsage: "<sql>",
				Action:    runQuery,
				Flags:     bindFlags(),
			},
			{
				Name:      "exec",
				Usage:     "Run a statement and report affected rows",
				ArgsUsage: "<sql>",
				Action:    runExec,
				Flags: append(bindFlags(),
					&cli.BoolFlag{Name: "tx", Usage: "Run inside BEGIN/COMMIT TRANSACTION"},
				),
			},
			{
				Name:      "insert",
				Usage:     "Insert one row and print the identity value",
				ArgsUsage: "<table>",
				Action:    runInsert,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "set", Aliases: []string{"s"}, Required: true, Usage: "field=value (repeatable, 'NULL' for null)"},
					&cli.StringSliceFlag{Name: "types", Aliases: []string{"t"}, Usage: "Bind type per value: int, str, decimal, bool, blob, null"},
				},
			},
			{
				Name:      "update",
				Usage:     "Update rows of a table",
				ArgsUsage: "<table>",
				Action:    runUpdate,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "set", Aliases: []string{"s"}, Required: true, Usage: "field=value (repeatable, 'NULL' for null)"},
					&cli.StringSliceFlag{Name: "types", Aliases: []string{"t"}, Usage: "Bind type per value"},
					&cli.StringFlag{Name: "where", Aliases: []string{"w"}, Usage: "Condition, may contain ? placeholders"},
					&cli.StringSliceFlag{Name: "where-arg", Usage: "Value for a ? in --where (repeatable)"},
					&cli.BoolFlag{Name: "all", Usage: "Allow an update without --where"},
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete rows of a table",
				ArgsUsage: "<table>",
				Action:    runDelete,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "where", Aliases: []string{"w"}, Usage: "Condition, may contain ? placeholders"},
					&cli.StringSliceFlag{Name: "where-arg", Usage: "Value for a ? in --where (repeatable)"},
					&cli.BoolFlag{Name: "all", Usage: "Allow a delete without --where"},
				},
			},
			{
				Name:      "load",
				Usage:     "Insert the rows of a YAML file in one transaction",
				ArgsUsage: "<table>",
				Action:    runLoad,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Required: true, Usage: "YAML file with fields, types and rows"},
					&cli.StringFlag{Name: "progress", Value: "bar", Usage: "Progress display: bar, json or none"},
					&cli.BoolFlag{Name: "no-tx", Usage: "Insert rows without BEGIN/COMMIT TRANSACTION"},
				},
			},
			{
				Name:   "shell",
				Usage:  "Open an interactive SQL shell on one session",
				Action: runShell,
			},
			{
				Name:   "tx-level",
				Usage:  "Print @@TRANCOUNT of a fresh session",
				Action: showTransactionLevel,
			},
			{
				Name:   "dsn",
				Usage:  "Print the connection target without credentials",
				Action: showDSN,
			},
			{
				Name:   "config",
				Usage:  "Print the effective configuration with secrets redacted",
				Action: showConfig,
			},
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nInterrupted.")
		cancel()
	}()

	if err := app.RunContext(ctx, os.Args); err != nil {
		if errors.Is(err, driver.ErrVetoed) {
			// --dry-run printed the statement instead of sending it.
			return
		}
		code := exitcodes.FromError(err)
		fmt.Fprintf(os.Stderr, "%s %v (%s)\n", styleError.Render("Error:"), err, exitcodes.Description(code))
		os.Exit(code)
	}
}

// globalFlags override the config file for every command.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Value:   "config.yaml",
			Usage:   "Path to configuration file",
		},
		&cli.StringFlag{
			Name:    "host",
			EnvVars: []string{"SQLSRV_HOST"},
			Usage:   "Server host (overrides config)",
		},
		&cli.IntFlag{
			Name:    "port",
			EnvVars: []string{"SQLSRV_PORT"},
			Usage:   "Server port (overrides config)",
		},
		&cli.StringFlag{
			Name:    "dbname",
			Aliases: []string{"d"},
			EnvVars: []string{"SQLSRV_DBNAME"},
			Usage:   "Database name (overrides config)",
		},
		&cli.StringFlag{
			Name:    "username",
			Aliases: []string{"U"},
			EnvVars: []string{"SQLSRV_USERNAME"},
			Usage:   "Login name (overrides config)",
		},
		&cli.StringFlag{
			Name:    "password",
			EnvVars: []string{"SQLSRV_PASSWORD"},
			Usage:   "Login password (overrides config)",
		},
		&cli.BoolFlag{
			Name:    "ask-password",
			Aliases: []string{"W"},
			Usage:   "Prompt for the password on the terminal",
		},
		&cli.StringFlag{
			Name:  "dialect",
			Usage: "Registered dialect name (overrides config dialectClass)",
		},
		&cli.StringFlag{
			Name:  "schema",
			Usage: "Schema used by table commands (default from config, then dbo)",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Print statements instead of sending them",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Value:   "table",
			Usage:   "Output format: table, yaml or json",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: text or json (overrides config)",
		},
		&cli.StringFlag{
			Name:  "verbosity",
			Usage: "Log verbosity level: debug, info, warn, error (overrides config)",
		},
	}
}

func bindFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{Name: "arg", Aliases: []string{"a"}, Usage: "Value for a ? placeholder (repeatable, 'NULL' for null)"},
		&cli.StringSliceFlag{Name: "types", Aliases: []string{"t"}, Usage: "Bind type per --arg: int, str, decimal, bool, blob, null"},
	}
}
