package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/johndauphine/sqlsrv-adapter/internal/config"
	"github.com/johndauphine/sqlsrv-adapter/internal/driver"
	"github.com/johndauphine/sqlsrv-adapter/internal/driver/mssql"
	"github.com/johndauphine/sqlsrv-adapter/internal/logging"
	"github.com/johndauphine/sqlsrv-adapter/internal/tui"
)

// nullLiteral is the command-line spelling of SQL NULL in --set and --arg values.
const nullLiteral = "NULL"

// loadConfig reads the config file and applies flag overrides before defaults
// and validation. Without an explicit --config a missing file is allowed, so
// flags alone can describe the connection.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadWithOptions(c.String("config"), config.LoadOptions{
		AllowMissing: !c.IsSet("config"),
		Override: func(cfg *config.Config) error {
			return applyOverrides(c, cfg)
		},
	})
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyLogging(); err != nil {
		return nil, err
	}
	// Flags win over the logging section.
	if v := c.String("verbosity"); v != "" {
		level, _ := logging.ParseLevel(v)
		logging.SetLevel(level)
	}
	if f := c.String("log-format"); f != "" {
		logging.SetFormat(f)
	}
	return cfg, nil
}

func applyOverrides(c *cli.Context, cfg *config.Config) error {
	db := &cfg.Database
	if c.IsSet("host") {
		db.Host = c.String("host")
	}
	if c.IsSet("port") {
		db.Port = c.Int("port")
	}
	if c.IsSet("dbname") {
		db.Database = c.String("dbname")
	}
	if c.IsSet("username") {
		db.Username = c.String("username")
	}
	if c.IsSet("password") {
		db.Password = c.String("password")
	}
	if c.IsSet("dialect") {
		db.DialectClass = c.String("dialect")
	}
	if c.IsSet("schema") {
		cfg.Schema = c.String("schema")
	}
	if c.Bool("ask-password") {
		pw, err := promptPassword(db.Username)
		if err != nil {
			return err
		}
		db.Password = pw
	}
	return nil
}

func promptPassword(user string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("%w: --ask-password needs an interactive terminal", driver.ErrConfiguration)
	}
	fmt.Fprintf(os.Stderr, "Password for %s: ", user)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}

// connect loads the configuration and opens a session. The caller closes it.
func connect(c *cli.Context) (*config.Config, *mssql.Adapter, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}

	var opts []mssql.Option
	if c.Bool("dry-run") {
		opts = append(opts, mssql.WithEvents(mssql.Hooks{
			Before: func(a *mssql.Adapter, params []any) bool {
				fmt.Println(styleMuted.Render("-- dry run"))
				fmt.Println(a.SQLStatement())
				if len(params) > 0 {
					fmt.Println(styleMuted.Render(fmt.Sprintf("-- params: %v", params)))
				}
				return false
			},
		}))
	}

	adapter, err := mssql.Open(c.Context, &cfg.Database, opts...)
	if err != nil {
		return nil, nil, err
	}
	logging.Debug("session %s open on %s", adapter.ID(), adapter.DSN())
	return cfg, adapter, nil
}

func describeTable(c *cli.Context) error {
	table, err := requireArg(c, "table")
	if err != nil {
		return err
	}
	cfg, adapter, err := connect(c)
	if err != nil {
		return err
	}
	defer adapter.Close()

	ctx := c.Context
	cols, err := adapter.DescribeColumns(ctx, table, cfg.Schema)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return fmt.Errorf("%w: table %s not found", driver.ErrArgument, adapter.EscapeIdentifier(cfg.Schema, table))
	}

	report := struct {
		Table      string             `yaml:"table" json:"table"`
		Columns    []driver.Column    `yaml:"columns" json:"columns"`
		Indexes    []driver.Index     `yaml:"indexes,omitempty" json:"indexes,omitempty"`
		References []driver.Reference `yaml:"references,omitempty" json:"references,omitempty"`
		Options    map[string]any     `yaml:"options,omitempty" json:"options,omitempty"`
	}{Table: adapter.EscapeIdentifier(cfg.Schema, table), Columns: cols}

	if c.Bool("indexes") {
		if report.Indexes, err = adapter.DescribeIndexes(ctx, table, cfg.Schema); err != nil {
			return err
		}
	}
	if c.Bool("references") {
		if report.References, err = adapter.DescribeReferences(ctx, table, cfg.Schema); err != nil {
			return err
		}
	}
	if c.Bool("options") {
		if report.Options, err = adapter.TableOptions(ctx, table, cfg.Schema); err != nil {
			return err
		}
	}

	if format := c.String("output"); format != "table" {
		return printStructured(format, report)
	}

	fmt.Println(renderColumns(report.Table, report.Columns))
	if c.Bool("indexes") {
		fmt.Println(renderIndexes(report.Indexes))
	}
	if c.Bool("references") {
		fmt.Println(renderReferences(report.References))
	}
	if c.Bool("options") {
		fmt.Println(renderOptions(report.Options))
	}
	return nil
}

func runQuery(c *cli.Context) error {
	query, err := requireArg(c, "sql")
	if err != nil {
		return err
	}
	params, types, err := bindInputs(c.StringSlice("arg"), c.StringSlice("types"))
	if err != nil {
		return err
	}
	_, adapter, err := connect(c)
	if err != nil {
		return err
	}
	defer adapter.Close()

	cur, err := adapter.Query(c.Context, query, params, types)
	if err != nil {
		return err
	}
	defer cur.Close()

	rows, err := cur.FetchRows()
	if err != nil {
		return err
	}

	if format := c.String("output"); format != "table" {
		records := make([]map[string]any, 0, len(rows))
		for _, row := range rows {
			rec := make(map[string]any, len(row))
			for i, name := range cur.Columns() {
				rec[name] = row[i]
			}
			records = append(records, rec)
		}
		return printStructured(format, records)
	}

	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		line := make([]string, len(row))
		for i, v := range row {
			line[i] = formatValue(v)
		}
		cells = append(cells, line)
	}
	fmt.Println(renderTable(cur.Columns(), cells))
	fmt.Println(styleMuted.Render(fmt.Sprintf("(%d rows, %s cursor)", len(rows), cur.Mode())))
	return nil
}

func runExec(c *cli.Context) error {
	query, err := requireArg(c, "sql")
	if err != nil {
		return err
	}
	params, types, err := bindInputs(c.StringSlice("arg"), c.StringSlice("types"))
	if err != nil {
		return err
	}
	_, adapter, err := connect(c)
	if err != nil {
		return err
	}
	defer adapter.Close()

	var affected int64
	run := func(ctx context.Context) error {
		n, err := adapter.Execute(ctx, query, params, types)
		affected = n
		return err
	}
	if c.Bool("tx") {
		err = adapter.WithTransaction(c.Context, run)
	} else {
		err = run(c.Context)
	}
	if err != nil {
		return err
	}
	fmt.Println(styleSuccess.Render(fmt.Sprintf("%d row(s) affected", affected)))
	return nil
}

func runInsert(c *cli.Context) error {
	table, err := requireArg(c, "table")
	if err != nil {
		return err
	}
	fields, values, err := parseAssignments(c.StringSlice("set"))
	if err != nil {
		return err
	}
	types, err := parseBindTypes(c.StringSlice("types"))
	if err != nil {
		return err
	}
	cfg, adapter, err := connect(c)
	if err != nil {
		return err
	}
	defer adapter.Close()

	target := adapter.EscapeIdentifier(cfg.Schema, table)
	if _, err := adapter.Insert(c.Context, target, values, fields, types); err != nil {
		return err
	}
	if id, ok := adapter.LastInsertID(target, ""); ok {
		fmt.Println(styleSuccess.Render(fmt.Sprintf("inserted, identity %d", id)))
		return nil
	}
	fmt.Println(styleSuccess.Render("inserted"))
	return nil
}

func runUpdate(c *cli.Context) error {
	table, err := requireArg(c, "table")
	if err != nil {
		return err
	}
	fields, values, err := parseAssignments(c.StringSlice("set"))
	if err != nil {
		return err
	}
	types, err := parseBindTypes(c.StringSlice("types"))
	if err != nil {
		return err
	}
	condition := c.String("where")
	if condition == "" && !c.Bool("all") {
		return fmt.Errorf("%w: refusing to update every row without --all", driver.ErrArgument)
	}
	var where *mssql.Where
	if condition != "" {
		where = &mssql.Where{Conditions: condition}
		for _, arg := range c.StringSlice("where-arg") {
			where.Bind = append(where.Bind, cliValue(arg))
		}
	}

	cfg, adapter, err := connect(c)
	if err != nil {
		return err
	}
	defer adapter.Close()

	n, err := adapter.Update(c.Context, adapter.EscapeIdentifier(cfg.Schema, table), fields, values, where, types)
	if err != nil {
		return err
	}
	fmt.Println(styleSuccess.Render(fmt.Sprintf("%d row(s) updated", n)))
	return nil
}

func runDelete(c *cli.Context) error {
	table, err := requireArg(c, "table")
	if err != nil {
		return err
	}
	condition := c.String("where")
	if condition == "" && !c.Bool("all") {
		return fmt.Errorf("%w: refusing to delete every row without --all", driver.ErrArgument)
	}
	var args []any
	for _, arg := range c.StringSlice("where-arg") {
		args = append(args, cliValue(arg))
	}

	cfg, adapter, err := connect(c)
	if err != nil {
		return err
	}
	defer adapter.Close()

	n, err := adapter.Delete(c.Context, adapter.EscapeIdentifier(cfg.Schema, table), condition, args, nil)
	if err != nil {
		return err
	}
	fmt.Println(styleSuccess.Render(fmt.Sprintf("%d row(s) deleted", n)))
	return nil
}

func runShell(c *cli.Context) error {
	if c.Bool("dry-run") {
		return fmt.Errorf("%w: --dry-run is not supported by the shell", driver.ErrArgument)
	}
	cfg, adapter, err := connect(c)
	if err != nil {
		return err
	}
	defer adapter.Close()
	return tui.Start(c.Context, adapter, cfg.Schema)
}

func showTransactionLevel(c *cli.Context) error {
	_, adapter, err := connect(c)
	if err != nil {
		return err
	}
	defer adapter.Close()

	level, err := adapter.TransactionLevel(c.Context)
	if err != nil {
		return err
	}
	fmt.Println(level)
	return nil
}

func showDSN(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	adapter := mssql.New(&cfg.Database)
	fmt.Println(adapter.DSN())
	return nil
}

func showConfig(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	format := c.String("output")
	if format == "table" {
		format = "yaml"
	}
	return printStructured(format, cfg.Sanitized())
}

func requireArg(c *cli.Context, name string) (string, error) {
	v := strings.TrimSpace(c.Args().First())
	if v == "" {
		return "", fmt.Errorf("%w: missing <%s> argument", driver.ErrArgument, name)
	}
	return v, nil
}

// cliValue maps the NULL literal to nil and keeps every other value as text.
func cliValue(s string) any {
	if s == nullLiteral {
		return nil
	}
	return s
}

// parseAssignments splits field=value pairs, keeping their order.
func parseAssignments(pairs []string) ([]string, []any, error) {
	fields := make([]string, 0, len(pairs))
	values := make([]any, 0, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, nil, fmt.Errorf("%w: expected field=value, got %q", driver.ErrArgument, p)
		}
		fields = append(fields, name)
		values = append(values, cliValue(value))
	}
	return fields, values, nil
}

// parseBindTypes returns nil for an empty list so the adapter binds text.
func parseBindTypes(names []string) ([]driver.BindType, error) {
	if len(names) == 0 {
		return nil, nil
	}
	types := make([]driver.BindType, 0, len(names))
	for _, n := range names {
		t, ok := driver.ParseBindType(n)
		if !ok {
			return nil, fmt.Errorf("%w: unknown bind type %q", driver.ErrArgument, n)
		}
		types = append(types, t)
	}
	return types, nil
}

func bindInputs(args, typeNames []string) ([]any, []driver.BindType, error) {
	types, err := parseBindTypes(typeNames)
	if err != nil {
		return nil, nil, err
	}
	if len(args) == 0 {
		return nil, types, nil
	}
	params := make([]any, len(args))
	for i, a := range args {
		params[i] = cliValue(a)
	}
	return params, types, nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return styleMuted.Render(nullLiteral)
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

func renderOptions(opts map[string]any) string {
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, formatValue(opts[k])})
	}
	return styleTitle.Render("Options") + "\n" + renderTable([]string{"OPTION", "VALUE"}, rows)
}

func printStructured(format string, v any) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("%w: unknown output format %q (use table, yaml or json)", driver.ErrArgument, format)
	}
}
