package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	_ "github.com/microsoft/go-mssqldb"

	"github.com/johndauphine/sqlsrv-adapter/internal/driver"
	"github.com/johndauphine/sqlsrv-adapter/internal/logging"
)

// sqlDriverName selects the go-mssqldb driver variant that rewrites "?"
// placeholders into @pN parameters.
const sqlDriverName = "mssql"

// Adapter is a connection to one SQL Server database pinned to a single
// session, so that emulated transactions and SCOPE_IDENTITY() see the same
// server context.
//
// An Adapter is not safe for concurrent use.
type Adapter struct {
	id       string
	desc     *driver.Descriptor
	defaults driver.DriverDefaults

	db     *sql.DB
	conn   *sql.Conn
	ownsDB bool

	dialect  driver.Dialect
	override driver.Dialect
	mapper   driver.TypeMapper
	events   Events

	// Diagnostics of the most recent statement.
	lastSQL   string
	lastVars  []any
	lastTypes []driver.BindType
	affected  int64

	lastInsertID    int64
	hasLastInsertID bool
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithDialect supplies the dialect explicitly. It takes precedence over the
// descriptor's DialectClass.
func WithDialect(d driver.Dialect) Option {
	return func(a *Adapter) {
		a.override = d
	}
}

// WithEvents installs before/after query hooks.
func WithEvents(e Events) Option {
	return func(a *Adapter) {
		a.events = e
	}
}

// New creates an unconnected adapter for desc.
func New(desc *driver.Descriptor, opts ...Option) *Adapter {
	drv := &Driver{}
	a := &Adapter{
		desc:     desc,
		defaults: drv.Defaults(),
		mapper:   drv.TypeMapper(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Open creates an adapter and connects it.
func Open(ctx context.Context, desc *driver.Descriptor, opts ...Option) (*Adapter, error) {
	a := New(desc, opts...)
	if err := a.Connect(ctx, nil); err != nil {
		return nil, err
	}
	return a, nil
}

// NewWithDB wraps an already opened database handle. The adapter pins one
// session from db but does not close db on Close.
func NewWithDB(ctx context.Context, db *sql.DB, opts ...Option) (*Adapter, error) {
	a := New(nil, opts...)
	dialect, err := a.resolveDialect(nil)
	if err != nil {
		return nil, err
	}
	if err := a.attach(ctx, db, false, dialect); err != nil {
		return nil, err
	}
	return a, nil
}

// Connect establishes the session. A nil desc reuses the descriptor given at
// construction. An existing session is closed first and the last insert id
// is forgotten.
func (a *Adapter) Connect(ctx context.Context, desc *driver.Descriptor) error {
	if desc == nil {
		desc = a.desc
	}
	if err := desc.Validate(); err != nil {
		return err
	}

	dialect, err := a.resolveDialect(desc)
	if err != nil {
		return err
	}

	db, err := sql.Open(sqlDriverName, a.connectionString(desc))
	if err != nil {
		return fmt.Errorf("%w: opening connection: %w", driver.ErrConnection, err)
	}
	if err := a.attach(ctx, db, true, dialect); err != nil {
		db.Close()
		return err
	}

	a.desc = desc
	logging.Info("Connected to SQL Server: %s (session %s)", dialect.BuildDSN(desc.Host, desc.Port, desc.Database, 0), a.id)
	return nil
}

func (a *Adapter) attach(ctx context.Context, db *sql.DB, owns bool, dialect driver.Dialect) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: pinging database: %w", driver.ErrConnection, err)
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("%w: acquiring session: %w", driver.ErrConnection, err)
	}

	if err := a.Close(); err != nil {
		logging.Warn("Closing previous session: %v", err)
	}

	a.db = db
	a.conn = conn
	a.ownsDB = owns
	a.dialect = dialect
	a.id = uuid.New().String()[:8]
	a.clearLastInsertID()
	return nil
}

// resolveDialect picks the explicit option first, then a string DialectClass
// looked up in the driver registry, then the SQL Server dialect.
func (a *Adapter) resolveDialect(desc *driver.Descriptor) (driver.Dialect, error) {
	if a.override != nil {
		return a.override, nil
	}
	if desc != nil {
		if name := desc.DialectName(); name != "" {
			drv, err := driver.Get(name)
			if err != nil {
				return nil, err
			}
			a.mapper = drv.TypeMapper()
			return drv.Dialect(), nil
		}
	}
	return &Dialect{}, nil
}

// connectionString is the private sqlserver:// URL handed to the driver: the
// public target plus credentials and driver options. Every component is
// URL-escaped so separators inside a password or option value stay data.
func (a *Adapter) connectionString(desc *driver.Descriptor) string {
	timeout := desc.LoginTimeout
	if timeout == 0 {
		timeout = a.defaults.LoginTimeout
	}

	query := url.Values{}
	for k, v := range desc.Options {
		query.Set(k, fmt.Sprint(v))
	}
	query.Set("database", desc.Database)
	if timeout > 0 && !query.Has("dial timeout") {
		query.Set("dial timeout", strconv.Itoa(timeout))
	}

	u := &url.URL{Scheme: "sqlserver", Host: desc.Host, RawQuery: query.Encode()}
	if host, instance, ok := strings.Cut(desc.Host, `\`); ok {
		u.Host = host
		u.Path = "/" + instance
	}
	if desc.Port > 0 {
		u.Host = net.JoinHostPort(u.Host, strconv.Itoa(desc.Port))
	}
	if desc.Username != "" || desc.Password != "" {
		u.User = url.UserPassword(desc.Username, desc.Password)
	}
	return u.String()
}

// DSN returns the connection target without credentials or driver options.
func (a *Adapter) DSN() string {
	if a.desc == nil {
		return ""
	}
	dialect := a.dialect
	if dialect == nil {
		dialect = &Dialect{}
	}
	timeout := a.desc.LoginTimeout
	if timeout == 0 {
		timeout = a.defaults.LoginTimeout
	}
	return dialect.BuildDSN(a.desc.Host, a.desc.Port, a.desc.Database, timeout)
}

// Close releases the session, and the database handle when the adapter
// opened it.
func (a *Adapter) Close() error {
	var firstErr error
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			firstErr = err
		}
		a.conn = nil
	}
	if a.db != nil && a.ownsDB {
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.db = nil
	return firstErr
}

// ID returns a short identifier of the current session, used in log lines.
func (a *Adapter) ID() string { return a.id }

// Dialect returns the resolved dialect; nil before the first connect.
func (a *Adapter) Dialect() driver.Dialect { return a.dialect }

// Connected reports whether a session is open.
func (a *Adapter) Connected() bool { return a.conn != nil }

// EscapeIdentifier bracket-quotes a name. Two parts produce [schema].[name].
func (a *Adapter) EscapeIdentifier(parts ...string) string {
	dialect := a.dialect
	if dialect == nil {
		dialect = &Dialect{}
	}
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = dialect.QuoteIdentifier(p)
	}
	return strings.Join(quoted, ".")
}

// SQLStatement returns the text of the last statement sent or vetoed.
func (a *Adapter) SQLStatement() string { return a.lastSQL }

// SQLVariables returns the values bound to the last statement.
func (a *Adapter) SQLVariables() []any { return a.lastVars }

// SQLBindTypes returns the bind types of the last statement.
func (a *Adapter) SQLBindTypes() []driver.BindType { return a.lastTypes }

// AffectedRows returns the row count of the last Execute.
func (a *Adapter) AffectedRows() int64 { return a.affected }

func (a *Adapter) clearLastInsertID() {
	a.lastInsertID = 0
	a.hasLastInsertID = false
}
