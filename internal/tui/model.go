// Package tui is the interactive SQL shell: one adapter session, a scrolling
// result log and a prompt.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/johndauphine/sqlsrv-adapter/internal/driver"
	"github.com/johndauphine/sqlsrv-adapter/internal/driver/mssql"
	"github.com/johndauphine/sqlsrv-adapter/internal/logging"
)

// Model is the main TUI model
type Model struct {
	viewport   viewport.Model
	textInput  textinput.Model
	ready      bool
	width      int
	height     int
	history    []string
	historyIdx int
	logBuffer  string // Persistent buffer for results

	ctx     context.Context
	session *mssql.Adapter
	schema  string
	busy    bool
	txLevel int
}

type commandInfo struct {
	Name        string
	Description string
}

var availableCommands = []commandInfo{
	{"/describe TABLE", "Show columns of a table"},
	{"/indexes TABLE", "Show indexes of a table"},
	{"/references TABLE", "Show foreign keys of a table"},
	{"/begin", "BEGIN TRANSACTION"},
	{"/commit", "COMMIT TRANSACTION"},
	{"/rollback", "ROLLBACK TRANSACTION"},
	{"/level", "Show @@TRANCOUNT"},
	{"/last", "Show the last statement and its parameters"},
	{"/help", "Show available commands"},
	{"/clear", "Clear screen"},
	{"/quit", "Exit application"},
}

// ResultMsg carries the rendered outcome of one input line.
type ResultMsg struct {
	Output string
	Err    error
	Level  int
}

// NewModel returns a shell bound to session. schema qualifies table names in
// the slash commands.
func NewModel(ctx context.Context, session *mssql.Adapter, schema string) Model {
	ti := textinput.New()
	ti.Placeholder = "SQL statement or /help"
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = 20
	ti.Prompt = "❯ "
	ti.PromptStyle = stylePrompt

	return Model{
		textInput:  ti,
		historyIdx: -1,
		ctx:        ctx,
		session:    session,
		schema:     schema,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			value := strings.TrimSpace(m.textInput.Value())
			if value == "" || m.busy {
				return m, nil
			}
			m.appendLog(styleUserInput.Render("> " + value))
			m.textInput.Reset()
			m.history = append(m.history, value)
			m.historyIdx = len(m.history)
			cmd := m.handleInput(value)
			return m, cmd
		case tea.KeyUp:
			if len(m.history) > 0 && m.historyIdx > 0 {
				m.historyIdx--
				m.textInput.SetValue(m.history[m.historyIdx])
				m.textInput.CursorEnd()
			}
			return m, nil
		case tea.KeyDown:
			if m.historyIdx < len(m.history)-1 {
				m.historyIdx++
				m.textInput.SetValue(m.history[m.historyIdx])
				m.textInput.CursorEnd()
			} else {
				m.historyIdx = len(m.history)
				m.textInput.Reset()
			}
			return m, nil
		case tea.KeyPgUp, tea.KeyPgDown:
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// viewport border + input box + status bar
		vpHeight := msg.Height - 7
		if vpHeight < 3 {
			vpHeight = 3
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, vpHeight)
			m.logBuffer = m.welcomeMessage()
			m.viewport.SetContent(m.logBuffer)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = vpHeight
		}
		m.textInput.Width = msg.Width - 8

	case ResultMsg:
		m.busy = false
		m.txLevel = msg.Level
		if msg.Err != nil {
			m.appendLog(styleError.Render("Error: " + msg.Err.Error()))
		} else if msg.Output != "" {
			m.appendLog(msg.Output)
		}
		return m, nil
	}

	m.textInput, tiCmd = m.textInput.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd)
}

func (m *Model) appendLog(s string) {
	m.logBuffer += s + "\n"
	if m.ready {
		m.viewport.SetContent(m.logBuffer)
		m.viewport.GotoBottom()
	}
}

// handleInput dispatches slash commands locally and sends everything else to
// the session. Statements run as a command so the UI stays responsive; busy
// keeps a second statement off the session until the first returns.
func (m *Model) handleInput(input string) tea.Cmd {
	if !strings.HasPrefix(input, "/") {
		m.busy = true
		return m.statementCmd(input)
	}

	parts := strings.Fields(input)
	switch parts[0] {
	case "/quit", "/exit":
		return tea.Quit
	case "/clear":
		m.logBuffer = m.welcomeMessage() + "\n"
		if m.ready {
			m.viewport.SetContent(m.logBuffer)
		}
		return nil
	case "/help":
		m.appendLog(helpText())
		return nil
	case "/last":
		m.appendLog(m.lastStatement())
		return nil
	case "/begin", "/commit", "/rollback", "/level":
		m.busy = true
		return m.transactionCmd(parts[0])
	case "/describe", "/indexes", "/references":
		if len(parts) < 2 {
			m.appendLog(styleError.Render(fmt.Sprintf("Usage: %s TABLE", parts[0])))
			return nil
		}
		m.busy = true
		return m.describeCmd(parts[0], parts[1])
	default:
		m.appendLog(styleError.Render("Unknown command: " + parts[0]))
		return nil
	}
}

func (m Model) lastStatement() string {
	sql := m.session.SQLStatement()
	if sql == "" {
		return styleSystemOutput.Render("No statement sent yet")
	}
	out := sql
	if vars := m.session.SQLVariables(); len(vars) > 0 {
		out += "\n" + styleSystemOutput.Render(fmt.Sprintf("params: %v types: %v", vars, m.session.SQLBindTypes()))
	}
	return out
}

func (m Model) statementCmd(sql string) tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		var res ResultMsg
		if returnsRows(sql) {
			cur, err := session.Query(ctx, sql, nil, nil)
			if err != nil {
				res.Err = err
			} else {
				res.Output, res.Err = renderCursor(cur)
				cur.Close()
			}
		} else {
			n, err := session.Execute(ctx, sql, nil, nil)
			res.Err = err
			res.Output = styleSuccess.Render(fmt.Sprintf("%d row(s) affected", n))
		}
		res.Level = currentLevel(ctx, session)
		return res
	}
}

func (m Model) transactionCmd(cmd string) tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		var res ResultMsg
		switch cmd {
		case "/begin":
			res.Err = session.Begin(ctx, false)
		case "/commit":
			res.Err = session.Commit(ctx, false)
		case "/rollback":
			res.Err = session.Rollback(ctx, false)
		}
		res.Level = currentLevel(ctx, session)
		if res.Err == nil {
			res.Output = styleSuccess.Render(fmt.Sprintf("transaction level %d", res.Level))
		}
		return res
	}
}

func (m Model) describeCmd(cmd, table string) tea.Cmd {
	ctx, session, schema := m.ctx, m.session, m.schema
	return func() tea.Msg {
		var res ResultMsg
		switch cmd {
		case "/describe":
			cols, err := session.DescribeColumns(ctx, table, schema)
			if err == nil && len(cols) == 0 {
				err = fmt.Errorf("%w: table %s not found", driver.ErrArgument, table)
			}
			res.Err = err
			rows := make([][]string, 0, len(cols))
			for _, c := range cols {
				null := "NULL"
				if c.NotNull {
					null = "NOT NULL"
				}
				rows = append(rows, []string{c.Name, c.Type.String(), fmt.Sprint(c.Size), null})
			}
			res.Output = styleTitle.Render(table) + "\n" + renderTable([]string{"COLUMN", "TYPE", "SIZE", "NULL"}, rows)
		case "/indexes":
			idx, err := session.DescribeIndexes(ctx, table, schema)
			res.Err = err
			rows := make([][]string, 0, len(idx))
			for _, ix := range idx {
				rows = append(rows, []string{ix.Name, strings.Join(ix.Columns, ", ")})
			}
			res.Output = renderTable([]string{"INDEX", "COLUMNS"}, rows)
		case "/references":
			refs, err := session.DescribeReferences(ctx, table, schema)
			res.Err = err
			rows := make([][]string, 0, len(refs))
			for _, r := range refs {
				rows = append(rows, []string{
					r.Name,
					strings.Join(r.Columns, ", "),
					fmt.Sprintf("%s(%s)", r.ReferencedTable, strings.Join(r.ReferencedColumns, ", ")),
				})
			}
			res.Output = renderTable([]string{"CONSTRAINT", "COLUMNS", "REFERENCES"}, rows)
		}
		res.Level = currentLevel(ctx, session)
		return res
	}
}

// currentLevel asks the server for @@TRANCOUNT. Failures are logged and
// reported as level 0 so the status bar never blocks a result.
func currentLevel(ctx context.Context, session *mssql.Adapter) int {
	level, err := session.TransactionLevel(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Debug("transaction level unavailable: %v", err)
		return 0
	}
	return level
}

// returnsRows reports whether sql should go through Query rather than Execute.
func returnsRows(sql string) bool {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return false
	}
	switch strings.ToUpper(fields[0]) {
	case "SELECT", "WITH", "EXEC", "EXECUTE", "VALUES":
		return true
	}
	return false
}

func renderCursor(cur *mssql.Cursor) (string, error) {
	rows, err := cur.FetchRows()
	if err != nil {
		return "", err
	}
	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		line := make([]string, len(row))
		for i, v := range row {
			line[i] = formatValue(v)
		}
		cells = append(cells, line)
	}
	return renderTable(cur.Columns(), cells) + "\n" +
		styleSystemOutput.Render(fmt.Sprintf("(%d rows, %s cursor)", len(rows), cur.Mode())), nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return styleSystemOutput.Render("NULL")
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, r := range rows {
		for i, c := range r {
			if i < len(widths) && lipgloss.Width(c) > widths[i] {
				widths[i] = lipgloss.Width(c)
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	var sb strings.Builder
	for i, h := range headers {
		sb.WriteString(styleHeader.Width(widths[i] + 2).Render(h))
	}
	lines = append(lines, sb.String())
	for _, r := range rows {
		sb.Reset()
		for i := range widths {
			cell := ""
			if i < len(r) {
				cell = r[i]
			}
			sb.WriteString(styleCell.Width(widths[i] + 2).Render(cell))
		}
		lines = append(lines, sb.String())
	}
	return strings.Join(lines, "\n")
}

func helpText() string {
	var sb strings.Builder
	sb.WriteString("Available Commands:\n")
	for _, c := range availableCommands {
		sb.WriteString(fmt.Sprintf("  %-20s %s\n", c.Name, c.Description))
	}
	sb.WriteString("\nAnything else is sent to the server as SQL.")
	return sb.String()
}

func (m Model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	vp := styleViewport.Width(m.viewport.Width + 2).Render(m.viewport.View())
	return fmt.Sprintf("%s\n%s\n%s",
		vp,
		styleInputContainer.Width(m.width-2).Render(m.textInput.View()),
		m.statusBarView(),
	)
}

func (m Model) statusBarView() string {
	w := lipgloss.Width

	session := styleStatusSession.Render("session " + m.session.ID())
	target := styleStatusTarget.Render(m.session.DSN())

	busy := ""
	if m.busy {
		busy = styleStatusText.Render("running...")
	}

	var tx string
	if m.txLevel > 0 {
		tx = styleStatusOpenTx.Render(fmt.Sprintf("Transaction open (level %d)", m.txLevel))
	} else {
		tx = styleStatusIdle.Render("No open transaction")
	}

	usedWidth := w(session) + w(target) + w(busy) + w(tx)
	if usedWidth > m.width {
		usedWidth = m.width
	}
	spacer := styleStatusBar.Width(m.width - usedWidth).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, session, target, busy, spacer, tx)
}

func (m Model) welcomeMessage() string {
	welcome := styleTitle.Render("SQLSRV INTERACTIVE SHELL")
	body := `
 Statements run on a single pinned session, so BEGIN/COMMIT
 TRANSACTION and temp tables persist between lines.

 Type /help to see available commands.`
	tips := lipgloss.NewStyle().Foreground(colorGray).Render(`
 Tip: Up/Down walk the history, PgUp/PgDown scroll results.`)
	return welcome + body + tips
}

// Start runs the shell until the user quits or ctx is cancelled.
func Start(ctx context.Context, session *mssql.Adapter, schema string) error {
	if !session.Connected() {
		return fmt.Errorf("%w: shell needs an open session", driver.ErrConnection)
	}
	m := NewModel(ctx, session, schema)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	// Log lines would tear the alternate screen.
	restore := logging.GetLevel()
	logging.SetLevel(logging.LevelError)
	defer logging.SetLevel(restore)

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
