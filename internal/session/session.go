// Package session runs the interactive command loop over a record table.
//
// Every command executes to completion before the next line is read, so all
// table mutation is serialized through one path. Validation problems are
// reported to the user; transport problems are logged and the command simply
// leaves its target unchanged.
package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/recdeck/recdeck/internal/errors"
	"github.com/recdeck/recdeck/internal/logging"
	"github.com/recdeck/recdeck/internal/notify"
	"github.com/recdeck/recdeck/internal/observability"
	"github.com/recdeck/recdeck/internal/record"
	"github.com/recdeck/recdeck/internal/tableview"
)

// Package-level logger specific to the session service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar) // Dynamic level control
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "session.log")
	initialLevel := slog.LevelDebug
	serviceLevelVar.Set(initialLevel)

	// Initialize the service-specific file logger
	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "session", serviceLevelVar)
	if err != nil {
		// Fallback: log error to standard log and disable service logging
		log.Printf("FATAL: Failed to initialize session file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "session")
		closeLogger = func() error { return nil } // No-op closer
	}
}

const prompt = "recdeck> "

// Session reads commands from in and writes results to out.
type Session struct {
	table   *tableview.Table
	in      io.Reader
	out     io.Writer
	metrics *observability.Metrics

	// notifier may be nil; a nil publisher is a no-op.
	notifier *notify.Publisher
}

// New creates a session over the given table.
func New(table *tableview.Table, in io.Reader, out io.Writer) *Session {
	return &Session{table: table, in: in, out: out}
}

// SetMetrics enables the metrics command, backed by the given collectors.
func (s *Session) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// SetNotifier enables mutation events after successful create, save, and
// delete commands.
func (s *Session) SetNotifier(notifier *notify.Publisher) {
	s.notifier = notifier
}

// Close releases the service logger.
func (s *Session) Close() {
	if closeLogger != nil {
		if err := closeLogger(); err != nil {
			log.Printf("session: failed to close log file: %v", err)
		}
	}
}

// Run loads the table and processes commands until quit, end of input, or
// context cancellation. The initial load failing is not fatal; the session
// starts with an empty table and the user can reload.
func (s *Session) Run(ctx context.Context) error {
	if err := s.table.Reload(ctx); err != nil {
		s.reportError(err)
	}
	s.printTable()

	scanner := bufio.NewScanner(s.in)
	for {
		fmt.Fprint(s.out, prompt)
		if !scanner.Scan() {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		logger.Debug("command received", "line", line)

		fields := strings.Fields(line)
		if quit := s.dispatch(ctx, fields[0], fields[1:]); quit {
			return nil
		}
	}
	return scanner.Err()
}

// dispatch runs one command. The returned bool is true for quit.
func (s *Session) dispatch(ctx context.Context, cmd string, args []string) bool {
	switch cmd {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		s.printHelp()
	case "list", "ls":
		s.printTable()
	case "reload":
		if err := s.table.Reload(ctx); err == nil {
			s.printTable()
		} else {
			s.reportError(err)
		}
	case "add":
		s.cmdAdd(ctx, args)
	case "edit":
		s.withKey(args, func(key int) error { return s.table.BeginEdit(key) })
	case "set":
		s.cmdSet(args)
	case "save":
		s.withKey(args, func(key int) error {
			if err := s.table.Save(ctx, key); err != nil {
				return err
			}
			event := notify.Event{Action: notify.ActionUpdated, ID: key}
			// The post-save reload may have re-keyed the table; the row is
			// absent when the edit changed the record's id.
			if row := s.table.Row(key); row != nil {
				rec := row.Record()
				event.Record = &rec
			}
			s.publish(ctx, event)
			return nil
		})
	case "cancel":
		s.withKey(args, func(key int) error { return s.table.CancelEdit(key) })
	case "del", "rm":
		s.withKey(args, func(key int) error {
			if err := s.table.Delete(ctx, key); err != nil {
				return err
			}
			s.publish(ctx, notify.Event{Action: notify.ActionDeleted, ID: key})
			return nil
		})
	case "filter":
		s.cmdFilter(args)
	case "metrics":
		s.cmdMetrics()
	default:
		fmt.Fprintf(s.out, "unknown command %q, try help\n", cmd)
	}
	return false
}

// withKey parses a single row-key argument and applies fn to it.
func (s *Session) withKey(args []string, fn func(key int) error) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "expected exactly one row id")
		return
	}
	key, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "row id %q is not an integer\n", args[0])
		return
	}
	if err := fn(key); err != nil {
		s.reportError(err)
	}
}

// cmdAdd handles: add <id> <externalId> <rating> <status...>
func (s *Session) cmdAdd(ctx context.Context, args []string) {
	if len(args) < 4 {
		fmt.Fprintln(s.out, "usage: add <id> <externalId> <rating> <status>")
		return
	}

	var rec record.Record
	var err error
	if rec.ID, err = strconv.Atoi(args[0]); err != nil {
		fmt.Fprintf(s.out, "id %q is not an integer\n", args[0])
		return
	}
	if rec.ExternalID, err = strconv.Atoi(args[1]); err != nil {
		fmt.Fprintf(s.out, "externalId %q is not an integer\n", args[1])
		return
	}
	if rec.Rating, err = strconv.Atoi(args[2]); err != nil {
		fmt.Fprintf(s.out, "rating %q is not an integer\n", args[2])
		return
	}
	rec.Status = strings.Join(args[3:], " ")

	if err := s.table.Create(ctx, rec); err != nil {
		s.reportError(err)
		return
	}
	s.publish(ctx, notify.Event{Action: notify.ActionCreated, ID: rec.ID, Record: &rec})
	s.printTable()
}

// publish emits a mutation event when a notifier is configured.
func (s *Session) publish(ctx context.Context, event notify.Event) {
	s.notifier.Publish(ctx, event)
}

// cmdSet handles: set <key> <column> <value...>
func (s *Session) cmdSet(args []string) {
	if len(args) < 3 {
		fmt.Fprintln(s.out, "usage: set <rowId> <column> <value>")
		return
	}
	key, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "row id %q is not an integer\n", args[0])
		return
	}
	col, ok := tableview.ColumnByName(args[1])
	if !ok {
		fmt.Fprintf(s.out, "unknown column %q (id, externalId, rating, status)\n", args[1])
		return
	}
	if err := s.table.SetCell(key, col, strings.Join(args[2:], " ")); err != nil {
		s.reportError(err)
	}
}

// cmdFilter handles: filter [status=<term>] [id=<term>]
// With no arguments the filter is cleared.
func (s *Session) cmdFilter(args []string) {
	var statusTerm, idTerm string
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "status="):
			statusTerm = strings.TrimPrefix(arg, "status=")
		case strings.HasPrefix(arg, "id="):
			idTerm = strings.TrimPrefix(arg, "id=")
		default:
			fmt.Fprintln(s.out, "usage: filter [status=<term>] [id=<term>]")
			return
		}
	}
	s.table.SetFilter(statusTerm, idTerm)
	s.printTable()
}

// cmdMetrics dumps the current metric values in text exposition format.
func (s *Session) cmdMetrics() {
	if s.metrics == nil {
		fmt.Fprintln(s.out, "metrics are not enabled")
		return
	}
	if err := s.metrics.WriteSnapshot(s.out); err != nil {
		logger.Warn("metrics snapshot failed", "error", err)
	}
}

// printTable writes the visible rows in render order.
func (s *Session) printTable() {
	rows := s.table.VisibleRows()

	w := tabwriter.NewWriter(s.out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEXTERNAL\tRATING\tSTATUS\tSTATE")
	for _, row := range rows {
		state := ""
		if row.State() != tableview.ReadOnly {
			state = row.State().String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			row.Cell(tableview.ColumnID),
			row.Cell(tableview.ColumnExternalID),
			row.Cell(tableview.ColumnRating),
			row.Cell(tableview.ColumnStatus),
			state,
		)
	}
	w.Flush()
	fmt.Fprintf(s.out, "%d of %d rows\n", len(rows), s.table.Len())
}

// reportError shows validation and state problems to the user. Transport
// problems were already logged where they happened and stay out of the
// user's face; the affected row keeps whatever state it had.
func (s *Session) reportError(err error) {
	switch {
	case errors.IsValidation(err):
		fmt.Fprintf(s.out, "invalid input: %v\n", err)
	case errors.IsCategory(err, errors.CategoryNotFound),
		errors.IsCategory(err, errors.CategoryState):
		fmt.Fprintf(s.out, "%v\n", err)
	default:
		logger.Warn("operation aborted", "error", err)
	}
}

func (s *Session) printHelp() {
	fmt.Fprint(s.out, `commands:
  list                          show visible rows
  add <id> <extId> <rating> <status>   create a record
  edit <rowId>                  start editing a row
  set <rowId> <column> <value>  change a cell while editing
  save <rowId>                  submit the edited row
  cancel <rowId>                discard the edit
  del <rowId>                   delete a row
  filter [status=t] [id=t]      filter visible rows
  reload                        re-fetch the collection
  metrics                       dump metric counters
  quit                          leave
`)
}
