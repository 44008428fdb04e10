package sqlite

import (
	"database/sql"
	_ "embed"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/interfaces"

	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is the shared not-found sentinel wrapped by this backend
var ErrNotFound = interfaces.ErrNotFound

// Store is a SQLite-backed Repository implementation. Each operation is a
// self-contained statement or transaction; no lock is held across the
// language-model call during an agent run.
type Store struct {
	db   *sql.DB
	path string

	ticket   *ticketRepository
	customer *customerRepository
	order    *orderRepository
	agentRun *agentRunRepository
}

var _ interfaces.Repository = &Store{}

// New opens (or creates) the SQLite database at path and applies the
// schema. WAL mode keeps concurrent independent runs from blocking each
// other on the audit-log writes.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, goerr.Wrap(err, "failed to create database directory", goerr.V("dir", dir))
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open database", goerr.V("path", path))
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to enable foreign keys")
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to apply schema", goerr.V("path", path))
	}

	s := &Store{db: db, path: path}
	s.ticket = &ticketRepository{db: db}
	s.customer = &customerRepository{db: db}
	s.order = &orderRepository{db: db}
	s.agentRun = &agentRunRepository{db: db}
	return s, nil
}

func (s *Store) Ticket() interfaces.TicketRepository {
	return s.ticket
}

func (s *Store) Customer() interfaces.CustomerRepository {
	return s.customer
}

func (s *Store) Order() interfaces.OrderRepository {
	return s.order
}

func (s *Store) AgentRun() interfaces.AgentRunRepository {
	return s.agentRun
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	return s.db.Close()
}
