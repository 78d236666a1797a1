// Package postgres loads raw permission rows from a postgres view
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/lib/pq"
	"github.com/supremind/ability/types"
)

// DefaultView is the view rows are read from when no other is configured.
// It has one row per permission of a user: user_id, subject, action, field, can_access.
const DefaultView = "user_permissions"

var viewName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

var _ types.RuleSource = (*RuleSource)(nil)

// RuleSource is a RuleSource backed by a postgres view
type RuleSource struct {
	db      *sql.DB
	view    string
	timeout time.Duration
	log     logr.Logger
	query   string
}

// Option configures a RuleSource
type Option func(*RuleSource)

// WithView sets the view to read rows from, it could be schema qualified
func WithView(name string) Option {
	return func(s *RuleSource) {
		s.view = name
	}
}

// WithQueryTimeout bounds every load, zero means no other bound than the caller's context
func WithQueryTimeout(d time.Duration) Option {
	return func(s *RuleSource) {
		s.timeout = d
	}
}

// WithLogger sets logger for the rule source
func WithLogger(l logr.Logger) Option {
	return func(s *RuleSource) {
		s.log = l
	}
}

// NewRuleSource uses the given database as backend to load permission rows
func NewRuleSource(db *sql.DB, opts ...Option) (*RuleSource, error) {
	s := &RuleSource{db: db, view: DefaultView, log: logr.Discard()}
	for _, opt := range opts {
		opt(s)
	}

	if db == nil {
		return nil, errors.New("nil database")
	}
	if !viewName.MatchString(s.view) {
		return nil, fmt.Errorf("invalid view name: %q", s.view)
	}

	parts := strings.Split(s.view, ".")
	for i, part := range parts {
		parts[i] = pq.QuoteIdentifier(part)
	}
	s.query = "SELECT subject, action, field, can_access FROM " + strings.Join(parts, ".") + " WHERE user_id = $1"

	return s, nil
}

// RawRules loads the rows of id in the order the view returns them
func (s *RuleSource) RawRules(ctx context.Context, id types.Identity) ([]types.RawRule, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.log.V(4).Info("load permission rows", "identity", id, "view", s.view)

	rows, e := s.db.QueryContext(ctx, s.query, int64(id))
	if e != nil {
		return nil, s.unavailable("query", e)
	}
	defer rows.Close()

	raws := make([]types.RawRule, 0)
	for rows.Next() {
		var subject, action, field sql.NullString
		var access interface{}
		if e := rows.Scan(&subject, &action, &field, &access); e != nil {
			return nil, s.unavailable("scan", e)
		}

		raws = append(raws, types.RawRule{
			Subject: subject.String,
			Action:  action.String,
			Field:   field.String,
			Access:  parseAccess(access),
		})
	}
	if e := rows.Err(); e != nil {
		return nil, s.unavailable("iterate", e)
	}

	s.log.V(6).Info("permission rows loaded", "identity", id, "rows", raws)

	return raws, nil
}

func (s *RuleSource) unavailable(op string, e error) error {
	var pqErr *pq.Error
	if errors.As(e, &pqErr) {
		s.log.Error(e, op+" permission rows", "view", s.view, "code", pqErr.Code.Name())
	} else {
		s.log.Error(e, op+" permission rows", "view", s.view)
	}
	return fmt.Errorf("%w: %s %s: %w", types.ErrRuleSourceUnavailable, op, s.view, e)
}

// parseAccess reads the access flag the way the view stores it: boolean, integer or text.
// A flag that cannot be read is a deny.
func parseAccess(v interface{}) *bool {
	allow, deny := true, false

	switch v := v.(type) {
	case nil:
		return nil
	case bool:
		return &v
	case int64:
		if v == 0 {
			return &deny
		}
		return &allow
	case float64:
		if v == 0 {
			return &deny
		}
		return &allow
	case []byte:
		return parseAccess(string(v))
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return &allow
		}
	}

	return &deny
}
