package rls

import (
	"context"
	"database/sql"
	"fmt"
)

// Variables consulted by the row-level policies.
const (
	DefaultUserVar = "app.current_user_id"
	DefaultRoleVar = "app.current_user_role"
)

// Strategy selects how session variables are scoped.
type Strategy int

const (
	// TxScoped sets variables local to the wrapping transaction. They
	// vanish at commit/rollback, so a pooled connection can never carry
	// them into an unrelated query. This is the default and the only
	// mode without residual risk.
	TxScoped Strategy = iota
	// SessionScoped sets connection-level variables and resets them
	// before the transaction ends. Exists for engines without
	// transaction-local variables; under connection pooling a failed
	// reset after commit would leak identity into the next query
	// sharing the connection.
	SessionScoped
)

func (s Strategy) String() string {
	if s == SessionScoped {
		return "session"
	}
	return "transaction"
}

// Runner is the transaction primitive the injector wraps, satisfied by
// the pg store.
type Runner interface {
	Transaction(ctx context.Context, fn func(*sql.Tx) error) error
}

// Injector wraps a Runner so that, when an Actor is on the context,
// the transaction first sets the row-level variables and only then
// runs the caller's work.
type Injector struct {
	runner   Runner
	strategy Strategy
	userVar  string
	roleVar  string
}

// Option configures the injector.
type Option func(*Injector)

// WithStrategy selects the variable scoping strategy.
func WithStrategy(s Strategy) Option {
	return func(in *Injector) { in.strategy = s }
}

// WithVariables overrides the variable names.
func WithVariables(userVar, roleVar string) Option {
	return func(in *Injector) {
		if userVar != "" {
			in.userVar = userVar
		}
		if roleVar != "" {
			in.roleVar = roleVar
		}
	}
}

// New builds an injector over runner, defaulting to the
// transaction-scoped strategy.
func New(runner Runner, opts ...Option) *Injector {
	in := &Injector{
		runner:   runner,
		strategy: TxScoped,
		userVar:  DefaultUserVar,
		roleVar:  DefaultRoleVar,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Strategy reports the active scoping mode.
func (in *Injector) Strategy() Strategy { return in.strategy }

// Transaction runs fn in a transaction. Without an actor on the
// context the transaction is passed through untouched. With one, the
// variables are set inside the same transaction before fn runs; the
// values travel as query parameters, never concatenated into SQL.
func (in *Injector) Transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return in.runner.Transaction(ctx, fn)
	}
	local := in.strategy == TxScoped
	return in.runner.Transaction(ctx, func(tx *sql.Tx) error {
		if err := setVar(ctx, tx, in.userVar, actor.UserID, local); err != nil {
			return err
		}
		if err := setVar(ctx, tx, in.roleVar, actor.Role, local); err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			return err
		}
		if !local {
			// Reset before commit; an error here rolls the transaction
			// back, which also reverts the variables.
			if err := setVar(ctx, tx, in.userVar, "", false); err != nil {
				return err
			}
			if err := setVar(ctx, tx, in.roleVar, "", false); err != nil {
				return err
			}
		}
		return nil
	})
}

func setVar(ctx context.Context, tx *sql.Tx, name, value string, local bool) error {
	if _, err := tx.ExecContext(ctx, `select set_config($1, $2, $3)`, name, value, local); err != nil {
		return fmt.Errorf("rls: set %s: %w", name, err)
	}
	return nil
}
