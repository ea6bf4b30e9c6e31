// Package postgres implements the post, like and user repositories directly
// on Postgres for deployments that do not go through PostgREST.
package postgres

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Error is a Postgres error annotated with the failing operation. It exposes
// the SQLSTATE code the same way PostgREST errors do, so the core services can
// map constraint violations without knowing which backend produced them.
type Error struct {
	Op  string
	err *pq.Error
}

func (e *Error) Error() string {
	return e.err.Message
}

// SQLState returns the five character SQLSTATE code
func (e *Error) SQLState() string {
	return string(e.err.Code)
}

func (e *Error) Unwrap() error {
	return e.err
}

// wrapError converts driver errors into *Error and annotates anything else with op
func wrapError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &Error{Op: op, err: pqErr}
	}
	return fmt.Errorf("%s: %w", op, err)
}
