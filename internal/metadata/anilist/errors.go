package anilist

import (
	"errors"
	"fmt"
)

// ErrUnavailable is the single failure callers distinguish: the catalog could
// not produce results. The concrete cause stays in the chain for logging.
var ErrUnavailable = errors.New("anilist: catalog unavailable")

// Sentinel causes, wrapped together with ErrUnavailable.
var (
	ErrRateLimited = errors.New("anilist: rate limited by server")
	ErrServer      = errors.New("anilist: server error")
	ErrBadResponse = errors.New("anilist: malformed response")
)

// Error carries operation context for a failed catalog call.
type Error struct {
	Op    string
	Query string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("anilist %s [%q]: %v", e.Op, e.Query, e.Err)
}

// Unwrap exposes both ErrUnavailable and the cause.
func (e *Error) Unwrap() []error {
	return []error{ErrUnavailable, e.Err}
}

func wrapError(op, query string, err error) error {
	return &Error{Op: op, Query: query, Err: err}
}

// graphQLError is one entry of a GraphQL "errors" array.
type graphQLError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type graphQLErrors []graphQLError

func (g graphQLErrors) Error() string {
	if len(g) == 1 {
		return fmt.Sprintf("graphql error (status %d): %s", g[0].Status, g[0].Message)
	}
	return fmt.Sprintf("%d graphql errors, first (status %d): %s", len(g), g[0].Status, g[0].Message)
}
