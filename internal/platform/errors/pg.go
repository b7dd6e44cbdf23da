package errors

import (
	"context"
	stderrs "errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the mapping cares about
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
	pgStringTruncation    = "22001"
	pgInvalidText         = "22P02"
	pgSerializationFail   = "40001"
	pgDeadlock            = "40P01"
	pgLockNotAvailable    = "55P03"
	pgReadOnlyTx          = "25006"
	pgCannotConnectNow    = "57P03"
)

var pgCodes = map[string]ErrorCode{
	pgUniqueViolation:     ErrorCodeDuplicateKey,
	pgForeignKeyViolation: ErrorCodeInvalidArgument,
	pgNotNullViolation:    ErrorCodeValidation,
	pgCheckViolation:      ErrorCodeValidation,
	pgStringTruncation:    ErrorCodeInvalidArgument,
	pgInvalidText:         ErrorCodeInvalidArgument,
	pgReadOnlyTx:          ErrorCodeUnavailable,
	pgCannotConnectNow:    ErrorCodeUnavailable,
}

func pgError(err error) (*pgconn.PgError, bool) {
	var pe *pgconn.PgError
	if stderrs.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// FromPostgres wraps a driver error, classifying it by SQLSTATE. Anything
// unrecognised is a DB error. nil stays nil
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	code := ErrorCodeDB
	if pe, ok := pgError(err); ok {
		if c, ok := pgCodes[pe.Code]; ok {
			code = c
		}
	}
	return Wrap(err, code, msg)
}

// IsUniqueViolationOn reports a unique violation on the named constraint
func IsUniqueViolationOn(err error, constraint string) bool {
	pe, ok := pgError(err)
	return ok && pe.Code == pgUniqueViolation && pe.ConstraintName == constraint
}

// IsRetryable reports a transient Postgres conflict: serialization failure,
// deadlock, lock timeout, or the text pgx reports for those on commit.
// Context cancellation is never retryable here
func IsRetryable(err error) bool {
	if err == nil || stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	if pe, ok := pgError(err); ok {
		switch pe.Code {
		case pgSerializationFail, pgDeadlock, pgLockNotAvailable:
			return true
		}
		return false
	}
	s := strings.ToLower(Root(err).Error())
	for _, frag := range []string{
		"commit unexpectedly resulted in rollback",
		"deadlock detected",
		"could not serialize access",
		"canceling statement due to lock timeout",
		"could not obtain lock on row",
	} {
		if strings.Contains(s, frag) {
			return true
		}
	}
	return false
}
