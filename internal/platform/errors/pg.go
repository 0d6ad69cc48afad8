package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE values with a specific mapping
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
	pgStringTruncation    = "22001"
	pgInvalidText         = "22P02"
	pgBadDatetime         = "22007"
	pgDatetimeOverflow    = "22008"

	pgSerializationFailure = "40001"
	pgDeadlock             = "40P01"
	pgLockNotAvailable     = "55P03"
	pgQueryCanceled        = "57014"

	pgReadOnlyTx     = "25006"
	pgCannotConnect  = "57P03"
	pgAdminShutdown  = "57P01"
	pgUndefinedTable = "42P01"
)

// transient after a retry, the job store and the importer hit these under concurrent load
var pgRetryText = []string{
	"commit unexpectedly resulted in rollback",
	"deadlock detected",
	"could not serialize access",
	"canceling statement due to lock timeout",
	"terminating connection due to administrator command",
}

func pgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if stderrs.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// DBErrorCode maps a Postgres error onto a code, !ok when err has no *pgconn.PgError
// constraint and datatype failures come from bad imported data, unavailable ones from the server
func DBErrorCode(err error) (ErrorCode, bool) {
	pgErr, ok := pgError(err)
	if !ok {
		return ErrorCodeUnknown, false
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return ErrorCodeDuplicateKey, true
	case pgNotNullViolation, pgCheckViolation, pgBadDatetime, pgDatetimeOverflow:
		return ErrorCodeValidation, true
	case pgForeignKeyViolation, pgStringTruncation, pgInvalidText:
		return ErrorCodeInvalidArgument, true
	case pgReadOnlyTx, pgCannotConnect, pgAdminShutdown, pgUndefinedTable:
		return ErrorCodeUnavailable, true
	}
	return ErrorCodeDB, true
}

// FromPostgres wraps err with its mapped code, anything that is not a server error is DB
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	code, ok := DBErrorCode(err)
	if !ok {
		code = ErrorCodeDB
	}
	return Wrap(err, code, msg)
}

// FromPostgresf is FromPostgres with formatting
func FromPostgresf(err error, format string, a ...any) error {
	if err == nil {
		return nil
	}
	return FromPostgres(err, fmt.Sprintf(format, a...))
}

// IsRetryable reports contention that a second attempt usually gets past
// local cancellation is never retryable, the caller gave up
func IsRetryable(err error) bool {
	if err == nil || stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	if pgErr, ok := pgError(err); ok {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlock, pgLockNotAvailable, pgAdminShutdown:
			return true
		case pgQueryCanceled:
			return strings.Contains(pgErr.Message, "lock timeout")
		}
		return false
	}
	msg := strings.ToLower(Root(err).Error())
	for _, s := range pgRetryText {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
