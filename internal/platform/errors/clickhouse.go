package errors

// ClickHouse server exceptions mapped onto project codes

import (
	stderrs "errors"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// Server exception codes we classify, see system.errors
const (
	chErrUnknownTable          int32 = 60
	chErrUnknownDatabase       int32 = 81
	chErrTimeoutExceeded       int32 = 159
	chErrTooManySimultaneous   int32 = 202
	chErrSocketTimeout         int32 = 209
	chErrNetworkError          int32 = 210
	chErrMemoryLimitExceeded   int32 = 241
	chErrTooManyParts          int32 = 252
	chErrTypeMismatch          int32 = 53
	chErrCannotParseInput      int32 = 27
	chErrReadonly              int32 = 164
	chErrTableIsReadOnly       int32 = 242
	chErrAllConnectionsFailed  int32 = 279
	chErrKeeperException       int32 = 999
	chErrTooManyQueriesPerUser int32 = 203
)

// ExtractClickHouseError returns the server exception when err carries one
func ExtractClickHouseError(err error) (*clickhouse.Exception, bool) {
	var ex *clickhouse.Exception
	if stderrs.As(err, &ex) {
		return ex, true
	}
	return nil, false
}

// CHErrorCode maps a ClickHouse exception to an ErrorCode, !ok for foreign errors
func CHErrorCode(err error) (ErrorCode, bool) {
	ex, ok := ExtractClickHouseError(err)
	if !ok {
		return ErrorCodeUnknown, false
	}
	switch ex.Code {
	case chErrTypeMismatch, chErrCannotParseInput:
		return ErrorCodeInvalidArgument, true
	case chErrTimeoutExceeded, chErrTooManySimultaneous, chErrTooManyQueriesPerUser,
		chErrSocketTimeout, chErrNetworkError, chErrMemoryLimitExceeded, chErrTooManyParts,
		chErrReadonly, chErrTableIsReadOnly, chErrAllConnectionsFailed, chErrKeeperException:
		return ErrorCodeUnavailable, true
	case chErrUnknownTable, chErrUnknownDatabase:
		return ErrorCodeDB, true
	}
	return ErrorCodeDB, true
}

// FromClickHouse wraps err with a mapped code, nil stays nil
// errors that are not server exceptions are reported as sink failures
func FromClickHouse(err error, format string, a ...any) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, a...)
	if code, ok := CHErrorCode(err); ok {
		return Wrap(err, code, msg)
	}
	return Wrap(err, ErrorCodeSink, msg)
}

// IsClickHouseRetryable reports server side back pressure or transient failures
func IsClickHouseRetryable(err error) bool {
	if err == nil {
		return false
	}
	code, ok := CHErrorCode(err)
	return ok && code == ErrorCodeUnavailable
}
