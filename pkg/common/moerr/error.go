// Copyright 2024 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package moerr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
)

const MySQLDefaultSqlState = "HY000"

// mysql error codes used by the aggregation layer.
const (
	ER_UNKNOWN_ERROR            uint16 = 1105
	ER_TOO_MANY_ARGUMENTS       uint16 = 1582
	ER_WRONG_PARAMCOUNT_TO_FUNC uint16 = 1583
	ER_WRONG_TYPE_FOR_ARGUMENT  uint16 = 1584
	ER_TRUNCATED_WRONG_VALUE    uint16 = 1292
	ER_DATA_OUT_OF_RANGE        uint16 = 1690
	ER_NET_READ_ERROR_FROM_PIPE uint16 = 1154
)

const (
	// 0 - 99 is OK.
	Ok uint16 = 0

	// Group 1: Internal errors
	ErrInternal     uint16 = 20101
	ErrNotSupported uint16 = 20105

	// Group 3: invalid input
	ErrBadConfig    uint16 = 20300
	ErrInvalidInput uint16 = 20301

	// Group 4: unexpected state and io errors
	ErrUnexpectedEOF uint16 = 20407

	// Group 10: aggregate functions
	ErrArgumentCountMismatch uint16 = 21001
	ErrTooManyArguments      uint16 = 21002
	ErrIllegalArgumentType   uint16 = 21003
	ErrTypeConversion        uint16 = 21004
	ErrSizeLimitExceeded     uint16 = 21005

	// ErrEnd, the max value of MOErrorCode
	ErrEnd uint16 = 65535
)

type moErrorMsgItem struct {
	mysqlCode        uint16
	sqlStates        []string
	errorMsgOrFormat string
}

var errorMsgRefer = map[uint16]moErrorMsgItem{
	// Group 1: Internal errors
	ErrInternal:     {ER_UNKNOWN_ERROR, []string{MySQLDefaultSqlState}, "internal error: %s"},
	ErrNotSupported: {ER_UNKNOWN_ERROR, []string{MySQLDefaultSqlState}, "not supported: %s"},

	// Group 3: invalid input
	ErrBadConfig:    {ER_UNKNOWN_ERROR, []string{MySQLDefaultSqlState}, "invalid configuration: %s"},
	ErrInvalidInput: {ER_UNKNOWN_ERROR, []string{MySQLDefaultSqlState}, "invalid input: %s"},

	// Group 4: unexpected state or io error
	ErrUnexpectedEOF: {ER_NET_READ_ERROR_FROM_PIPE, []string{MySQLDefaultSqlState}, "unexpected end of file %s"},

	// Group 10: aggregate functions
	ErrArgumentCountMismatch: {ER_WRONG_PARAMCOUNT_TO_FUNC, []string{"42000"}, "aggregate function %s requires %d arguments, got %d"},
	ErrTooManyArguments:      {ER_TOO_MANY_ARGUMENTS, []string{"42000"}, "aggregate function %s requires at most %d parameters, got %d"},
	ErrIllegalArgumentType:   {ER_WRONG_TYPE_FOR_ARGUMENT, []string{MySQLDefaultSqlState}, "illegal type %s of argument %d of aggregate function %s: %s"},
	ErrTypeConversion:        {ER_TRUNCATED_WRONG_VALUE, []string{"22007"}, "cannot convert %v to type %s: %s"},
	ErrSizeLimitExceeded:     {ER_DATA_OUT_OF_RANGE, []string{"22003"}, "too large array size: %s (maximum: %d)"},

	// Group End: max value of MOErrorCode
	ErrEnd: {ER_UNKNOWN_ERROR, []string{MySQLDefaultSqlState}, "internal error: end of errcode code"},
}

func newError(ctx context.Context, code uint16, args ...any) *Error {
	var err *Error
	item, has := errorMsgRefer[code]
	if !has {
		panic(NewInternalError(ctx, "not exist MOErrorCode: %d", code))
	}
	if len(args) == 0 {
		err = &Error{
			code:      code,
			mysqlCode: item.mysqlCode,
			message:   item.errorMsgOrFormat,
			sqlState:  item.sqlStates[0],
		}
	} else {
		err = &Error{
			code:      code,
			mysqlCode: item.mysqlCode,
			message:   fmt.Sprintf(item.errorMsgOrFormat, args...),
			sqlState:  item.sqlStates[0],
		}
	}
	return err
}

type Error struct {
	code      uint16
	mysqlCode uint16
	message   string
	sqlState  string
	detail    string
}

func (e *Error) Error() string {
	return e.message
}

func (e *Error) Detail() string {
	return e.detail
}

func (e *Error) Display() string {
	if len(e.detail) == 0 {
		return e.message
	}
	return fmt.Sprintf("%s: %s", e.message, e.detail)
}

func (e *Error) ErrorCode() uint16 {
	return e.code
}

func (e *Error) MySQLCode() uint16 {
	return e.mysqlCode
}

func (e *Error) SqlState() string {
	return e.sqlState
}

func (e *Error) Succeeded() bool {
	return e.code == Ok
}

func IsMoErrCode(e error, rc uint16) bool {
	if e == nil {
		return rc == Ok
	}

	var me *Error
	if !errors.As(e, &me) {
		// This is not a moerr
		return false
	}
	return me.code == rc
}

// IsFatal reports whether err must abort the whole aggregation rather than
// the current group only. Every aggregate error is fatal.
func IsFatal(err error) bool {
	var me *Error
	if !errors.As(err, &me) {
		return err != nil
	}
	switch me.code {
	case ErrArgumentCountMismatch, ErrTooManyArguments, ErrIllegalArgumentType,
		ErrTypeConversion, ErrSizeLimitExceeded:
		return true
	}
	return me.code != Ok
}

func DowncastError(e error) *Error {
	if err, ok := e.(*Error); ok {
		return err
	}
	return newError(Context(), ErrInternal, fmt.Sprintf("downcast error failed: %v", e))
}

// ConvertPanicError converts a runtime panic to internal error.
func ConvertPanicError(ctx context.Context, v interface{}) *Error {
	if e, ok := v.(*Error); ok {
		return e
	}
	return newError(ctx, ErrInternal, fmt.Sprintf("panic %v", v))
}

// ConvertGoError converts a go error into mo error.
// Note here we must return error, because nil error
// is the same as nil *Error -- Go strangeness.
func ConvertGoError(ctx context.Context, err error) error {
	// nil is nil
	if err == nil {
		return err
	}

	// already a moerr, return it as is
	if _, ok := err.(*Error); ok {
		return err
	}

	// Convert a few well known os/go error.
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		// if io.EOF reaches here, we believe it is not expected.
		return NewUnexpectedEOF(ctx, err.Error())
	}

	return NewInternalError(ctx, "convert go error to mo error %v", err)
}

func NewInternalError(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrInternal, xmsg)
}

func NewNotSupported(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrNotSupported, xmsg)
}

func NewBadConfig(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrBadConfig, xmsg)
}

func NewInvalidInput(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrInvalidInput, xmsg)
}

func NewUnexpectedEOF(ctx context.Context, f string) *Error {
	return newError(ctx, ErrUnexpectedEOF, f)
}

func NewArgumentCountMismatch(ctx context.Context, fn string, want, got int) *Error {
	return newError(ctx, ErrArgumentCountMismatch, fn, want, got)
}

func NewTooManyArguments(ctx context.Context, fn string, max, got int) *Error {
	return newError(ctx, ErrTooManyArguments, fn, max, got)
}

func NewIllegalArgumentType(ctx context.Context, typ string, idx int, fn string, reason string) *Error {
	return newError(ctx, ErrIllegalArgumentType, typ, idx, fn, reason)
}

func NewTypeConversion(ctx context.Context, val any, typ string, reason string) *Error {
	return newError(ctx, ErrTypeConversion, val, typ, reason)
}

func NewSizeLimitExceeded(ctx context.Context, max uint64, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrSizeLimitExceeded, xmsg, max)
}

func NewInternalErrorNoCtx(msg string, args ...any) *Error {
	return NewInternalError(Context(), msg, args...)
}

func NewInvalidInputNoCtx(msg string, args ...any) *Error {
	return NewInvalidInput(Context(), msg, args...)
}

func NewSizeLimitExceededNoCtx(max uint64, msg string, args ...any) *Error {
	return NewSizeLimitExceeded(Context(), max, msg, args...)
}

var contextFunc atomic.Value

func SetContextFunc(f func() context.Context) {
	contextFunc.Store(f)
}

// Context should be trace.DefaultContext
func Context() context.Context {
	return contextFunc.Load().(func() context.Context)()
}

func init() {
	SetContextFunc(func() context.Context { return context.Background() })
}
