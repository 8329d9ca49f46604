package xactor

import (
	"runtime/debug"

	"gocell/pkg/xcommon"

	"github.com/pkg/errors"
)

var (
	ErrDeadActor      = errors.New("actor is dead")
	ErrNotActor       = errors.New("not in actor scope")
	ErrNotTask        = errors.New("not the running task")
	ErrDeadTask       = errors.New("task is not suspended")
	ErrExclusive      = errors.New("cannot suspend in exclusive mode")
	ErrExclusiveBlock = errors.New("cannot yield to sender block in exclusive mode")
	ErrLinkTimeout    = errors.New("linking timeout")
	ErrSelfLink       = errors.New("cannot link to self")
	ErrNoMethod       = errors.New("no such method")
	ErrArity          = errors.New("wrong number of arguments")
	ErrArgType        = errors.New("wrong argument type")
	ErrNoBlock        = errors.New("no block given")
	ErrInterval       = errors.New("invalid timer interval")
	ErrNotRegistered  = errors.New("actor not registered")
)

// 调用方使用错误, 不会导致被调actor崩溃
type AbortError struct {
	cause error
}

func NewAbortError(cause error) *AbortError {
	return &AbortError{cause: cause}
}

func (e *AbortError) Error() string {
	return "call aborted: " + e.cause.Error()
}

func (e *AbortError) Cause() error {
	return e.cause
}

func (e *AbortError) Unwrap() error {
	return e.cause
}

func IsAbort(err error) bool {
	var ae *AbortError
	return errors.As(err, &ae)
}

// 调用参数类错误转换为AbortError
func abortable(err error) error {
	if err == nil || IsAbort(err) {
		return err
	}
	if errors.Is(err, ErrNoMethod) || errors.Is(err, ErrArity) || errors.Is(err, ErrArgType) {
		return NewAbortError(err)
	}
	return err
}

// 不可恢复错误, actor清理后继续向上panic
type fatalError struct {
	err error
}

func (e *fatalError) Error() string {
	return "fatal: " + e.err.Error()
}

func (e *fatalError) Unwrap() error {
	return e.err
}

func Fatal(err error) error {
	return &fatalError{err: err}
}

func IsFatal(err error) bool {
	var fe *fatalError
	return errors.As(err, &fe)
}

// actor崩溃信息, 任务间传递的panic值
type crash struct {
	reason error
	stack  []byte
}

func (c *crash) Error() string {
	return c.reason.Error()
}

func newCrash(reason error) *crash {
	return &crash{reason: reason, stack: debug.Stack()}
}

// recover值转换为crash
func recoverCrash(r interface{}) *crash {
	if c, ok := r.(*crash); ok {
		return c
	}
	return newCrash(xcommon.ToError(r))
}

// 任务被终止时的panic值
type taskTerminated struct{}
