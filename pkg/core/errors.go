package core

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/jdziat/simple-block-guard/pkg/internal/handler"
)

// Resolution errors
var (
	ErrMethodNotResolved   = errors.New("blockguard: cannot resolve target method")
	ErrResourceNotDeclared = errors.New("blockguard: resolved method has no resource declaration")
	ErrUnknownClass        = errors.New("blockguard: no class defined for target type")
)

// Invocation errors
var (
	ErrArgumentMismatch       = handler.ErrArgumentMismatch
	ErrIncorrectArgumentCount = handler.ErrIncorrectArgumentCount
)

// InvocationError wraps a failure returned by a method invoked through
// Method.Invoke.
type InvocationError = handler.InvocationError

// BlockKind classifies why a call was blocked.
type BlockKind string

const (
	BlockGeneric   BlockKind = "block"
	BlockFlow      BlockKind = "flow"
	BlockDegrade   BlockKind = "degrade"
	BlockSystem    BlockKind = "system"
	BlockAuthority BlockKind = "authority"
	BlockParamFlow BlockKind = "param_flow"
)

// BlockError is the block signal. A guarded method returns it (possibly
// wrapped) to have the call redirected to its block handler. Every kind
// triggers the same handler resolution.
type BlockError struct {
	Kind    BlockKind
	Rule    string
	Message string
}

func (e *BlockError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = BlockGeneric
	}
	if e.Message == "" {
		return fmt.Sprintf("blocked (%s)", kind)
	}
	return fmt.Sprintf("blocked (%s): %s", kind, e.Message)
}

// Block creates a generic block signal.
func Block(msg string) *BlockError {
	return &BlockError{Kind: BlockGeneric, Message: msg}
}

// BlockWithKind creates a block signal of the given kind.
func BlockWithKind(kind BlockKind, msg string) *BlockError {
	return &BlockError{Kind: kind, Message: msg}
}

// AsBlock finds the first *BlockError in err's chain.
func AsBlock(err error) (*BlockError, bool) {
	var be *BlockError
	if errors.As(err, &be) && be != nil {
		return be, true
	}
	return nil, false
}

// IsBlock reports whether err carries a block signal.
func IsBlock(err error) bool {
	_, ok := AsBlock(err)
	return ok
}

// MethodNotResolvedError reports that no declared method matched a call
// context. It is a fatal configuration error.
type MethodNotResolvedError struct {
	Class  string
	Name   string
	Params []reflect.Type
}

func (e *MethodNotResolvedError) Error() string {
	return fmt.Sprintf("%v: %s%s from class %s", ErrMethodNotResolved, e.Name, FormatTypes(e.Params), e.Class)
}

func (e *MethodNotResolvedError) Unwrap() error {
	return ErrMethodNotResolved
}
