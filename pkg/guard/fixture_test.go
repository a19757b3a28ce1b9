package guard

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jdziat/simple-block-guard/pkg/core"
)

// ---------------------------------------------------------------------------
// Fixture: a service with guarded methods, a static exception utility, and a
// subclass inheriting its block handler through embedding
// ---------------------------------------------------------------------------

var errDatabase = errors.New("database unavailable")

type TestService struct {
	testErr     error
	handlerErr  error
	handlerArgs []any
	plainErr    error
}

func (s *TestService) Test() error { return s.testErr }

func (s *TestService) Hello(n int64) (string, error) {
	if n < 0 {
		return "", core.Block("invalid arg")
	}
	return fmt.Sprintf("Hello at %d", n), nil
}

func (s *TestService) HelloAnother(name string) (string, error) {
	if name == "" || name == "bad" {
		return "", core.Block("oops")
	}
	return "Hello, " + name, nil
}

func (s *TestService) HelloBlockHandler(n int64, be *core.BlockError) (string, error) {
	s.handlerArgs = []any{n, be}
	if s.handlerErr != nil {
		return "", s.handlerErr
	}
	return fmt.Sprintf("Oops, error occurred at %d", n), nil
}

func (s *TestService) Query(id int) (string, error) {
	if s.plainErr != nil {
		return "", s.plainErr
	}
	return "", fmt.Errorf("query %d: %w", id, core.BlockWithKind(core.BlockFlow, "qps exceeded"))
}

func (s *TestService) Unguarded() string { return "unguarded" }

func (s *TestService) Escalate() error { return core.Block("no handler") }

func (s *TestService) Missing(n int64) (string, error) { return "", core.Block("missing handler") }

type ChildService struct {
	TestService
}

func (c *ChildService) Fetch(n int64) (string, error) {
	return "", core.Block("child blocked")
}

type exceptionUtil struct {
	calls []*core.BlockError
}

type fixture struct {
	reg     *core.Registry
	service *core.Class
	child   *core.Class
	util    *core.Class
	utilRec *exceptionUtil
	guard   *Guard
}

func newFixture(opts ...Option) *fixture {
	reg := core.NewRegistry()
	rec := &exceptionUtil{}

	util := reg.Define("ExceptionUtil", nil)
	util.DeclareStatic("HandleException", func(be *core.BlockError) {
		rec.calls = append(rec.calls, be)
	})
	util.DeclareStatic("HandleException", func(name string, be *core.BlockError) string {
		return "Fallback for " + name + ": " + be.Message
	})

	service := reg.Define("TestServiceImpl", (*TestService)(nil))
	service.Declare("Test", (*TestService).Test,
		core.Guarded(core.Resource{Name: "test", BlockHandler: "HandleException", BlockHandlerClass: util}))
	service.Declare("Hello", (*TestService).Hello,
		core.Guarded(core.Resource{Name: "hello", BlockHandler: "HelloBlockHandler"}))
	service.Declare("HelloAnother", (*TestService).HelloAnother,
		core.Guarded(core.Resource{Name: "helloAnother", BlockHandler: "HandleException", BlockHandlerClass: util}))
	service.Declare("Query", (*TestService).Query,
		core.Guarded(core.Resource{BlockHandler: "QueryFallback"}))
	service.Declare("QueryFallback", func(s *TestService, id int, be *core.BlockError) (string, error) {
		return fmt.Sprintf("fallback %d (%s)", id, be.Kind), nil
	})
	service.Declare("Unguarded", (*TestService).Unguarded)
	service.Declare("Escalate", (*TestService).Escalate, core.Guarded(core.Resource{Name: "escalate"}))
	service.Declare("Missing", (*TestService).Missing,
		core.Guarded(core.Resource{Name: "missing", BlockHandler: "NoSuchHandler"}))
	service.Declare("HelloBlockHandler", (*TestService).HelloBlockHandler)
	service.Declare("FetchFallback", func(s *TestService, n int64, be *core.BlockError) string {
		return fmt.Sprintf("inherited fallback %d", n)
	})

	child := reg.Define("ChildService", (*ChildService)(nil), core.Extends(service))
	child.Declare("Fetch", (*ChildService).Fetch,
		core.Guarded(core.Resource{Name: "fetch", BlockHandler: "FetchFallback"}))

	if len(opts) == 0 {
		opts = []Option{WithLogger(discardLogger())}
	}

	return &fixture{
		reg:     reg,
		service: service,
		child:   child,
		util:    util,
		utilRec: rec,
		guard:   New(reg, opts...),
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
