package spoon

import (
	"testing"

	"github.com/dop251/goja"
)

// harness runs JavaScript in goja with asynchronous operations whose
// callbacks are queued and only run after the calling script returns.
type harness struct {
	t    *testing.T
	vm   *goja.Runtime
	jobs []func() error
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{t: t, vm: goja.New()}
	// op(v, k) completes with 2*v.
	h.async("op", func(args []goja.Value) (goja.Value, goja.Value) {
		return goja.Null(), h.vm.ToValue(args[0].ToInteger() * 2)
	})
	// echo(v, k) completes with v.
	h.async("echo", func(args []goja.Value) (goja.Value, goja.Value) {
		return goja.Null(), args[0]
	})
	// fail(k) completes with an error.
	h.async("fail", func([]goja.Value) (goja.Value, goja.Value) {
		return h.vm.ToValue("boom"), goja.Undefined()
	})
	return h
}

// async registers name as an operation taking a trailing error-first
// continuation.
func (h *harness) async(name string, complete func(args []goja.Value) (errv, result goja.Value)) {
	if err := h.vm.Set(name, func(call goja.FunctionCall) goja.Value {
		n := len(call.Arguments)
		if n == 0 {
			panic(h.vm.NewTypeError(name + ": missing continuation"))
		}
		k, ok := goja.AssertFunction(call.Arguments[n-1])
		if !ok {
			panic(h.vm.NewTypeError(name + ": last argument is not a function"))
		}
		args := call.Arguments[:n-1]
		h.jobs = append(h.jobs, func() error {
			errv, result := complete(args)
			_, err := k(goja.Undefined(), errv, result)
			return err
		})
		return goja.Undefined()
	}); err != nil {
		h.t.Fatal(err)
	}
}

func (h *harness) set(name string, v any) {
	if err := h.vm.Set(name, v); err != nil {
		h.t.Fatal(err)
	}
}

// run executes src and then drains the job queue.
func (h *harness) run(src string) goja.Value {
	h.t.Helper()
	v, err := h.vm.RunString(src)
	if err != nil {
		h.t.Fatalf("run: %v\n%s", err, src)
	}
	for len(h.jobs) > 0 {
		job := h.jobs[0]
		h.jobs = h.jobs[1:]
		if err := job(); err != nil {
			h.t.Fatalf("job: %v\n%s", err, src)
		}
	}
	return v
}

func (h *harness) get(name string) any {
	return h.vm.Get(name).Export()
}
