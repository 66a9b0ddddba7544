// Package engine evaluates part scripts: small Lisp programs that build
// sample and stock solids through a kernel.Kernel. It wraps zygomys in a
// sandboxed environment so scripts cannot touch the filesystem.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/thatch/potatocam/internal/logging"
	"github.com/thatch/potatocam/pkg/kernel"
)

// DefaultPartName names the single part of a script that ends in a solid
// without calling defpart.
const DefaultPartName = "part"

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Part is a named solid produced by a script.
type Part struct {
	Name  string
	Solid kernel.Solid
}

// Engine wraps the zygomys interpreter.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	kernel kernel.Kernel

	mu         sync.Mutex
	generation uint64
}

// NewEngine creates an Engine whose scripts build solids with k.
func NewEngine(k kernel.Kernel) *Engine {
	return &Engine{kernel: k}
}

// Evaluate runs a part script and returns its parts in definition order.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns parts + nil errors + nil error
//   - On parse/eval failure: returns nil parts + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) ([]*Part, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		parts, evalErrs, err := e.evaluate(source)
		ch <- evalResult{parts: parts, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) ([]*Part, []EvalError, error) {
	// Empty source is a valid program without parts.
	if strings.TrimSpace(source) == "" {
		return []*Part{}, nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	parts := &partSet{list: []*Part{}, byName: make(map[string]*Part)}
	registerBuiltins(env, e.kernel, parts)

	err := env.LoadString(preprocessSource(source))
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	last, err := env.Run()
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	if len(parts.list) == 0 {
		if s, ok := last.(*sexpSolid); ok {
			parts.list = append(parts.list, &Part{Name: DefaultPartName, Solid: s.solid})
		}
	}
	logging.Logger().Debug("evaluated part script", "parts", len(parts.list))
	return parts.list, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?is)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?is)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
