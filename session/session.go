// Package session ties the interpreter core to its host services: parsing,
// logging, the evaluation history store, and snapshots. It also registers
// the host-side operators (printing, save/restore, quit) through the same
// public registration interface any other collaborator would use.
package session

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/tliron/commonlog"

	"github.com/slip-lang/slip/history"
	"github.com/slip-lang/slip/interp"
	"github.com/slip-lang/slip/parse"
	"github.com/slip-lang/slip/snapshot"
)

// Options configures a session. The zero value is usable: output goes to
// os.Stdout and nothing is persisted.
type Options struct {
	// Out receives the output of the printing operators.
	Out io.Writer

	// History, when set, records every evaluation and its outcome.
	History *history.Store

	// ID names this session in the history store.
	ID string

	// StepLimit bounds engine steps per evaluation; 0 means unbounded.
	StepLimit int64
}

// Session is one interpretation context: a name table, an operator
// registry with the base library and host operators registered, and an
// engine. Sessions are single-threaded, like the engine they own.
type Session struct {
	names *interp.NameTable
	reg   *interp.Registry
	eng   *interp.Engine
	log   commonlog.Logger
	hist  *history.Store
	id    string
	out   io.Writer
}

// New creates a session with the base operator library and the host
// operators registered.
func New(opts Options) (*Session, error) {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	id := opts.ID
	if id == "" {
		id = fmt.Sprintf("session-%d", time.Now().UnixNano())
	}

	names := interp.NewNameTable()
	reg := interp.NewRegistry()
	if err := interp.RegisterBase(names, reg); err != nil {
		return nil, fmt.Errorf("registering base library: %w", err)
	}

	s := &Session{
		names: names,
		reg:   reg,
		eng:   interp.NewEngine(names, reg),
		log:   commonlog.GetLogger("slip.session"),
		hist:  opts.History,
		id:    id,
		out:   out,
	}
	s.eng.SetStepLimit(opts.StepLimit)
	if err := s.registerHostOps(); err != nil {
		return nil, fmt.Errorf("registering host operators: %w", err)
	}
	return s, nil
}

// Engine exposes the underlying engine to host collaborators.
func (s *Session) Engine() *interp.Engine { return s.eng }

// Names exposes the session's name table.
func (s *Session) Names() *interp.NameTable { return s.names }

// Register adds a host operator: the registration interface of the core,
// with name interning handled here.
func (s *Session) Register(name string, sig []interp.Kind, fn interp.NativeFn) error {
	return s.reg.Register(s.names.Intern(name), sig, fn)
}

// Eval parses and runs one unit of program text. The returned error, when
// non-nil, is always a *interp.Condition: either a syntax error from the
// parser or an unhandled condition from the engine, which is back in its
// idle state and ready for the next text.
func (s *Session) Eval(text string) error {
	tokens, err := parse.String(text, s.names)
	if err != nil {
		s.record(text, err.Error())
		s.log.Errorf("parse failed: %s", err.Error())
		return err
	}

	if cond := s.eng.Run(tokens); cond != nil {
		s.record(text, cond.Error())
		s.log.Errorf("evaluation failed: %s (operands: %s)",
			cond.Error(), renderTokens(cond.Operands))
		return cond
	}

	s.record(text, "ok")
	s.log.Debugf("evaluated %d tokens, operand depth %d",
		len(tokens), s.eng.Operands().Depth())
	return nil
}

// Halted reports whether a quit operator ran during the last Eval.
func (s *Session) Halted() bool { return s.eng.Halted() }

// Depth returns the current operand stack depth.
func (s *Session) Depth() int { return s.eng.Operands().Depth() }

// StackLines renders the operand stack top-first for display.
func (s *Session) StackLines() []string {
	snap := s.eng.Operands().Snapshot()
	lines := make([]string, 0, len(snap))
	for i := len(snap) - 1; i >= 0; i-- {
		lines = append(lines, snap[i].String())
	}
	return lines
}

// SaveSnapshot writes the global dictionary to path, returning the names
// of bindings that have no serial form.
func (s *Session) SaveSnapshot(path string) ([]string, error) {
	skipped, err := snapshot.Save(path, s.eng.Globals())
	if err != nil {
		return nil, err
	}
	if len(skipped) > 0 {
		s.log.Infof("snapshot skipped %d bindings: %s", len(skipped), strings.Join(skipped, ", "))
	}
	return skipped, nil
}

// LoadSnapshot restores a snapshot into the global dictionary.
func (s *Session) LoadSnapshot(path string) error {
	return snapshot.Load(path, s.names, s.eng.Globals())
}

func (s *Session) record(source, outcome string) {
	if s.hist == nil {
		return
	}
	if err := s.hist.Append(s.id, source, outcome); err != nil {
		s.log.Errorf("history append failed: %s", err.Error())
	}
}

func renderTokens(toks []interp.Token) string {
	parts := make([]string, len(toks))
	for i, t := range toks {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}
