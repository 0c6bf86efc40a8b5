package compiler

import (
	"strings"

	"github.com/steveyegge/flm/internal/boolexpr"
	"github.com/steveyegge/flm/internal/flmerrors"
)

// ConditionalProcessor is the `!#if` / `!#else` / `!#endif` state machine
// of §4.H (reused verbatim by the Filter Collector, §4.I, seeded with the
// caller's own constants at query time). It tracks a nesting `level` and
// a `disabledAt` latch recording the level at which capturing stopped,
// plus a per-level "already saw an else" set to catch duplicate elses.
type ConditionalProcessor struct {
	eval          *boolexpr.Evaluator
	level         int
	disabledAt    int // 0 means "not disabled"
	seenElseAt    map[int]bool
}

// NewConditionalProcessor seeds a processor against a constant set.
func NewConditionalProcessor(eval *boolexpr.Evaluator) *ConditionalProcessor {
	return &ConditionalProcessor{eval: eval, seenElseAt: make(map[int]bool)}
}

// IsCapturing reports whether lines encountered right now belong to an
// active (non-disabled) branch.
func (p *ConditionalProcessor) IsCapturing() bool { return p.disabledAt == 0 }

// Process offers one trimmed line to the state machine. recognized is
// true when the line was a conditional directive (and should not be
// emitted/counted as content).
func (p *ConditionalProcessor) Process(trimmed string) (recognized bool, err error) {
	switch {
	case strings.HasPrefix(trimmed, "!#if"):
		p.level++
		exprText := strings.TrimSpace(strings.TrimPrefix(trimmed, "!#if"))
		if exprText == "" {
			return true, flmerrors.New(flmerrors.EmptyIf, "!#if directive with no expression at level %d", p.level)
		}
		if p.IsCapturing() {
			val, err := boolexpr.EvalDirective(p.eval, exprText)
			if err != nil {
				return true, err
			}
			if !val {
				p.disabledAt = p.level
			}
		}
		return true, nil

	case trimmed == "!#else":
		if p.level == 0 {
			return true, flmerrors.New(flmerrors.UnbalancedElse, "!#else without a matching !#if")
		}
		if p.seenElseAt[p.level] {
			return true, flmerrors.New(flmerrors.UnbalancedElse, "duplicate !#else at level %d", p.level)
		}
		p.seenElseAt[p.level] = true
		switch {
		case p.disabledAt == 0:
			// Capturing at this level: toggle off.
			p.disabledAt = p.level
		case p.disabledAt == p.level:
			// Disabled exactly at this level: toggle back on.
			p.disabledAt = 0
		}
		// disabledAt latched at an outer level: stays disabled regardless.
		return true, nil

	case trimmed == "!#endif":
		if p.level == 0 {
			return true, flmerrors.New(flmerrors.UnbalancedEndIf, "!#endif without a matching !#if")
		}
		if p.disabledAt == p.level {
			p.disabledAt = 0
		}
		delete(p.seenElseAt, p.level)
		p.level--
		return true, nil

	default:
		return false, nil
	}
}

// FinalCheck reports an UnbalancedIf error if the source ended with
// unclosed `!#if` blocks.
func (p *ConditionalProcessor) FinalCheck() error {
	if p.level != 0 {
		return flmerrors.New(flmerrors.UnbalancedIf, "%d unclosed !#if block(s) at end of input", p.level)
	}
	return nil
}
