// Package compiler implements the Filter Compiler (§4.H): it walks a
// root filter body and its transitive `!#include`s once, at storage
// time, producing the verbatim root body, a compile-time rules-count
// estimate, the resolved FilterInclude entities, and the metadata
// properties harvested from the leading comment block. Conditional
// directives are evaluated to decide what counts toward the rules
// tally, but the root body itself is stored unstripped: the true,
// caller-specific active ruleset is only assembled later, by the
// Filter Collector (§4.I), against the caller's own constants.
package compiler

import (
	"strings"

	"lukechampine.com/blake3"

	"github.com/steveyegge/flm/internal/boolexpr"
	"github.com/steveyegge/flm/internal/checksum"
	"github.com/steveyegge/flm/internal/flmerrors"
	"github.com/steveyegge/flm/internal/metadata"
	"github.com/steveyegge/flm/internal/sniffer"
	"github.com/steveyegge/flm/internal/types"
	"github.com/steveyegge/flm/internal/urlresolve"
)

// ContentProvider fetches the root body and include bodies by URL.
// StringProvider, HTTPProvider and RootOverrideProvider implement it;
// the compiler tests supply an in-memory map.
type ContentProvider interface {
	GetRoot(url string) (string, error)
	GetInclude(url string) (string, error)
}

// Result is everything the compiler derives from one root filter.
type Result struct {
	Body                  string
	RulesCount            int32
	Includes              []types.FilterInclude
	Metadata              map[metadata.Property]string
	HasDirectives         bool
}

// Compiler runs the compile pass for one filter list type against a
// fixed conditional-constant set.
type Compiler struct {
	provider ContentProvider
	eval     *boolexpr.Evaluator

	// SkipChecksumValidation governs whether fetched includes are run
	// through the Checksum Validator (§4.C). Defaults to true. With
	// validation on, an include without a checksum line still passes;
	// only one whose checksum line does not match its body is rejected.
	SkipChecksumValidation bool
}

// New builds a Compiler. Pass the conditional constants configured for
// this filter list type (e.g. platform/OS names).
func New(provider ContentProvider, constants []string) *Compiler {
	return &Compiler{
		provider:               provider,
		eval:                   boolexpr.New(constants),
		SkipChecksumValidation: true,
	}
}

type frame struct {
	url       string
	body      string
	lines     []string
	idx       int
	ruleCount int32
}

func splitLines(body string) []string {
	return strings.Split(body, "\n")
}

func isRuleLine(trimmed string) bool {
	if trimmed == "" {
		return false
	}
	if strings.HasPrefix(trimmed, "!") || strings.HasPrefix(trimmed, "#") {
		return false
	}
	return true
}

// Compile fetches rootURL and walks it and its includes to completion.
func (c *Compiler) Compile(rootURL string) (Result, error) {
	rootBody, err := c.provider.GetRoot(rootURL)
	if err != nil {
		return Result{}, err
	}

	root := &frame{url: rootURL, body: rootBody, lines: splitLines(rootBody)}
	stack := []*frame{root}
	onStack := map[string]bool{rootURL: true}

	cond := NewConditionalProcessor(c.eval)
	collector := metadata.NewCollector()

	var globalRules int32
	var includes []types.FilterInclude
	hasDirectives := false

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.idx >= len(top.lines) {
			stack = stack[:len(stack)-1]
			delete(onStack, top.url)
			if top != root {
				includes = append(includes, finalizeInclude(top))
			}
			continue
		}

		line := top.lines[top.idx]
		top.idx++
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "!#include") {
			hasDirectives = true
			collector.MarkReachedEOD()

			pathArg := strings.TrimSpace(strings.TrimPrefix(trimmed, "!#include"))
			resolved, rerr := urlresolve.Resolve(top.url, pathArg)
			if rerr != nil {
				return Result{}, annotate(rerr, top.url, top.idx)
			}
			if onStack[resolved] {
				return Result{}, flmerrors.New(flmerrors.RecursiveInclusion, "include cycle detected at %s", resolved).WithContext(top.url, top.idx)
			}

			includeBody, ferr := c.provider.GetInclude(resolved)
			if ferr != nil {
				return Result{}, ferr
			}
			if serr := sniffer.CheckIsLikelyFilter(includeBody); serr != nil {
				return Result{}, serr
			}
			if !c.SkipChecksumValidation {
				if _, cerr := checksum.Validate(includeBody); cerr != nil {
					return Result{}, cerr
				}
			}

			next := &frame{url: resolved, body: includeBody, lines: splitLines(includeBody)}
			stack = append(stack, next)
			onStack[resolved] = true
			continue
		}

		recognized, cerr := cond.Process(trimmed)
		if cerr != nil {
			return Result{}, annotate(cerr, top.url, top.idx)
		}
		if recognized {
			hasDirectives = true
			continue
		}

		if cond.IsCapturing() {
			if !collector.Done() {
				collector.ParseLine(line)
			}
			if isRuleLine(trimmed) {
				globalRules++
				top.ruleCount++
			}
		}
	}

	if ferr := cond.FinalCheck(); ferr != nil {
		return Result{}, ferr
	}
	collector.MarkReachedEOD()

	return Result{
		Body:          rootBody,
		RulesCount:    globalRules,
		Includes:      includes,
		Metadata:      collector.Values(),
		HasDirectives: hasDirectives,
	}, nil
}

func finalizeInclude(f *frame) types.FilterInclude {
	inc := types.FilterInclude{
		URL:        f.url,
		Body:       f.body,
		RulesCount: f.ruleCount,
	}
	if f.body != "" {
		sum := blake3.Sum256([]byte(f.body))
		inc.Hash = sum[:]
	}
	return inc
}

func annotate(err error, url string, line int) error {
	if fe, ok := err.(*flmerrors.Error); ok {
		return fe.WithContext(url, line)
	}
	return err
}
