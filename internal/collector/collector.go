// Package collector implements the Filter Collector (§4.I): given an
// already-compiled RulesList and its flattened FilterInclude set, it
// replays conditional directives against one caller's constants to
// produce the "active" body — the text a consumer should actually
// apply. Unlike the compiler, it does not re-expand nested includes;
// §4.H already flattened those into a single level.
package collector

import (
	"strings"

	"github.com/steveyegge/flm/internal/boolexpr"
	"github.com/steveyegge/flm/internal/compiler"
	"github.com/steveyegge/flm/internal/flmerrors"
	"github.com/steveyegge/flm/internal/urlresolve"
)

// IncludeLookup resolves a previously-compiled include's URL to its
// stored body.
type IncludeLookup interface {
	GetInclude(url string) (body string, ok bool)
}

// CollectActiveRules walks rootBody line by line, seeded with its own
// ConditionalProcessor against constants, stitching in include bodies
// verbatim and dropping disabled branches.
func CollectActiveRules(rootURL, rootBody string, constants []string, includes IncludeLookup) (string, error) {
	eval := boolexpr.New(constants)
	cond := compiler.NewConditionalProcessor(eval)

	lines := strings.Split(rootBody, "\n")
	var out strings.Builder

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		recognized, err := cond.Process(trimmed)
		if err != nil {
			if fe, ok := err.(*flmerrors.Error); ok {
				err = fe.WithContext(rootURL, i+1)
			}
			return "", err
		}
		if recognized {
			continue
		}
		if !cond.IsCapturing() {
			continue
		}

		if strings.HasPrefix(trimmed, "!#include") {
			pathArg := strings.TrimSpace(strings.TrimPrefix(trimmed, "!#include"))
			resolved, rerr := urlresolve.Resolve(rootURL, pathArg)
			if rerr != nil {
				return "", rerr.(*flmerrors.Error).WithContext(rootURL, i+1)
			}
			body, ok := includes.GetInclude(resolved)
			if !ok {
				return "", flmerrors.New(flmerrors.EntityNotFound, "no stored include for %s", resolved).WithContext(rootURL, i+1)
			}
			out.WriteString(body)
			continue
		}

		out.WriteString(line)
		if i != len(lines)-1 {
			out.WriteByte('\n')
		}
	}

	if err := cond.FinalCheck(); err != nil {
		return "", err
	}

	return out.String(), nil
}
