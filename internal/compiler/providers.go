package compiler

import (
	"context"

	"github.com/steveyegge/flm/internal/flmerrors"
	"github.com/steveyegge/flm/internal/flmhttp"
)

func errIncludeNotFound(url string) error {
	return flmerrors.New(flmerrors.EntityNotFound, "include not found: %s", url)
}

// StringProvider serves a root body and a fixed include set entirely
// from memory; tests use it.
type StringProvider struct {
	Root     string
	Includes map[string]string
}

func (p StringProvider) GetRoot(url string) (string, error) { return p.Root, nil }

func (p StringProvider) GetInclude(url string) (string, error) {
	body, ok := p.Includes[url]
	if !ok {
		return "", errIncludeNotFound(url)
	}
	return body, nil
}

// HTTPProvider fetches the root and every include over HTTP through an
// flmhttp.Client. cmd/flm install compiles through it, and the scheduler
// uses it for include fetches behind a RootOverrideProvider.
type HTTPProvider struct {
	Ctx    context.Context
	Client flmhttp.Client
}

func (p HTTPProvider) GetRoot(url string) (string, error) {
	return p.Client.GetText(p.Ctx, url, true)
}

func (p HTTPProvider) GetInclude(url string) (string, error) {
	return p.Client.GetText(p.Ctx, url, true)
}

// RootOverrideProvider serves a fixed root body — typically one the
// scheduler already fetched or patched — while delegating include
// resolution to another provider (normally an HTTPProvider).
type RootOverrideProvider struct {
	Root     string
	Includes ContentProvider
}

func (p RootOverrideProvider) GetRoot(url string) (string, error) { return p.Root, nil }

func (p RootOverrideProvider) GetInclude(url string) (string, error) {
	return p.Includes.GetInclude(url)
}
