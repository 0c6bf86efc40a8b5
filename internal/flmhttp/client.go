// Package flmhttp declares the HTTP collaborator surface the core
// depends on without committing to a transport implementation: hosts
// supply their own client (proxying, auth, caching), matching the
// "external collaborators, interface-only" boundary the storage and
// scheduler components are specified against.
package flmhttp

import "context"

// Client fetches JSON and text resources over HTTP/HTTPS. GetText's
// strict200 flag rejects any non-200 response as HTTPStrict200Response
// instead of returning its body (used for patch file fetches, where a
// 404 means "not yet published" and must be distinguished from success).
type Client interface {
	GetJSON(ctx context.Context, url string, out any) error
	GetText(ctx context.Context, url string, strict200 bool) (string, error)
}
