// Package urlresolve implements the include/patch path resolution rules
// of §6: same-origin enforcement, scheme-relative URLs, and the file://
// vs http(s):// scheme boundary.
package urlresolve

import (
	"net/url"

	"github.com/steveyegge/flm/internal/flmerrors"
)

// Resolve resolves includePath against parentURL, enforcing:
//   - an absolute include must share scheme and authority with the root;
//   - a file:// include is only legal when the root itself is file://;
//   - scheme-relative ("//authority/path") includes inherit the parent
//     scheme;
//   - relative includes resolve against the parent URL.
func Resolve(parentURL, includePath string) (string, error) {
	parent, err := url.Parse(parentURL)
	if err != nil {
		return "", flmerrors.Wrap(flmerrors.SchemeIsIncorrect, err, "invalid root url %q", parentURL)
	}
	ref, err := url.Parse(includePath)
	if err != nil {
		return "", flmerrors.Wrap(flmerrors.SchemeIsIncorrect, err, "invalid include path %q", includePath)
	}

	resolved := parent.ResolveReference(ref)

	if ref.Scheme != "" {
		if ref.Scheme == "file" && parent.Scheme != "file" {
			return "", flmerrors.New(flmerrors.SchemeIsIncorrect, "a file:// include is only legal from a file:// root")
		}
		if parent.Scheme == "file" && ref.Scheme != "file" {
			return "", flmerrors.New(flmerrors.SchemeIsIncorrect, "a non-file include is not legal from a file:// root")
		}
		if ref.Scheme != parent.Scheme {
			return "", flmerrors.New(flmerrors.SchemeIsIncorrect, "an absolute include must use the root's scheme")
		}
	}

	if resolved.Host != parent.Host {
		return "", flmerrors.New(flmerrors.Other, "Included filter must have the same origin with the root filter")
	}

	return resolved.String(), nil
}

// SplitFragment splits a patch URL into its base URL and a `#name`
// fragment selecting a batch sub-resource, per §4.G step 2.
func SplitFragment(patchURL string) (base, name string, hasFragment bool) {
	u, err := url.Parse(patchURL)
	if err != nil || u.Fragment == "" {
		return patchURL, "", false
	}
	name = u.Fragment
	u.Fragment = ""
	return u.String(), name, true
}
