// Package share handles public-share URLs and the authenticated session
// used to talk to the share's WebDAV endpoint.
package share

import (
	"strings"

	"github.com/pkg/errors"
)

// WebdavPrefix is the server path under which public shares expose WebDAV.
const WebdavPrefix = "/public.php/webdav"

// Share identifies a public share: where it lives, which token grants
// access, and the subdirectory to start from.
type Share struct {
	Host  string // scheme://host, no trailing slash
	Token string // share token, used as the basic-auth username
	Path  string // starting directory, always ends with "/"
}

// ParseURL splits a public-share link of the form
// <host>[/index.php]/s/<token>[?path=<urlencoded-subpath>] into its parts.
func ParseURL(raw string) (Share, error) {
	host, _, found := strings.Cut(raw, "/s/")
	if !found {
		return Share{}, errors.Errorf("not a public share link (missing /s/ segment): %s", raw)
	}
	host, _, _ = strings.Cut(host, "/index.php")

	token := raw[strings.LastIndex(raw, "/")+1:]
	token, _, _ = strings.Cut(token, "?")
	if token == "" {
		return Share{}, errors.Errorf("no share token in url: %s", raw)
	}

	path := "/"
	if strings.Contains(raw, "?") {
		sub := raw[strings.LastIndex(raw, "=")+1:]
		path = strings.ReplaceAll(sub, "%2F", "/") + "/"
	}

	return Share{Host: host, Token: token, Path: path}, nil
}
