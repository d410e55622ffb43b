package share

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// propfindBody requests the three properties the downloader cares about.
const propfindBody = `<?xml version="1.0" encoding="UTF-8"?>
<d:propfind xmlns:d="DAV:">
    <d:prop xmlns:oc="http://owncloud.org/ns">
        <d:getlastmodified/>
        <d:getcontentlength/>
        <d:getcontenttype/>
    </d:prop>
</d:propfind>`

// Session is the shared authenticated HTTP session. Every listing and
// download request of a run goes through one Session; callers interpret
// response statuses themselves.
type Session struct {
	host       string
	token      string
	password   string
	httpClient *http.Client
}

// Config holds session configuration.
type Config struct {
	Host     string // scheme://host, no trailing slash
	Token    string
	Password string
}

// NewSession creates an authenticated session for a share.
// No overall client timeout is set: downloads may legitimately take
// arbitrarily long, so only dial and response-header phases are bounded.
func NewSession(cfg Config) *Session {
	return &Session{
		host:     strings.TrimSuffix(cfg.Host, "/"),
		token:    cfg.Token,
		password: cfg.Password,
		httpClient: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
			},
		},
	}
}

// URL returns the full WebDAV URL for a share-relative path.
// Paths coming from listing responses are already percent-encoded.
func (s *Session) URL(davPath string) string {
	if !strings.HasPrefix(davPath, "/") {
		davPath = "/" + davPath
	}
	return s.host + WebdavPrefix + davPath
}

// Propfind issues a depth-1 listing request for a directory.
func (s *Session) Propfind(ctx context.Context, davPath string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "PROPFIND", s.URL(davPath), strings.NewReader(propfindBody))
	if err != nil {
		return nil, errors.Wrapf(err, "build PROPFIND request for %s", davPath)
	}
	req.Header.Set("Depth", "1")
	req.Header.Set("Content-Type", "application/xml")
	req.SetBasicAuth(s.token, s.password)
	return s.httpClient.Do(req)
}

// Get fetches a file's content as a streamed response body.
func (s *Session) Get(ctx context.Context, davPath string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", s.URL(davPath), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "build GET request for %s", davPath)
	}
	req.SetBasicAuth(s.token, s.password)
	return s.httpClient.Do(req)
}
