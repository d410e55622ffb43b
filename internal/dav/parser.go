// Package dav lists the contents of a WebDAV public share: it issues
// PROPFIND requests, parses multi-status responses, and expands
// directories into a flat list of files.
package dav

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/azmtag/nextcloud-share-downloader/internal/share"
)

// Item is one entry of a directory listing. Paths are relative to the
// share's WebDAV root; directories end with "/".
type Item struct {
	Path          string
	LastModified  string // raw server text, display only
	ContentType   string // display only
	ContentLength *int64 // nil when the server omitted it (directories)
}

// IsDir reports whether the item is a directory.
func (it Item) IsDir() bool {
	return strings.HasSuffix(it.Path, "/")
}

// Size returns the advertised byte size, or 0 when unknown.
func (it Item) Size() int64 {
	if it.ContentLength == nil {
		return 0
	}
	return *it.ContentLength
}

// ParseError indicates a listing response body that could not be
// understood. The partial tree cannot be trusted, so a run stops here.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid listing response: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid listing response: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Wire shapes of a multi-status body. encoding/xml matches local names,
// so the d: namespace prefix needs no special handling.
type multistatus struct {
	XMLName   xml.Name   `xml:"multistatus"`
	Responses []response `xml:"response"`
}

type response struct {
	Href     string     `xml:"href"`
	Propstat []propstat `xml:"propstat"`
}

type propstat struct {
	Prop   prop   `xml:"prop"`
	Status string `xml:"status"`
}

type prop struct {
	LastModified  string `xml:"getlastmodified"`
	ContentLength string `xml:"getcontentlength"`
	ContentType   string `xml:"getcontenttype"`
}

// ParsePropfind turns a raw multi-status body into items in document
// order. The first item is the queried directory itself; skipping it is
// the caller's job. Properties may be spread across several propstat
// blocks (servers report absent ones under a 404 block), so non-empty
// values win regardless of which block they appear in.
func ParsePropfind(body []byte) ([]Item, error) {
	var ms multistatus
	if err := xml.Unmarshal(body, &ms); err != nil {
		return nil, &ParseError{Reason: "malformed multi-status body", Err: err}
	}

	items := make([]Item, 0, len(ms.Responses))
	for _, r := range ms.Responses {
		if r.Href == "" {
			return nil, &ParseError{Reason: "response entry without href"}
		}
		it := Item{Path: strings.TrimPrefix(r.Href, share.WebdavPrefix)}
		for _, ps := range r.Propstat {
			if ps.Prop.LastModified != "" {
				it.LastModified = ps.Prop.LastModified
			}
			if ps.Prop.ContentType != "" {
				it.ContentType = ps.Prop.ContentType
			}
			if s := strings.TrimSpace(ps.Prop.ContentLength); s != "" {
				n, err := strconv.ParseInt(s, 10, 64)
				if err != nil || n < 0 {
					return nil, &ParseError{
						Reason: fmt.Sprintf("bad content length %q for %s", s, it.Path),
						Err:    err,
					}
				}
				it.ContentLength = &n
			}
		}
		items = append(items, it)
	}
	return items, nil
}
