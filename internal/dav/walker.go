package dav

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/azmtag/nextcloud-share-downloader/internal/logging"
	"github.com/azmtag/nextcloud-share-downloader/internal/share"
)

// ProtocolError indicates a listing request that did not come back as
// multi-status: bad credentials, a missing share, or a server error.
type ProtocolError struct {
	URL    string
	Status int
	Body   string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("unexpected response from %s\n Status code: %d\n Message:\n%s", e.URL, e.Status, e.Body)
}

// Walker recursively lists the files of a share through a shared session.
type Walker struct {
	session *share.Session
}

// NewWalker creates a walker bound to a session.
func NewWalker(s *share.Session) *Walker {
	return &Walker{session: s}
}

// Walk returns every file reachable under root, expanding directories
// one listing request at a time. An explicit work stack stands in for
// recursion; the share hierarchy is a tree, so no cycle checks are
// needed. Traversal order is not meaningful, callers sort the result.
func (w *Walker) Walk(ctx context.Context, root string) ([]Item, error) {
	var files []Item
	stack := []string{root}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := w.listDir(ctx, dir)
		if err != nil {
			return nil, err
		}
		for _, it := range entries {
			if it.IsDir() {
				stack = append(stack, it.Path)
				continue
			}
			// Listings always carry sizes for files; a missing one
			// means the response cannot be trusted.
			if it.ContentLength == nil {
				return nil, &ParseError{Reason: fmt.Sprintf("file entry %s without content length", it.Path)}
			}
			files = append(files, it)
		}
	}
	return files, nil
}

// listDir lists one directory, dropping the leading self entry.
func (w *Walker) listDir(ctx context.Context, dir string) ([]Item, error) {
	logging.Debug("listing directory", zap.String("path", dir))

	resp, err := w.session.Propfind(ctx, dir)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", dir)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read listing response for %s", dir)
	}

	if resp.StatusCode != http.StatusMultiStatus {
		return nil, &ProtocolError{
			URL:    resp.Request.URL.String(),
			Status: resp.StatusCode,
			Body:   string(body),
		}
	}

	items, err := ParsePropfind(body)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		items = items[1:]
	}
	return items, nil
}
