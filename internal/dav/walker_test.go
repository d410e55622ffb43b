package dav

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azmtag/nextcloud-share-downloader/internal/share"
)

func dirXML(href string) string {
	return fmt.Sprintf(`<d:response><d:href>%s</d:href>
	  <d:propstat><d:prop><d:getlastmodified>Mon, 01 Jan 2024 10:00:00 GMT</d:getlastmodified></d:prop>
	  <d:status>HTTP/1.1 200 OK</d:status></d:propstat></d:response>`, href)
}

func fileXML(href string, size int64) string {
	return fmt.Sprintf(`<d:response><d:href>%s</d:href>
	  <d:propstat><d:prop>
	    <d:getlastmodified>Mon, 01 Jan 2024 10:00:00 GMT</d:getlastmodified>
	    <d:getcontentlength>%d</d:getcontentlength>
	    <d:getcontenttype>application/octet-stream</d:getcontenttype>
	  </d:prop><d:status>HTTP/1.1 200 OK</d:status></d:propstat></d:response>`, href, size)
}

func listingXML(responses ...string) string {
	body := `<?xml version="1.0"?><d:multistatus xmlns:d="DAV:">`
	for _, r := range responses {
		body += r
	}
	return body + `</d:multistatus>`
}

// listingServer answers PROPFIND from a path-keyed fixture map.
func listingServer(t *testing.T, listings map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PROPFIND", r.Method)
		body, ok := listings[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusMultiStatus)
		fmt.Fprint(w, body)
	}))
}

func TestWalkNestedTree(t *testing.T) {
	listings := map[string]string{
		share.WebdavPrefix + "/": listingXML(
			dirXML(share.WebdavPrefix+"/"),
			fileXML(share.WebdavPrefix+"/a.txt", 10),
			dirXML(share.WebdavPrefix+"/sub/"),
		),
		share.WebdavPrefix + "/sub/": listingXML(
			dirXML(share.WebdavPrefix+"/sub/"),
			fileXML(share.WebdavPrefix+"/sub/b.txt", 20),
			dirXML(share.WebdavPrefix+"/sub/deep/"),
		),
		share.WebdavPrefix + "/sub/deep/": listingXML(
			dirXML(share.WebdavPrefix+"/sub/deep/"),
			fileXML(share.WebdavPrefix+"/sub/deep/c.bin", 30),
		),
	}
	ts := listingServer(t, listings)
	defer ts.Close()

	session := share.NewSession(share.Config{Host: ts.URL, Token: "tok"})
	files, err := NewWalker(session).Walk(context.Background(), "/")
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		assert.False(t, f.IsDir(), "walk must return files only, got %s", f.Path)
		require.NotNil(t, f.ContentLength)
		paths = append(paths, f.Path)
	}
	sort.Strings(paths)
	assert.Equal(t, []string{"/a.txt", "/sub/b.txt", "/sub/deep/c.bin"}, paths)
}

func TestWalkEmptyDirectory(t *testing.T) {
	listings := map[string]string{
		share.WebdavPrefix + "/": listingXML(dirXML(share.WebdavPrefix + "/")),
	}
	ts := listingServer(t, listings)
	defer ts.Close()

	session := share.NewSession(share.Config{Host: ts.URL, Token: "tok"})
	files, err := NewWalker(session).Walk(context.Background(), "/")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestWalkUnexpectedStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, "share gone")
	}))
	defer ts.Close()

	session := share.NewSession(share.Config{Host: ts.URL, Token: "tok"})
	files, err := NewWalker(session).Walk(context.Background(), "/")

	var pe *ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusNotFound, pe.Status)
	assert.Contains(t, pe.URL, share.WebdavPrefix)
	assert.Contains(t, pe.Body, "share gone")
	assert.Nil(t, files)
}

func TestWalkMalformedListing(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMultiStatus)
		fmt.Fprint(w, "<d:multistatus")
	}))
	defer ts.Close()

	session := share.NewSession(share.Config{Host: ts.URL, Token: "tok"})
	_, err := NewWalker(session).Walk(context.Background(), "/")

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestWalkFileWithoutSize(t *testing.T) {
	listings := map[string]string{
		share.WebdavPrefix + "/": listingXML(
			dirXML(share.WebdavPrefix+"/"),
			dirXML(share.WebdavPrefix+"/nosize.txt"), // file-shaped href, no length property
		),
	}
	ts := listingServer(t, listings)
	defer ts.Close()

	session := share.NewSession(share.Config{Host: ts.URL, Token: "tok"})
	_, err := NewWalker(session).Walk(context.Background(), "/")

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Reason, "content length")
}

func TestWalkErrorStopsTraversal(t *testing.T) {
	var requests int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	session := share.NewSession(share.Config{Host: ts.URL, Token: "tok"})
	_, err := NewWalker(session).Walk(context.Background(), "/")

	var pe *ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, requests)
}
