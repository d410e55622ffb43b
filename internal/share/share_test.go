package share

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Share
	}{
		{
			name: "plain link",
			raw:  "https://cloud.example.org/s/AbC123dEf",
			want: Share{Host: "https://cloud.example.org", Token: "AbC123dEf", Path: "/"},
		},
		{
			name: "index.php link",
			raw:  "https://cloud.example.org/index.php/s/AbC123dEf",
			want: Share{Host: "https://cloud.example.org", Token: "AbC123dEf", Path: "/"},
		},
		{
			name: "subdirectory query",
			raw:  "https://cloud.example.org/s/AbC123dEf?path=%2Fphotos%2F2023",
			want: Share{Host: "https://cloud.example.org", Token: "AbC123dEf", Path: "/photos/2023/"},
		},
		{
			name: "index.php with subdirectory",
			raw:  "https://cloud.example.org/index.php/s/tok?path=%2Fsub",
			want: Share{Host: "https://cloud.example.org", Token: "tok", Path: "/sub/"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseURL(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseURL_NotAShareLink(t *testing.T) {
	_, err := ParseURL("https://cloud.example.org/remote.php/webdav/file.txt")
	require.Error(t, err)
}

func TestSessionPropfind(t *testing.T) {
	var gotMethod, gotDepth, gotUser, gotPassword, gotBody string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotDepth = r.Header.Get("Depth")
		gotUser, gotPassword, _ = r.BasicAuth()
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusMultiStatus)
	}))
	defer ts.Close()

	s := NewSession(Config{Host: ts.URL, Token: "tok", Password: "secret"})
	resp, err := s.Propfind(context.Background(), "/sub/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMultiStatus, resp.StatusCode)
	assert.Equal(t, "PROPFIND", gotMethod)
	assert.Equal(t, "1", gotDepth)
	assert.Equal(t, "tok", gotUser)
	assert.Equal(t, "secret", gotPassword)
	assert.Contains(t, gotBody, "<d:getcontentlength/>")
	assert.Contains(t, gotBody, "<d:getlastmodified/>")
	assert.Contains(t, gotBody, "<d:getcontenttype/>")
}

func TestSessionGet(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		io.WriteString(w, "hello")
	}))
	defer ts.Close()

	s := NewSession(Config{Host: ts.URL, Token: "tok"})
	resp, err := s.Get(context.Background(), "/a.txt")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
	assert.Equal(t, WebdavPrefix+"/a.txt", gotPath)
}

func TestSessionURL(t *testing.T) {
	s := NewSession(Config{Host: "https://cloud.example.org/"})
	assert.Equal(t, "https://cloud.example.org/public.php/webdav/a.txt", s.URL("/a.txt"))
	assert.True(t, strings.HasPrefix(s.URL("no-slash"), "https://cloud.example.org/public.php/webdav/"))
}
