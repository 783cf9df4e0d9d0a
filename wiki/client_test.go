package wiki

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL + "/wiki")
	require.NoError(t, err)
	return c, srv
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		wantErr bool
	}{
		{name: "absolute with slash", base: "http://localhost:8820/"},
		{name: "absolute without slash", base: "http://localhost:8820/ctx"},
		{name: "empty", base: "", wantErr: true},
		{name: "relative", base: "ctx/", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.base)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, c.SourceURL("a.md"), "/jb/source/a.md")
		})
	}
}

func TestEndpointURLs(t *testing.T) {
	c, err := New("http://localhost:8820/ctx")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8820/ctx/jb/source/blog/post1.md", c.SourceURL("blog/post1.md"))
	assert.Equal(t, "http://localhost:8820/ctx/jb/update/blog/post1.md", c.UpdateURL("/blog/post1.md"))
	assert.Equal(t, "http://localhost:8820/ctx/blog/post2", c.PageURL("blog/post2"))
}

func TestCheckURI(t *testing.T) {
	assert.ErrorIs(t, CheckURI(""), ErrEmptyURI)
	assert.ErrorIs(t, CheckURI("  "), ErrEmptyURI)
	assert.ErrorIs(t, CheckURI("../etc/passwd"), ErrInvalidURI)
	assert.ErrorIs(t, CheckURI("c:/x.md"), ErrInvalidURI)
	assert.ErrorIs(t, CheckURI(`a\b.md`), ErrInvalidURI)
	assert.NoError(t, CheckURI("blog/post1.md"))
}

func TestSource(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/wiki/jb/source/blog/post1", r.URL.Path)
		io.WriteString(w, "title=Post\ndate=2020-01-01\n")
	})

	src, err := c.Source(context.Background(), "blog/post1")
	require.NoError(t, err)
	assert.Equal(t, "title=Post\ndate=2020-01-01\n", src)
}

func TestSourceNotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Page does not exist", http.StatusNotFound)
	})

	_, err := c.Source(context.Background(), "missing.md")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	re, ok := AsRequestError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, re.StatusCode)
	assert.Equal(t, "Not Found", re.Status)
	assert.Equal(t, "Page does not exist", re.Message)
	assert.Equal(t, http.MethodGet, re.Method)
}

func TestUpdate(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/wiki/jb/update/blog/post2.md", r.URL.Path)
		assert.Equal(t, "text/plain; charset=UTF-8", r.Header.Get("Content-Type"))
		assert.Empty(t, r.URL.Query().Get("create"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "title=Two\n~~~~~~\nhello", string(body))

		w.Header().Set("Content-Type", "text/json")
		io.WriteString(w, `{"uri":"blog/post2.html","title":"Two","body":"<p>hello</p>"}`)
	})

	res, err := c.Update(context.Background(), "blog/post2.md", "title=Two\n~~~~~~\nhello", false)
	require.NoError(t, err)
	assert.Equal(t, "blog/post2.html", res.URI)
	assert.Equal(t, "Two", res.Title)
	assert.Equal(t, "<p>hello</p>", res.Body)
}

func TestUpdateCreateConflict(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("create"))
		http.Error(w, "The resource 'a.md' already exists, please choose another name.", http.StatusConflict)
	})

	_, err := c.Update(context.Background(), "a.md", "x", true)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUpdateEmptyResponseKeepsTarget(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	res, err := c.Update(context.Background(), "a.md", "x", false)
	require.NoError(t, err)
	assert.Equal(t, "a.md", res.URI)
}

func TestUpdateBadJSON(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "{not json")
	})

	_, err := c.Update(context.Background(), "a.md", "x", false)
	re, ok := AsRequestError(err)
	require.True(t, ok)
	assert.Equal(t, "parseerror", re.Status)
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		wantURI string
	}{
		{name: "server names target", reply: `{"uri":"blog/index.html"}`, wantURI: "blog/index.html"},
		{name: "server sends nothing", reply: ``, wantURI: DefaultDeleteTarget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodDelete, r.Method)
				assert.Equal(t, "/wiki/jb/update/blog/post1.md", r.URL.Path)
				io.WriteString(w, tt.reply)
			})

			res, err := c.Delete(context.Background(), "blog/post1.md")
			require.NoError(t, err)
			assert.Equal(t, tt.wantURI, res.URI)
		})
	}
}

func TestRejectedURIsSendNothing(t *testing.T) {
	called := false
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := c.Delete(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyURI)
	_, err = c.Update(context.Background(), "../x.md", "", false)
	assert.ErrorIs(t, err, ErrInvalidURI)
	assert.False(t, called)
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c, err := New(srv.URL)
	require.NoError(t, err)
	srv.Close()

	_, err = c.Source(context.Background(), "a.md")
	re, ok := AsRequestError(err)
	require.True(t, ok)
	assert.Equal(t, 0, re.StatusCode)
	assert.Equal(t, "error", re.Status)
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, err := New(srv.URL, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, err = c.Source(context.Background(), "slow.md")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
