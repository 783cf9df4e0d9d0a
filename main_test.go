package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/electr1fy0/bluewiki/config"
	"github.com/electr1fy0/bluewiki/page"
	"github.com/electr1fy0/bluewiki/storage"
)

// memWiki keeps page sources in memory and answers like the wiki servlets.
type memWiki struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

func (w *memWiki) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, r.Method+" "+r.URL.RequestURI())

	switch {
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/jb/source/"):
		src, ok := w.pages[strings.TrimPrefix(r.URL.Path, "/jb/source/")]
		if !ok {
			http.NotFound(rw, r)
			return
		}
		io.WriteString(rw, src)

	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/jb/update/"):
		uri := strings.TrimPrefix(r.URL.Path, "/jb/update/")
		if _, exists := w.pages[uri]; exists && r.URL.Query().Get("create") == "true" {
			rw.WriteHeader(http.StatusConflict)
			return
		}
		body, _ := io.ReadAll(r.Body)
		w.pages[uri] = string(body)
		fmt.Fprintf(rw, `{"uri":%q}`, uri)

	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/jb/update/"):
		delete(w.pages, strings.TrimPrefix(r.URL.Path, "/jb/update/"))
		io.WriteString(rw, `{"uri":"index.html"}`)

	default:
		rw.WriteHeader(http.StatusBadRequest)
	}
}

func (w *memWiki) page(uri string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	src, ok := w.pages[uri]
	return src, ok
}

func (w *memWiki) called(prefix string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, c := range w.calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

type result struct {
	out string
	err error
}

// run executes the CLI against srv with a config path that does not exist.
func run(t *testing.T, srv *httptest.Server, stdin string, args ...string) result {
	t.Helper()
	t.Setenv(config.EnvBaseURL, "")
	t.Setenv(config.EnvDraftPassphrase, "")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))

	base := []string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}
	if srv != nil {
		base = append(base, "--base-url", srv.URL+"/")
	}
	root.SetArgs(append(args, base...))

	err := root.ExecuteContext(context.Background())
	return result{out: out.String(), err: err}
}

func newWiki(t *testing.T) (*memWiki, *httptest.Server) {
	t.Helper()
	w := &memWiki{pages: map[string]string{
		"blog/post1.md": "title=Post\n~~~~~~\n\nHello",
	}}
	srv := httptest.NewServer(w)
	t.Cleanup(srv.Close)
	return w, srv
}

func TestVersion(t *testing.T) {
	res := run(t, nil, "", "version")
	require.NoError(t, res.err)
	assert.Equal(t, "bluewiki version dev\n", res.out)
}

func TestSourceCommand(t *testing.T) {
	_, srv := newWiki(t)

	res := run(t, srv, "", "source", "blog/post1.md")
	require.NoError(t, res.err)
	assert.Equal(t, "title=Post\n~~~~~~\n\nHello", res.out)

	res = run(t, srv, "", "source", "blog/missing.md")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "404")

	res = run(t, srv, "", "source", "../etc/passwd")
	assert.Error(t, res.err)
}

func TestPutCommand(t *testing.T) {
	w, srv := newWiki(t)

	file := filepath.Join(t.TempDir(), "post1.md")
	require.NoError(t, os.WriteFile(file, []byte("title=Post\n~~~~~~\n\nChanged"), 0644))

	res := run(t, srv, "", "put", "blog/post1.md", file)
	require.NoError(t, res.err)
	assert.Equal(t, "Saved blog/post1.md\n", res.out)

	src, _ := w.page("blog/post1.md")
	assert.Equal(t, "title=Post\n~~~~~~\n\nChanged", src)
	assert.True(t, w.called("PUT /jb/update/blog/post1.md"))
	assert.False(t, w.called("PUT /jb/update/blog/post1.md?create=true"))
}

func TestPutCreateFromStdin(t *testing.T) {
	w, srv := newWiki(t)

	res := run(t, srv, "fresh page", "put", "blog/post2.md", "--create")
	require.NoError(t, res.err)
	assert.Equal(t, "Saved blog/post2.md\n", res.out)
	assert.True(t, w.called("PUT /jb/update/blog/post2.md?create=true"))

	src, ok := w.page("blog/post2.md")
	require.True(t, ok)
	assert.Equal(t, "fresh page", src)
}

func TestPutCreateConflict(t *testing.T) {
	w, srv := newWiki(t)

	res := run(t, srv, "other", "put", "blog/post1.md", "--create")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "Saving failed: Conflict (409)")

	src, _ := w.page("blog/post1.md")
	assert.Equal(t, "title=Post\n~~~~~~\n\nHello", src)
}

func TestDeleteCommand(t *testing.T) {
	tests := []struct {
		name        string
		stdin       string
		args        []string
		wantDeleted bool
		wantOut     string
	}{
		{name: "confirmed", stdin: "y\n", wantDeleted: true, wantOut: "Deleted blog/post1.md, continue at index.html"},
		{name: "declined", stdin: "n\n", wantOut: "Deletion cancelled"},
		{name: "no answer", stdin: "", wantOut: "Deletion cancelled"},
		{name: "yes flag", args: []string{"--yes"}, wantDeleted: true, wantOut: "Deleted blog/post1.md"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, srv := newWiki(t)

			res := run(t, srv, tt.stdin, append([]string{"delete", "blog/post1.md"}, tt.args...)...)
			require.NoError(t, res.err)
			assert.Contains(t, res.out, tt.wantOut)

			_, exists := w.page("blog/post1.md")
			assert.Equal(t, tt.wantDeleted, !exists)
			assert.Equal(t, tt.wantDeleted, w.called("DELETE"))
		})
	}
}

func TestDeletePromptText(t *testing.T) {
	_, srv := newWiki(t)

	res := run(t, srv, "n\n", "delete", "blog/post1.md")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Delete page 'blog/post1.md'? [y/N]: ")
}

func TestNewCommand(t *testing.T) {
	res := run(t, nil, "", "new", "blog/post3.md")
	require.NoError(t, res.err)
	assert.Equal(t, page.NewPageTemplate, res.out)

	res = run(t, nil, "", "new", "a:b")
	assert.Error(t, res.err)
}

func TestNewSave(t *testing.T) {
	w, srv := newWiki(t)

	res := run(t, srv, "", "new", "blog/post3.md", "--save")
	require.NoError(t, res.err)
	assert.Equal(t, "Created blog/post3.md\n", res.out)
	assert.True(t, w.called("PUT /jb/update/blog/post3.md?create=true"))

	src, ok := w.page("blog/post3.md")
	require.True(t, ok)
	assert.Equal(t, page.NewPageTemplate, src)

	res = run(t, srv, "", "new", "blog/post3.md", "--save")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "409")
}

func TestInitCommand(t *testing.T) {
	t.Setenv(config.EnvBaseURL, "")
	path := filepath.Join(t.TempDir(), "bluewiki", "config.yaml")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"init", "--config", path, "--base-url", "http://wiki.local:8820/"})
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://wiki.local:8820/", cfg.BaseURL)

	root = newRootCmd()
	root.SetOut(io.Discard)
	root.SetArgs([]string{"init", "--config", path})
	err = root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	root = newRootCmd()
	root.SetOut(io.Discard)
	root.SetArgs([]string{"init", "--config", path, "--force"})
	require.NoError(t, root.ExecuteContext(context.Background()))
}

func TestLoadConfigFlagsOverride(t *testing.T) {
	t.Setenv(config.EnvBaseURL, "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: http://from-file/\nsave_mode: reload\n"), 0600))

	root := newRootCmd()
	cmd, _, err := root.Find([]string{"source"})
	require.NoError(t, err)
	require.NoError(t, cmd.ParseFlags([]string{"--config", path, "--timeout", "5s", "--in-place"}))

	a := &app{configPath: path}
	a.timeout, err = cmd.Flags().GetDuration("timeout")
	require.NoError(t, err)
	a.inPlace = true

	cfg, err := a.loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "http://from-file/", cfg.BaseURL)
	assert.Equal(t, "5s", cfg.Timeout.String())
	assert.Equal(t, "in_place", cfg.SaveMode)
}

func TestDraftsCommand(t *testing.T) {
	t.Setenv(config.EnvBaseURL, "")
	t.Setenv(config.EnvDraftPassphrase, "")

	dir := t.TempDir()
	draftsPath := filepath.Join(dir, "drafts")
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("drafts:\n  path: "+draftsPath+"\n  passphrase: secret\n"), 0600))

	vault, err := storage.Open(draftsPath, "secret")
	require.NoError(t, err)
	require.NoError(t, vault.Stash("blog/post1.md", "lost edit"))

	drafts := func(args ...string) (string, error) {
		root := newRootCmd()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetArgs(append([]string{"drafts", "--config", cfgPath}, args...))
		err := root.ExecuteContext(context.Background())
		return out.String(), err
	}

	out, err := drafts()
	require.NoError(t, err)
	assert.Contains(t, out, "blog/post1.md")

	out, err = drafts("blog/post1.md")
	require.NoError(t, err)
	assert.Equal(t, "lost edit", out)

	_, err = drafts("blog/other.md")
	assert.Error(t, err)

	res := run(t, nil, "", "drafts")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "drafts are disabled")
}
