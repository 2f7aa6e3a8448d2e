package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const litePage = `<html><body>
<form action="/lite/" method="post"><input name="q" value="golang"></form>
<table>
  <tr><td>1.&nbsp;</td><td><a rel="nofollow" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2F&amp;rut=abc" class='result-link'>The Go Programming Language</a></td></tr>
  <tr><td>&nbsp;</td><td class='result-snippet'><b>Go</b> is an open source programming language.</td></tr>
  <tr><td>&nbsp;</td><td><span class='link-text'>go.dev</span></td></tr>
  <tr><td>2.&nbsp;</td><td><a rel="nofollow" href="https://en.wikipedia.org/wiki/Go_(programming_language)" class='result-link'>Go (programming language) - Wikipedia</a></td></tr>
  <tr><td>&nbsp;</td><td class='result-snippet'>Go is a statically typed, compiled language designed at Google.</td></tr>
  <tr><td>3.&nbsp;</td><td><a rel="nofollow" href="https://gobyexample.com/" class='result-link'>Go by Example</a></td></tr>
</table>
</body></html>`

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestDuckDuckGo_Search(t *testing.T) {
	var gotQuery, gotMethod, gotContentType string
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, r.ParseForm())
		gotQuery = r.PostForm.Get("q")
		_, _ = w.Write([]byte(litePage))
	})

	d, err := New(WithEndpoint(server.URL))
	require.NoError(t, err)

	results, err := d.Search(context.Background(), "golang")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Equal(t, "golang", gotQuery)

	require.Len(t, results, 3)
	assert.Equal(t, Result{
		Title:   "The Go Programming Language",
		URL:     "https://go.dev/",
		Snippet: "Go is an open source programming language.",
	}, results[0])
	assert.Equal(t, "https://en.wikipedia.org/wiki/Go_(programming_language)", results[1].URL)
	assert.Equal(t, "Go by Example", results[2].Title)
	assert.Empty(t, results[2].Snippet)
}

func TestDuckDuckGo_MaxResults(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(litePage))
	})

	d, err := New(WithEndpoint(server.URL), WithMaxResults(1))
	require.NoError(t, err)

	results, err := d.Search(context.Background(), "golang")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Go is an open source programming language.", results[0].Snippet)
}

func TestDuckDuckGo_Run(t *testing.T) {
	t.Run("summary", func(t *testing.T) {
		server := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(litePage))
		})
		d, err := New(WithEndpoint(server.URL), WithMaxResults(2))
		require.NoError(t, err)

		out, err := d.Tool().Invoke(context.Background(), `{"__arg1":"golang"}`)
		require.NoError(t, err)
		assert.Equal(t, "The Go Programming Language: Go is an open source programming language. (https://go.dev/)\n\n"+
			"Go (programming language) - Wikipedia: Go is a statically typed, compiled language designed at Google. (https://en.wikipedia.org/wiki/Go_(programming_language))", out)
	})

	t.Run("no results", func(t *testing.T) {
		server := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html><body><p>No results.</p></body></html>`))
		})
		d, err := New(WithEndpoint(server.URL))
		require.NoError(t, err)

		out, err := d.Run(context.Background(), "zzzzqqq")
		require.NoError(t, err)
		assert.Equal(t, noResults, out)
	})
}

func TestDuckDuckGo_Errors(t *testing.T) {
	t.Run("empty query", func(t *testing.T) {
		d, err := New()
		require.NoError(t, err)
		_, err = d.Run(context.Background(), "   ")
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})

	t.Run("http status", func(t *testing.T) {
		server := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
		d, err := New(WithEndpoint(server.URL))
		require.NoError(t, err)
		_, err = d.Run(context.Background(), "golang")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
	})

	t.Run("timeout", func(t *testing.T) {
		server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		})
		d, err := New(WithEndpoint(server.URL), WithTimeout(20*time.Millisecond))
		require.NoError(t, err)
		_, err = d.Run(context.Background(), "golang")
		require.Error(t, err)
	})

	t.Run("invalid options", func(t *testing.T) {
		_, err := New(WithMaxResults(0), WithTimeout(-time.Second))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max results")
		assert.Contains(t, err.Error(), "timeout")
	})
}

func TestTool(t *testing.T) {
	d, err := New()
	require.NoError(t, err)
	def := d.Tool()
	assert.Equal(t, "search", def.Name)
	assert.Equal(t, "Search the web for information", def.Description)
}

func TestResolveLink(t *testing.T) {
	tests := map[string]string{
		"//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fa%3Fb%3D1": "https://example.com/a?b=1",
		"https://example.com/page":                                       "https://example.com/page",
		"//example.com/x":                                                "https://example.com/x",
	}
	for in, want := range tests {
		assert.Equal(t, want, resolveLink(in), in)
	}
}
