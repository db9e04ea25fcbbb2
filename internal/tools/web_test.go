package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWeb(t *testing.T) *Web {
	t.Helper()
	w, err := NewWeb("brave-test-key")
	require.NoError(t, err)
	return w
}

func TestWebFetchStripsMarkup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`<html><head><style>body{}</style><script>alert(1)</script></head>` +
			"<body><h1>Title</h1>\n\n<p>Some   text</p></body></html>"))
	}))
	defer srv.Close()

	out, err := newTestWeb(t).Execute(context.Background(), `{"action":"fetch","query":"","url":"`+srv.URL+`","count":0}`)
	require.NoError(t, err)
	assert.Equal(t, "Title Some text", out)
}

func TestWebFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := newTestWeb(t).Execute(context.Background(), `{"action":"fetch","query":"","url":"`+srv.URL+`","count":0}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestWebRejectsBadInput(t *testing.T) {
	w := newTestWeb(t)
	ctx := context.Background()

	_, err := w.Execute(ctx, `not json`)
	assert.ErrorContains(t, err, "parsing web input")

	_, err = w.Execute(ctx, `{"action":"delete"}`)
	assert.ErrorContains(t, err, "unknown action")

	_, err = w.Execute(ctx, `{"action":"search","query":"  "}`)
	assert.ErrorContains(t, err, "query is required")

	_, err = w.Execute(ctx, `{"action":"fetch","url":"file:///etc/passwd"}`)
	assert.ErrorContains(t, err, "http(s) url")
}

func TestTruncate(t *testing.T) {
	short := "hello"
	assert.Equal(t, short, truncate(short))

	long := strings.Repeat("é", maxOutputBytes)
	out := truncate(long)
	assert.True(t, strings.HasSuffix(out, "... (truncated)"))
	assert.True(t, strings.HasPrefix(out, "é"))
	assert.LessOrEqual(t, len(out), maxOutputBytes+len("\n... (truncated)"))
	assert.NotContains(t, out, "�")
}

func TestWebSchemaIsStrict(t *testing.T) {
	schema, ok := newTestWeb(t).InputSchema().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, schema["additionalProperties"])
	assert.ElementsMatch(t, []string{"action", "query", "url", "count"}, schema["required"])
}
