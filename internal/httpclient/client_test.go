package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCrawlerClient_KeepsCookies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/list":
			http.SetCookie(w, &http.Cookie{Name: "board", Value: "s1", Path: "/"})
			w.WriteHeader(http.StatusOK)
		case "/view":
			if c, err := r.Cookie("board"); err == nil && c.Value == "s1" {
				w.WriteHeader(http.StatusOK)
				return
			}
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer srv.Close()

	client, err := NewCrawlerClient(5 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, client.Timeout)

	resp, err := client.Get(srv.URL + "/list")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = client.Get(srv.URL + "/view")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewCrawlerClient_StopsRedirectLoops(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+"/again", http.StatusFound)
	}))
	defer srv.Close()

	client, err := NewCrawlerClient(5 * time.Second)
	require.NoError(t, err)

	_, err = client.Get(srv.URL)
	assert.ErrorContains(t, err, "too many redirects")
}
