package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBearerToken(t *testing.T) {
	mk := func(v string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if v != "" {
			r.Header.Set("Authorization", v)
		}
		return r
	}

	tok, err := bearerToken(mk("Bearer abc.def.ghi"))
	require.NoError(t, err)
	require.Equal(t, "abc.def.ghi", tok)

	// scheme is case-insensitive
	tok, err = bearerToken(mk("bearer abc"))
	require.NoError(t, err)
	require.Equal(t, "abc", tok)

	for _, v := range []string{"", "Basic abc", "Bearer", "Bearer   "} {
		_, err := bearerToken(mk(v))
		require.Error(t, err, "header %q", v)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	s := New(&fakeRelay{}, &fakeAdmin{}, []byte("key"), time.Minute, zap.NewNop())

	tok, exp, err := s.issueSession()
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Minute), exp, 5*time.Second)
	require.NoError(t, s.verifySession(tok))

	other := New(&fakeRelay{}, &fakeAdmin{}, []byte("other"), time.Minute, zap.NewNop())
	require.Error(t, other.verifySession(tok))

	expired := New(&fakeRelay{}, &fakeAdmin{}, []byte("key"), -time.Hour, zap.NewNop())
	tok, _, err = expired.issueSession()
	require.NoError(t, err)
	require.Error(t, s.verifySession(tok))

	require.Error(t, s.verifySession("not-a-jwt"))
}

func TestRecover(t *testing.T) {
	panics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	h := Recover(zap.NewNop())(panics)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), "internal error")
}

func TestLoggingPassesThrough(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := Logging(zap.NewNop())(inner)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.Equal(t, http.StatusTeapot, w.Code)
}
