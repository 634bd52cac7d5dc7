package kit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogging_LevelFollowsStatus(t *testing.T) {
	testCases := []struct {
		status int
		want   zapcore.Level
	}{
		{status: http.StatusOK, want: zapcore.InfoLevel},
		{status: http.StatusNotFound, want: zapcore.WarnLevel},
		{status: http.StatusBadGateway, want: zapcore.ErrorLevel},
	}

	for _, tc := range testCases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			h := Logging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
			}))

			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products?category=Kitchen", nil))

			entries := logs.All()
			require.Len(t, entries, 1)
			assert.Equal(t, tc.want, entries[0].Level)

			fields := entries[0].ContextMap()
			assert.Equal(t, "/products", fields["path"])
			assert.Equal(t, "category=Kitchen", fields["query"])
			assert.Equal(t, int64(tc.status), fields["status"])
		})
	}
}

func TestRecoverer(t *testing.T) {
	h := Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestChiRoutePatternOrPath(t *testing.T) {
	var got string
	r := chi.NewRouter()
	r.Get("/products/{id}", func(_ http.ResponseWriter, r *http.Request) { got = ChiRoutePatternOrPath(r) })
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products/42", nil))
	assert.Equal(t, "/products/{id}", got)

	assert.Equal(t, "/raw", ChiRoutePatternOrPath(httptest.NewRequest(http.MethodGet, "/raw", nil)))
}

func TestMetricsAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	testCases := []struct {
		name   string
		token  string
		header string
		want   int
	}{
		{name: "right token", token: "t0k", header: "Bearer t0k", want: http.StatusOK},
		{name: "wrong token", token: "t0k", header: "Bearer nope", want: http.StatusForbidden},
		{name: "no scheme", token: "t0k", header: "t0k", want: http.StatusForbidden},
		{name: "empty token locks", token: "", header: "Bearer ", want: http.StatusForbidden},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			req.Header.Set("Authorization", tc.header)
			rr := httptest.NewRecorder()

			MetricsAuth(tc.token)(ok).ServeHTTP(rr, req)
			assert.Equal(t, tc.want, rr.Code)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	testCases := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "single object", body: `{"name":"x"}`},
		{name: "unknown field", body: `{"name":"x","extra":1}`, wantErr: true},
		{name: "trailing object", body: `{"name":"x"}{"name":"y"}`, wantErr: true},
		{name: "too large", body: `{"name":"` + strings.Repeat("a", maxJSONBody) + `"}`, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var p payload
			err := DecodeJSON(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body)), &p)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "x", p.Name)
		})
	}
}
