package middleware_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/frahmantamala/bizanalytics/internal"
	"github.com/frahmantamala/bizanalytics/internal/transport/middleware"
	"github.com/frahmantamala/bizanalytics/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type touchRecorder struct {
	touched []string
	err     error
}

func (t *touchRecorder) Touch(_ context.Context, userID string) error {
	t.touched = append(t.touched, userID)
	return t.err
}

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

var _ = Describe("Presence", func() {
	It("should touch the authenticated caller", func() {
		tracker := &touchRecorder{}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(internal.ContextWithUserID(req.Context(), "u1"))
		rec := httptest.NewRecorder()

		middleware.Presence(tracker)(ok).ServeHTTP(rec, req)

		Expect(tracker.touched).To(Equal([]string{"u1"}))
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("should skip anonymous requests and survive tracker failures", func() {
		tracker := &touchRecorder{err: errors.New("db down")}
		rec := httptest.NewRecorder()

		middleware.Presence(tracker)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		Expect(tracker.touched).To(BeEmpty())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(internal.ContextWithUserID(req.Context(), "u1"))
		middleware.Presence(tracker)(ok).ServeHTTP(rec, req)
		Expect(rec.Code).To(Equal(http.StatusOK))
	})
})

var _ = Describe("RequestContext", func() {
	It("should keep a caller supplied trace id and record client details", func() {
		var meta internal.RequestMeta
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.TraceHeader, "trace-1")
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		req.Header.Set("User-Agent", "curl/8.4.0")
		rec := httptest.NewRecorder()

		middleware.RequestContext(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			meta = internal.RequestMetaFromContext(r.Context())
		})).ServeHTTP(rec, req)

		Expect(rec.Header().Get(middleware.TraceHeader)).To(Equal("trace-1"))
		Expect(meta.IPAddress).To(Equal("203.0.113.9"))
		Expect(meta.UserAgent).To(Equal("curl/8.4.0"))
	})

	It("should mint a trace id when none is sent", func() {
		rec := httptest.NewRecorder()

		middleware.RequestContext(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(rec.Header().Get(middleware.TraceHeader)).NotTo(BeEmpty())
	})
})

var _ = Describe("RecoveryMiddleware", func() {
	It("should answer a panic with the error envelope", func() {
		rec := httptest.NewRecorder()
		boom := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })

		middleware.RecoveryMiddleware(logger.Discard())(boom).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		body := decodeEnvelope(rec)
		Expect(body.Status).To(Equal(http.StatusInternalServerError))
		Expect(body.Code).To(Equal(internal.ErrCodeInternal))
		Expect(rec.Body.String()).NotTo(ContainSubstring("boom"))
	})
})

var _ = Describe("LoggingMiddleware", func() {
	It("should pass the request body through untouched", func() {
		var got string
		echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, _ := io.ReadAll(r.Body)
			got = string(raw)
			w.WriteHeader(http.StatusCreated)
		})
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"password":"secret"}`))
		rec := httptest.NewRecorder()

		middleware.LoggingMiddleware(logger.Discard())(echo).ServeHTTP(rec, req)

		Expect(got).To(Equal(`{"password":"secret"}`))
		Expect(rec.Code).To(Equal(http.StatusCreated))
	})

	It("should keep the writer flushable for event streams", func() {
		flushable := false
		stream := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, flushable = w.(http.Flusher)
		})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept", "text/event-stream")

		middleware.LoggingMiddleware(logger.Discard())(stream).ServeHTTP(httptest.NewRecorder(), req)

		Expect(flushable).To(BeTrue())
	})

	It("should hand its logger to handlers when the request has none", func() {
		base := logger.Discard()
		var seen *slog.Logger
		handler := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			seen = logger.From(r.Context())
		})

		middleware.LoggingMiddleware(base)(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(seen).To(BeIdenticalTo(base))
	})
})
