package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/frahmantamala/bizanalytics/internal"
	"github.com/frahmantamala/bizanalytics/internal/transport"
	"github.com/frahmantamala/bizanalytics/pkg/logger"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

var _ = ginkgo.Describe("AuthHandler", func() {
	var (
		handler  *Handler
		tokenGen *JWTTokenGenerator
	)

	ginkgo.BeforeEach(func() {
		tokenGen = NewJWTTokenGenerator("a", "r", time.Minute, time.Hour)
		svc := NewService(newMockUserRepository(), tokenGen, nil, bcrypt.MinCost, logger.Discard())
		handler = NewHandler(transport.NewBaseHandler(logger.Discard()), svc, CookieConfig{})
	})

	ginkgo.Describe("Login", func() {
		ginkgo.It("should set the jwt cookie on success", func() {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"login":"jdoe","password":"correct_password"}`))
			rec := httptest.NewRecorder()

			handler.Login(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			cookies := rec.Result().Cookies()
			gomega.Expect(cookies).To(gomega.HaveLen(1))
			gomega.Expect(cookies[0].Name).To(gomega.Equal("jwt"))
			gomega.Expect(cookies[0].HttpOnly).To(gomega.BeTrue())
		})

		ginkgo.It("should answer 401 with the error envelope", func() {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"login":"jdoe","password":"nope"}`))
			rec := httptest.NewRecorder()

			handler.Login(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
			var body internal.ErrorResponse
			gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(gomega.Succeed())
			gomega.Expect(body.Status).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(body.Code).To(gomega.Equal(internal.ErrCodeInvalidCredentials))
		})

		ginkgo.It("should reject a malformed body", func() {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{`))
			rec := httptest.NewRecorder()

			handler.Login(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
		})
	})

	ginkgo.Describe("Logout", func() {
		ginkgo.It("should clear the cookie even without a session", func() {
			req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
			rec := httptest.NewRecorder()

			handler.Logout(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNoContent))
			gomega.Expect(rec.Result().Cookies()[0].MaxAge).To(gomega.BeNumerically("<", 0))
		})
	})

	ginkgo.Describe("AuthMiddleware", func() {
		var (
			seenUser string
			next     http.Handler
		)

		ginkgo.BeforeEach(func() {
			seenUser = ""
			next = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seenUser = internal.UserIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})
		})

		ginkgo.It("should reject a request without a token", func() {
			rec := httptest.NewRecorder()

			handler.AuthMiddleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/me", nil))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(seenUser).To(gomega.BeEmpty())
		})

		ginkgo.It("should accept a bearer token", func() {
			access, _ := tokenGen.GenerateAccessToken("user-1", "jdoe@example.com", "jdoe")
			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			req.Header.Set("Authorization", "Bearer "+access)
			rec := httptest.NewRecorder()

			handler.AuthMiddleware(next).ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(seenUser).To(gomega.Equal("user-1"))
		})

		ginkgo.It("should fall back to the cookie", func() {
			access, _ := tokenGen.GenerateAccessToken("user-1", "jdoe@example.com", "jdoe")
			req := httptest.NewRequest(http.MethodGet, "/users/me", nil).WithContext(context.Background())
			req.AddCookie(&http.Cookie{Name: "jwt", Value: access})
			rec := httptest.NewRecorder()

			handler.AuthMiddleware(next).ServeHTTP(rec, req)

			gomega.Expect(seenUser).To(gomega.Equal("user-1"))
		})
	})
})
