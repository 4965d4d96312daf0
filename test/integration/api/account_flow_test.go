// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package api_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/accountd/internal/web"
)

// client wraps an http.Client with a cookie jar so the session cookie
// travels between calls like a browser.
type client struct {
	http *http.Client
}

func newClient() *client {
	jar, err := cookiejar.New(nil)
	Expect(err).NotTo(HaveOccurred())
	return &client{http: &http.Client{Jar: jar}}
}

func (c *client) do(method, path, body string) (*http.Response, map[string]any) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, env.server.URL+path, reader)
	Expect(err).NotTo(HaveOccurred())
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())

	var decoded map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		Expect(json.Unmarshal(raw, &decoded)).To(Succeed())
	}
	return resp, decoded
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == web.SessionCookieName {
			return c
		}
	}
	return nil
}

var _ = Describe("Account lifecycle", func() {
	BeforeEach(func() {
		cleanupTables(env.ctx, env.pool)
	})

	It("registers, logs in, reads the current user and logs out", func() {
		c := newClient()

		resp, body := c.do(http.MethodPost, "/api/v1/users",
			`{"username":"Ada","email":"Ada@Example.com","password":"correct horse"}`)
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))
		Expect(body).To(HaveKeyWithValue("username", "Ada"))
		Expect(body).To(HaveKeyWithValue("email", "Ada@Example.com"))
		Expect(body).NotTo(HaveKey("password"))
		userID := body["id"]

		resp, body = c.do(http.MethodPost, "/api/v1/sessions",
			`{"email":"ADA@example.com","password":"correct horse"}`)
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))
		Expect(body).To(HaveKeyWithValue("user_id", userID))
		cookie := sessionCookie(resp)
		Expect(cookie).NotTo(BeNil())
		Expect(cookie.Value).To(HaveLen(96))
		Expect(cookie.HttpOnly).To(BeTrue())
		Expect(cookie.MaxAge).To(Equal(30 * 24 * 60 * 60))

		resp, body = c.do(http.MethodGet, "/api/v1/user", "")
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body).To(HaveKeyWithValue("id", userID))
		Expect(resp.Header.Get("Cache-Control")).To(ContainSubstring("no-store"))

		resp, _ = c.do(http.MethodDelete, "/api/v1/sessions", "")
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		resp, body = c.do(http.MethodGet, "/api/v1/user", "")
		Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		Expect(body).To(HaveKeyWithValue("name", "UnauthorizedError"))
	})

	It("rejects a wrong password without revealing which field was wrong", func() {
		c := newClient()
		resp, _ := c.do(http.MethodPost, "/api/v1/users",
			`{"username":"grace","email":"grace@example.com","password":"hopper123"}`)
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))

		wrongPassword, wrongBody := c.do(http.MethodPost, "/api/v1/sessions",
			`{"email":"grace@example.com","password":"nope"}`)
		unknownEmail, unknownBody := c.do(http.MethodPost, "/api/v1/sessions",
			`{"email":"nobody@example.com","password":"hopper123"}`)

		Expect(wrongPassword.StatusCode).To(Equal(http.StatusUnauthorized))
		Expect(unknownEmail.StatusCode).To(Equal(http.StatusUnauthorized))
		Expect(wrongBody).To(Equal(unknownBody))
		Expect(sessionCookie(wrongPassword)).To(BeNil())
	})

	It("treats usernames and emails as unique regardless of case", func() {
		c := newClient()
		resp, _ := c.do(http.MethodPost, "/api/v1/users",
			`{"username":"linus","email":"linus@example.com","password":"kernel123"}`)
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))

		resp, body := c.do(http.MethodPost, "/api/v1/users",
			`{"username":"LINUS","email":"other@example.com","password":"kernel123"}`)
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		Expect(body).To(HaveKeyWithValue("name", "ValidationError"))

		resp, _ = c.do(http.MethodPost, "/api/v1/users",
			`{"username":"other","email":"LINUS@example.com","password":"kernel123"}`)
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

		resp, body = c.do(http.MethodGet, "/api/v1/users/LiNuS", "")
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body).To(HaveKeyWithValue("username", "linus"))
	})

	It("updates a user and accepts the new password at login", func() {
		c := newClient()
		resp, _ := c.do(http.MethodPost, "/api/v1/users",
			`{"username":"margaret","email":"margaret@example.com","password":"apollo11"}`)
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))

		resp, body := c.do(http.MethodPatch, "/api/v1/users/margaret",
			`{"username":"hamilton","password":"apollo12"}`)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body).To(HaveKeyWithValue("username", "hamilton"))

		resp, _ = c.do(http.MethodGet, "/api/v1/users/margaret", "")
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))

		resp, _ = c.do(http.MethodPost, "/api/v1/sessions",
			`{"email":"margaret@example.com","password":"apollo11"}`)
		Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))

		resp, _ = c.do(http.MethodPost, "/api/v1/sessions",
			`{"email":"margaret@example.com","password":"apollo12"}`)
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))
	})
})

var _ = Describe("System endpoints", func() {
	It("reports database status", func() {
		resp, body := newClient().do(http.MethodGet, "/api/v1/status", "")
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		deps, ok := body["dependencies"].(map[string]any)
		Expect(ok).To(BeTrue())
		db, ok := deps["database"].(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(db["version"]).To(HavePrefix("16."))
		Expect(db["max_connections"]).To(BeNumerically(">", 0))
		Expect(db["opened_connections"]).To(BeNumerically(">=", 1))
	})

	It("has nothing pending after the suite migrated", func() {
		c := newClient()

		resp, _ := c.do(http.MethodGet, "/api/v1/migrations", "")
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		resp, _ = c.do(http.MethodPost, "/api/v1/migrations", "")
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})
})
