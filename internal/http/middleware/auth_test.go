package middleware

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret")

func identityRouter(opts IdentityOptions, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Identity(opts))
	handlers := append(extra, func(c *gin.Context) {
		c.String(http.StatusOK, "user=%s", UserID(c))
	})
	r.GET("/who", handlers...)
	r.POST("/who", handlers...)
	return r
}

func bearer(t *testing.T, secret []byte, issuer, sub string, ttl time.Duration) string {
	t.Helper()
	tok, err := IssueToken(secret, issuer, sub, ttl)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	return "Bearer " + tok
}

func TestIdentity_ValidBearer(t *testing.T) {
	r := identityRouter(IdentityOptions{Secret: testSecret, Issuer: "meet"})
	w := do(r, http.MethodGet, "/who", map[string]string{
		"Authorization": bearer(t, testSecret, "meet", "alice", time.Minute),
	})
	if w.Code != http.StatusOK || w.Body.String() != "user=alice" {
		t.Fatalf("got %d %q", w.Code, w.Body.String())
	}
}

func TestIdentity_RejectsBadTokens(t *testing.T) {
	r := identityRouter(IdentityOptions{Secret: testSecret, Issuer: "meet"})

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "mallory",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "bob", Issuer: "meet",
	}).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	cases := map[string]string{
		"expired":      bearer(t, testSecret, "meet", "alice", -time.Minute),
		"wrong issuer": bearer(t, testSecret, "other", "alice", time.Minute),
		"wrong secret": bearer(t, []byte("nope"), "meet", "alice", time.Minute),
		"alg none":     "Bearer " + unsigned,
		"no exp":       "Bearer " + noExp,
		"empty sub":    bearer(t, testSecret, "meet", "", time.Minute),
		"garbage":      "Bearer not.a.token",
	}
	for name, auth := range cases {
		t.Run(name, func(t *testing.T) {
			w := do(r, http.MethodGet, "/who", map[string]string{"Authorization": auth})
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("want 401, got %d", w.Code)
			}
			body := decodeBody(t, w)
			if body["code"] != "unauthorized" || body["request_id"] == "" {
				t.Fatalf("bad envelope: %v", body)
			}
		})
	}
}

func TestIdentity_NoSecretRejectsBearer(t *testing.T) {
	r := identityRouter(IdentityOptions{AllowHeader: true})
	w := do(r, http.MethodGet, "/who", map[string]string{
		"Authorization": bearer(t, testSecret, "", "alice", time.Minute),
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", w.Code)
	}
}

func TestIdentity_HeaderFallbackAndGuest(t *testing.T) {
	allow := identityRouter(IdentityOptions{AllowHeader: true})
	if w := do(allow, http.MethodGet, "/who", map[string]string{HeaderUserID: " carol "}); w.Body.String() != "user=carol" {
		t.Fatalf("header identity: %q", w.Body.String())
	}
	if w := do(allow, http.MethodGet, "/who", nil); w.Code != http.StatusOK || w.Body.String() != "user=" {
		t.Fatalf("guest: %d %q", w.Code, w.Body.String())
	}

	deny := identityRouter(IdentityOptions{Secret: testSecret})
	if w := do(deny, http.MethodGet, "/who", map[string]string{HeaderUserID: "carol"}); w.Body.String() != "user=" {
		t.Fatalf("header must be ignored when not allowed: %q", w.Body.String())
	}
}

func TestIdentity_AccessTokenQueryOnlyOnGET(t *testing.T) {
	r := identityRouter(IdentityOptions{Secret: testSecret})
	tok, err := IssueToken(testSecret, "", "dave", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if w := do(r, http.MethodGet, "/who?access_token="+tok, nil); w.Body.String() != "user=dave" {
		t.Fatalf("GET query token: %d %q", w.Code, w.Body.String())
	}
	if w := do(r, http.MethodPost, "/who?access_token="+tok, nil); w.Body.String() != "user=" {
		t.Fatalf("POST must ignore query token: %q", w.Body.String())
	}
}

func TestRequireUser(t *testing.T) {
	r := identityRouter(IdentityOptions{AllowHeader: true}, RequireUser())
	if w := do(r, http.MethodGet, "/who", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("guest: want 401, got %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/who", map[string]string{HeaderUserID: "erin"}); w.Code != http.StatusOK {
		t.Fatalf("user: want 200, got %d", w.Code)
	}
}

func TestIssueToken_EmptySecret(t *testing.T) {
	if _, err := IssueToken(nil, "", "x", time.Minute); err == nil {
		t.Fatal("expected error")
	}
}
