// mockmind is a development stand-in for the RepoMind backend. It
// serves the endpoints the client consumes with canned data behind a
// JWT session cookie, so the CLI can be exercised end to end without
// the real service.
//
// Usage:
//
//	mockmind [-addr :8080]
//
// Obtain a session cookie with:
//
//	curl -X POST http://localhost:8080/auth/login -d '{"username":"dev"}' -H 'Content-Type: application/json' -i
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/repomind/repomind/pkg/models"
)

const cookieName = "JSESSIONID"

func signingSecret() []byte {
	if s := os.Getenv("MOCKMIND_SECRET"); s != "" {
		return []byte(s)
	}
	return []byte("mockmind-dev-secret")
}

var repositories = []models.Repository{
	{ID: 42, Name: "auth-service", FullName: "acme/auth-service"},
	{ID: 43, Name: "billing", FullName: "acme/billing", Private: true},
}

var pullRequests = map[int64][]models.PullRequestSummary{
	42: {
		{ID: 101, Number: 7, Title: "Rotate JWT signing keys", Author: "mia",
			HeadBranch: "key-rotation", BaseBranch: "main",
			HTMLURL: "https://github.com/acme/auth-service/pull/7"},
		{ID: 102, Number: 8, Title: "Add refresh token endpoint", Author: "jordan",
			HeadBranch: "refresh-tokens", BaseBranch: "main",
			HTMLURL: "https://github.com/acme/auth-service/pull/8"},
	},
	43: {
		{ID: 201, Number: 3, Title: "Invoice rounding fix", Author: "sam",
			HeadBranch: "fix-rounding", BaseBranch: "main",
			HTMLURL: "https://github.com/acme/billing/pull/3"},
	},
}

// reviewsMu guards reviews; echo runs handlers concurrently
var reviewsMu sync.Mutex

var reviews = map[int64][]models.ReviewResult{
	101: {
		{
			ID:           1,
			Summary:      "First pass: the rotation window is not configurable.",
			CommentCount: 1,
			CreatedAt:    time.Now().Add(-48 * time.Hour),
			Comments: []models.ReviewComment{
				{ID: 1, FilePath: "internal/keys/rotate.go", LineNumber: 40,
					Severity: models.SeverityWarning, Category: "configuration",
					Body:      "Rotation interval is hard-coded to 24h.",
					Rationale: "Operators need to tune this per environment."},
			},
		},
		{
			ID:           2,
			Summary:      "Key rotation looks correct; one critical finding around old-key cleanup.",
			CommentCount: 2,
			CreatedAt:    time.Now().Add(-2 * time.Hour),
			Comments: []models.ReviewComment{
				{ID: 2, FilePath: "internal/keys/rotate.go", LineNumber: 88,
					Severity: models.SeverityCritical, Category: "security",
					Body:       "Old signing keys are never evicted from the keyring.",
					Rationale:  "Retired keys must stop validating tokens after the grace period.",
					Suggestion: "Drop keys older than two rotation periods."},
				{ID: 3, FilePath: "internal/keys/store.go", LineNumber: 12,
					Severity: models.SeverityInfo, Category: "style",
					Body: "Consider unexporting keyringMu."},
			},
		},
	},
}

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.POST("/auth/login", handleLogin)

	api := e.Group("/api", requireSession)
	api.GET("/repos", handleListRepos)
	api.GET("/repos/:repoId/pull-requests", handleListPullRequests)
	api.POST("/reviews/run/:prId", handleRunReview)
	api.GET("/reviews/pr/:prId", handleListReviews)
	api.POST("/chat", handleChat)

	e.Logger.Fatal(e.Start(*addr))
}

func handleLogin(c echo.Context) error {
	var body struct {
		Username string `json:"username"`
	}
	if err := c.Bind(&body); err != nil || body.Username == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "username is required"})
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": body.Username,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(12 * time.Hour).Unix(),
	})
	signed, err := token.SignedString(signingSecret())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not create session"})
	}

	c.SetCookie(&http.Cookie{
		Name:     cookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
	})
	return c.JSON(http.StatusOK, echo.Map{"username": body.Username})
}

// requireSession validates the JWT session cookie the same way the
// real backend does: missing or expired sessions are a plain 401.
func requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(cookieName)
		if err != nil {
			return c.NoContent(http.StatusUnauthorized)
		}

		_, err = jwt.Parse(cookie.Value, func(t *jwt.Token) (interface{}, error) {
			return signingSecret(), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			return c.NoContent(http.StatusUnauthorized)
		}

		return next(c)
	}
}

func handleListRepos(c echo.Context) error {
	return c.JSON(http.StatusOK, repositories)
}

func handleListPullRequests(c echo.Context) error {
	repoID, err := strconv.ParseInt(c.Param("repoId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid repository id"})
	}

	prs, ok := pullRequests[repoID]
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "repository not found"})
	}
	return c.JSON(http.StatusOK, prs)
}

func handleRunReview(c echo.Context) error {
	prID, err := strconv.ParseInt(c.Param("prId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid pull request id"})
	}

	// Pretend the review engine did some work
	time.Sleep(500 * time.Millisecond)

	reviewsMu.Lock()
	runs := reviews[prID]
	reviews[prID] = append(runs, models.ReviewResult{
		ID:           int64(len(runs) + 1),
		Summary:      fmt.Sprintf("Automated review run %d for pull request %d.", len(runs)+1, prID),
		CommentCount: 0,
		Comments:     []models.ReviewComment{},
		CreatedAt:    time.Now(),
	})
	reviewsMu.Unlock()

	return c.JSON(http.StatusOK, echo.Map{"status": "completed", "prId": prID})
}

func handleListReviews(c echo.Context) error {
	prID, err := strconv.ParseInt(c.Param("prId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid pull request id"})
	}
	reviewsMu.Lock()
	runs := append([]models.ReviewResult{}, reviews[prID]...)
	reviewsMu.Unlock()
	return c.JSON(http.StatusOK, runs)
}

func handleChat(c echo.Context) error {
	var req models.ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid chat request"})
	}
	if req.Message == "" || req.ConversationID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "message and conversationId are required"})
	}

	answer := fmt.Sprintf("Looking at repository %d: %q is a great question. "+
		"(canned answer for conversation %s)", req.RepoID, req.Message, req.ConversationID)
	return c.JSON(http.StatusOK, models.ChatResponse{Answer: answer})
}
