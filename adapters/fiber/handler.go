package fiber

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/lborres/studysync"
	"github.com/lborres/studysync/core"
)

var (
	errInvalidBody = errors.New("invalid request body")
	errCommaInList = errors.New("list items cannot contain commas")
)

// statusFor maps a failure kind to its HTTP status
func statusFor(kind core.FailureKind) int {
	switch kind {
	case core.FailureUnauthorized:
		return http.StatusUnauthorized
	case core.FailureValidation:
		return http.StatusBadRequest
	case core.FailureNotFound:
		return http.StatusNotFound
	case core.FailureConflict:
		return http.StatusConflict
	case core.FailureNone:
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

// respond writes the envelope with okStatus on success or the failure's status
func respond[T any](c fiber.Ctx, res core.Result[T], okStatus int) error {
	if !res.Success {
		return c.Status(statusFor(res.Kind)).JSON(res)
	}
	return c.Status(okStatus).JSON(res)
}

func badRequest(c fiber.Ctx, err error) error {
	msg := errInvalidBody.Error()
	if errors.Is(err, errCommaInList) {
		msg = err.Error()
	}
	return c.Status(http.StatusBadRequest).JSON(core.Fail[core.NoData](core.FailureValidation, msg))
}

// extractToken reads the session cookie, falling back to a Bearer token
func extractToken(c fiber.Ctx) string {
	if token := c.Cookies(core.SessionCookieName); token != "" {
		return token
	}

	authHeader := c.Get(fiber.HeaderAuthorization)
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}

func setSessionCookie(c fiber.Ctx, config core.SessionConfig, token *core.IssuedToken) {
	c.Cookie(&fiber.Cookie{
		Name:     core.SessionCookieName,
		Value:    token.Value,
		Path:     "/",
		MaxAge:   int(config.MaxAge.Seconds()),
		Expires:  token.ExpiresAt,
		Secure:   config.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func clearSessionCookie(c fiber.Ctx, config core.SessionConfig) {
	c.Cookie(&fiber.Cookie{
		Name:     core.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		Secure:   config.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// readForm flattens a JSON object or a url-encoded/multipart body into a
// core.Form. JSON arrays are joined with commas, so tags may arrive either
// as ["a","b"] or as "a,b"; an array item holding a comma is rejected
// rather than split.
func readForm(c fiber.Ctx) (core.Form, error) {
	form := core.Form{}
	body := c.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return form, nil
	}

	contentType := strings.ToLower(string(c.Request().Header.ContentType()))
	switch {
	case strings.HasPrefix(contentType, fiber.MIMEApplicationJSON):
		var raw map[string]any
		if err := c.App().Config().JSONDecoder(body, &raw); err != nil {
			return nil, errInvalidBody
		}
		for key, value := range raw {
			v, err := formValue(value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			form[key] = v
		}

	case strings.HasPrefix(contentType, fiber.MIMEMultipartForm):
		mf, err := c.MultipartForm()
		if err != nil {
			return nil, errInvalidBody
		}
		for key, values := range mf.Value {
			form[key] = strings.Join(values, ",")
		}

	default:
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, errInvalidBody
		}
		for key, vs := range values {
			form[key] = strings.Join(vs, ",")
		}
	}

	return form, nil
}

func formValue(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			part, err := formValue(item)
			if err != nil {
				return "", err
			}
			if strings.Contains(part, ",") {
				return "", errCommaInList
			}
			parts = append(parts, part)
		}
		return strings.Join(parts, ","), nil
	default:
		return fmt.Sprint(v), nil
	}
}

// handleRegister creates an account and sets the session cookie
func handleRegister(s *studysync.StudySync) fiber.Handler {
	return func(c fiber.Ctx) error {
		form, err := readForm(c)
		if err != nil {
			return badRequest(c, err)
		}

		res, token := s.Auth.Register(c.Context(), form)
		if token != nil {
			setSessionCookie(c, s.Sessions.Config(), token)
		}
		return respond(c, res, http.StatusCreated)
	}
}

// handleLogin verifies credentials and sets the session cookie
func handleLogin(s *studysync.StudySync) fiber.Handler {
	return func(c fiber.Ctx) error {
		form, err := readForm(c)
		if err != nil {
			return badRequest(c, err)
		}

		res, token := s.Auth.Login(c.Context(), form)
		if token != nil {
			setSessionCookie(c, s.Sessions.Config(), token)
		}
		return respond(c, res, http.StatusOK)
	}
}

func handleLogout(s *studysync.StudySync) fiber.Handler {
	return func(c fiber.Ctx) error {
		clearSessionCookie(c, s.Sessions.Config())
		return respond(c, s.Auth.Logout(), http.StatusOK)
	}
}

func handleSession(s *studysync.StudySync) fiber.Handler {
	return func(c fiber.Ctx) error {
		return respond(c, s.Auth.Session(c.Context(), extractToken(c)), http.StatusOK)
	}
}

func handleListMaterials(s *studysync.StudySync) fiber.Handler {
	return func(c fiber.Ctx) error {
		filter := core.MaterialFilter{
			Search:  strings.TrimSpace(c.Query("search")),
			Subject: strings.TrimSpace(c.Query("subject")),
		}
		return respond(c, s.Materials.List(c.Context(), extractToken(c), filter), http.StatusOK)
	}
}

func handleCreateMaterial(s *studysync.StudySync) fiber.Handler {
	return func(c fiber.Ctx) error {
		form, err := readForm(c)
		if err != nil {
			return badRequest(c, err)
		}
		return respond(c, s.Materials.Create(c.Context(), extractToken(c), form), http.StatusCreated)
	}
}

func handleGetMaterial(s *studysync.StudySync) fiber.Handler {
	return func(c fiber.Ctx) error {
		return respond(c, s.Materials.Get(c.Context(), extractToken(c), c.Params("id")), http.StatusOK)
	}
}

func handleUpdateMaterial(s *studysync.StudySync) fiber.Handler {
	return func(c fiber.Ctx) error {
		form, err := readForm(c)
		if err != nil {
			return badRequest(c, err)
		}
		return respond(c, s.Materials.Update(c.Context(), extractToken(c), c.Params("id"), form), http.StatusOK)
	}
}

func handleDeleteMaterial(s *studysync.StudySync) fiber.Handler {
	return func(c fiber.Ctx) error {
		return respond(c, s.Materials.Delete(c.Context(), extractToken(c), c.Params("id")), http.StatusOK)
	}
}

func handleGenerateSummary(s *studysync.StudySync) fiber.Handler {
	return func(c fiber.Ctx) error {
		return respond(c, s.AI.GenerateSummary(c.Context(), extractToken(c), c.Params("id")), http.StatusOK)
	}
}

// handleGenerateFlashcards reads count from the body or the query string.
// A missing or unparsable count falls back to the default.
func handleGenerateFlashcards(s *studysync.StudySync) fiber.Handler {
	return func(c fiber.Ctx) error {
		form, err := readForm(c)
		if err != nil {
			return badRequest(c, err)
		}

		raw := form["count"]
		if raw == "" {
			raw = c.Query("count")
		}
		count, _ := strconv.Atoi(strings.TrimSpace(raw))

		return respond(c, s.AI.GenerateFlashcards(c.Context(), extractToken(c), c.Params("id"), count), http.StatusCreated)
	}
}

func handleExplainConcept(s *studysync.StudySync) fiber.Handler {
	return func(c fiber.Ctx) error {
		form, err := readForm(c)
		if err != nil {
			return badRequest(c, err)
		}
		return respond(c, s.AI.ExplainConcept(c.Context(), extractToken(c), c.Params("id"), form), http.StatusOK)
	}
}

func handleListFlashcards(s *studysync.StudySync) fiber.Handler {
	return func(c fiber.Ctx) error {
		filter := core.FlashcardFilter{
			Subject:    strings.TrimSpace(c.Query("subject")),
			MaterialID: strings.TrimSpace(c.Query("materialId")),
		}
		return respond(c, s.Flashcards.List(c.Context(), extractToken(c), filter), http.StatusOK)
	}
}

func handleCreateFlashcard(s *studysync.StudySync) fiber.Handler {
	return func(c fiber.Ctx) error {
		form, err := readForm(c)
		if err != nil {
			return badRequest(c, err)
		}
		return respond(c, s.Flashcards.Create(c.Context(), extractToken(c), form), http.StatusCreated)
	}
}

func handleUpdateFlashcard(s *studysync.StudySync) fiber.Handler {
	return func(c fiber.Ctx) error {
		form, err := readForm(c)
		if err != nil {
			return badRequest(c, err)
		}
		return respond(c, s.Flashcards.Update(c.Context(), extractToken(c), c.Params("id"), form), http.StatusOK)
	}
}

func handleDeleteFlashcard(s *studysync.StudySync) fiber.Handler {
	return func(c fiber.Ctx) error {
		return respond(c, s.Flashcards.Delete(c.Context(), extractToken(c), c.Params("id")), http.StatusOK)
	}
}

func handleDashboardStats(s *studysync.StudySync) fiber.Handler {
	return func(c fiber.Ctx) error {
		return respond(c, s.Dashboard.Stats(c.Context(), extractToken(c)), http.StatusOK)
	}
}
