package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/secrets/internal/auth"
	"github.com/mrlokans/secrets/internal/secrets"
)

// SecretsController serves the home page and the secret pages.
type SecretsController struct {
	service *secrets.Service
	page    page
}

func NewSecretsController(service *secrets.Service, html bool) *SecretsController {
	return &SecretsController{
		service: service,
		page:    page{html: html},
	}
}

// Home renders the landing page.
func (sc *SecretsController) Home(c *gin.Context) {
	data := gin.H{
		"Title":         "Secrets",
		"Authenticated": auth.IsAuthenticated(c),
		"CSRFToken":     auth.GetCSRFToken(c),
	}
	if user := auth.CurrentUser(c); user != nil {
		data["User"] = user.DisplayName()
	}
	sc.page.render(c, http.StatusOK, "home.html", data)
}

// SecretsPage lists every published secret. Requires authentication.
func (sc *SecretsController) SecretsPage(c *gin.Context) {
	entries, err := sc.service.List(c.Request.Context())
	if err != nil {
		if errors.Is(err, auth.ErrStoreUnavailable) {
			respondUnavailable(c, err, "list secrets")
			return
		}
		respondInternalError(c, err, "list secrets")
		return
	}

	sc.page.render(c, http.StatusOK, "secrets.html", gin.H{
		"Title":   "Secrets",
		"User":    auth.CurrentUser(c).DisplayName(),
		"Secrets":   entries,
		"CSRFToken": auth.GetCSRFToken(c),
	})
}

// SubmitPage renders the secret submission form. Requires authentication.
func (sc *SecretsController) SubmitPage(c *gin.Context) {
	user := auth.CurrentUser(c)
	sc.page.render(c, http.StatusOK, "submit.html", gin.H{
		"Title":     "Submit a Secret",
		"CSRFToken": auth.GetCSRFToken(c),
		"Current":   user.SecretText(),
		"Error":     c.Query("error"),
	})
}

// Submit stores the current user's secret. Requires authentication.
func (sc *SecretsController) Submit(c *gin.Context) {
	user := auth.CurrentUser(c)

	_, err := sc.service.Submit(c.Request.Context(), user.ID, c.PostForm("secret"))
	if err != nil {
		switch {
		case errors.Is(err, secrets.ErrEmptySecret), errors.Is(err, secrets.ErrSecretTooLong):
			sc.page.render(c, http.StatusBadRequest, "submit.html", gin.H{
				"Title":     "Submit a Secret",
				"CSRFToken": auth.GetCSRFToken(c),
				"Current":   user.SecretText(),
				"Error":     err.Error(),
			})
		case errors.Is(err, secrets.ErrUserNotFound):
			c.Redirect(http.StatusFound, "/login")
		case errors.Is(err, auth.ErrStoreUnavailable):
			respondUnavailable(c, err, "submit secret")
		default:
			respondInternalError(c, err, "submit secret")
		}
		return
	}

	c.Redirect(http.StatusFound, "/secrets")
}
