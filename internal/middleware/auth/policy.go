package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mkosyrev/product-store/internal/metrics"
	"github.com/mkosyrev/product-store/internal/models"
)

// Rule maps one (method, registered route pattern) pair to the role set
// allowed to invoke it. An empty role set means the route is anonymous.
type Rule struct {
	Method string
	Path   string
	Roles  []models.Role
}

// Policy is the static route table. Routes not listed here (health probes,
// metrics) are anonymous.
var Policy = []Rule{
	{Method: http.MethodGet, Path: "/products"},
	{Method: http.MethodGet, Path: "/products/:id", Roles: []models.Role{models.RoleUser, models.RoleAdmin}},
	{Method: http.MethodPost, Path: "/products", Roles: []models.Role{models.RoleAdmin}},
	{Method: http.MethodDelete, Path: "/products/:id", Roles: []models.Role{models.RoleAdmin}},
	{Method: http.MethodGet, Path: "/products/search"},

	{Method: http.MethodPost, Path: "/auth/login"},
	{Method: http.MethodPost, Path: "/auth/register"},
	{Method: http.MethodGet, Path: "/auth/access"},
	{Method: http.MethodGet, Path: "/auth/logout"},
}

// Enforce rejects requests whose identity lacks the rule's role before the
// handler runs, regardless of whether the resource exists. Denials carry no
// body.
func Enforce(rules []Rule) echo.MiddlewareFunc {
	required := make(map[string]map[models.Role]struct{}, len(rules))
	for _, rule := range rules {
		if len(rule.Roles) == 0 {
			continue
		}
		set := make(map[models.Role]struct{}, len(rule.Roles))
		for _, role := range rule.Roles {
			set[role] = struct{}{}
		}
		required[rule.Method+" "+rule.Path] = set
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			allowed, ok := required[c.Request().Method+" "+c.Path()]
			if !ok {
				return next(c)
			}

			identity, authenticated := IdentityFrom(c)
			if authenticated {
				if _, ok := allowed[identity.Role]; ok {
					return next(c)
				}
			}

			metrics.AuthzDeniedTotal.WithLabelValues(c.Request().Method, c.Path()).Inc()
			return c.NoContent(http.StatusForbidden)
		}
	}
}
