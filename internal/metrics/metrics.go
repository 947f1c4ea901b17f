// Package metrics is the single source of truth for the service's
// Prometheus metric names, labels, and help strings. Metrics register on
// the default registry at package load; the router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "product_store"

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// TokenValidationsTotal counts access-token checks performed by the auth
// filter.
// Label:
//   - result: "ok", "expired", "bad_signature", or "malformed"
var TokenValidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_validations_total",
		Help:      "Total number of access-token validations, by result.",
	},
	[]string{"result"},
)

// AuthzDeniedTotal counts requests rejected by the authorization policy
// before reaching a handler.
// Labels:
//   - method: HTTP method
//   - path: registered route pattern (e.g. "/products/:id")
var AuthzDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authz_denied_total",
		Help:      "Total number of requests denied by the authorization policy.",
	},
	[]string{"method", "path"},
)

// ProductsCreatedTotal counts successfully created products.
var ProductsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "products_created_total",
		Help:      "Total number of products created.",
	},
)
