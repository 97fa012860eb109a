package registry

import "github.com/jordigilh/intentrouter/pkg/types"

// DefaultDescriptors returns a built-in service descriptor set matching
// the target services named by the default intent category
// configuration.
func DefaultDescriptors() []types.ServiceDescriptor {
	mk := func(name string) types.ServiceDescriptor {
		return types.ServiceDescriptor{
			Name:          name,
			URL:           "http://" + name + ".internal:8080",
			HealthPath:    "/health",
			TimeoutMillis: 30000,
		}
	}
	return []types.ServiceDescriptor{
		mk("api-gateway-service"),
		mk("user-authentication-service"),
		mk("payment-processing-service"),
		mk("image-processing-service"),
		mk("notification-service"),
		mk("search-service"),
		mk("analytics-service"),
	}
}
