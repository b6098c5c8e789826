// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic   SecurityLevel = iota // No authentication
	SecurityOptional                      // Access token used when present
	SecurityRefresh                       // Refresh token required
	SecurityAccess                        // Access token required
)

// EndpointSecurityConfig maps mux route names to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	"health":  SecurityPublic,
	"metrics": SecurityPublic,

	// Auth
	"auth.register": SecurityPublic,
	"auth.login":    SecurityPublic,
	"auth.refresh":  SecurityRefresh,
	"auth.me":       SecurityAccess,

	// Catalogue browsing works anonymously; owners and staff see more when signed in
	"equipment.search":     SecurityOptional,
	"equipment.get":        SecurityOptional,
	"reviews.by_equipment": SecurityPublic,
	"categories.list":      SecurityOptional,
	"categories.get":       SecurityPublic,
	"content.get":          SecurityOptional,
	"content.list":         SecurityOptional,
	"bank_info.list":       SecurityPublic,

	// Local storage downloads; keys are unguessable
	"files.download": SecurityPublic,

	// Gateways authenticate the handshake themselves
	"ws.notifications": SecurityPublic,
	"ws.chat":          SecurityPublic,
}

// GetSecurityLevel returns the security level for a given route name
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAccess
}
