package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"

	"github.com/ticketnest/ticketing-api/internal/model"
	"github.com/ticketnest/ticketing-api/internal/repository"
	"github.com/ticketnest/ticketing-api/pkg/auth"
)

const (
	HeaderAPIKey    = "Api-Key"
	ContextProvider = "ticket_provider"
)

// AuthMiddleware resolves the Api-Key header to a ticket provider. The token
// carries the provider uuid as a signed claim; the row lookup is cached so the
// database is not hit on every request.
type AuthMiddleware struct {
	tokens    auth.APITokenService
	providers repository.ProviderRepository
	cache     *gocache.Cache
}

func NewAuthMiddleware(tokens auth.APITokenService, providers repository.ProviderRepository) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:    tokens,
		providers: providers,
		cache:     gocache.New(5*time.Minute, 10*time.Minute),
	}
}

func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader(HeaderAPIKey)
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Code:    http.StatusUnauthorized,
				Message: "missing api key",
			})
			return
		}

		providerUUID, err := m.tokens.Validate(apiKey)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Code:    http.StatusUnauthorized,
				Message: "invalid api key",
			})
			return
		}

		if cached, found := m.cache.Get(providerUUID.String()); found {
			c.Set(ContextProvider, cached.(*model.TicketProvider))
			c.Next()
			return
		}

		provider, err := m.providers.GetByUUID(c.Request.Context(), providerUUID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Code:    http.StatusUnauthorized,
				Message: "unknown ticket provider",
			})
			return
		}

		m.cache.Set(providerUUID.String(), provider, gocache.DefaultExpiration)
		c.Set(ContextProvider, provider)
		c.Next()
	}
}

// ProviderFromContext returns the authenticated tenant set by Authenticate.
func ProviderFromContext(c *gin.Context) (*model.TicketProvider, bool) {
	value, exists := c.Get(ContextProvider)
	if !exists {
		return nil, false
	}
	provider, ok := value.(*model.TicketProvider)
	return provider, ok
}
