package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/talenthub/matching-api/internal/model"
	"github.com/talenthub/matching-api/internal/repository"
)

const contextKeyAgency = "agency"

// AgencyResolver maps the inbound API key to the calling agency. The engine
// itself performs no authentication; upstream issues and rotates the keys.
type AgencyResolver struct {
	agencies *repository.AgencyRepo
}

func NewAgencyResolver(agencies *repository.AgencyRepo) *AgencyResolver {
	return &AgencyResolver{agencies: agencies}
}

func (m *AgencyResolver) Resolve() gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-Key")
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing API key"})
			return
		}

		agency, err := m.agencies.FindByAPIKey(c.Request.Context(), apiKey)
		if err != nil {
			log.Error().Err(err).Msg("Failed to resolve agency")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve agency"})
			return
		}
		if agency == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
			return
		}

		c.Set(contextKeyAgency, agency)
		c.Next()
	}
}

// GetAgency returns the resolved agency, or nil outside the resolver chain
func GetAgency(c *gin.Context) *model.Agency {
	if v, ok := c.Get(contextKeyAgency); ok {
		if a, ok := v.(*model.Agency); ok {
			return a
		}
	}
	return nil
}
