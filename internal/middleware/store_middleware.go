package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mynu/mynu-backend/internal/app/model"
)

const (
	StoreKey         = "store"
	StoreCreatePath  = "/store/create"
	storeRequiredMsg = "Cadastre seu estabelecimento para continuar"
)

// StoreFinder loads the store owned by a user.
type StoreFinder interface {
	FindByUserID(userID uint) (*model.Store, error)
}

// RequireStore redirects users without a store to the store creation page.
func RequireStore(stores StoreFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		userID, ok := GetUserID(c)
		if !ok {
			c.Next()
			return
		}

		store, err := stores.FindByUserID(userID)
		if err != nil {
			log.Info("Store required, redirecting", map[string]interface{}{
				"user_id": userID,
				"path":    c.Request.URL.Path,
			})
			c.Header("Location", StoreCreatePath)
			c.AbortWithStatusJSON(http.StatusFound, gin.H{
				"message":  storeRequiredMsg,
				"redirect": StoreCreatePath,
			})
			return
		}

		c.Set(StoreKey, store)
		c.Next()
	}
}

// GetStore returns the store loaded by RequireStore
func GetStore(c *gin.Context) (*model.Store, bool) {
	v, exists := c.Get(StoreKey)
	if !exists {
		return nil, false
	}
	store, ok := v.(*model.Store)
	return store, ok
}
