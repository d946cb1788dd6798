package handler

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/catalog-api/backend/docs"
)

var (
	openAPIOnce sync.Once
	openAPIBody []byte
)

// OpenAPIDoc serves the swagger document registered by the docs package.
// The template is rendered once per process.
func OpenAPIDoc(c *gin.Context) {
	openAPIOnce.Do(func() {
		openAPIBody = []byte(docs.SwaggerInfo.ReadDoc())
	})
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "application/json; charset=utf-8", openAPIBody)
}
