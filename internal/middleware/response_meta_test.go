package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestResponseMetaCollectsEntries(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var captured map[string]interface{}

	r := gin.New()
	r.Use(WithResponseMeta())
	r.GET("/planning", func(c *gin.Context) {
		SetCacheHit(c, true)
		SetMeta(c, MetaTimezone, "Europe/Paris")
		captured = ExtractMeta(c)
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/planning", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, captured[MetaCacheHit])
	assert.Equal(t, "Europe/Paris", captured[MetaTimezone])
	assert.Contains(t, captured, MetaProcessingTime)
}

func TestExtractMetaWithoutEntries(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Nil(t, ExtractMeta(c))
	assert.Nil(t, ExtractMeta(nil))

	SetMeta(c, "key", 1)
	assert.Equal(t, map[string]interface{}{"key": 1}, ExtractMeta(c))
}
