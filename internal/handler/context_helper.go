package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/autoplanning-api/pkg/errors"
	"github.com/noah-isme/autoplanning-api/pkg/response"
)

const dateLayout = "2006-01-02"

// bindJSON decodes the request body and answers 400 on failure.
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	return true
}

// pageQuery reads page and limit, defaulting to the first page of 20.
func pageQuery(c *gin.Context) (page, size int) {
	page, size = 1, 20
	if v, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		page = v
	}
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		size = v
	}
	return page, size
}

// dateQuery parses a YYYY-MM-DD parameter in loc. An absent value means today.
func dateQuery(c *gin.Context, name string, loc *time.Location) (time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return time.Now().In(loc), nil
	}
	parsed, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid %s, expected YYYY-MM-DD", name))
	}
	return parsed, nil
}

// timeQuery parses a required RFC 3339 parameter.
func timeQuery(c *gin.Context, name string) (time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s is required", name))
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid %s, expected RFC 3339", name))
	}
	return parsed, nil
}

// rangeQuery parses the start and end parameters of a time range.
func rangeQuery(c *gin.Context) (time.Time, time.Time, error) {
	start, err := timeQuery(c, "start")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := timeQuery(c, "end")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}
