package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/emrs-app/exam-timetable-api/internal/models"
	"github.com/emrs-app/exam-timetable-api/pkg/response"
)

const responseMetaKey = "timetable_response_meta"

// WithResponseMeta starts a response.Meta for every API request so handlers can report
// which timetable they served and whether it came from the cache.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, response.NewMeta())
		c.Next()
	}
}

// ResponseMeta returns the request's meta, starting one if WithResponseMeta did not run.
func ResponseMeta(c *gin.Context) *response.Meta {
	if v, ok := c.Get(responseMetaKey); ok {
		if meta, ok := v.(*response.Meta); ok {
			return meta
		}
	}
	meta := response.NewMeta()
	c.Set(responseMetaKey, meta)
	return meta
}

// SetCacheHit records whether the timetable view was served from the cache.
func SetCacheHit(c *gin.Context, hit bool) {
	ResponseMeta(c).CacheHit = hit
}

// DescribeTimetable records the timetable a response carries and its exam slot count.
func DescribeTimetable(c *gin.Context, detail *models.TimetableDetail) {
	if detail == nil {
		return
	}
	meta := ResponseMeta(c)
	meta.TimetableID = detail.ID
	count := len(detail.ExamSlots)
	meta.ExamSlots = &count
}
