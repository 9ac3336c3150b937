package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emrs-app/exam-timetable-api/internal/models"
	appErrors "github.com/emrs-app/exam-timetable-api/pkg/errors"
	"github.com/emrs-app/exam-timetable-api/pkg/middleware/requestid"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Data       interface{}        `json:"data,omitempty"`
	Error      *appErrors.Error   `json:"error,omitempty"`
	Pagination *models.Pagination `json:"pagination,omitempty"`
	Meta       *Meta              `json:"meta,omitempty"`
}

// Meta describes how a timetable payload was produced.
type Meta struct {
	RequestID        string `json:"requestId,omitempty"`
	TimetableID      string `json:"timetableId,omitempty"`
	ExamSlots        *int   `json:"examSlots,omitempty"`
	CacheHit         bool   `json:"cacheHit"`
	ProcessingTimeMS int64  `json:"processingTimeMs"`

	started time.Time
}

// NewMeta starts timing a request.
func NewMeta() *Meta {
	return &Meta{started: time.Now()}
}

// Finish stamps the elapsed processing time.
func (m *Meta) Finish() *Meta {
	if !m.started.IsZero() {
		m.ProcessingTimeMS = time.Since(m.started).Milliseconds()
	}
	return m
}

// JSON writes a success envelope. Timetable payloads carry private data, so responses are never cached by clients.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination, meta ...*Meta) {
	noStore(c)
	envelope := Envelope{Data: data, Pagination: pagination}
	if len(meta) > 0 && meta[0] != nil {
		envelope.Meta = meta[0].Finish()
		if envelope.Meta.RequestID == "" {
			envelope.Meta.RequestID = requestid.Value(c)
		}
	}
	c.JSON(status, envelope)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data, nil)
}

// Error writes the error envelope with the status of the mapped application error.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	noStore(c)
	var meta *Meta
	if id := requestid.Value(c); id != "" {
		meta = &Meta{RequestID: id}
	}
	c.JSON(appErr.Status, Envelope{Error: appErr, Meta: meta})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}
