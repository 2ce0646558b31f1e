package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/ensemble/internal/errors"
	"github.com/yukikurage/ensemble/internal/middleware"
	"github.com/yukikurage/ensemble/internal/notify"
	"github.com/yukikurage/ensemble/internal/series"
	"github.com/yukikurage/ensemble/internal/services"
)

// Dispatcher delivers the domain events produced by a service call.
type Dispatcher interface {
	Dispatch(events []notify.Event) error
}

// dispatch hands events to the dispatcher. Delivery failures are logged by the
// dispatcher and never change the response.
func dispatch(d Dispatcher, events []notify.Event) {
	if d == nil || len(events) == 0 {
		return
	}
	_ = d.Dispatch(events)
}

// success writes {"success": true} merged with the payload.
func success(c *gin.Context, status int, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

// actorOrAbort reads the acting member; routes without household middleware never reach a handler that needs it.
func actorOrAbort(c *gin.Context) (services.Actor, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		apierrors.Unauthorized(c, "")
	}
	return actor, ok
}

// respondValidationError writes a 400 naming the field when err is a validation error.
func respondValidationError(c *gin.Context, err error) bool {
	var verr *series.ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	apierrors.InvalidField(c, verr.Field, verr.Err.Error())
	return true
}

func invalidField(c *gin.Context, field string, err error) {
	apierrors.InvalidField(c, field, err.Error())
}

// rawString reads a JSON value that is either a string or anything else,
// returning the string contents or the raw JSON text.
func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func noContentSuccess(c *gin.Context) {
	success(c, http.StatusOK, nil)
}
