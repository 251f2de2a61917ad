package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"food-ordering-api/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrorHandler renders the last error a handler attached with c.Error as
// {"error", "code"} plus any details. Outside production the wrapped cause is
// returned as "detail".
func ErrorHandler(production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		appErr := Classify(c.Errors.Last().Err)
		if appErr.Status >= http.StatusInternalServerError {
			log.WithError(appErr.Err).WithFields(log.Fields{
				"request_id": c.GetString(requestIDKey),
				"path":       c.FullPath(),
			}).Error(appErr.Message)
		}
		c.AbortWithStatusJSON(appErr.Status, Envelope(appErr, production))
	}
}

// Classify turns any handler error into an *apperrors.Error.
func Classify(err error) *apperrors.Error {
	if appErr, ok := apperrors.From(err); ok {
		return appErr
	}
	var (
		verrs  validator.ValidationErrors
		syntax *json.SyntaxError
		typ    *json.UnmarshalTypeError
	)
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.ErrDuplicate.Wrap(err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return apperrors.ErrStillReferenced.Wrap(err)
	case errors.As(err, &verrs):
		e := apperrors.ErrValidation.Wrap(err)
		e.Message = verrs.Error()
		return e
	case errors.As(err, &syntax), errors.As(err, &typ), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		e := apperrors.ErrValidation.Wrap(err)
		e.Message = "Request body must be valid JSON"
		return e
	}
	return apperrors.Internal("Internal server error", err)
}

func Envelope(e *apperrors.Error, production bool) gin.H {
	body := gin.H{"error": e.Message, "code": e.Code}
	for k, v := range e.Details {
		body[k] = v
	}
	if !production && e.Err != nil {
		body["detail"] = e.Err.Error()
	}
	return body
}

// Recovery converts panics into the standard 500 envelope.
func Recovery(production bool) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.WithFields(log.Fields{
			"request_id": c.GetString(requestIDKey),
			"panic":      recovered,
		}).Error("panic recovered")
		e := apperrors.Internal("Internal server error", nil)
		c.AbortWithStatusJSON(e.Status, Envelope(e, production))
	})
}
