package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-code/apperror"
	"go.uber.org/zap"
)

// statusFor maps each failure kind to a status code and a message that is safe
// to show to clients.
func statusFor(kind apperror.Kind) (int, string) {
	switch kind {
	case apperror.Unauthenticated:
		return fiber.StatusUnauthorized, "You are not authorized!"
	case apperror.NoFileProvided:
		return fiber.StatusBadRequest, "Please upload an image"
	case apperror.UnsupportedOutputType:
		return fiber.StatusBadRequest, "Invalid output type"
	case apperror.InvalidUpload:
		return fiber.StatusBadRequest, "Uploaded file must be an image within the size limit"
	case apperror.GenerationFailure:
		return fiber.StatusInternalServerError, "Failed to generate code from image"
	case apperror.PersistenceFailure:
		return fiber.StatusInternalServerError, "Server error"
	case apperror.NotFound:
		return fiber.StatusNotFound, "Code not found"
	case apperror.Invalid:
		return fiber.StatusBadRequest, "Invalid request"
	case apperror.Conflict:
		return fiber.StatusConflict, "Email or username already taken"
	default:
		return fiber.StatusInternalServerError, "Server error"
	}
}

// Responder writes error envelopes and logs the internal detail.
type Responder struct {
	log          *zap.Logger
	exposeDetail bool
}

func NewResponder(log *zap.Logger, exposeDetail bool) *Responder {
	return &Responder{log: log, exposeDetail: exposeDetail}
}

func (r *Responder) Error(c *fiber.Ctx, err error) error {
	kind := apperror.KindOf(err)
	status, message := statusFor(kind)

	fields := []zap.Field{
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", status),
		zap.String("kind", kind.String()),
		zap.Error(err),
	}
	if status >= fiber.StatusInternalServerError {
		r.log.Error("request failed", fields...)
	} else {
		r.log.Info("request rejected", fields...)
	}

	body := fiber.Map{
		"status":  "error",
		"message": message,
		"data":    nil,
	}
	if r.exposeDetail {
		body["detail"] = err.Error()
	}
	return c.Status(status).JSON(body)
}

// ErrorHandler is the fiber fallback for errors returned by handlers and middleware.
func (r *Responder) ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		r.log.Info("request rejected", zap.String("path", c.Path()), zap.Int("status", fe.Code), zap.Error(err))
		return c.Status(fe.Code).JSON(fiber.Map{
			"status":  "error",
			"message": fe.Message,
			"data":    nil,
		})
	}
	return r.Error(c, err)
}
