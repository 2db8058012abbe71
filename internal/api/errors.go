package api

import (
	stderrors "errors"

	apperrors "github.com/gmsas95/medremind/internal/errors"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func statusFor(code string) int {
	switch code {
	case apperrors.ErrNotFound.Code:
		return fiber.StatusNotFound
	case apperrors.ErrInvalidRecurrence.Code, apperrors.ErrBadRequest.Code:
		return fiber.StatusBadRequest
	case apperrors.ErrInvalidTransition.Code:
		return fiber.StatusConflict
	case apperrors.ErrUnauthorized.Code:
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes {"error", "code"} with the status mapped from the
// error code. Errors without a code are reported as internal.
func respondError(c *fiber.Ctx, err error) error {
	var appErr *apperrors.AppError
	if !stderrors.As(err, &appErr) {
		appErr = apperrors.Wrap(err, apperrors.ErrInternal.Code, "internal error")
	}
	msg := appErr.Message
	if appErr.Code == apperrors.ErrInternal.Code {
		msg = "internal error"
	}
	return c.Status(statusFor(appErr.Code)).JSON(fiber.Map{
		"error": msg,
		"code":  appErr.Code,
	})
}

func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if stderrors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}
		logger.Error("Unhandled request error", zap.String("path", c.Path()), zap.Error(err))
		return respondError(c, err)
	}
}

// bind parses the body into req and runs its validate tags
func (s *Server) bind(c *fiber.Ctx, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.New(apperrors.ErrBadRequest.Code, "invalid request body", err)
	}
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if stderrors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return apperrors.New(apperrors.ErrBadRequest.Code, first.Field()+" ["+first.Tag()+"]", err)
		}
		return apperrors.New(apperrors.ErrBadRequest.Code, "invalid request", err)
	}
	return nil
}
