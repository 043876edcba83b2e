package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/inventario-caja/internal/application/dto"
	"github.com/jhoicas/inventario-caja/internal/domain"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator validador único; los errores usan el nombre JSON del campo.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// bind parsea el body y valida el DTO; nil si todo está bien. Un body vacío se acepta cuando
// allowEmpty es true (aprobaciones sin cantidades explícitas).
func bind(c *fiber.Ctx, out interface{}, allowEmpty bool) *dto.ErrorResponse {
	if len(c.Body()) == 0 {
		if !allowEmpty {
			return &dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo requerido"}
		}
	} else if err := c.BodyParser(out); err != nil {
		return &dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"}
	}
	if err := getValidator().Struct(out); err != nil {
		return &dto.ErrorResponse{Code: "VALIDATION", Message: validationMessage(err)}
	}
	return nil
}

func badRequest(c *fiber.Ctx, e *dto.ErrorResponse) error {
	return c.Status(fiber.StatusBadRequest).JSON(e)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s es obligatorio", field))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s debe ser uno de [%s]", field, fe.Param()))
		case "min":
			parts = append(parts, fmt.Sprintf("%s requiere al menos %s", field, fe.Param()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s admite a lo sumo %s", field, fe.Param()))
		case "nefield":
			parts = append(parts, fmt.Sprintf("%s debe ser distinto de %s", field, fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s no cumple %s", field, fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

// fail traduce un error de dominio a su código HTTP. El orden importa: ErrSessionAlreadyOpen
// envuelve ErrConflict.
func fail(c *fiber.Ctx, err error) error {
	status, code := fiber.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, code = fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrNotFound):
		status, code = fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrUnauthorized):
		status, code = fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrForbidden):
		status, code = fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrInsufficientStock):
		status, code = fiber.StatusConflict, "INSUFFICIENT_STOCK"
	case errors.Is(err, domain.ErrInvalidStateTransition):
		status, code = fiber.StatusConflict, "INVALID_STATE"
	case errors.Is(err, domain.ErrSessionAlreadyOpen):
		status, code = fiber.StatusConflict, "SESSION_ALREADY_OPEN"
	case errors.Is(err, domain.ErrConflict):
		status, code = fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrSessionNotOpen):
		status, code = fiber.StatusUnprocessableEntity, "SESSION_NOT_OPEN"
	}
	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("error interno")
		return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: "error interno"})
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}

func page(c *fiber.Ctx) (dto.PageRequest, *dto.ErrorResponse) {
	p := dto.PageRequest{Limit: c.QueryInt("limit", 0), Offset: c.QueryInt("offset", 0)}
	p.DefaultPage()
	if err := getValidator().Struct(p); err != nil {
		return p, &dto.ErrorResponse{Code: "VALIDATION", Message: validationMessage(err)}
	}
	return p, nil
}
