package middleware

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "studentpulse/internal/errors"
	"studentpulse/pkg/contracts/domain"
)

// maxJSONBody bounds JSON request bodies
const maxJSONBody = 1 << 20

// RequestValidator decodes JSON bodies and checks them against their
// validate tags
type RequestValidator struct {
	validator *validator.Validate
	logger    *slog.Logger
}

// NewRequestValidator creates a validator that reports fields by their
// JSON names
func NewRequestValidator(logger *slog.Logger) *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("chart", isChartKind)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &RequestValidator{
		validator: v,
		logger:    logger.With(slog.String("component", "request_validator")),
	}
}

// Decode reads a JSON body into dst and validates it. An empty body
// leaves dst at its zero value. Errors are API errors ready to render.
func (m *RequestValidator) Decode(r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(nil, r.Body, maxJSONBody)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil && !stderrors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return apierrors.PayloadTooLarge(tooLarge.Limit)
		}
		m.logger.DebugContext(r.Context(), "invalid request body", slog.String("error", err.Error()))
		return apierrors.InvalidRequestWithError(err)
	}

	return m.ValidateStruct(dst)
}

// ValidateStruct validates a struct and returns validation errors
func (m *RequestValidator) ValidateStruct(v interface{}) error {
	err := m.validator.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return apierrors.InvalidRequestWithError(err)
	}

	out := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	return apierrors.NewValidationErrors(out)
}

// formatValidationError formats validation error messages
func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "chart":
		return fmt.Sprintf("%s must be one of: %s", field, chartNames())
	case "uuid4", "uuid":
		return fmt.Sprintf("%s must be a valid UUID", field)
	case "unique":
		return fmt.Sprintf("%s must not repeat values", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

func isChartKind(fl validator.FieldLevel) bool {
	_, err := domain.ParseChartKind(fl.Field().String())
	return err == nil
}

func chartNames() string {
	names := make([]string, len(domain.AllCharts))
	for i, k := range domain.AllCharts {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
