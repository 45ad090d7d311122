package helpers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"campus-market/internal/marketerrors"
	model "campus-market/internal/models"
	"campus-market/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerTagNames sync.Once

// UseJSONFieldNames makes gin's validator report fields by their json tag
func UseJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
}

// BindJSON decodes the request body into req and turns binding failures into a ValidationError
func BindJSON(c *gin.Context, req any) error {
	UseJSONFieldNames()
	if err := c.ShouldBindJSON(req); err != nil {
		return TranslateBindError(err)
	}
	return nil
}

// TranslateBindError converts JSON decoding and validator errors into domain validation errors
func TranslateBindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		var missing []string
		for _, fe := range verrs {
			if fe.Tag() == "required" {
				missing = append(missing, fe.Field())
			}
		}
		if len(missing) > 0 {
			return marketerrors.Missing(missing...)
		}
		fe := verrs[0]
		switch fe.Tag() {
		case "gt":
			return marketerrors.Invalid(fe.Field(), "must be a positive number")
		case "gte":
			return marketerrors.Invalid(fe.Field(), "must not be negative")
		default:
			return marketerrors.Invalid(fe.Field(), "is invalid")
		}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return marketerrors.Invalid(typeErr.Field, "must be "+describeKind(typeErr.Type.Kind()))
	}

	return &marketerrors.ValidationError{Reason: "invalid request payload: " + err.Error()}
}

func describeKind(k reflect.Kind) string {
	switch k {
	case reflect.Bool:
		return "a boolean value"
	case reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "an integer"
	case reflect.String:
		return "a string"
	default:
		return "a valid " + k.String()
	}
}

// ParseProductFilter reads the listing filters from the query string
func ParseProductFilter(c *gin.Context) (model.ProductFilter, error) {
	filter := model.ProductFilter{
		Category: c.Query("category"),
		MessName: c.Query("mess_name"),
		MealType: c.Query("meal_type"),
		Location: c.Query("location"),
		Search:   c.Query("search"),
	}

	var err error
	if filter.IsCoupon, err = queryBool(c, "is_coupon", false); err != nil {
		return model.ProductFilter{}, err
	}
	// a bare ?is_sold= still filters, selecting unsold listings
	if filter.IsSold, err = queryBool(c, "is_sold", true); err != nil {
		return model.ProductFilter{}, err
	}
	return filter, nil
}

func queryBool(c *gin.Context, key string, emptyIsFalse bool) (*bool, error) {
	raw, present := c.GetQuery(key)
	if !present || (raw == "" && !emptyIsFalse) {
		return nil, nil
	}
	if raw == "" {
		v := false
		return &v, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, marketerrors.Invalid(key, "must be true or false")
	}
	return &v, nil
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, marketerrors.ErrValidation):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, marketerrors.ErrProductSold), errors.Is(err, marketerrors.ErrProductBanned),
		errors.Is(err, marketerrors.ErrBidTooLow):
		return http.StatusBadRequest, "bid rejected"
	case errors.Is(err, marketerrors.ErrProductNotFound):
		return http.StatusNotFound, "product not found"
	case errors.Is(err, marketerrors.ErrNoBids):
		return http.StatusNotFound, "no bids found for product"
	case errors.Is(err, marketerrors.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, marketerrors.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// PublicError returns the part of err that is safe to show to API clients
func PublicError(err error) error {
	var verr *marketerrors.ValidationError
	if errors.As(err, &verr) {
		return verr
	}
	var lowErr *marketerrors.BidTooLowError
	if errors.As(err, &lowErr) {
		return lowErr
	}
	for _, sentinel := range []error{
		marketerrors.ErrProductSold,
		marketerrors.ErrProductBanned,
		marketerrors.ErrProductNotFound,
		marketerrors.ErrNoBids,
		marketerrors.ErrUnauthorized,
		marketerrors.ErrForbidden,
	} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return errors.New("internal server error")
}

// RespondError writes the error envelope and logs the failure. Server errors log at error level.
func RespondError(c *gin.Context, handlerName string, err error, ctx map[string]any) {
	status, message := MapErrorToHTTP(err)
	utils.JSONError(c, status, PublicError(err), message)

	fields := map[string]any{"handler": handlerName, "status": status, "error": err.Error()}
	for k, v := range ctx {
		fields[k] = v
	}
	if status >= http.StatusInternalServerError {
		utils.Error(fmt.Sprintf("%s: %s", handlerName, message), fields)
		return
	}
	utils.Warn(fmt.Sprintf("%s: %s", handlerName, message), fields)
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
