package handler

import (
	"net/http"
	"reflect"

	"balcao/internal/apierror"
	"balcao/internal/middleware"
	"balcao/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0 work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON inválido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondError maps a service error to its HTTP status. Errors that are not a
// service.UserError are logged and answered with a generic 500.
func respondError(c *gin.Context, err error) {
	ue, ok := service.AsUserError(err)
	if !ok {
		log.Error().Err(err).
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Str("path", c.FullPath()).
			Msg("unexpected service error")
		c.JSON(http.StatusInternalServerError, apierror.New("Erro interno do servidor"))
		return
	}
	status := http.StatusInternalServerError
	switch ue.Kind {
	case service.KindValidation:
		status = http.StatusUnprocessableEntity
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindConflict:
		status = http.StatusConflict
	case service.KindPersistence:
		log.Error().Err(ue.Err).
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Str("title", ue.Title).
			Msg("persistence failure")
	}
	c.JSON(status, &apierror.APIError{Title: ue.Title, Detail: ue.Detail, Options: ue.Options})
}

// pathUUID parses the named path parameter, answering 400 when it is malformed.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return uuid.Nil, false
	}
	return id, true
}

// storeID is the store bound to the caller's token.
func storeID(c *gin.Context) (uuid.UUID, bool) {
	id, err := middleware.StoreID(c)
	if err != nil {
		c.JSON(http.StatusForbidden, apierror.New("Token sem loja associada"))
		return uuid.Nil, false
	}
	return id, true
}
