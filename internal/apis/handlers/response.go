package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"querydesk-api/internal/apis/dtos"
	"querydesk-api/internal/constants"
)

func respondError(c *gin.Context, statusCode uint32, err error) {
	errorMsg := err.Error()
	response := dtos.Response{
		Success: false,
		Error:   &errorMsg,
	}

	var qe *dtos.QueryError
	if errors.As(err, &qe) {
		response.Code = &qe.Code
		response.Data = qe
		errorMsg = qe.Message
	}
	if statusCode == 0 {
		statusCode = http.StatusInternalServerError
	}
	c.JSON(int(statusCode), response)
}

func respondBindError(c *gin.Context, err error) {
	respondError(c, http.StatusBadRequest, dtos.NewQueryError(constants.ErrCodeInvalidRequest, "invalid request", err))
}

// pathID reads a positive numeric path parameter. It responds and returns
// false when the parameter is malformed.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest,
			dtos.NewQueryError(constants.ErrCodeInvalidRequest, "invalid "+name, nil))
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, name string, fallback int) int {
	value, err := strconv.Atoi(c.DefaultQuery(name, strconv.Itoa(fallback)))
	if err != nil {
		return fallback
	}
	return value
}
