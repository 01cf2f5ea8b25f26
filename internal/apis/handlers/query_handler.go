package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"querydesk-api/internal/apis/dtos"
	"querydesk-api/internal/constants"
	"querydesk-api/internal/services"
)

type QueryHandler struct {
	queryService services.QueryService
}

func NewQueryHandler(queryService services.QueryService) *QueryHandler {
	return &QueryHandler{queryService: queryService}
}

// @Summary Execute a block of SQL statements against a registered database
// @Accept json
// @Produce json
// @Param id path int true "Database ID"
// @Param executeRequest body dtos.ExecuteRequest true "Statements"
// @Success 200 {object} dtos.Response

func (h *QueryHandler) Execute(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dtos.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, statusCode, err := h.queryService.Execute(c.Request.Context(), c.GetString("userID"), id, &req)
	if err != nil {
		respondError(c, statusCode, err)
		return
	}

	c.Header("X-Batch-ID", response.BatchID)
	c.JSON(int(statusCode), dtos.Response{
		Success: true,
		Data:    response,
	})
}

// @Summary Fetch one page of a stored query
// @Param id path int true "Query ID"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(50)

func (h *QueryHandler) Rows(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	response, statusCode, err := h.queryService.Page(c.Request.Context(), id, queryInt(c, "page", 1), queryInt(c, "size", constants.DefaultPageSize))
	if err != nil {
		respondError(c, statusCode, err)
		return
	}

	c.JSON(int(statusCode), dtos.Response{
		Success: true,
		Data:    response,
	})
}

// @Summary Export a stored query
// @Param id path int true "Query ID"
// @Param exportRequest body dtos.ExportRequest true "Format and options"

func (h *QueryHandler) Export(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dtos.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, statusCode, err := h.queryService.Export(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, statusCode, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Body)
}

func (h *QueryHandler) Split(c *gin.Context) {
	var req dtos.SplitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	c.JSON(http.StatusOK, dtos.Response{
		Success: true,
		Data:    h.queryService.Split(&req),
	})
}

func (h *QueryHandler) History(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	response, statusCode, err := h.queryService.ListHistory(c.Request.Context(), id, queryInt(c, "limit", 20))
	if err != nil {
		respondError(c, statusCode, err)
		return
	}

	c.JSON(int(statusCode), dtos.Response{
		Success: true,
		Data:    response,
	})
}

func (h *QueryHandler) Executions(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	response, statusCode, err := h.queryService.ListExecutions(c.Request.Context(), id, queryInt(c, "limit", 20))
	if err != nil {
		respondError(c, statusCode, err)
		return
	}

	c.JSON(int(statusCode), dtos.Response{
		Success: true,
		Data:    response,
	})
}
