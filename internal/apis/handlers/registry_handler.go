package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"querydesk-api/internal/apis/dtos"
	"querydesk-api/internal/services"
)

type RegistryHandler struct {
	registryService services.RegistryService
}

func NewRegistryHandler(registryService services.RegistryService) *RegistryHandler {
	return &RegistryHandler{registryService: registryService}
}

// @Summary Register a database
// @Accept json
// @Produce json
// @Param createDatabaseRequest body dtos.CreateDatabaseRequest true "Database"
// @Success 201 {object} dtos.Response

func (h *RegistryHandler) CreateDatabase(c *gin.Context) {
	var req dtos.CreateDatabaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, statusCode, err := h.registryService.CreateDatabase(c.Request.Context(), c.GetString("userID"), &req)
	if err != nil {
		respondError(c, statusCode, err)
		return
	}

	c.JSON(int(statusCode), dtos.Response{
		Success: true,
		Data:    response,
	})
}

// @Summary List registered databases
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(10)

func (h *RegistryHandler) ListDatabases(c *gin.Context) {
	response, statusCode, err := h.registryService.ListDatabases(c.Request.Context(), queryInt(c, "page", 1), queryInt(c, "page_size", 10))
	if err != nil {
		respondError(c, statusCode, err)
		return
	}

	c.JSON(int(statusCode), dtos.Response{
		Success: true,
		Data:    response,
	})
}

func (h *RegistryHandler) GetDatabase(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	response, statusCode, err := h.registryService.GetDatabase(c.Request.Context(), id)
	if err != nil {
		respondError(c, statusCode, err)
		return
	}

	c.JSON(int(statusCode), dtos.Response{
		Success: true,
		Data:    response,
	})
}

func (h *RegistryHandler) UpdateDatabase(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dtos.UpdateDatabaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, statusCode, err := h.registryService.UpdateDatabase(c.Request.Context(), c.GetString("userID"), id, &req)
	if err != nil {
		respondError(c, statusCode, err)
		return
	}

	c.JSON(int(statusCode), dtos.Response{
		Success: true,
		Data:    response,
	})
}

func (h *RegistryHandler) DeleteDatabase(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	statusCode, err := h.registryService.DeleteDatabase(c.Request.Context(), id)
	if err != nil {
		respondError(c, statusCode, err)
		return
	}

	c.JSON(http.StatusOK, dtos.Response{
		Success: true,
		Data:    "Database deleted successfully",
	})
}

func (h *RegistryHandler) CreateServer(c *gin.Context) {
	var req dtos.CreateServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, statusCode, err := h.registryService.CreateServer(c.Request.Context(), c.GetString("userID"), &req)
	if err != nil {
		respondError(c, statusCode, err)
		return
	}

	c.JSON(int(statusCode), dtos.Response{
		Success: true,
		Data:    response,
	})
}

func (h *RegistryHandler) ListServers(c *gin.Context) {
	response, statusCode, err := h.registryService.ListServers(c.Request.Context(), queryInt(c, "page", 1), queryInt(c, "page_size", 10))
	if err != nil {
		respondError(c, statusCode, err)
		return
	}

	c.JSON(int(statusCode), dtos.Response{
		Success: true,
		Data:    response,
	})
}

func (h *RegistryHandler) GetServer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	response, statusCode, err := h.registryService.GetServer(c.Request.Context(), id)
	if err != nil {
		respondError(c, statusCode, err)
		return
	}

	c.JSON(int(statusCode), dtos.Response{
		Success: true,
		Data:    response,
	})
}

func (h *RegistryHandler) UpdateServer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dtos.UpdateServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, statusCode, err := h.registryService.UpdateServer(c.Request.Context(), c.GetString("userID"), id, &req)
	if err != nil {
		respondError(c, statusCode, err)
		return
	}

	c.JSON(int(statusCode), dtos.Response{
		Success: true,
		Data:    response,
	})
}

func (h *RegistryHandler) DeleteServer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	statusCode, err := h.registryService.DeleteServer(c.Request.Context(), id)
	if err != nil {
		respondError(c, statusCode, err)
		return
	}

	c.JSON(http.StatusOK, dtos.Response{
		Success: true,
		Data:    "Server deleted successfully",
	})
}
