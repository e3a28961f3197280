package rest

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/floortrack/floortrack/internal/storage"
	"github.com/floortrack/floortrack/internal/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type turnOnRequest struct {
	ProductName string `json:"productName" binding:"required"`
	Machine     string `json:"machine" binding:"required"`
	Stage       string `json:"stage"`
	Quantity    int    `json:"quantity"`
}

// POST /api/v1/jobs
func (s *Server) turnOn(c *gin.Context) {
	var req turnOnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("JOBS_400", "productName and machine are required", err.Error()))
		return
	}

	job, err := s.lm.Coordinator().TurnOn(c.Request.Context(), req.ProductName, req.Machine, req.Stage, req.Quantity)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, types.NewErrorResponse("JOBS_404", "Product or machine not found", nil))
			return
		}
		s.logger.Error("Failed to turn product on",
			zap.String("product", req.ProductName),
			zap.String("machine", req.Machine),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse("JOBS_500", "Failed to create job", nil))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"job": job})
}

type validateStatusRequest struct {
	ProductName string `json:"productName"`
	Machine     string `json:"machine"`
	Quantity    int    `json:"quantity"`
}

// POST /api/v1/validate-product-status
//
// Read-only admission check for the OFF transition; never mutates.
func (s *Server) validateProductStatus(c *gin.Context) {
	var req validateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("VALIDATE_400", "Invalid request body", err.Error()))
		return
	}

	if strings.TrimSpace(req.ProductName) == "" || strings.TrimSpace(req.Machine) == "" {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("VALIDATE_400", "Product name and machine are required", nil))
		return
	}

	validation, err := s.lm.Coordinator().ValidateOff(c.Request.Context(), req.ProductName, req.Machine, req.Quantity)
	if err != nil {
		s.logger.Error("Failed to validate product status",
			zap.String("product", req.ProductName),
			zap.String("machine", req.Machine),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse("VALIDATE_500", "Failed to validate product status", nil))
		return
	}

	c.JSON(http.StatusOK, validation)
}

type moveToPastRequest struct {
	ProductID int64  `json:"productId"`
	JobID     int64  `json:"jobId"`
	Reason    string `json:"reason"`
}

// POST /api/v1/products/move-to-past
func (s *Server) moveToPast(c *gin.Context) {
	var req moveToPastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("TRANSITION_400", "Invalid request body", err.Error()))
		return
	}

	if req.JobID == 0 {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("TRANSITION_400", "jobId is required", nil))
		return
	}

	result, err := s.lm.Coordinator().MoveToPast(c.Request.Context(), req.ProductID, req.JobID, req.Reason)
	if err != nil {
		s.logger.Error("Failed to move product to past",
			zap.Int64("job_id", req.JobID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse("TRANSITION_500", "Failed to move product to past", nil))
		return
	}

	if !result.Success {
		status := http.StatusBadRequest
		if result.Error == "Job not found" {
			status = http.StatusNotFound
		}
		c.JSON(status, result)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GET /api/v1/products/move-to-past?productId=N
func (s *Server) transitionHistory(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Query("productId"), 10, 64)
	if err != nil || productID <= 0 {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("TRANSITION_400", "productId query parameter is required", nil))
		return
	}

	history, err := s.lm.Coordinator().History(c.Request.Context(), productID)
	if err != nil {
		s.logger.Error("Failed to fetch transition history",
			zap.Int64("product_id", productID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse("TRANSITION_500", "Failed to fetch transition history", nil))
		return
	}

	c.JSON(http.StatusOK, history)
}
