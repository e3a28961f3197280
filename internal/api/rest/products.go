package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/floortrack/floortrack/internal/storage"
	"github.com/floortrack/floortrack/internal/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GET /api/v1/products
func (s *Server) listProducts(c *gin.Context) {
	products, err := s.lm.Storage().ListProductsWithLatestJob(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to list products", zap.Error(err))
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse("PRODUCTS_500", "Failed to fetch products", nil))
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

// GET /api/v1/live-products
func (s *Server) listLiveProducts(c *gin.Context) {
	live, err := s.lm.Coordinator().LiveProducts(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to list live products", zap.Error(err))
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse("PRODUCTS_500", "Failed to fetch live products", nil))
		return
	}

	c.JSON(http.StatusOK, gin.H{"liveProducts": live})
}

// GET /api/v1/past-products
func (s *Server) listPastProducts(c *gin.Context) {
	past, err := s.lm.Coordinator().PastProducts(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to list past products", zap.Error(err))
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse("PRODUCTS_500", "Failed to fetch past products", nil))
		return
	}

	c.JSON(http.StatusOK, gin.H{"pastProducts": past})
}

// GET /api/v1/finished-products
//
// Combined dropdown feed: non-OFF latest jobs merged with recent
// finished-goods entries, newest first.
func (s *Server) finishedFeed(c *gin.Context) {
	feed, err := s.lm.Coordinator().Feed(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to build product feed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse("PRODUCTS_500", "Failed to fetch products", nil))
		return
	}

	c.JSON(http.StatusOK, gin.H{"liveProducts": feed})
}

// GET /api/v1/products/:id/detail
func (s *Server) productDetail(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("PRODUCTS_400", "Invalid product id", nil))
		return
	}

	detail, err := s.lm.Coordinator().Detail(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, types.NewErrorResponse("PRODUCTS_404", "Product not found", nil))
			return
		}
		s.logger.Error("Failed to build product detail",
			zap.Int64("product_id", productID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse("PRODUCTS_500", "Failed to fetch product detail", nil))
		return
	}

	c.JSON(http.StatusOK, detail)
}

// GET /api/v1/machines
func (s *Server) listMachines(c *gin.Context) {
	machines, err := s.lm.Storage().ListMachines(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to list machines", zap.Error(err))
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse("MACHINES_500", "Failed to fetch machines", nil))
		return
	}

	c.JSON(http.StatusOK, gin.H{"machines": machines})
}
