package rest

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/floortrack/floortrack/internal/reports"
	"github.com/floortrack/floortrack/internal/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GET /api/v1/reports/download?reportType=daily|weekly|monthly&startDate=&endDate=
func (s *Server) downloadReport(c *gin.Context) {
	reportType := c.DefaultQuery("reportType", "daily")
	startDate := c.Query("startDate")
	endDate := c.Query("endDate")

	switch reportType {
	case "daily", "weekly", "monthly":
	default:
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("REPORTS_400", "Invalid report type. Use daily, weekly or monthly", nil))
		return
	}

	data, err := s.lm.Reports().Generate(c.Request.Context(), reportType, startDate, endDate)
	if err != nil {
		if errors.Is(err, reports.ErrNoRows) {
			c.JSON(http.StatusNotFound, types.NewErrorResponse("REPORTS_404", err.Error(), nil))
			return
		}
		if errors.Is(err, reports.ErrBadRange) {
			c.JSON(http.StatusBadRequest, types.NewErrorResponse("REPORTS_400", err.Error(), nil))
			return
		}
		s.logger.Error("Failed to generate dispatch report",
			zap.String("report_type", reportType),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse("REPORTS_500", "Failed to generate report", nil))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", reports.Filename(reportType)))
	c.Data(http.StatusOK, xlsxContentType, data)
}
