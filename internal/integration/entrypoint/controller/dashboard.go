// Package controller implements HTTP handlers for the API endpoints.
package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/finance-tracker/summary/internal/application/usecase/dashboard"
	"github.com/finance-tracker/summary/internal/domain/entity"
	domainerror "github.com/finance-tracker/summary/internal/domain/error"
	"github.com/finance-tracker/summary/internal/integration/entrypoint/dto"
	"github.com/finance-tracker/summary/internal/integration/entrypoint/middleware"
)

// SummaryBuilder builds the dashboard summary for a user.
type SummaryBuilder interface {
	Execute(ctx context.Context, input dashboard.GetSummaryInput) (*entity.DashboardSummary, error)
}

// DashboardController handles dashboard endpoints.
type DashboardController struct {
	getSummaryUseCase SummaryBuilder
}

// NewDashboardController creates a new dashboard controller instance.
func NewDashboardController(getSummaryUseCase SummaryBuilder) *DashboardController {
	return &DashboardController{
		getSummaryUseCase: getSummaryUseCase,
	}
}

// GetSummary handles GET /dashboard/summary requests.
func (c *DashboardController) GetSummary(ctx *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error: "User not authenticated",
			Code:  string(domainerror.ErrCodeMissingToken),
		})
		return
	}

	summary, err := c.getSummaryUseCase.Execute(ctx.Request.Context(), dashboard.GetSummaryInput{
		UserID: userID,
	})
	if err != nil {
		c.handleDashboardError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToDashboardSummaryResponse(summary))
}

// handleDashboardError maps dashboard errors to HTTP responses.
func (c *DashboardController) handleDashboardError(ctx *gin.Context, err error) {
	if errors.Is(err, domainerror.ErrInvalidIdentifier) {
		ctx.JSON(http.StatusBadRequest, dto.MessageResponse{
			Message: "Invalid User ID",
		})
		return
	}

	ctx.JSON(http.StatusInternalServerError, dto.MessageResponse{
		Message: "Server Error",
		Error:   err.Error(),
	})
}
