package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/uniportal-api/internal/models"
	"github.com/noah-isme/uniportal-api/internal/service"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
	"github.com/noah-isme/uniportal-api/pkg/response"
)

type notificationHandler interface {
	HandleNotification(ctx context.Context, n models.PaymentNotification) (*models.Registration, error)
}

type slipOpener interface {
	OpenSlip(token string) (*service.Slip, error)
}

// PaymentHandler receives provider callbacks and serves registration slips.
type PaymentHandler struct {
	notifications notificationHandler
	slips         slipOpener
	logger        *zap.Logger
}

// NewPaymentHandler constructs the handler.
func NewPaymentHandler(notifications notificationHandler, slips slipOpener, logger *zap.Logger) *PaymentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentHandler{notifications: notifications, slips: slips, logger: logger}
}

// Notification godoc
// @Summary Payment provider callback
// @Description Verifies the signature and advances the registration. Unknown orders are acknowledged and ignored.
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body models.PaymentNotification true "Notification"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /payments/notifications [post]
func (h *PaymentHandler) Notification(c *gin.Context) {
	var n models.PaymentNotification
	if err := c.ShouldBindJSON(&n); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid notification payload"))
		return
	}
	reg, err := h.notifications.HandleNotification(c.Request.Context(), n)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrNotFound.Code {
			h.logger.Warn("notification for unknown order ignored", zap.String("order_id", n.OrderID))
			response.JSON(c, http.StatusOK, gin.H{"status": "ignored"}, nil)
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": reg.Status, "registration_id": reg.ID}, nil)
}

// Download godoc
// @Summary Download a registration slip via signed link
// @Tags Payments
// @Produce application/pdf
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /downloads/{token} [get]
func (h *PaymentHandler) Download(c *gin.Context) {
	if h.slips == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrFeatureDisabled, "slips are not enabled"))
		return
	}
	slip, err := h.slips.OpenSlip(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer slip.File.Close() //nolint:errcheck
	info, err := slip.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to read slip"))
		return
	}
	response.Stream(c, slip.Filename, "application/pdf", info.Size(), slip.File)
}
