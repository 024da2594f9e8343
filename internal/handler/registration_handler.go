package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uniportal-api/internal/cart"
	"github.com/noah-isme/uniportal-api/internal/service"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
	"github.com/noah-isme/uniportal-api/pkg/response"
)

type cartService interface {
	View(ctx context.Context, ws *service.Workspace) (cart.View, error)
	OpenPicker(ctx context.Context, ws *service.Workspace) (cart.View, error)
	Search(ctx context.Context, ws *service.Workspace, query string) (cart.View, error)
	Toggle(ctx context.Context, ws *service.Workspace, code string) (cart.View, error)
	Commit(ctx context.Context, ws *service.Workspace) (cart.View, error)
	CancelPicker(ctx context.Context, ws *service.Workspace) (cart.View, error)
	Remove(ctx context.Context, ws *service.Workspace, code string) (cart.View, error)
	RemoveAll(ctx context.Context, ws *service.Workspace) (cart.View, error)
	BeginConfirmation(ctx context.Context, ws *service.Workspace) (cart.View, error)
	CancelConfirmation(ctx context.Context, ws *service.Workspace) (cart.View, error)
	Reset(ctx context.Context, ws *service.Workspace) (cart.View, error)
}

type checkoutService interface {
	Checkout(ctx context.Context, ws *service.Workspace) (*service.CheckoutResult, error)
	Get(ctx context.Context, ws *service.Workspace, id string) (*service.RegistrationView, error)
	List(ctx context.Context, ws *service.Workspace) ([]service.RegistrationView, error)
}

// RegistrationHandler serves the student course registration flow.
type RegistrationHandler struct {
	cart     cartService
	checkout checkoutService
}

// NewRegistrationHandler constructs the handler. checkout may be nil when
// persistence is disabled.
func NewRegistrationHandler(cart cartService, checkout checkoutService) *RegistrationHandler {
	return &RegistrationHandler{cart: cart, checkout: checkout}
}

type togglePayload struct {
	Code string `json:"code" binding:"required"`
}

// View godoc
// @Summary Current registration cart
// @Tags Registration
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /student/registration [get]
func (h *RegistrationHandler) View(c *gin.Context) {
	h.run(c, http.StatusOK, h.cart.View)
}

// OpenPicker godoc
// @Summary Open the course picker
// @Tags Registration
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /student/registration/picker [post]
func (h *RegistrationHandler) OpenPicker(c *gin.Context) {
	h.run(c, http.StatusOK, h.cart.OpenPicker)
}

// Search godoc
// @Summary Filter the course picker
// @Tags Registration
// @Produce json
// @Param q query string false "Code or title"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Security BearerAuth
// @Router /student/registration/picker [get]
func (h *RegistrationHandler) Search(c *gin.Context) {
	query := c.Query("q")
	h.run(c, http.StatusOK, func(ctx context.Context, ws *service.Workspace) (cart.View, error) {
		return h.cart.Search(ctx, ws, query)
	})
}

// Toggle godoc
// @Summary Tick or untick a course in the picker
// @Tags Registration
// @Accept json
// @Produce json
// @Param payload body togglePayload true "Course code"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /student/registration/picker/toggle [post]
func (h *RegistrationHandler) Toggle(c *gin.Context) {
	var payload togglePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Validation(err, "code is required"))
		return
	}
	h.run(c, http.StatusOK, func(ctx context.Context, ws *service.Workspace) (cart.View, error) {
		return h.cart.Toggle(ctx, ws, strings.TrimSpace(payload.Code))
	})
}

// Commit godoc
// @Summary Add the ticked courses to the cart
// @Tags Registration
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /student/registration/picker/commit [post]
func (h *RegistrationHandler) Commit(c *gin.Context) {
	h.run(c, http.StatusOK, h.cart.Commit)
}

// CancelPicker godoc
// @Summary Close the picker without changing the cart
// @Tags Registration
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /student/registration/picker [delete]
func (h *RegistrationHandler) CancelPicker(c *gin.Context) {
	h.run(c, http.StatusOK, h.cart.CancelPicker)
}

// Remove godoc
// @Summary Remove one course from the cart
// @Tags Registration
// @Produce json
// @Param code path string true "Course code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /student/registration/courses/{code} [delete]
func (h *RegistrationHandler) Remove(c *gin.Context) {
	code := c.Param("code")
	h.run(c, http.StatusOK, func(ctx context.Context, ws *service.Workspace) (cart.View, error) {
		return h.cart.Remove(ctx, ws, code)
	})
}

// RemoveAll godoc
// @Summary Empty the cart
// @Tags Registration
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /student/registration/courses [delete]
func (h *RegistrationHandler) RemoveAll(c *gin.Context) {
	h.run(c, http.StatusOK, h.cart.RemoveAll)
}

// BeginConfirmation godoc
// @Summary Show the confirmation summary
// @Tags Registration
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /student/registration/confirmation [post]
func (h *RegistrationHandler) BeginConfirmation(c *gin.Context) {
	h.run(c, http.StatusOK, h.cart.BeginConfirmation)
}

// CancelConfirmation godoc
// @Summary Return to the cart from confirmation
// @Tags Registration
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /student/registration/confirmation [delete]
func (h *RegistrationHandler) CancelConfirmation(c *gin.Context) {
	h.run(c, http.StatusOK, h.cart.CancelConfirmation)
}

// Reset godoc
// @Summary Start a new registration
// @Description Leaves the payment step and empties the cart. Registrations already handed to payment are kept.
// @Tags Registration
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /student/registration [delete]
func (h *RegistrationHandler) Reset(c *gin.Context) {
	h.run(c, http.StatusOK, h.cart.Reset)
}

// Checkout godoc
// @Summary Confirm the registration and open a payment
// @Tags Registration
// @Produce json
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Security BearerAuth
// @Router /student/registration/checkout [post]
func (h *RegistrationHandler) Checkout(c *gin.Context) {
	if h.checkout == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrFeatureDisabled, "checkout is not enabled"))
		return
	}
	ws, err := workspaceFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.checkout.Checkout(c.Request.Context(), ws)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Registrations godoc
// @Summary List the student's registrations
// @Tags Registration
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /student/registrations [get]
func (h *RegistrationHandler) Registrations(c *gin.Context) {
	if h.checkout == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrFeatureDisabled, "checkout is not enabled"))
		return
	}
	ws, err := workspaceFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	list, err := h.checkout.List(c.Request.Context(), ws)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}

// Registration godoc
// @Summary Registration status and slip link
// @Tags Registration
// @Produce json
// @Param id path string true "Registration ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /student/registrations/{id} [get]
func (h *RegistrationHandler) Registration(c *gin.Context) {
	if h.checkout == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrFeatureDisabled, "checkout is not enabled"))
		return
	}
	ws, err := workspaceFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.checkout.Get(c.Request.Context(), ws, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

func (h *RegistrationHandler) run(c *gin.Context, status int, op func(context.Context, *service.Workspace) (cart.View, error)) {
	ws, err := workspaceFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := op(c.Request.Context(), ws)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, status, view, nil)
}
