package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sudo-init-do/tradegrid/internal/listing"
	"github.com/sudo-init-do/tradegrid/internal/market"
	"github.com/sudo-init-do/tradegrid/internal/user"
)

// Handler wires the core operations to echo routes.
type Handler struct {
	Engine   *market.Engine
	Listings *listing.Service
	Log      *zap.Logger
}

// Register mounts all routes. Authenticated routes expect JWTMiddleware to
// have run.
func (h *Handler) Register(e *echo.Echo, jwtSecret string) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/ready", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})

	e.GET("/marketplace/ads", h.ListAds)

	api := e.Group("", JWTMiddleware(jwtSecret))
	api.POST("/marketplace/ads", h.PublishAd, RequireRoles(user.RoleSeller, user.RoleAdmin))
	api.POST("/marketplace/ads/:id/pin", h.PinAd)
	api.DELETE("/marketplace/ads/:id", h.DeleteAd)

	api.POST("/marketplace/purchases", h.Purchase)
	api.POST("/marketplace/purchases/:id/confirm", h.ConfirmReceipt)
	api.GET("/marketplace/purchases/:id/download", h.AuthorizeDownload)

	api.GET("/wallet", h.GetWallet)
	api.GET("/orders/selling", h.ListSellerOrders)
	api.GET("/orders/buying", h.ListBuyerOrders)
	api.GET("/orders/pending/count", h.PendingOrderCount)
}

// ListAds returns every listing across all shards.
func (h *Handler) ListAds(c echo.Context) error {
	ads, err := h.Listings.ListAll(c.Request().Context())
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ads": ads})
}

// PublishAd creates a listing owned by the caller.
func (h *Handler) PublishAd(c echo.Context) error {
	var req struct {
		Title         string          `json:"title"`
		Description   string          `json:"description"`
		Price         decimal.Decimal `json:"price"`
		OriginalPrice decimal.Decimal `json:"original_price"`
		Type          string          `json:"type"`
		ImagePath     string          `json:"image_path"`
		FilePath      string          `json:"file_path"`
		DealHours     int             `json:"deal_hours"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	l := listing.Listing{
		SellerID:      callerID(c),
		Title:         req.Title,
		Description:   req.Description,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Type:          req.Type,
		ImagePath:     req.ImagePath,
		FilePath:      req.FilePath,
	}
	created, err := h.Listings.Publish(c.Request().Context(), l, time.Duration(req.DealHours)*time.Hour)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"ad_id":   created.ID,
		"message": "listing published",
	})
}

// PinAd pins the caller's listing for a number of hours.
func (h *Handler) PinAd(c echo.Context) error {
	var req struct {
		Hours int `json:"hours"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := h.Listings.Pin(c.Request().Context(), c.Param("id"), callerID(c), req.Hours); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "listing pinned"})
}

// DeleteAd removes a listing; sellers their own, admins any.
func (h *Handler) DeleteAd(c echo.Context) error {
	err := h.Listings.Delete(c.Request().Context(), c.Param("id"), callerID(c), callerIsAdmin(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "listing deleted"})
}

// Purchase opens a claim on a listing for the caller.
func (h *Handler) Purchase(c echo.Context) error {
	var req struct {
		AdID          string          `json:"ad_id"`
		Amount        decimal.Decimal `json:"amount"`
		PaymentMethod string          `json:"payment_method"`
	}
	if err := c.Bind(&req); err != nil || req.AdID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	res, err := h.Engine.Purchase(c.Request().Context(), req.AdID, callerID(c), req.Amount, req.PaymentMethod)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// ConfirmReceipt settles the caller's pending purchase.
func (h *Handler) ConfirmReceipt(c echo.Context) error {
	txn, err := h.Engine.ConfirmReceipt(c.Request().Context(), c.Param("id"), callerID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"transaction_id": txn.ID,
		"status":         txn.Status,
		"message":        "receipt confirmed, funds released",
	})
}

// AuthorizeDownload returns a short-lived URL for a purchased digital asset.
func (h *Handler) AuthorizeDownload(c echo.Context) error {
	url, err := h.Engine.AuthorizeDownload(c.Request().Context(), c.Param("id"), callerID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"url": url})
}

// GetWallet returns the caller's balances.
func (h *Handler) GetWallet(c echo.Context) error {
	w, err := h.Engine.GetWallet(c.Request().Context(), callerID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, w)
}

// ListSellerOrders returns sales where the caller is the seller.
func (h *Handler) ListSellerOrders(c echo.Context) error {
	ts, err := h.Engine.ListSellerOrders(c.Request().Context(), callerID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": ts})
}

// ListBuyerOrders returns purchases where the caller is the buyer.
func (h *Handler) ListBuyerOrders(c echo.Context) error {
	ts, err := h.Engine.ListBuyerOrders(c.Request().Context(), callerID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": ts})
}

// PendingOrderCount returns how many open escrow transactions involve the
// caller.
func (h *Handler) PendingOrderCount(c echo.Context) error {
	n, err := h.Engine.PendingOrderCount(c.Request().Context(), callerID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"pending": n})
}
