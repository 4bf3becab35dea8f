package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/openstay/reservations/pkg/booking"
	"github.com/tyemirov/tauth/pkg/sessionvalidator"
	"go.uber.org/zap"
)

// Run boots the HTTP API fronting the booking service.
func Run(ctx context.Context, cfg Config, service *booking.Service, logger *zap.Logger) error {
	sessionValidator, err := sessionvalidator.New(sessionvalidator.Config{
		SigningKey: []byte(cfg.SessionSigningKey),
		Issuer:     cfg.SessionIssuer,
		CookieName: cfg.SessionCookieName,
	})
	if err != nil {
		return fmt.Errorf("session validator: %w", err)
	}

	handler := &httpHandler{
		logger:  logger,
		service: service,
		cfg:     cfg,
	}

	router := setupRouter(cfg, handler, sessionValidator)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("booking api listening", zap.String("addr", cfg.ListenAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func setupRouter(cfg Config, handler *httpHandler, validator *sessionvalidator.Validator) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Origin", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.Use(validator.GinMiddleware("auth_claims"))

	api.POST("/bookings", handler.handleCreateBooking)
	api.GET("/bookings/me", handler.handleListGuestBookings)
	api.GET("/host/bookings", handler.handleListHostBookings)
	api.DELETE("/bookings/:id", handler.handleCancelBooking)
	api.PATCH("/bookings/:id/status", handler.handleUpdateStatus)
	api.POST("/bookings/:id/extend", handler.handleRequestExtension)
	api.PATCH("/bookings/:id/approve", handler.handleApproveExtension)
	api.PATCH("/bookings/:id/reject", handler.handleRejectExtension)

	admin := api.Group("/admin")
	admin.Use(handler.requireAdmin)
	admin.GET("/bookings", handler.handleAdminListBookings)
	admin.GET("/bookings/:id", handler.handleAdminGetBooking)
	admin.DELETE("/bookings/:id", handler.handleAdminDeleteBooking)

	return router
}

type httpHandler struct {
	logger  *zap.Logger
	service *booking.Service
	cfg     Config
}

func (handler *httpHandler) requireAdmin(ctx *gin.Context) {
	claims := getClaims(ctx)
	if claims == nil {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return
	}
	for _, role := range claims.GetUserRoles() {
		if role == handler.cfg.AdminRole {
			ctx.Next()
			return
		}
	}
	ctx.AbortWithStatusJSON(http.StatusForbidden, errorResponse("forbidden", "admin role required"))
}

func getClaims(ctx *gin.Context) *sessionvalidator.Claims {
	value, exists := ctx.Get("auth_claims")
	if !exists {
		return nil
	}
	claims, ok := value.(*sessionvalidator.Claims)
	if !ok {
		return nil
	}
	return claims
}

func errorResponse(code string, message string) gin.H {
	return gin.H{"error": gin.H{"code": code, "message": message}}
}

// respondError translates domain errors into HTTP statuses; anything
// unrecognized is logged and reported as an internal error.
func (handler *httpHandler) respondError(ctx *gin.Context, err error) {
	status, code := statusForError(err)
	if status == http.StatusInternalServerError {
		handler.logger.Error("booking operation failed", zap.Error(err))
		ctx.JSON(status, errorResponse(code, "internal error"))
		return
	}
	ctx.JSON(status, errorResponse(code, err.Error()))
}

func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, booking.ErrUnknownBooking):
		return http.StatusNotFound, "booking_not_found"
	case errors.Is(err, booking.ErrPropertyUnavailable):
		return http.StatusNotFound, "property_unavailable"
	case errors.Is(err, booking.ErrDatesUnavailable):
		return http.StatusConflict, "dates_unavailable"
	case errors.Is(err, booking.ErrNotHost),
		errors.Is(err, booking.ErrNotGuest),
		errors.Is(err, booking.ErrNotParticipant):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, booking.ErrBookingClosed):
		return http.StatusBadRequest, "booking_closed"
	case errors.Is(err, booking.ErrInvalidTransition):
		return http.StatusBadRequest, "invalid_transition"
	case errors.Is(err, booking.ErrParentNotConfirmed):
		return http.StatusBadRequest, "parent_not_confirmed"
	case errors.Is(err, booking.ErrNotExtension):
		return http.StatusBadRequest, "not_an_extension"
	case errors.Is(err, booking.ErrGuestCapacityExceeded):
		return http.StatusBadRequest, "capacity_exceeded"
	case errors.Is(err, booking.ErrInvalidBookingID),
		errors.Is(err, booking.ErrInvalidPropertyID),
		errors.Is(err, booking.ErrInvalidUserID),
		errors.Is(err, booking.ErrInvalidStayRange),
		errors.Is(err, booking.ErrInvalidGuestCount),
		errors.Is(err, booking.ErrInvalidAmountCents),
		errors.Is(err, booking.ErrInvalidCurrency),
		errors.Is(err, booking.ErrInvalidNote),
		errors.Is(err, booking.ErrInvalidBookingStatus):
		return http.StatusBadRequest, "invalid_request"
	}
	return http.StatusInternalServerError, "internal_error"
}
