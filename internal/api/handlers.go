package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fitbook/internal/domain"
	"fitbook/internal/models"
	"fitbook/internal/timezone"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type handler struct {
	bookings domain.BookingService
	queries  domain.QueryService
	tz       *timezone.Converter
	validate *validator.Validate
	appName  string
	version  string
	prefix   string
	logger   *zerolog.Logger
	now      func() time.Time
}

func (h *handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, welcomeResponse{
		Message:     fmt.Sprintf("Welcome to %s", h.appName),
		HealthCheck: h.prefix + "/health",
		Version:     h.version,
	})
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, newHealthResponse(h.now()))
}

func (h *handler) listClasses(c *gin.Context) {
	query := listClassesQuery{Skip: 0, Limit: models.DefaultPageSize}

	var errs []fieldError
	if raw, ok := c.GetQuery("skip"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err != nil {
			errs = append(errs, intParsingError("query -> skip"))
		} else {
			query.Skip = n
		}
	}
	if raw, ok := c.GetQuery("limit"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err != nil {
			errs = append(errs, intParsingError("query -> limit"))
		} else {
			query.Limit = n
		}
	}
	if len(errs) > 0 {
		abortValidation(c, errs...)
		return
	}
	if err := h.validate.Struct(query); err != nil {
		abortValidation(c, bindErrors(err, "query")...)
		return
	}

	classes, total, err := h.queries.ListClasses(c.Request.Context(), query.Skip, query.Limit)
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}

	resp := classListResponse{
		Total:   total,
		Classes: make([]classResponse, 0, len(classes)),
	}
	for _, class := range classes {
		resp.Classes = append(resp.Classes, newClassResponse(class, h.tz))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) getClass(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("class_id"), 10, 64)
	if err != nil {
		abortValidation(c, intParsingError("path -> class_id"))
		return
	}

	class, err := h.queries.GetClassByID(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newClassResponse(class, h.tz))
}

func (h *handler) createBooking(c *gin.Context) {
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, bindErrors(err, "body")...)
		return
	}
	req.ClientName = strings.TrimSpace(req.ClientName)
	req.ClientEmail = strings.TrimSpace(req.ClientEmail)
	if err := h.validate.Struct(req); err != nil {
		abortValidation(c, bindErrors(err, "body")...)
		return
	}

	booking, err := h.bookings.CreateBooking(c.Request.Context(), models.BookingRequest{
		ClassID:     *req.ClassID,
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
	})
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, newBookingResponse(booking, h.tz))
}

func (h *handler) listBookings(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		abortValidation(c, fieldError{Field: "query -> email", Message: "Field required", Type: "missing"})
		return
	}

	bookings, err := h.queries.GetBookingsByEmail(c.Request.Context(), email)
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}

	resp := bookingListResponse{
		Total:    len(bookings),
		Bookings: make([]bookingResponse, 0, len(bookings)),
	}
	for _, booking := range bookings {
		resp.Bookings = append(resp.Bookings, newBookingResponse(booking, h.tz))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, detailBody("Not Found"))
}

func intParsingError(field string) fieldError {
	return fieldError{
		Field:   field,
		Message: "Input should be a valid integer, unable to parse string as an integer",
		Type:    "int_parsing",
	}
}
