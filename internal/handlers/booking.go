package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Chamindu77/SFBS-Backend/internal/auth"
	"github.com/Chamindu77/SFBS-Backend/internal/middlewares"
	"github.com/Chamindu77/SFBS-Backend/internal/model"
	"github.com/Chamindu77/SFBS-Backend/internal/service"
)

var (
	bookingFormValues = set("courtNumber", "sportName", "date", "timeSlots", "userName", "userEmail", "userPhoneNumber")
	bookingFormFiles  = set("receipt")
)

type BookingHandler struct {
	svc *service.BookingService
}

func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

// POST /v1/facility-bookings (multipart: fields + receipt file)
func (h *BookingHandler) Create(c *gin.Context) {
	form, err := readForm(c, bookingFormValues, bookingFormFiles)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	date, err := parseOptionalDate(formValue(form, "date"))
	if err != nil {
		badRequest(c, "invalid date, expected YYYY-MM-DD")
		return
	}
	slots, err := formList(form, "timeSlots")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	receipt, err := readUpload(form, "receipt", isReceipt)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	payer := service.Payer{
		UserID:      c.GetString(middlewares.KeySub),
		Name:        formValue(form, "userName"),
		Email:       formValue(form, "userEmail"),
		PhoneNumber: formValue(form, "userPhoneNumber"),
	}
	if payer.Name == "" {
		payer.Name = c.GetString(middlewares.KeyName)
	}
	if payer.Email == "" {
		payer.Email = c.GetString(middlewares.KeyEmail)
	}

	b, err := h.svc.Create(c.Request.Context(), service.BookingRequest{
		CourtNumber: formValue(form, "courtNumber"),
		SportName:   formValue(form, "sportName"),
		Date:        date,
		TimeSlots:   slots,
		Payer:       payer,
	}, receipt)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"msg": "Facility booking created successfully", "booking": toBookingDTO(b)})
}

// POST /v1/facility-bookings/available-slots
func (h *BookingHandler) AvailableSlots(c *gin.Context) {
	var in struct {
		CourtNumber string `json:"courtNumber"`
		SportName   string `json:"sportName"`
		Date        string `json:"date"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	date, err := parseOptionalDate(in.Date)
	if err != nil {
		badRequest(c, "invalid date, expected YYYY-MM-DD")
		return
	}
	slots, err := h.svc.Availability().AvailableSlots(c.Request.Context(), in.CourtNumber, in.SportName, date)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"availableSlots": slots})
}

// POST /v1/facility-bookings/available-facilities
func (h *BookingHandler) AvailableFacilities(c *gin.Context) {
	var in struct {
		SportName string `json:"sportName"`
		Date      string `json:"date"`
		TimeSlot  string `json:"timeSlot"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	date, err := parseOptionalDate(in.Date)
	if err != nil {
		badRequest(c, "invalid date, expected YYYY-MM-DD")
		return
	}
	free, err := h.svc.Availability().AvailableFacilities(c.Request.Context(), in.SportName, date, in.TimeSlot)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"availableFacilities": toFacilityDTOs(free)})
}

// GET /v1/facility-bookings?page=1&pageSize=20 (Admin)
func (h *BookingHandler) List(c *gin.Context) {
	page, size := pageParams(c)
	p, err := h.svc.List(c.Request.Context(), page, size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingPage(p))
}

// GET /v1/facility-bookings/user/:userId
func (h *BookingHandler) ListByUser(c *gin.Context) {
	page, size := pageParams(c)
	p, err := h.svc.ListByUser(c.Request.Context(), c.Param("userId"), page, size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingPage(p))
}

// GET /v1/facility-bookings/:id
func (h *BookingHandler) Get(c *gin.Context) {
	b, ok := h.owned(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toBookingDTO(b))
}

// GET /v1/facility-bookings/:id/qr
func (h *BookingHandler) QRCode(c *gin.Context) {
	b, ok := h.owned(c)
	if !ok {
		return
	}
	png, name, err := h.svc.QRCode(c.Request.Context(), b.ID.String())
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "image/png", png)
}

// owned loads :id and allows only its owner or an admin.
func (h *BookingHandler) owned(c *gin.Context) (*model.Booking, bool) {
	b, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	if b.UserID != c.GetString(middlewares.KeySub) && c.GetString(middlewares.KeyRole) != auth.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"msg": "forbidden"})
		return nil, false
	}
	return b, true
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	return page, size
}
