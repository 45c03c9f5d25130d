package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Chamindu77/SFBS-Backend/internal/service"
)

var (
	facilityFormValues = set("courtNumber", "sportName", "sportCategory", "courtPrice")
	facilityFormFiles  = set("image")
)

type FacilityHandler struct {
	svc *service.FacilityService
}

func NewFacilityHandler(svc *service.FacilityService) *FacilityHandler {
	return &FacilityHandler{svc: svc}
}

type facilityIn struct {
	CourtNumber   string `json:"courtNumber"`
	SportName     string `json:"sportName"`
	SportCategory string `json:"sportCategory"`
	CourtPrice    int64  `json:"courtPrice"`
}

// bindFacility reads a JSON body, or a multipart form with an optional image.
func bindFacility(c *gin.Context) (service.FacilityInput, *service.Upload, bool) {
	var in facilityIn
	var image *service.Upload

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		form, err := readForm(c, facilityFormValues, facilityFormFiles)
		if err != nil {
			badRequest(c, err.Error())
			return service.FacilityInput{}, nil, false
		}
		in.CourtNumber = formValue(form, "courtNumber")
		in.SportName = formValue(form, "sportName")
		in.SportCategory = formValue(form, "sportCategory")
		if v := formValue(form, "courtPrice"); v != "" {
			price, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				badRequest(c, "courtPrice must be an integer")
				return service.FacilityInput{}, nil, false
			}
			in.CourtPrice = price
		}
		if image, err = readUpload(form, "image", isImage); err != nil {
			badRequest(c, err.Error())
			return service.FacilityInput{}, nil, false
		}
	} else if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return service.FacilityInput{}, nil, false
	}

	return service.FacilityInput{
		CourtNumber:   in.CourtNumber,
		SportName:     in.SportName,
		SportCategory: in.SportCategory,
		CourtPrice:    in.CourtPrice,
	}, image, true
}

// POST /v1/facilities (Admin)
func (h *FacilityHandler) Create(c *gin.Context) {
	in, image, ok := bindFacility(c)
	if !ok {
		return
	}
	f, err := h.svc.Create(c.Request.Context(), in, image)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toFacilityDTO(f))
}

// GET /v1/facilities?sportName=Tennis&active=true
func (h *FacilityHandler) List(c *gin.Context) {
	onlyActive, _ := strconv.ParseBool(c.DefaultQuery("active", "false"))
	fs, err := h.svc.List(c.Request.Context(), c.Query("sportName"), onlyActive)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFacilityDTOs(fs))
}

// GET /v1/facilities/:id
func (h *FacilityHandler) Get(c *gin.Context) {
	f, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFacilityDTO(f))
}

// PUT /v1/facilities/:id (Admin); omitted fields keep their value
func (h *FacilityHandler) Update(c *gin.Context) {
	in, image, ok := bindFacility(c)
	if !ok {
		return
	}
	f, err := h.svc.Update(c.Request.Context(), c.Param("id"), in, image)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFacilityDTO(f))
}

// PATCH /v1/facilities/:id/toggle (Admin)
func (h *FacilityHandler) Toggle(c *gin.Context) {
	f, err := h.svc.Toggle(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFacilityDTO(f))
}

// DELETE /v1/facilities/:id (Admin)
func (h *FacilityHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Facility deleted successfully"})
}
