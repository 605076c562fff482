package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"address-rest-api/internal/model"
	"address-rest-api/internal/service"
	"address-rest-api/pkg/apierror"
	"address-rest-api/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// AddressHandler handles address-related HTTP requests.
type AddressHandler struct {
	addressService *service.AddressService
	validate       *validator.Validate
}

// NewAddressHandler creates a new address handler.
func NewAddressHandler(addressService *service.AddressService) *AddressHandler {
	v := validator.New()
	// Report field names from json tags so error details match the payload
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &AddressHandler{
		addressService: addressService,
		validate:       v,
	}
}

// Create handles POST /api/addresses
func (h *AddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	addr, err := h.addressService.Create(r.Context(), req.ToAddress())
	if err != nil {
		response.Error(w, err)
		return
	}

	response.Created(w, addr)
}

// Update handles PUT /api/addresses/{id}
func (h *AddressHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.Error(w, apierror.BadRequest("id is required"))
		return
	}

	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	addr, err := h.addressService.Update(r.Context(), id, req.ToAddress())
	if err != nil {
		h.writeServiceError(w, id, err)
		return
	}

	response.OK(w, addr)
}

// List handles GET /api/addresses
func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	addresses, err := h.addressService.GetAll(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, addresses)
}

// Get handles GET /api/addresses/{id}
func (h *AddressHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.Error(w, apierror.BadRequest("id is required"))
		return
	}

	addr, err := h.addressService.GetByID(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, id, err)
		return
	}

	response.OK(w, addr)
}

// ListByUser handles GET /api/addresses/user/{userId}
func (h *AddressHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		response.Error(w, apierror.BadRequest("userId is required"))
		return
	}

	addresses, err := h.addressService.GetByUserID(r.Context(), userID)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, addresses)
}

// Delete handles DELETE /api/addresses/{id}
func (h *AddressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.Error(w, apierror.BadRequest("id is required"))
		return
	}

	if err := h.addressService.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, id, err)
		return
	}

	response.NoContent(w)
}

// decodeRequest parses and validates the create/update payload. A
// false return means the error response was already written.
func (h *AddressHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (*model.AddressRequest, bool) {
	defer r.Body.Close()

	var req model.AddressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return nil, false
	}

	if err := h.validate.Struct(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make([]apierror.FieldError, 0, len(verrs))
			for _, fe := range verrs {
				details = append(details, apierror.FieldError{
					Field:   fe.Field(),
					Message: validationMessage(fe),
				})
			}
			response.Error(w, apierror.ValidationError("invalid address payload", details...))
			return nil, false
		}
		response.Error(w, apierror.BadRequest("invalid address payload"))
		return nil, false
	}

	return &req, true
}

// writeServiceError maps service errors to API errors.
func (h *AddressHandler) writeServiceError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, service.ErrNotFound) {
		response.Error(w, apierror.NotFound(fmt.Sprintf("address not found with id: %s", id)))
		return
	}
	response.Error(w, err)
}

// validationMessage renders a human-readable message for a failed rule.
func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
