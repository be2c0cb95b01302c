package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"company-service/internal/repository"
	"company-service/internal/service"
	"company-service/internal/upload"
	"company-service/pkg/logger"
	"company-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CompanyHandler serves the registration, login, directory and profile
// endpoints. All dependencies are injected at construction.
type CompanyHandler struct {
	identity  *service.IdentityService
	directory *service.DirectoryService
	uploads   *upload.Store
}

// NewCompanyHandler constructs the handler.
func NewCompanyHandler(identity *service.IdentityService, directory *service.DirectoryService, uploads *upload.Store) *CompanyHandler {
	return &CompanyHandler{identity: identity, directory: directory, uploads: uploads}
}

// statusFor maps service errors to HTTP statuses and client-safe messages.
// Internal detail stays in the logs.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrMissingField),
		errors.Is(err, service.ErrInvalidCode),
		errors.Is(err, service.ErrNoUpdatableFields),
		errors.Is(err, service.ErrMissingQuery):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrDuplicateEmail),
		errors.Is(err, service.ErrCodeCollision):
		return http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrAccountInactive):
		return http.StatusForbidden, "account is inactive"
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrOTPNotFound),
		errors.Is(err, service.ErrOTPMismatch),
		errors.Is(err, service.ErrOTPConsumed):
		// Deliberately uninformative to prevent identifier enumeration.
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, service.ErrOTPExpired):
		return http.StatusUnauthorized, "otp expired"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "company not found"
	case errors.Is(err, repository.ErrTimeout):
		return http.StatusInternalServerError, "request timed out"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func fail(c echo.Context, err error) error {
	status, message := statusFor(err)
	return c.JSON(status, echo.Map{"success": false, "message": message})
}

// Register handles new company registration, with an optional photo upload
// in the multipart form.
func (h *CompanyHandler) Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	input := service.RegisterInput{
		CompanyName:   formValue(c, "company_name", "companyName"),
		CompanyCode:   c.FormValue("company_code"),
		Email:         c.FormValue("email"),
		ContactNumber: formValue(c, "contact_number", "contactNumber"),
		Address:       c.FormValue("address"),
		City:          c.FormValue("city"),
		State:         c.FormValue("state"),
		Country:       c.FormValue("country"),
		Role:          c.FormValue("role"),
		Description:   c.FormValue("description"),
		Password:      c.FormValue("password"),
	}

	if file, err := formFile(c, "photo", "photoUrl"); err == nil && file != nil {
		photoURL, err := h.uploads.SavePhoto(file)
		if err != nil {
			log.Error("Photo upload rejected", zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": err.Error()})
		}
		input.PhotoURL = photoURL
	}

	company, err := h.identity.Register(c.Request().Context(), input)
	if err != nil {
		log.Error("Registration failed", zap.Error(err))
		prometheus.RecordAuthError("registration_failed")
		return fail(c, err)
	}

	log.Info("Company registered",
		zap.Uint("id", company.ID),
		zap.String("company_code", company.CompanyCode))
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "Company registered successfully",
		"data":    company,
	})
}

// Login authenticates with an email or company code plus password.
func (h *CompanyHandler) Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordLogin("password")

	var req struct {
		Identifier  string `json:"identifier"`
		Email       string `json:"email"`
		CompanyCode string `json:"company_code"`
		Password    string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid request"})
	}

	identifier := req.Identifier
	if identifier == "" {
		identifier = req.Email
	}
	if identifier == "" {
		identifier = req.CompanyCode
	}

	company, err := h.identity.LoginWithPassword(c.Request().Context(), identifier, req.Password)
	if err != nil {
		log.Warn("Login failed", zap.Error(err))
		prometheus.RecordAuthError("invalid_credentials")
		return fail(c, err)
	}

	log.Info("Company logged in", zap.Uint("id", company.ID))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Login successful",
		"company": company,
	})
}

// List returns all registered companies.
func (h *CompanyHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDirectoryRead("list")

	companies, err := h.directory.List(c.Request().Context())
	if err != nil {
		log.Error("Failed to list companies", zap.Error(err))
		return fail(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"count":   len(companies),
		"data":    companies,
	})
}

// GetByID returns a single company by its numeric id.
func (h *CompanyHandler) GetByID(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDirectoryRead("get_by_id")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid company id"})
	}

	company, err := h.directory.GetByID(c.Request().Context(), uint(id))
	if err != nil {
		log.Warn("Company lookup failed", zap.Uint64("id", id), zap.Error(err))
		return fail(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": company})
}

// GetByCode returns a single company by its company code.
func (h *CompanyHandler) GetByCode(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDirectoryRead("get_by_code")

	company, err := h.directory.GetByCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		log.Warn("Company lookup failed", zap.String("code", c.Param("code")), zap.Error(err))
		return fail(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": company})
}

// Search runs a paginated directory search, either keyword-based (`q`) or
// filtered by city/keyword.
func (h *CompanyHandler) Search(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDirectoryRead("search")

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	companies, pagination, err := h.directory.Search(c.Request().Context(), service.SearchParams{
		Query:   c.QueryParam("q"),
		City:    c.QueryParam("city"),
		Keyword: c.QueryParam("keyword"),
		Page:    page,
		Limit:   limit,
	})
	if err != nil {
		log.Warn("Search failed", zap.Error(err))
		return fail(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"data":       companies,
		"pagination": pagination,
	})
}

// UpdateProfile applies a partial profile update, optionally replacing the
// photo through a multipart upload.
func (h *CompanyHandler) UpdateProfile(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid company id"})
	}

	fields := map[string]interface{}{}
	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(contentType, echo.MIMEApplicationJSON) {
		if err := json.NewDecoder(c.Request().Body).Decode(&fields); err != nil && err != io.EOF {
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid request"})
		}
	} else {
		// Multipart and form updates carry their fields as form values.
		for _, key := range []string{"company_name", "contact_number", "address", "city", "state", "country", "role", "description"} {
			if value := c.FormValue(key); value != "" {
				fields[key] = value
			}
		}
	}

	if file, err := formFile(c, "photo", "photoUrl"); err == nil && file != nil {
		photoURL, err := h.uploads.SavePhoto(file)
		if err != nil {
			log.Error("Photo upload rejected", zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": err.Error()})
		}
		fields["photo_url"] = photoURL
	}

	if err := h.identity.UpdateProfile(c.Request().Context(), uint(id), fields); err != nil {
		log.Warn("Profile update failed", zap.Uint64("id", id), zap.Error(err))
		return fail(c, err)
	}

	log.Info("Company profile updated", zap.Uint64("id", id))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Company profile updated successfully",
	})
}

// formValue returns the first non-empty form value among the given keys.
// The register form historically used both snake_case and camelCase names.
func formValue(c echo.Context, keys ...string) string {
	for _, key := range keys {
		if value := c.FormValue(key); value != "" {
			return value
		}
	}
	return ""
}

func formFile(c echo.Context, keys ...string) (*multipart.FileHeader, error) {
	for _, key := range keys {
		if f, err := c.FormFile(key); err == nil {
			return f, nil
		}
	}
	return nil, http.ErrMissingFile
}
