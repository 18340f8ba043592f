package handlers

import (
	"net/http"

	"courseforge/internal/service"
)

// UserHandler exposes the profile endpoints for the authenticated account
type UserHandler struct {
	userService *service.UserService
	maxUpload   int64
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *service.UserService, maxUpload int64) *UserHandler {
	return &UserHandler{userService: userService, maxUpload: maxUpload}
}

// Me handles GET /api/v1/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r)
	respondOK(w, http.StatusOK, user.Sanitized(), "")
}

// UpdateProfile handles PATCH /api/v1/users/profile. Absent fields keep
// their current values.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName  *string `json:"fullName"`
		Bio       *string `json:"bio"`
		Gender    *string `json:"gender"`
		Instagram *string `json:"instagram"`
		Twitter   *string `json:"twitter"`
		LinkedIn  *string `json:"linkedin"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err, "")
		return
	}

	identity := UserFromContext(r)
	user, err := h.userService.UpdateProfile(identity.ID, service.ProfileUpdate{
		FullName:  req.FullName,
		Bio:       req.Bio,
		Gender:    req.Gender,
		Instagram: req.Instagram,
		Twitter:   req.Twitter,
		LinkedIn:  req.LinkedIn,
	})
	if err != nil {
		respondServiceError(w, err, "Error updating profile")
		return
	}
	respondOK(w, http.StatusOK, user.Sanitized(), "Profile updated")
}

// UpdateAvatar handles POST /api/v1/users/avatar as a multipart upload
func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid or oversized upload", "", nil)
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "avatar file is required", "", nil)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedImageType(contentType) {
		respondWithError(w, http.StatusBadRequest, "Only image uploads are allowed", "", nil)
		return
	}

	identity := UserFromContext(r)
	user, err := h.userService.UpdateAvatar(r.Context(), identity.ID, header.Filename, contentType, file)
	if err != nil {
		respondServiceError(w, err, "Error uploading avatar")
		return
	}
	respondOK(w, http.StatusOK, user.Sanitized(), "Avatar updated")
}

// allowedImageType accepts the image formats we store
func allowedImageType(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	}
	return false
}
