package handlers

import (
	"net/http"
	"strconv"

	"courseforge/internal/repository"
	"courseforge/internal/service"
)

// CourseHandler exposes the course endpoints
type CourseHandler struct {
	courseService *service.CourseService
	maxUpload     int64
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(courseService *service.CourseService, maxUpload int64) *CourseHandler {
	return &CourseHandler{courseService: courseService, maxUpload: maxUpload}
}

// courseRequest carries the writable course fields. Price is a pointer so a
// PATCH omitting it leaves the stored value alone.
type courseRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Price        *float64 `json:"price"`
	Category     string   `json:"category"`
	Level        string   `json:"level"`
	Duration     string   `json:"duration"`
	Language     string   `json:"language"`
	Requirements string   `json:"requirements"`
}

func (req courseRequest) toInput() service.CourseInput {
	return service.CourseInput{
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		Category:     req.Category,
		Level:        req.Level,
		Duration:     req.Duration,
		Language:     req.Language,
		Requirements: req.Requirements,
	}
}

func courseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// Create handles POST /api/v1/courses
func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err, "")
		return
	}

	course, err := h.courseService.Create(UserFromContext(r), req.toInput())
	if err != nil {
		respondServiceError(w, err, "Error creating course")
		return
	}
	respondOK(w, http.StatusCreated, course, "Course created")
}

// List handles GET /api/v1/courses with search, filter and pagination
func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	pageData, err := h.courseService.List(repository.ListFilter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Level:    q.Get("level"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		respondServiceError(w, err, "Error listing courses")
		return
	}
	respondOK(w, http.StatusOK, pageData, "")
}

// Get handles GET /api/v1/courses/{id}
func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := courseID(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid course id", "", nil)
		return
	}

	course, err := h.courseService.GetByID(id)
	if err != nil {
		respondServiceError(w, err, "Error fetching course")
		return
	}
	respondOK(w, http.StatusOK, course, "")
}

// Update handles PATCH /api/v1/courses/{id}
func (h *CourseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := courseID(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid course id", "", nil)
		return
	}

	var req courseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err, "")
		return
	}

	course, err := h.courseService.Update(UserFromContext(r), id, req.toInput())
	if err != nil {
		respondServiceError(w, err, "Error updating course")
		return
	}
	respondOK(w, http.StatusOK, course, "Course updated")
}

// Delete handles DELETE /api/v1/courses/{id}
func (h *CourseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := courseID(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid course id", "", nil)
		return
	}

	if err := h.courseService.Delete(UserFromContext(r), id); err != nil {
		respondServiceError(w, err, "Error deleting course")
		return
	}
	respondOK(w, http.StatusOK, nil, "Course deleted")
}

// TogglePublish handles PATCH /api/v1/courses/{id}/publish
func (h *CourseHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	id, ok := courseID(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid course id", "", nil)
		return
	}

	course, err := h.courseService.TogglePublish(UserFromContext(r), id)
	if err != nil {
		respondServiceError(w, err, "Error toggling publish state")
		return
	}

	message := "Course unpublished"
	if course.IsPublished {
		message = "Course published"
	}
	respondOK(w, http.StatusOK, course, message)
}

// UpdateThumbnail handles POST /api/v1/courses/{id}/thumbnail
func (h *CourseHandler) UpdateThumbnail(w http.ResponseWriter, r *http.Request) {
	id, ok := courseID(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid course id", "", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid or oversized upload", "", nil)
		return
	}

	file, header, err := r.FormFile("thumbnail")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "thumbnail file is required", "", nil)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedImageType(contentType) {
		respondWithError(w, http.StatusBadRequest, "Only image uploads are allowed", "", nil)
		return
	}

	course, err := h.courseService.UpdateThumbnail(r.Context(), UserFromContext(r), id, header.Filename, contentType, file)
	if err != nil {
		respondServiceError(w, err, "Error uploading thumbnail")
		return
	}
	respondOK(w, http.StatusOK, course, "Thumbnail updated")
}
