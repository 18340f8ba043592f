package handlers

import (
	"net/http"
	"strconv"

	"courseforge/internal/service"
)

// ModuleHandler exposes the module endpoints nested under courses
type ModuleHandler struct {
	moduleService *service.ModuleService
}

// NewModuleHandler creates a new module handler
func NewModuleHandler(moduleService *service.ModuleService) *ModuleHandler {
	return &ModuleHandler{moduleService: moduleService}
}

type moduleRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil && id > 0
}

// Add handles POST /api/v1/courses/{id}/modules
func (h *ModuleHandler) Add(w http.ResponseWriter, r *http.Request) {
	courseID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid course id", "", nil)
		return
	}

	var req moduleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err, "")
		return
	}

	module, err := h.moduleService.Add(UserFromContext(r), courseID, req.Title, req.Description)
	if err != nil {
		respondServiceError(w, err, "Error adding module")
		return
	}
	respondOK(w, http.StatusCreated, module, "Module added")
}

// List handles GET /api/v1/courses/{id}/modules
func (h *ModuleHandler) List(w http.ResponseWriter, r *http.Request) {
	courseID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid course id", "", nil)
		return
	}

	modules, err := h.moduleService.ListByCourse(courseID)
	if err != nil {
		respondServiceError(w, err, "Error listing modules")
		return
	}
	respondOK(w, http.StatusOK, modules, "")
}

// Update handles PATCH /api/v1/courses/{id}/modules/{moduleId}
func (h *ModuleHandler) Update(w http.ResponseWriter, r *http.Request) {
	courseID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid course id", "", nil)
		return
	}
	moduleID, ok := pathID(r, "moduleId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid module id", "", nil)
		return
	}

	var req moduleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err, "")
		return
	}

	module, err := h.moduleService.Update(UserFromContext(r), courseID, moduleID, req.Title, req.Description)
	if err != nil {
		respondServiceError(w, err, "Error updating module")
		return
	}
	respondOK(w, http.StatusOK, module, "Module updated")
}

// Delete handles DELETE /api/v1/courses/{id}/modules/{moduleId}
func (h *ModuleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	courseID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid course id", "", nil)
		return
	}
	moduleID, ok := pathID(r, "moduleId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid module id", "", nil)
		return
	}

	if err := h.moduleService.Delete(UserFromContext(r), courseID, moduleID); err != nil {
		respondServiceError(w, err, "Error deleting module")
		return
	}
	respondOK(w, http.StatusOK, nil, "Module deleted")
}
