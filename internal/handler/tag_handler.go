package handler

import (
	"encoding/json"
	"net/http"

	"tagvault-sync-server/internal/domain"
	"tagvault-sync-server/internal/middleware"
	"tagvault-sync-server/internal/repository"
	"tagvault-sync-server/internal/service"
	"tagvault-sync-server/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type TagHandler struct {
	service  *service.TagService
	validate *validator.Validate
}

func NewTagHandler(service *service.TagService) *TagHandler {
	return &TagHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	userID := middleware.GetUserID(r)

	tag, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		response.InternalError(w, "Failed to create tag")
		return
	}

	response.Created(w, tag)
}

func (h *TagHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req domain.ImportTagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	userID := middleware.GetUserID(r)

	if err := h.service.BulkImport(r.Context(), userID, req.Tags); err != nil {
		// Records inserted before the failing one stay; the client re-imports
		// after fixing the batch.
		response.InternalError(w, "Import failed")
		return
	}

	response.Success(w, map[string]int{"imported": len(req.Tags)})
}

func (h *TagHandler) Update(w http.ResponseWriter, r *http.Request) {
	tagID := mux.Vars(r)["id"]
	if tagID == "" {
		response.BadRequest(w, "Tag ID is required")
		return
	}

	var req domain.UpdateTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	userID := middleware.GetUserID(r)

	outcome, err := h.service.UpdateDetails(r.Context(), userID, tagID, &req)
	if err != nil {
		response.InternalError(w, "Failed to update tag")
		return
	}

	writeOutcome(w, outcome)
}

func (h *TagHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tagID := mux.Vars(r)["id"]
	if tagID == "" {
		response.BadRequest(w, "Tag ID is required")
		return
	}

	var req domain.DeleteTagRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	userID := middleware.GetUserID(r)

	deleted, err := h.service.SoftDelete(r.Context(), userID, tagID, &req)
	if err != nil {
		response.InternalError(w, "Failed to delete tag")
		return
	}
	if !deleted {
		response.NotFound(w, "Tag not found")
		return
	}

	response.Success(w, map[string]string{"message": "Tag deleted"})
}

func (h *TagHandler) Purge(w http.ResponseWriter, r *http.Request) {
	tagID := mux.Vars(r)["id"]
	if tagID == "" {
		response.BadRequest(w, "Tag ID is required")
		return
	}

	userID := middleware.GetUserID(r)

	deleted, err := h.service.HardDelete(r.Context(), userID, tagID)
	if err != nil {
		response.InternalError(w, "Failed to purge tag")
		return
	}
	if !deleted {
		response.NotFound(w, "Tag not found")
		return
	}

	response.Success(w, map[string]string{"message": "Tag purged"})
}

func (h *TagHandler) PurgeAll(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	count, err := h.service.HardDeleteAll(r.Context(), userID)
	if err != nil {
		response.InternalError(w, "Failed to purge tags")
		return
	}

	response.Success(w, map[string]int64{"purged": count})
}

// writeOutcome maps the gate's three-valued result onto HTTP statuses.
// Losing the race is an expected outcome, not a server fault.
func writeOutcome(w http.ResponseWriter, outcome repository.UpdateOutcome) {
	switch outcome {
	case repository.UpdateApplied:
		response.Success(w, map[string]string{"status": "applied"})
	case repository.UpdateRejectedStale:
		response.Error(w, http.StatusConflict, "rejected: a newer update is already applied")
	case repository.UpdateNotFound:
		response.NotFound(w, "Tag not found")
	}
}
