package handler

import (
	"encoding/json"
	"net/http"

	"tagvault-sync-server/internal/domain"
	"tagvault-sync-server/internal/middleware"
	"tagvault-sync-server/internal/service"
	"tagvault-sync-server/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type ShareHandler struct {
	service  *service.ShareService
	validate *validator.Validate
}

func NewShareHandler(service *service.ShareService) *ShareHandler {
	return &ShareHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *ShareHandler) Share(w http.ResponseWriter, r *http.Request) {
	var req domain.ShareTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	tag, err := h.service.AddShared(r.Context(), &req)
	if err != nil {
		response.InternalError(w, "Failed to share tag")
		return
	}

	response.Created(w, tag)
}

// Update, Delete, and Purge operate on the caller's own shared namespace:
// the recipient manages the copies shared into their set.
func (h *ShareHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	outcome, err := h.service.UpdateShared(r.Context(), userID, tagID, &req)
	if err != nil {
		response.InternalError(w, "Failed to update shared tag")
		return
	}

	writeOutcome(w, outcome)
}

func (h *ShareHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	deleted, err := h.service.SoftDeleteShared(r.Context(), userID, tagID, &req)
	if err != nil {
		response.InternalError(w, "Failed to delete shared tag")
		return
	}
	if !deleted {
		response.NotFound(w, "Shared tag not found")
		return
	}

	response.Success(w, map[string]string{"message": "Shared tag deleted"})
}

func (h *ShareHandler) Purge(w http.ResponseWriter, r *http.Request) {
	tagID := mux.Vars(r)["id"]
	if tagID == "" {
		response.BadRequest(w, "Tag ID is required")
		return
	}

	userID := middleware.GetUserID(r)

	deleted, err := h.service.HardDeleteShared(r.Context(), userID, tagID)
	if err != nil {
		response.InternalError(w, "Failed to purge shared tag")
		return
	}
	if !deleted {
		response.NotFound(w, "Shared tag not found")
		return
	}

	response.Success(w, map[string]string{"message": "Shared tag purged"})
}
