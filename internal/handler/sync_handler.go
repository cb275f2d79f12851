package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"tagvault-sync-server/internal/domain"
	"tagvault-sync-server/internal/middleware"
	"tagvault-sync-server/internal/service"
	"tagvault-sync-server/pkg/response"

	"github.com/go-playground/validator/v10"
)

type SyncHandler struct {
	service  *service.SyncService
	validate *validator.Validate
}

func NewSyncHandler(service *service.SyncService) *SyncHandler {
	return &SyncHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *SyncHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	tags, err := h.service.FetchActive(r.Context(), userID)
	if err != nil {
		response.InternalError(w, "Failed to list tags")
		return
	}

	response.Success(w, tags)
}

func (h *SyncHandler) FullSync(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	resp, err := h.service.FetchAllForSync(r.Context(), userID)
	if err != nil {
		response.InternalError(w, "Failed to fetch sync state")
		return
	}

	response.Success(w, resp)
}

func (h *SyncHandler) Changes(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	since, err := strconv.ParseInt(r.URL.Query().Get("since"), 10, 64)
	if err != nil || since < 0 {
		response.BadRequest(w, "Invalid since parameter")
		return
	}

	resp, err := h.service.FetchChangedSince(r.Context(), userID, since)
	if err != nil {
		response.InternalError(w, "Failed to fetch changes")
		return
	}

	response.Success(w, resp)
}

func (h *SyncHandler) SharedLookup(w http.ResponseWriter, r *http.Request) {
	var req domain.SharedLookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	tags, err := h.service.FetchSharedByIDs(r.Context(), req.IDs)
	if err != nil {
		response.InternalError(w, "Failed to fetch shared tags")
		return
	}

	response.Success(w, tags)
}

func (h *SyncHandler) SharedLookupByUser(w http.ResponseWriter, r *http.Request) {
	var req domain.SharedByUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	tags, err := h.service.FetchSharedByUserFiltered(r.Context(), req.UserID, req.IDs)
	if err != nil {
		response.InternalError(w, "Failed to fetch shared tags")
		return
	}

	response.Success(w, tags)
}
