package http

import (
	"net/http"

	"myfinance/internal/core"
)

type categoryRequest struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

type categoryResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

func toCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{
		ID:    c.ID,
		Name:  c.Name,
		Type:  string(c.Type),
		Color: c.Color,
		Icon:  string(c.Icon),
	}
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.store.ListCategories(r.Context(), userID(r.Context()))
	if err != nil {
		writeStorageError(w, err)
		return
	}

	out := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cat := core.Category{
		Name:  req.Name,
		Type:  core.TxType(req.Type),
		Color: req.Color,
		Icon:  core.ParseIcon(req.Icon),
	}
	if err := cat.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	uid := userID(r.Context())
	if err := s.store.CreateCategory(r.Context(), uid, &cat); err != nil {
		writeStorageError(w, err)
		return
	}
	s.dashboards.Invalidate(uid)

	writeJSON(w, http.StatusCreated, toCategoryResponse(cat))
}

// handleUpdateCategory changes name, color and icon. The type is fixed at
// creation.
func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	// Type is accepted in the payload for symmetry with create but never
	// persisted on update.
	cat := core.Category{
		ID:    r.PathValue("id"),
		Name:  req.Name,
		Type:  core.TxType(req.Type),
		Color: req.Color,
		Icon:  core.ParseIcon(req.Icon),
	}
	if err := cat.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	uid := userID(r.Context())
	if err := s.store.UpdateCategory(r.Context(), uid, cat); err != nil {
		writeStorageError(w, err)
		return
	}
	s.dashboards.Invalidate(uid)

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	uid := userID(r.Context())
	if err := s.store.DeleteCategory(r.Context(), uid, r.PathValue("id")); err != nil {
		writeStorageError(w, err)
		return
	}
	s.dashboards.Invalidate(uid)

	w.WriteHeader(http.StatusNoContent)
}
