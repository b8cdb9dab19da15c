package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/EightFlix/Error/internal/errors"
	"github.com/EightFlix/Error/internal/logger"
	"github.com/EightFlix/Error/internal/ops"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Handlers contains HTTP route handlers for the catalog API.
type Handlers struct {
	catalog *ops.Catalog
	log     *logger.Logger
}

// HandleSearch handles GET /api/v1/search.
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if strings.TrimSpace(query) == "" {
		h.writeError(w, errors.NewInvalidRequest("q is required"))
		return
	}

	offset, err := intParam(r, "offset", 0)
	if err == nil && offset < 0 {
		err = errors.NewInvalidRequest("offset must not be negative")
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	maxResults, err := intParam(r, "max", 0)
	if err != nil {
		h.writeError(w, err)
		return
	}
	chatID, err := int64Param(r, "chat_id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	ownerID, err := int64Param(r, "owner_id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.catalog.Search(r.Context(), ops.SearchInput{
		Query:      query,
		Offset:     offset,
		MaxResults: maxResults,
		ChatID:     chatID,
		OwnerID:    ownerID,
	}))
}

// HandlePage handles GET /api/v1/page?data=page#<token>#<offset>.
func (h *Handlers) HandlePage(w http.ResponseWriter, r *http.Request) {
	requesterID, err := int64Param(r, "requester_id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	maxResults, err := intParam(r, "max", 0)
	if err != nil {
		h.writeError(w, err)
		return
	}

	out, err := h.catalog.Page(r.Context(), ops.PageInput{
		Callback:    r.URL.Query().Get("data"),
		RequesterID: requesterID,
		MaxResults:  maxResults,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /api/v1/files/{id}.
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := h.catalog.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleSave handles POST /api/v1/files. Created records answer 201,
// merged duplicates 200 and rejected records 422 with the reason.
func (h *Handlers) HandleSave(w http.ResponseWriter, r *http.Request) {
	var in ops.SaveInput
	if err := decodeBody(w, r, &in); err != nil {
		h.writeError(w, err)
		return
	}

	out := h.catalog.Save(r.Context(), in)
	status := http.StatusOK
	switch out.Result {
	case ops.SaveCreated:
		status = http.StatusCreated
	case ops.SaveFailed:
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, out)
}

type captionBody struct {
	Caption string `json:"caption"`
}

// HandleUpdateCaption handles PATCH /api/v1/files/{id}/caption.
func (h *Handlers) HandleUpdateCaption(w http.ResponseWriter, r *http.Request) {
	var body captionBody
	if err := decodeBody(w, r, &body); err != nil {
		h.writeError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	ok, err := h.catalog.UpdateCaption(r.Context(), id, body.Caption)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !ok {
		h.writeError(w, errors.NewNotFound(id))
		return
	}
	writeJSON(w, http.StatusOK, ops.UpdateOutput{Updated: true, ID: id})
}

type qualityBody struct {
	FileName string `json:"file_name"`
}

// HandleUpdateQuality handles PATCH /api/v1/files/{id}/quality.
func (h *Handlers) HandleUpdateQuality(w http.ResponseWriter, r *http.Request) {
	var body qualityBody
	if err := decodeBody(w, r, &body); err != nil {
		h.writeError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	ok, err := h.catalog.UpdateQuality(r.Context(), id, body.FileName)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !ok {
		h.writeError(w, errors.NewNotFound(id))
		return
	}

	rec, err := h.catalog.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ops.UpdateOutput{Updated: true, ID: id, Quality: rec.Quality})
}

// HandleDelete handles DELETE /api/v1/files?pattern=.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	out, err := h.catalog.DeleteByPattern(r.Context(), r.URL.Query().Get("pattern"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleHealth handles GET /health. A degraded catalog answers 503.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	out := h.catalog.Health(r.Context())
	status := http.StatusOK
	if out.Status != ops.StatusOK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, out)
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewInvalidRequest(name + " must be an integer")
	}
	return v, nil
}

func int64Param(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.NewInvalidRequest(name + " must be an integer")
	}
	return v, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.NewInvalidRequest("invalid JSON body: " + err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorBody(code, message string, status int) map[string]any {
	return map[string]any{"error": map[string]any{
		"code":    code,
		"message": message,
		"status":  status,
	}}
}

// writeError maps err to its HTTP status. Internal failures are logged and
// answered with a generic message.
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	fErr, ok := errors.As(err)
	if !ok || fErr.Code == errors.ErrInternal {
		h.log.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody(string(errors.ErrInternal), "an internal error occurred", 500))
		return
	}

	body := errorBody(string(fErr.Code), fErr.Message, fErr.Status)
	if fErr.Details != nil {
		body["error"].(map[string]any)["details"] = fErr.Details
	}
	writeJSON(w, fErr.Status, body)
}
