package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Olprog59/go-deliverables/internal/dto"
	"github.com/Olprog59/go-deliverables/internal/service"
	"github.com/Olprog59/go-deliverables/internal/view"
)

// msgConfirmRequired answers an unconfirmed DELETE.
const msgConfirmRequired = "Deletion must be confirmed: repeat the request with ?confirm=true."

// ListDeliverables returns the cached list, filtered by ?q= on the name.
// A backend failure still answers 200 with an empty list and an error message.
func (h *Handler) ListDeliverables(w http.ResponseWriter, r *http.Request) {
	res := h.container.Service.Search(r.Context(), r.URL.Query().Get("q"))

	jsonResponse(w, dto.ListResponse{
		Items: dto.DeliverablesToDTO(res.Items),
		Count: len(res.Items),
		Error: res.Error,
	})
}

// GetDeliverable returns one record of the cached list / Retourne un livrable
func (h *Handler) GetDeliverable(w http.ResponseWriter, r *http.Request) {
	d, ok := h.container.Service.Find(r.Context(), r.PathValue("id"))
	if !ok {
		ErrorResponse(w, service.MsgNotFound, http.StatusNotFound)
		return
	}
	jsonResponse(w, dto.DeliverableToDTO(d))
}

// CreateDeliverable validates and inserts / Valide et insère
func (h *Handler) CreateDeliverable(w http.ResponseWriter, r *http.Request) {
	var req dto.DeliverableRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in, err := req.ToInput(time.Now())
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, dto.OutcomeResponse{Message: err.Error(), Errors: []string{err.Error()}})
		return
	}

	h.writeOutcome(w, h.container.Service.Create(r.Context(), in), http.StatusCreated)
}

// UpdateDeliverable replaces every editable field of {id}.
func (h *Handler) UpdateDeliverable(w http.ResponseWriter, r *http.Request) {
	var req dto.DeliverableRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in, err := req.ToInput(time.Now())
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, dto.OutcomeResponse{Message: err.Error(), Errors: []string{err.Error()}})
		return
	}

	h.writeOutcome(w, h.container.Service.Update(r.Context(), r.PathValue("id"), in), http.StatusOK)
}

// DeleteDeliverable removes {id} only with ?confirm=true; otherwise nothing
// is deleted and 409 asks for confirmation.
// DeleteDeliverable supprime {id} seulement avec ?confirm=true.
func (h *Handler) DeleteDeliverable(w http.ResponseWriter, r *http.Request) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	if !confirmed {
		h.container.Metrics.RecordDeleteStage(view.StageArmed)
		writeJSON(w, http.StatusConflict, dto.OutcomeResponse{Message: msgConfirmRequired})
		return
	}

	h.container.Metrics.RecordDeleteStage(view.StageConfirmed)
	h.writeOutcome(w, h.container.Service.Delete(r.Context(), r.PathValue("id")), http.StatusOK)
}

// RefreshDeliverables drops the cached list / Vide le cache de la liste
func (h *Handler) RefreshDeliverables(w http.ResponseWriter, r *http.Request) {
	h.container.Service.Refresh()
	jsonResponse(w, dto.OutcomeResponse{OK: true, Message: service.MsgRefreshed})
}

// writeOutcome maps a service outcome to a status: validation problems are
// 422, backend failures 502.
func (h *Handler) writeOutcome(w http.ResponseWriter, out service.Outcome, okStatus int) {
	resp := dto.OutcomeResponse{OK: out.OK, Message: out.Message, Errors: out.Errors}
	if out.Record != nil {
		rec := dto.DeliverableToDTO(*out.Record)
		resp.Record = &rec
	}

	switch {
	case out.OK:
		writeJSON(w, okStatus, resp)
	case len(out.Errors) > 0:
		writeJSON(w, http.StatusUnprocessableEntity, resp)
	default:
		writeJSON(w, http.StatusBadGateway, resp)
	}
}
