// Package handlers is the HTTP boundary: it turns user intents from the
// presentation layer into store calls and answers with the state to render.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/xtding233/potential-simulator/internal/catalog"
	"github.com/xtding233/potential-simulator/internal/potential"
	"github.com/xtding233/potential-simulator/internal/preset"
	"github.com/xtding233/potential-simulator/pkg/metrics"
)

// PromptResetAll is the confirmation text for ResetAll.
const PromptResetAll = "all settings will be reset"

type Handler struct {
	// intents run one at a time, like the single-threaded UI they serve
	mu sync.Mutex

	catalog  *catalog.Holder
	live     *potential.Store
	presets  *preset.Store
	validate *validator.Validate
	log      *zap.Logger
}

func New(holder *catalog.Holder, live *potential.Store, presets *preset.Store, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{
		catalog:  holder,
		live:     live,
		presets:  presets,
		validate: validator.New(),
		log:      log,
	}
	holder.OnChange(func(catalog.Catalog) { h.catalogChanged() })
	return h
}

// catalogChanged realigns the live potentials with a reloaded catalog and logs
// slots whose character is gone. Those slots are kept so a later catalog fix
// restores them.
func (h *Handler) catalogChanged() {
	h.mu.Lock()
	h.live.Reconcile()
	missing := h.live.MissingCharacters()
	h.mu.Unlock()
	if len(missing) > 0 {
		h.log.Warn("catalog reloaded, characters missing from catalog", zap.Any("slots", missing))
	}
}

// Routes returns the API router; mount it under /api.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.requireCatalog)

	r.Get("/catalog", h.getCatalog)
	r.Get("/state", h.getState)

	r.Route("/slots/{slot}", func(r chi.Router) {
		r.Put("/character", h.selectCharacter)
		r.Post("/core/{potentialID}/toggle", h.toggleCore)
		r.Put("/sub/{potentialID}/level", h.setSubLevel)
		r.Post("/click/{kind}/{potentialID}", h.clickImage)
	})

	r.Post("/reset/counts", h.resetCounts)
	r.Post("/reset/all", h.resetAll)

	r.Get("/presets", h.listPresets)
	r.Put("/presets/{index}", h.savePreset)
	r.Post("/presets/{index}/load", h.loadPreset)
	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

type confirmResponse struct {
	Confirm string `json:"confirm"`
}

type stateResponse struct {
	State potential.State `json:"state"`
}

type rejectedResponse struct {
	Error string          `json:"error"`
	State potential.State `json:"state"`
}

type selectCharacterRequest struct {
	CharacterID string `json:"characterId" validate:"max=128"`
}

type subLevelRequest struct {
	Level string `json:"level" validate:"required,oneof=none level1 level2-5 level6"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps store errors to status codes.
func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, potential.ErrInvalidSlot),
		errors.Is(err, potential.ErrInvalidLevel),
		errors.Is(err, potential.ErrInvalidKind),
		errors.Is(err, preset.ErrInvalidIndex):
		status = http.StatusBadRequest
	case errors.Is(err, potential.ErrCharacterNotFound),
		errors.Is(err, potential.ErrUnknownPotential):
		status = http.StatusNotFound
	case errors.Is(err, catalog.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		h.log.Error("intent failed", zap.String("operation", op), zap.Error(err))
	}
	metrics.StoreOperationsTotal.WithLabelValues(op, "error").Inc()
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (h *Handler) requireCatalog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.catalog.Ready() {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: catalog.ErrUnavailable.Error()})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// decode reads and validates a JSON body into dst.
func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return h.validate.Struct(dst)
}

func confirmed(r *http.Request) bool {
	ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	return ok
}

func slotParam(r *http.Request) (potential.Slot, error) {
	return potential.ParseSlot(chi.URLParam(r, "slot"))
}

// ok records a successful intent and answers with the full state.
func (h *Handler) ok(w http.ResponseWriter, op string) {
	metrics.StoreOperationsTotal.WithLabelValues(op, "ok").Inc()
	writeJSON(w, http.StatusOK, stateResponse{State: h.live.Snapshot()})
}

func (h *Handler) getCatalog(w http.ResponseWriter, r *http.Request) {
	cat, err := h.catalog.Catalog()
	if err != nil {
		h.writeError(w, "catalog", err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

func (h *Handler) getState(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	st := h.live.Snapshot()
	h.mu.Unlock()

	if hide, _ := strconv.ParseBool(r.URL.Query().Get("hide_unobtained")); hide {
		st.Main = st.Main.Planned()
		st.Support1 = st.Support1.Planned()
		st.Support2 = st.Support2.Planned()
	}
	writeJSON(w, http.StatusOK, stateResponse{State: st})
}

func (h *Handler) selectCharacter(w http.ResponseWriter, r *http.Request) {
	const op = "select_character"
	slot, err := slotParam(r)
	if err != nil {
		h.writeError(w, op, err)
		return
	}
	var req selectCharacterRequest
	if err := h.decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.live.SelectCharacter(slot, req.CharacterID); err != nil {
		h.writeError(w, op, err)
		return
	}
	h.ok(w, op)
}

func (h *Handler) toggleCore(w http.ResponseWriter, r *http.Request) {
	const op = "toggle_core"
	slot, err := slotParam(r)
	if err != nil {
		h.writeError(w, op, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	out, err := h.live.ToggleCorePotential(slot, chi.URLParam(r, "potentialID"))
	if err != nil {
		h.writeError(w, op, err)
		return
	}
	if !out.Accepted {
		metrics.StoreOperationsTotal.WithLabelValues(op, "rejected").Inc()
		writeJSON(w, http.StatusUnprocessableEntity, rejectedResponse{Error: out.Reason, State: h.live.Snapshot()})
		return
	}
	h.ok(w, op)
}

func (h *Handler) setSubLevel(w http.ResponseWriter, r *http.Request) {
	const op = "set_sub_level"
	slot, err := slotParam(r)
	if err != nil {
		h.writeError(w, op, err)
		return
	}
	var req subLevelRequest
	if err := h.decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.live.SetSubPotentialLevel(slot, chi.URLParam(r, "potentialID"), potential.Level(req.Level)); err != nil {
		h.writeError(w, op, err)
		return
	}
	h.ok(w, op)
}

func (h *Handler) clickImage(w http.ResponseWriter, r *http.Request) {
	const op = "click_image"
	slot, err := slotParam(r)
	if err != nil {
		h.writeError(w, op, err)
		return
	}
	kind, err := potential.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.writeError(w, op, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.live.ClickPotentialImage(slot, chi.URLParam(r, "potentialID"), kind); err != nil {
		h.writeError(w, op, err)
		return
	}
	h.ok(w, op)
}

func (h *Handler) resetCounts(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.live.ResetCounts()
	h.ok(w, "reset_counts")
}

func (h *Handler) resetAll(w http.ResponseWriter, r *http.Request) {
	const op = "reset_all"
	if !confirmed(r) {
		metrics.StoreOperationsTotal.WithLabelValues(op, "declined").Inc()
		writeJSON(w, http.StatusConflict, confirmResponse{Confirm: PromptResetAll})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.live.ResetAll()
	h.ok(w, op)
}

func (h *Handler) listPresets(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	entries := h.presets.List()
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, entries)
}

// confirmer answers with the request's confirm flag and remembers the prompt.
type confirmer struct {
	answer bool
	prompt string
}

func (c *confirmer) confirm(prompt string) bool {
	c.prompt = prompt
	return c.answer
}

func presetIndex(r *http.Request) (int, error) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		return 0, preset.ErrInvalidIndex
	}
	return idx, nil
}

func (h *Handler) savePreset(w http.ResponseWriter, r *http.Request) {
	const op = "save"
	idx, err := presetIndex(r)
	if err != nil {
		h.writePresetError(w, op, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	c := &confirmer{answer: confirmed(r)}
	res, err := h.presets.Save(idx, c.confirm)
	if err != nil {
		h.writePresetError(w, op, err)
		return
	}
	metrics.PresetOperationsTotal.WithLabelValues(op, res.String()).Inc()
	if res == preset.Declined {
		writeJSON(w, http.StatusConflict, confirmResponse{Confirm: c.prompt})
		return
	}
	writeJSON(w, http.StatusOK, h.presets.List())
}

func (h *Handler) loadPreset(w http.ResponseWriter, r *http.Request) {
	const op = "load"
	idx, err := presetIndex(r)
	if err != nil {
		h.writePresetError(w, op, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	c := &confirmer{answer: confirmed(r)}
	res, st, err := h.presets.Load(idx, c.confirm)
	if err != nil {
		h.writePresetError(w, op, err)
		return
	}
	metrics.PresetOperationsTotal.WithLabelValues(op, res.String()).Inc()

	switch res {
	case preset.Missing:
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "preset " + strconv.Itoa(idx) + " is empty"})
	case preset.Declined:
		writeJSON(w, http.StatusConflict, confirmResponse{Confirm: c.prompt})
	default:
		if missing := h.live.MissingCharacters(); len(missing) > 0 {
			h.log.Warn("preset loaded, characters missing from catalog", zap.Any("slots", missing))
		}
		writeJSON(w, http.StatusOK, stateResponse{State: st})
	}
}

func (h *Handler) writePresetError(w http.ResponseWriter, op string, err error) {
	metrics.PresetOperationsTotal.WithLabelValues(op, "error").Inc()
	status := http.StatusInternalServerError
	if errors.Is(err, preset.ErrInvalidIndex) {
		status = http.StatusBadRequest
	} else {
		h.log.Error("preset operation failed", zap.String("operation", op), zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
