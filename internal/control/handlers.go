package control

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-fx/dsp/effect"
	"github.com/cwbudde/algo-fx/dsp/effectchain"
	"github.com/cwbudde/algo-fx/dsp/param"
)

// maxBody caps request bodies. Chain documents are the largest payload.
const maxBody = 1 << 20

type paramView struct {
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Default   float64 `json:"default"`
	Unit      string  `json:"unit,omitempty"`
	Automated bool    `json:"automated"`
}

type effectView struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Family    string      `json:"family"`
	Index     int         `json:"index"`
	Enabled   bool        `json:"enabled"`
	Sanitized uint64      `json:"sanitized,omitempty"`
	Params    []paramView `json:"params"`
	Presets   []string    `json:"presets"`
}

type transportView struct {
	Running bool    `json:"running"`
	BPM     float64 `json:"bpm"`
}

type errorView struct {
	Error string `json:"error"`
}

func viewParam(info param.Info) paramView {
	return paramView{
		Name:      info.Name,
		Value:     info.Value,
		Min:       info.Min,
		Max:       info.Max,
		Default:   info.Default,
		Unit:      info.Unit,
		Automated: info.Automated,
	}
}

func viewEffect(e *effect.Effect, index int) effectView {
	infos := e.Parameters()
	params := make([]paramView, len(infos))
	for i, info := range infos {
		params[i] = viewParam(info)
	}

	return effectView{
		ID:        e.ID(),
		Type:      e.Type(),
		Family:    e.Family().String(),
		Index:     index,
		Enabled:   e.Enabled(),
		Sanitized: e.Sanitized(),
		Params:    params,
		Presets:   e.Presets(),
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithFields(logrus.Fields{"function": "writeJSON"}).WithError(err).Warn("write response")
	}
}

// writeError maps chain errors to HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, effectchain.ErrUnknownEffect),
		errors.Is(err, effectchain.ErrUnknownParameter),
		errors.Is(err, effectchain.ErrUnknownPreset):
		status = http.StatusNotFound
	case errors.Is(err, effectchain.ErrIndex),
		errors.Is(err, effectchain.ErrVersion),
		errors.Is(err, effectchain.ErrDuplicateEffect),
		errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, effect.ErrAllocation),
		errors.Is(err, effect.ErrInvalidConfig),
		errors.Is(err, effectchain.ErrNotInitialized):
		status = http.StatusUnprocessableEntity
	}

	s.writeJSON(w, status, errorView{Error: err.Error()})
}

var errBadRequest = errors.New("bad request")

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}

	return nil
}

// nextID returns the first free "<type>-<n>" identifier in the chain.
func (s *Server) nextID(typ string) string {
	for n := 1; ; n++ {
		id := fmt.Sprintf("%s-%d", typ, n)
		if s.chain.Find(id) == nil {
			return id
		}
	}
}

// lookup finds the effect named by the {id} URL parameter and its index.
func (s *Server) lookup(r *http.Request) (*effect.Effect, int, error) {
	id := chi.URLParam(r, "id")
	for i, e := range s.chain.Effects() {
		if e.ID() == id {
			return e, i, nil
		}
	}

	return nil, -1, fmt.Errorf("%w: %q", effectchain.ErrUnknownEffect, id)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"initialized": s.chain.Initialized(),
		"effects":     s.chain.Len(),
	})
}

func (s *Server) handleTypes(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.reg.Types())
}

func (s *Server) handleGetChain(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, effectchain.Describe(s.chain))
}

// handlePutChain swaps in the document's effects and tempo. The chain's
// shape is left alone.
func (s *Server) handlePutChain(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	checked, err := effectchain.ParseDocument(data)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	list, err := checked.Build(s.reg, s.chain.Context(), s.log)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.chain.ReplaceEffects(list); err != nil {
		s.writeError(w, err)
		return
	}

	if checked.Tempo > 0 {
		if err := s.setTempo(checked.Tempo); err != nil {
			s.writeError(w, err)
			return
		}
	}

	s.writeJSON(w, http.StatusOK, effectchain.Describe(s.chain))
}

func (s *Server) handleListEffects(w http.ResponseWriter, _ *http.Request) {
	list := s.chain.Effects()

	out := make([]effectView, len(list))
	for i, e := range list {
		out[i] = viewEffect(e, i)
	}

	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddEffect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type   string             `json:"type"`
		ID     string             `json:"id"`
		Index  *int               `json:"index"`
		Preset string             `json:"preset"`
		Params map[string]float64 `json:"params"`
	}

	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	if req.ID != "" && s.chain.Find(req.ID) != nil {
		s.writeError(w, fmt.Errorf("%w: id %q in use", effectchain.ErrDuplicateEffect, req.ID))
		return
	}

	fx, err := s.reg.Create(req.Type, s.chain.Context(), effect.WithID(req.ID))
	if err != nil {
		s.writeError(w, err)
		return
	}

	if req.ID == "" {
		fx.SetID(s.nextID(fx.Type()))
	}

	if req.Preset != "" && !fx.LoadPreset(req.Preset) {
		s.writeError(w, fmt.Errorf("%w: %s %q", effectchain.ErrUnknownPreset, req.Type, req.Preset))
		return
	}

	for name, v := range req.Params {
		if !fx.SetParameter(name, v) {
			s.writeError(w, fmt.Errorf("%w: %s.%s", effectchain.ErrUnknownParameter, req.Type, name))
			return
		}
	}

	index := s.chain.Len()
	if req.Index != nil {
		index = *req.Index
	}

	if err := s.chain.InsertEffect(index, fx); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, viewEffect(fx, index))
}

func (s *Server) handleGetEffect(w http.ResponseWriter, r *http.Request) {
	e, i, err := s.lookup(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, viewEffect(e, i))
}

func (s *Server) handleRemoveEffect(w http.ResponseWriter, r *http.Request) {
	e, _, err := s.lookup(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.chain.RemoveEffect(e)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMoveEffect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index int `json:"index"`
	}

	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	e, from, err := s.lookup(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.chain.MoveEffect(from, req.Index); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, viewEffect(e, req.Index))
}

func (s *Server) handleSetEnabled(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}

	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	e, i, err := s.lookup(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	e.SetEnabled(req.Enabled)
	s.writeJSON(w, http.StatusOK, viewEffect(e, i))
}

// paramInfo returns the current view of one parameter.
func paramInfo(e *effect.Effect, name string) (paramView, error) {
	for _, info := range e.Parameters() {
		if info.Name == name {
			return viewParam(info), nil
		}
	}

	return paramView{}, fmt.Errorf("%w: %s.%s", effectchain.ErrUnknownParameter, e.Type(), name)
}

// handleSetParam clamps like SetParameter does and answers with the stored
// value.
func (s *Server) handleSetParam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value *float64 `json:"value"`
	}

	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	if req.Value == nil {
		s.writeError(w, fmt.Errorf("%w: missing value", errBadRequest))
		return
	}

	e, _, err := s.lookup(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.chain.SetParameter(e.ID(), chi.URLParam(r, "name"), *req.Value); err != nil {
		s.writeError(w, err)
		return
	}

	view, err := paramInfo(e, chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSetAutomation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Automated bool `json:"automated"`
	}

	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	e, _, err := s.lookup(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	name := chi.URLParam(r, "name")
	if !e.SetParameterAutomated(name, req.Automated) {
		s.writeError(w, fmt.Errorf("%w: %s.%s", effectchain.ErrUnknownParameter, e.Type(), name))
		return
	}

	view, err := paramInfo(e, name)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleLoadPreset(w http.ResponseWriter, r *http.Request) {
	e, i, err := s.lookup(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.chain.LoadPreset(e.ID(), chi.URLParam(r, "name")); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, viewEffect(e, i))
}

func (s *Server) handleSavePreset(w http.ResponseWriter, r *http.Request) {
	e, i, err := s.lookup(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	name := chi.URLParam(r, "name")
	if !e.SavePreset(name) {
		s.writeJSON(w, http.StatusConflict, errorView{Error: fmt.Sprintf("preset %q is built in", name)})
		return
	}

	s.writeJSON(w, http.StatusOK, viewEffect(e, i))
}

// handleResetEffect schedules a DSP state reset for the effect's next block.
func (s *Server) handleResetEffect(w http.ResponseWriter, r *http.Request) {
	e, i, err := s.lookup(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	e.Reset()
	s.writeJSON(w, http.StatusOK, viewEffect(e, i))
}

func (s *Server) transport() transportView {
	return transportView{Running: s.chain.Running(), BPM: s.chain.Tempo().BPM()}
}

func (s *Server) handleTransport(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.transport())
}

func (s *Server) handleStart(w http.ResponseWriter, _ *http.Request) {
	s.chain.Start()
	s.writeJSON(w, http.StatusOK, s.transport())
}

func (s *Server) handleStop(w http.ResponseWriter, _ *http.Request) {
	s.chain.Stop()
	s.writeJSON(w, http.StatusOK, s.transport())
}

func (s *Server) setTempo(bpm float64) error {
	t, ok := s.chain.Tempo().(interface{ SetBPM(float64) error })
	if !ok {
		return fmt.Errorf("%w: tempo is fixed", errBadRequest)
	}

	if err := t.SetBPM(bpm); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}

	return nil
}

func (s *Server) handleTempo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BPM float64 `json:"bpm"`
	}

	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.setTempo(req.BPM); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, s.transport())
}
