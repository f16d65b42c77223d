package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"clipcanvas/internal/banner"
	"clipcanvas/internal/session"
)

type apiError struct {
	Error string `json:"error"`
}

type stateResponse struct {
	session.State
	SafeZone  *banner.Overlay `json:"safe_zone"`
	KeyPrompt bool            `json:"key_prompt"`
}

type configRequest struct {
	Style        *string `json:"style" validate:"omitempty,banner_style"`
	CustomPrompt *string `json:"custom_prompt" validate:"omitempty,max=1000"`
	HighQuality  *bool   `json:"high_quality"`
}

type selectRequest struct {
	Index *int `json:"index" validate:"required,min=0"`
}

const maxBodyBytes = 64 << 10

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.stateResponse())
}

func (s *Server) handleStyles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, banner.Styles())
}

func (s *Server) handleSafeZone(w http.ResponseWriter, r *http.Request) {
	visible := true
	if raw := r.URL.Query().Get("visible"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid visible flag"})
			return
		}
		visible = v
	}
	writeJSON(w, http.StatusOK, banner.SafeZone(visible))
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	var req configRequest
	if err := s.decode(w, r, &req, false); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	if err := s.applyConfig(req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.stateResponse())
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req configRequest
	if err := s.decode(w, r, &req, true); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	if err := s.applyConfig(req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}

	if err := s.generate(r); err != nil {
		if errors.Is(err, session.ErrGenerationInProgress) {
			writeJSON(w, http.StatusConflict, apiError{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, apiError{Error: session.MsgGenericFailure})
		return
	}
	writeJSON(w, http.StatusOK, s.stateResponse())
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := s.decode(w, r, &req, false); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	if err := s.ctrl.SelectBanner(*req.Index); err != nil {
		writeJSON(w, http.StatusNotFound, apiError{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.stateResponse())
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	b, ok := s.bannerFromPath(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, apiError{Error: "banner not found"})
		return
	}
	if s.sharer == nil {
		writeJSON(w, http.StatusNotFound, apiError{Error: "sharing is not configured"})
		return
	}
	if err := s.sharer.Share(b); err != nil {
		s.logger.Error("share failed", "err", err, "timestamp", b.Timestamp)
		writeJSON(w, http.StatusBadGateway, apiError{Error: "failed to share banner"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	b, ok := s.bannerFromPath(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	_, raw, err := banner.DecodeDataURL(b.URL)
	if err != nil {
		s.logger.Error("decode banner failed", "err", err, "timestamp", b.Timestamp)
		http.Error(w, "banner is not downloadable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("content-type", "image/png")
	w.Header().Set("content-disposition", `attachment; filename="`+b.Filename()+`"`)
	w.Header().Set("content-length", strconv.Itoa(len(raw)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (s *Server) bannerFromPath(r *http.Request) (banner.GeneratedBanner, bool) {
	ts, err := strconv.ParseInt(r.PathValue("timestamp"), 10, 64)
	if err != nil {
		return banner.GeneratedBanner{}, false
	}
	return s.ctrl.Find(ts)
}

func (s *Server) stateResponse() stateResponse {
	st := s.ctrl.Snapshot()
	return stateResponse{
		State:     st,
		SafeZone:  overlayFor(st),
		KeyPrompt: s.keyPrompt(),
	}
}

func (s *Server) applyConfig(req configRequest) error {
	if req.Style != nil {
		style, err := banner.ParseStyle(*req.Style)
		if err != nil {
			return err
		}
		if err := s.ctrl.SetStyle(style); err != nil {
			return err
		}
	}
	if req.CustomPrompt != nil {
		s.ctrl.SetCustomPrompt(*req.CustomPrompt)
	}
	if req.HighQuality != nil {
		s.ctrl.SetHighQuality(*req.HighQuality)
	}
	return nil
}

// decode reads and validates a JSON body. An empty body is accepted when
// allowEmpty is set.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			return errors.New("invalid json body")
		}
	}
	return s.validateStruct(dst)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
