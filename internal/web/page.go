package web

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"clipcanvas/internal/banner"
	"clipcanvas/internal/session"
)

var templateFuncs = template.FuncMap{
	"num": func(v float64) string {
		return strconv.FormatFloat(v, 'f', -1, 64)
	},
}

type pageView struct {
	Loading      bool
	Error        string
	Config       banner.GenerationConfig
	Styles       []styleView
	Current      *bannerView
	History      []historyView
	Overlay      *banner.Overlay
	ShowSafeZone bool
	KeyPrompt    bool
	KeysEnabled  bool
	CanShare     bool
}

type styleView struct {
	Key      string
	Label    string
	Selected bool
}

type bannerView struct {
	URL       template.URL
	Prompt    string
	Timestamp int64
	Filename  string
}

type historyView struct {
	Index     int
	Thumb     template.URL
	Timestamp int64
	Selected  bool
}

func (s *Server) buildPage() pageView {
	st := s.ctrl.Snapshot()

	view := pageView{
		Loading:      st.Loading,
		Error:        st.Error,
		Config:       st.Config,
		Overlay:      overlayFor(st),
		ShowSafeZone: st.ShowSafeZone,
		KeyPrompt:    s.keyPrompt(),
		KeysEnabled:  s.keys != nil,
		CanShare:     s.sharer != nil,
	}

	for _, opt := range banner.Styles() {
		view.Styles = append(view.Styles, styleView{
			Key:      opt.Key,
			Label:    string(opt.Style),
			Selected: opt.Style == st.Config.Style,
		})
	}

	for i, b := range st.History {
		view.History = append(view.History, historyView{
			Index:     i,
			Thumb:     imageURL(b.URL),
			Timestamp: b.Timestamp,
			Selected:  i == st.CurrentIndex,
		})
	}

	if cur, ok := st.Current(); ok {
		view.Current = &bannerView{
			URL:       imageURL(cur.URL),
			Prompt:    cur.Prompt,
			Timestamp: cur.Timestamp,
			Filename:  cur.Filename(),
		}
	}

	return view
}

// imageURL only trusts inline image payloads produced by the generator.
func imageURL(value string) template.URL {
	if strings.HasPrefix(value, "data:image/") {
		return template.URL(value)
	}
	return ""
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.page.Execute(&buf, s.buildPage()); err != nil {
		s.logger.Error("render page failed", "err", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("content-type", "text/html; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleGenerateForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	req := configRequest{}
	if style := strings.TrimSpace(r.PostFormValue("style")); style != "" {
		req.Style = &style
	}
	custom := strings.TrimSpace(r.PostFormValue("custom_prompt"))
	req.CustomPrompt = &custom
	hq := parseBool(r.PostFormValue("high_quality"))
	req.HighQuality = &hq

	if err := s.validateStruct(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.applyConfig(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.generate(r); err != nil && !errors.Is(err, session.ErrGenerationInProgress) {
		s.logger.Error("generate failed", "err", err)
	}
	redirectHome(w, r)
}

func (s *Server) handleSelectForm(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("index")))
	if err != nil {
		http.Error(w, "invalid index", http.StatusBadRequest)
		return
	}
	if err := s.ctrl.SelectBanner(index); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	redirectHome(w, r)
}

func (s *Server) handleSafeZoneForm(w http.ResponseWriter, r *http.Request) {
	s.ctrl.ToggleSafeZone()
	redirectHome(w, r)
}

func (s *Server) handleKeyForm(w http.ResponseWriter, r *http.Request) {
	if s.keys == nil {
		http.NotFound(w, r)
		return
	}
	if err := s.keys.SelectKey(r.Context(), r.PostFormValue("api_key")); err != nil {
		s.logger.Warn("store key failed", "err", err)
		http.Error(w, "could not store key", http.StatusBadRequest)
		return
	}
	s.invalidateAccess()
	redirectHome(w, r)
}

func (s *Server) handleKeyClearForm(w http.ResponseWriter, r *http.Request) {
	if s.keys == nil {
		http.NotFound(w, r)
		return
	}
	if err := s.keys.ClearKey(r.Context()); err != nil {
		s.logger.Warn("clear key failed", "err", err)
		http.Error(w, "could not clear key", http.StatusInternalServerError)
		return
	}
	s.invalidateAccess()
	redirectHome(w, r)
}

func (s *Server) handleKeyDismissForm(w http.ResponseWriter, r *http.Request) {
	if s.keys != nil {
		s.keys.DismissSelection()
	}
	redirectHome(w, r)
}

func (s *Server) handleShareForm(w http.ResponseWriter, r *http.Request) {
	b, ok := s.bannerFromPath(r)
	if !ok || s.sharer == nil {
		http.NotFound(w, r)
		return
	}
	if err := s.sharer.Share(b); err != nil {
		s.logger.Error("share failed", "err", err, "timestamp", b.Timestamp)
		http.Error(w, "failed to share banner", http.StatusBadGateway)
		return
	}
	redirectHome(w, r)
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func parseBool(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}
