package server

import (
	"net/http"
	"strconv"

	"github.com/matzehuels/dotlive/pkg/engine"
	"github.com/matzehuels/dotlive/pkg/errors"
	"github.com/matzehuels/dotlive/pkg/export"
	"github.com/matzehuels/dotlive/pkg/httputil"
	"github.com/matzehuels/dotlive/pkg/render"
	"github.com/matzehuels/dotlive/pkg/sharelink"
)

type renderRequest struct {
	Source string `json:"source"`
	// Config is configuration text merged over the defaults.
	Config string `json:"config,omitempty"`
}

type renderResponse struct {
	ID     string  `json:"id"`
	SVG    string  `json:"svg"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Cached bool    `json:"cached"`
}

type renderErrorResponse struct {
	httputil.ErrorBody
	Placeholder string `json:"placeholder"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	eng := s.newEngine()
	if req.Config != "" {
		cfg, err := engine.ParseConfig(req.Config, eng.Config())
		if err == nil {
			err = eng.SetConfig(cfg)
		}
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	doc, err := eng.Render(r.Context(), render.NewID(), req.Source)
	if err != nil {
		if engine.IsSyntax(err) {
			httputil.WriteJSON(w, http.StatusUnprocessableEntity, renderErrorResponse{
				ErrorBody:   httputil.ErrorBody{Error: errors.UserMessage(err), Code: errors.ErrCodeSyntax},
				Placeholder: render.ErrorPlaceholder,
			})
			return
		}
		s.logger.Error("render", "err", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, renderResponse{
		ID:     doc.ID,
		SVG:    string(doc.SVG),
		Width:  doc.Width,
		Height: doc.Height,
		Cached: doc.Cached,
	})
}

type exportRequest struct {
	SVG        string `json:"svg"`
	Background string `json:"background,omitempty"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.Background == "" {
		req.Background = s.opts.Background
	}
	bg, err := export.ParseColor(req.Background)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := s.opts.Exporter.Export(r.Context(), []byte(req.SVG), bg)
	if err != nil {
		s.logger.Warn("export", "err", err)
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", export.MediaPNG)
	w.Header().Set("Content-Disposition", `attachment; filename="`+res.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.PNG)))
	w.WriteHeader(http.StatusOK)
	w.Write(res.PNG)
}

type shareRequest struct {
	Source string `json:"source"`
}

type shareResponse struct {
	URL  string `json:"url"`
	Code string `json:"code"`
}

type sourceResponse struct {
	Source string `json:"source"`
}

func (s *Server) handleShareEncode(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	link, err := sharelink.BuildURL(s.origin(r), req.Source)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, shareResponse{URL: link, Code: sharelink.Encode(req.Source)})
}

func (s *Server) handleShareDecode(w http.ResponseWriter, r *http.Request) {
	source, found, err := sharelink.FromQuery(r.URL.Query())
	if err == nil && !found {
		err = errors.New(errors.ErrCodeInvalidShareLink, "missing %q parameter", sharelink.Param)
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sourceResponse{Source: source})
}
