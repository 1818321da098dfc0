package httpd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/lodastack/meterboard/common"
	"github.com/lodastack/meterboard/view"
)

func (s *Service) initSessionHandler() {
	s.router.POST("/api/v1/sessions", s.handlerSessionNew)
	s.router.GET("/api/v1/sessions/:id", s.handlerSessionGet)
	s.router.DELETE("/api/v1/sessions/:id", s.handlerSessionDel)
	s.router.GET("/api/v1/sessions/:id/ws", s.handlerSessionWS)

	s.router.POST("/api/v1/sessions/:id/tab", s.handlerSessionTab)
	s.router.POST("/api/v1/sessions/:id/counter", s.handlerSessionCounter)
	s.router.POST("/api/v1/sessions/:id/histogram", s.handlerSessionHistogram)
	s.router.POST("/api/v1/sessions/:id/timerange", s.handlerSessionTimeRange)
	s.router.POST("/api/v1/sessions/:id/object", s.handlerSessionObject)
}

// sessionRequest is the body of every session action; each action reads
// the fields it needs.
type sessionRequest struct {
	ObjectID  int64  `json:"objectid"`
	Mode      string `json:"mode"`
	TimeRange string `json:"timerange"`
	Tab       *int   `json:"tab"`
	TabID     string `json:"tabId"`
	PanelID   string `json:"panelId"`
	Ref       string `json:"ref"`
}

type sessionResponse struct {
	ID      string     `json:"id"`
	Changed bool       `json:"changed"`
	Visible *bool      `json:"visible,omitempty"`
	Frame   view.Frame `json:"frame"`
}

func decodeSessionRequest(r *http.Request) (sessionRequest, error) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		return req, fmt.Errorf("decode body: %s: %w", err.Error(), common.ErrInvalidParam)
	}
	return req, nil
}

func (s *Service) handlerSessionNew(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req, err := decodeSessionRequest(r)
	if err != nil {
		ReturnBadRequest(w, err)
		return
	}
	if req.ObjectID <= 0 {
		ReturnBadRequest(w, fmt.Errorf("objectid is required: %w", common.ErrInvalidParam))
		return
	}
	oc, err := s.load(r.Context(), req.ObjectID, req.Mode)
	if err != nil {
		s.logger.Errorf("handlerSessionNew load object %d fail: %s", req.ObjectID, err.Error())
		ReturnError(w, err)
		return
	}

	timeRange := req.TimeRange
	if timeRange == "" {
		timeRange = oc.timeRange
	}
	vs := newViewSession()
	vs.view = view.New(oc.reg, s.tabs(oc).Tabs, view.Config{
		Builder:   oc.builder,
		Catalog:   s.catalog(),
		Debounce:  s.opts.Debounce,
		TimeRange: timeRange,
		OnRender:  vs.broadcast,
		Logger:    s.logger,
	})
	s.sessions.Set(vs)
	s.logger.Infof("session %s opened for object %d", vs.id, req.ObjectID)
	ReturnJson(w, http.StatusOK, sessionResponse{ID: vs.id, Changed: true, Frame: vs.view.Frame()})
}

// session looks up the session of the route and decodes the body.
func (s *Service) session(w http.ResponseWriter, r *http.Request, ps httprouter.Params) (*viewSession, sessionRequest, bool) {
	vs, err := s.sessions.Get(ps.ByName("id"))
	if err != nil {
		ReturnError(w, err)
		return nil, sessionRequest{}, false
	}
	req, err := decodeSessionRequest(r)
	if err != nil {
		ReturnBadRequest(w, err)
		return nil, req, false
	}
	return vs, req, true
}

func (s *Service) handlerSessionGet(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	vs, err := s.sessions.Get(ps.ByName("id"))
	if err != nil {
		ReturnError(w, err)
		return
	}
	ReturnJson(w, http.StatusOK, sessionResponse{ID: vs.id, Frame: vs.view.Frame()})
}

func (s *Service) handlerSessionDel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := s.sessions.Delete(ps.ByName("id")); err != nil {
		ReturnError(w, err)
		return
	}
	ReturnOK(w, "success")
}

// handlerSessionTab selects a tab by index or id. A request dropped by the
// switch debounce answers changed=false.
func (s *Service) handlerSessionTab(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	vs, req, ok := s.session(w, r, ps)
	if !ok {
		return
	}
	var changed bool
	switch {
	case req.TabID != "":
		changed = vs.view.SelectTabID(req.TabID)
	case req.Tab != nil:
		changed = vs.view.SelectTab(*req.Tab)
	default:
		ReturnBadRequest(w, fmt.Errorf("tab or tabId is required: %w", common.ErrInvalidParam))
		return
	}
	ReturnJson(w, http.StatusOK, sessionResponse{ID: vs.id, Changed: changed, Frame: vs.view.Frame()})
}

func (s *Service) handlerSessionCounter(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	vs, req, ok := s.session(w, r, ps)
	if !ok {
		return
	}
	if req.PanelID == "" || req.Ref == "" {
		ReturnBadRequest(w, fmt.Errorf("panelId and ref are required: %w", common.ErrInvalidParam))
		return
	}
	changed := vs.view.SelectCounter(req.PanelID, req.Ref)
	ReturnJson(w, http.StatusOK, sessionResponse{ID: vs.id, Changed: changed, Frame: vs.view.Frame()})
}

func (s *Service) handlerSessionHistogram(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	vs, req, ok := s.session(w, r, ps)
	if !ok {
		return
	}
	if req.PanelID == "" {
		ReturnBadRequest(w, fmt.Errorf("panelId is required: %w", common.ErrInvalidParam))
		return
	}
	visible, changed := vs.view.ToggleHistogram(req.PanelID)
	ReturnJson(w, http.StatusOK, sessionResponse{ID: vs.id, Changed: changed, Visible: &visible, Frame: vs.view.Frame()})
}

func (s *Service) handlerSessionTimeRange(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	vs, req, ok := s.session(w, r, ps)
	if !ok {
		return
	}
	vs.view.SetTimeRange(req.TimeRange)
	ReturnJson(w, http.StatusOK, sessionResponse{ID: vs.id, Changed: true, Frame: vs.view.Frame()})
}

// handlerSessionObject moves the session to another object and resets
// every selection.
func (s *Service) handlerSessionObject(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	vs, req, ok := s.session(w, r, ps)
	if !ok {
		return
	}
	if req.ObjectID <= 0 {
		ReturnBadRequest(w, fmt.Errorf("objectid is required: %w", common.ErrInvalidParam))
		return
	}
	oc, err := s.load(r.Context(), req.ObjectID, req.Mode)
	if err != nil {
		ReturnError(w, err)
		return
	}
	vs.view.ChangeObject(oc.reg, s.tabs(oc).Tabs)
	ReturnJson(w, http.StatusOK, sessionResponse{ID: vs.id, Changed: true, Frame: vs.view.Frame()})
}
