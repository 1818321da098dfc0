package httpd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/julienschmidt/httprouter"

	"github.com/lodastack/meterboard/common"
	"github.com/lodastack/meterboard/limit"
	"github.com/lodastack/meterboard/meter"
	"github.com/lodastack/meterboard/model"
	"github.com/lodastack/meterboard/planner"
	"github.com/lodastack/meterboard/source"
	"github.com/lodastack/meterboard/timerange"
	"github.com/lodastack/meterboard/view"
)

// renderedTab is a tab with every panel rendered.
type renderedTab struct {
	ID     string            `json:"id"`
	Label  string            `json:"label"`
	Panels []view.PanelFrame `json:"panels"`
}

type renderedObject struct {
	ObjectID  int64           `json:"objectid"`
	Kind      planner.Kind    `json:"kind"`
	TimeRange string          `json:"timerange"`
	Range     timerange.Range `json:"range"`
	Tabs      []renderedTab   `json:"tabs"`
}

type objectError struct {
	ObjectID int64  `json:"objectid"`
	Msg      string `json:"msg"`
}

func (s *Service) handlerTimeRanges(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ReturnJson(w, http.StatusOK, s.catalog())
}

func (s *Service) handlerTabs(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	objectID, err := parseObjectID(ps.ByName("objectid"))
	if err != nil {
		ReturnBadRequest(w, err)
		return
	}
	oc, err := s.load(r.Context(), objectID, r.FormValue("mode"))
	if err != nil {
		s.logger.Errorf("handlerTabs load object %d fail: %s", objectID, err.Error())
		ReturnError(w, err)
		return
	}
	ReturnJson(w, http.StatusOK, s.tabs(oc))
}

// render builds every panel URL of the object with default counters.
func (s *Service) render(oc *objectContext, value string, histogram bool) renderedObject {
	if value == "" {
		value = oc.timeRange
	}
	var rng timerange.Range
	if value != "" {
		rng = s.catalog().Resolve(value)
	}
	plan := s.tabs(oc)
	out := renderedObject{
		ObjectID:  oc.object.ObjectID,
		Kind:      plan.Kind,
		TimeRange: value,
		Range:     rng,
		Tabs:      make([]renderedTab, 0, len(plan.Tabs)),
	}
	for _, t := range plan.Tabs {
		rt := renderedTab{ID: t.ID, Label: t.Label, Panels: make([]view.PanelFrame, 0, len(t.Panels))}
		for _, p := range t.Panels {
			rt.Panels = append(rt.Panels, view.RenderPanel(oc.builder, oc.reg, p, "", rng, histogram))
		}
		out.Tabs = append(out.Tabs, rt)
	}
	return out
}

func (s *Service) handlerURLs(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	objectID, err := parseObjectID(ps.ByName("objectid"))
	if err != nil {
		ReturnBadRequest(w, err)
		return
	}
	oc, err := s.load(r.Context(), objectID, r.FormValue("mode"))
	if err != nil {
		s.logger.Errorf("handlerURLs load object %d fail: %s", objectID, err.Error())
		ReturnError(w, err)
		return
	}
	ReturnJson(w, http.StatusOK, s.render(oc, r.FormValue("timerange"), r.FormValue("histogram") == "true"))
}

// handlerBatchURLs renders several distinct objects, loading at most Fanout
// at once.
// Objects that fail are reported next to the rendered ones.
func (s *Service) handlerBatchURLs(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var raw []string
	for _, v := range strings.Split(r.FormValue("ids"), ",") {
		raw, _ = common.AddIfNotContain(raw, strings.TrimSpace(v))
	}
	var ids []int64
	for _, v := range raw {
		id, err := parseObjectID(v)
		if err != nil {
			ReturnBadRequest(w, err)
			return
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		ReturnBadRequest(w, fmt.Errorf("ids is empty: %w", common.ErrInvalidParam))
		return
	}

	var (
		mu       sync.Mutex
		rendered = make([]renderedObject, 0, len(ids))
		failed   = []objectError{}
	)
	value, mode, histogram := r.FormValue("timerange"), r.FormValue("mode"), r.FormValue("histogram") == "true"
	l := limit.NewLimit(s.opts.Fanout)
	for _, id := range ids {
		id := id
		l.Go(r.Context(), func(ctx context.Context) error {
			oc, err := s.load(ctx, id, mode)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, objectError{ObjectID: id, Msg: err.Error()})
				return err
			}
			rendered = append(rendered, s.render(oc, value, histogram))
			return nil
		})
	}
	if errs := l.Wait(); len(errs) > 0 {
		s.logger.Errorf("handlerBatchURLs %d of %d objects fail", len(errs), len(ids))
	}

	sort.Slice(rendered, func(i, j int) bool { return rendered[i].ObjectID < rendered[j].ObjectID })
	sort.Slice(failed, func(i, j int) bool { return failed[i].ObjectID < failed[j].ObjectID })
	ReturnJson(w, http.StatusOK, map[string]interface{}{"objects": rendered, "errors": failed})
}

func (s *Service) handlerResolve(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ref := r.FormValue("ref")
	objectID, err := parseObjectID(r.FormValue("objectid"))
	if err != nil {
		ReturnBadRequest(w, err)
		return
	}
	o, err := s.src.Object(r.Context(), objectID)
	if err != nil {
		ReturnError(w, err)
		return
	}
	reg := meter.FromObject(o, s.logger)
	ReturnJson(w, http.StatusOK, map[string]string{"ref": ref, "id": reg.Resolve(ref)})
}

type patchRequest struct {
	URL       string `json:"url"`
	ObjectID  int64  `json:"objectid"`
	Ref       string `json:"ref"`
	TimeRange string `json:"timerange"`
	PanelID   string `json:"panelId"`
}

// handlerPatch updates the owned parameters of an existing URL. Without
// objectid the counter reference is used as a literal id.
func (s *Service) handlerPatch(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req patchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		ReturnBadRequest(w, fmt.Errorf("url is required: %w", common.ErrInvalidParam))
		return
	}

	var reg *meter.Registry
	if req.ObjectID != 0 && req.Ref != "" {
		o, err := s.src.Object(r.Context(), req.ObjectID)
		if err != nil {
			ReturnError(w, err)
			return
		}
		reg = meter.FromObject(o, s.logger)
	}

	url := req.URL
	if req.Ref != "" {
		url = s.builder.Patch(url, req.Ref, reg)
	}
	if req.TimeRange != "" {
		url = s.builder.PatchTimeRange(url, s.catalog().Resolve(req.TimeRange))
	}
	if req.PanelID != "" {
		url = s.builder.PatchPanelID(url, req.PanelID)
	}
	ReturnJson(w, http.StatusOK, map[string]string{"url": url})
}

func (s *Service) writer() (source.Writer, error) {
	wr, ok := s.src.(source.Writer)
	if !ok {
		return nil, common.ErrReadOnlySource
	}
	return wr, nil
}

func (s *Service) handlerObjectPut(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	wr, err := s.writer()
	if err != nil {
		ReturnError(w, err)
		return
	}
	var o model.Object
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
		ReturnBadRequest(w, fmt.Errorf("decode object: %s: %w", err.Error(), common.ErrInvalidParam))
		return
	}
	if err := wr.PutObject(r.Context(), o); err != nil {
		s.logger.Errorf("handlerObjectPut object %d fail: %s", o.ObjectID, err.Error())
		ReturnError(w, err)
		return
	}
	s.plans.Invalidate(o.ObjectID)
	ReturnOK(w, "success")
}

func (s *Service) handlerSettingPut(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	wr, err := s.writer()
	if err != nil {
		ReturnError(w, err)
		return
	}
	var setting model.Setting
	if err := json.NewDecoder(r.Body).Decode(&setting); err != nil {
		ReturnBadRequest(w, fmt.Errorf("decode setting: %s: %w", err.Error(), common.ErrInvalidParam))
		return
	}
	if err := wr.PutSetting(r.Context(), setting); err != nil {
		s.logger.Errorf("handlerSettingPut %s fail: %s", setting.Key(), err.Error())
		ReturnError(w, err)
		return
	}
	ReturnOK(w, "success")
}

type backuper interface {
	Backup() ([]byte, error)
}

func (s *Service) handlerBackup(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	b, ok := s.src.(backuper)
	if !ok {
		ReturnError(w, common.ErrReadOnlySource)
		return
	}
	data, err := b.Backup()
	if err != nil {
		s.logger.Errorf("handlerBackup fail: %s", err.Error())
		ReturnServerError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(data)
}
