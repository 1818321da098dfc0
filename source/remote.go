package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/lodastack/log"

	"github.com/lodastack/meterboard/common"
	"github.com/lodastack/meterboard/model"
	"github.com/lodastack/meterboard/utils"
)

const defaultTimeout = 5

// Remote reads objects and settings from the management API.
type Remote struct {
	base    string
	timeout int
	logger  *log.Logger
}

// NewRemote returns a source for the API rooted at base.
func NewRemote(base string, timeout int) (*Remote, error) {
	if _, err := url.ParseRequestURI(base); err != nil || base == "" {
		return nil, fmt.Errorf("remote %q: %w", base, common.ErrInvalidParam)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Remote{
		base:    strings.TrimRight(base, "/"),
		timeout: timeout,
		logger:  log.New("INFO", "source", model.LogBackend),
	}, nil
}

func (r *Remote) get(ctx context.Context, path string, params url.Values) (utils.HttpResult, error) {
	q := utils.HttpQuery{
		Method:  http.MethodGet,
		Url:     r.base + path,
		Params:  params,
		Timeout: r.timeout,
		Header:  map[string]string{"Accept": "application/json"},
	}
	if err := q.DoQuery(ctx); err != nil {
		r.logger.Errorf("query %s fail: %s", q.Url, err.Error())
		return q.Result, err
	}
	return q.Result, nil
}

func (r *Remote) Object(ctx context.Context, objectID int64) (model.Object, error) {
	var o model.Object
	res, err := r.get(ctx, "/api/objects/objectid/"+strconv.FormatInt(objectID, 10), nil)
	if err != nil {
		return o, err
	}
	if res.Status == http.StatusNotFound {
		return o, objectNotFound(objectID)
	}
	if !res.OK() {
		return o, fmt.Errorf("object %d: remote status %d", objectID, res.Status)
	}
	if err := json.Unmarshal(res.Body, &o); err != nil {
		return o, err
	}
	return o, nil
}

func (r *Remote) Settings(ctx context.Context, category string) ([]model.Setting, error) {
	res, err := r.get(ctx, "/api/settings", url.Values{"category": []string{category}})
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, fmt.Errorf("settings %s: remote status %d", category, res.Status)
	}
	settings := []model.Setting{}
	if err := json.Unmarshal(res.Body, &settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (r *Remote) Close() error { return nil }
