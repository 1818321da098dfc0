package utils

import (
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestDoQuery(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("category") != "grafana" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.Method == http.MethodPost {
			if r.Header.Get("Content-Type") != "application/json" {
				w.WriteHeader(http.StatusUnsupportedMediaType)
				return
			}
			body, _ := ioutil.ReadAll(r.Body)
			w.Write(body)
			return
		}
		w.Write([]byte(r.Header.Get("X-Token")))
	}))
	defer ts.Close()

	q := HttpQuery{
		Method: http.MethodGet,
		Url:    ts.URL + "/api/settings",
		Params: url.Values{"category": []string{"grafana"}},
		Header: map[string]string{"X-Token": "abc"},
	}
	if err := q.DoQuery(context.Background()); err != nil {
		t.Fatalf("query fail: %s", err.Error())
	}
	if !q.Result.OK() || string(q.Result.Body) != "abc" {
		t.Fatalf("unexpected result: %d %s", q.Result.Status, string(q.Result.Body))
	}

	q = HttpQuery{
		Method:   http.MethodPost,
		Url:      ts.URL + "/api/settings?category=grafana",
		BodyType: JSON,
		Body:     []byte(`{"a":1}`),
	}
	if err := q.DoQuery(context.Background()); err != nil {
		t.Fatalf("query fail: %s", err.Error())
	}
	if string(q.Result.Body) != `{"a":1}` {
		t.Fatalf("unexpected result: %d %s", q.Result.Status, string(q.Result.Body))
	}

	q.BodyType = "xml"
	if err := q.DoQuery(context.Background()); err != ErrBodyType {
		t.Fatalf("unknown body type should fail, got: %v", err)
	}
}
