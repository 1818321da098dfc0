package utils

import (
	"bytes"
	"context"
	"errors"
	"io/ioutil"
	"net/http"
	"net/url"
	"time"
)

var (
	Form = "form"
	Raw  = "raw"
	JSON = "json"
)

var ErrBodyType = errors.New("unknown request body type")

// HttpQuery is one outbound request. Result is filled by DoQuery.
type HttpQuery struct {
	// Timeout in seconds, 0 means no client timeout.
	Timeout  int
	Method   string
	Url      string
	Params   url.Values
	Header   map[string]string
	BodyType string
	Body     []byte
	Result   HttpResult
}

type HttpResult struct {
	Status int
	Body   []byte
}

// OK reports a 2xx status.
func (r HttpResult) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

func contentType(bodyType string) (string, error) {
	switch bodyType {
	case Form:
		return "application/x-www-form-urlencoded", nil
	case JSON:
		return "application/json", nil
	case Raw:
		return "", nil
	}
	return "", ErrBodyType
}

// DoQuery sends the request and reads the whole response body.
func (query *HttpQuery) DoQuery(ctx context.Context) error {
	u, err := url.Parse(query.Url)
	if err != nil {
		return err
	}
	if len(query.Params) > 0 {
		q := u.Query()
		for k, vs := range query.Params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	client := &http.Client{Timeout: time.Duration(query.Timeout) * time.Second}
	req, err := http.NewRequestWithContext(ctx, query.Method, u.String(), bytes.NewReader(query.Body))
	if err != nil {
		return err
	}

	if query.Method != http.MethodGet {
		ct, err := contentType(query.BodyType)
		if err != nil {
			return err
		}
		if ct != "" {
			req.Header.Set("Content-Type", ct)
		}
	}
	for k, v := range query.Header {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	query.Result.Status = res.StatusCode
	query.Result.Body, err = ioutil.ReadAll(res.Body)
	if err != nil {
		return errors.New("error in read response body")
	}
	return nil
}
