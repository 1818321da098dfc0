package httpd

import (
	"errors"
	"net/http"

	"github.com/pquerna/ffjson/ffjson"

	"github.com/lodastack/meterboard/common"
)

var errMarshalOutput = errors.New("Marshal JSON output fail.")

// Response is the envelope of every API answer.
type Response struct {
	HttpStatus int         `json:"httpstatus"`
	Msg        string      `json:"msg"`
	Data       interface{} `json:"data"`
}

// If marshal JSON fail, return 500.
func (r *Response) Write(w http.ResponseWriter) {
	if r.HttpStatus == 0 {
		r.HttpStatus = http.StatusOK
	}
	body, err := ffjson.Marshal(r)
	if err != nil {
		body, _ = ffjson.Marshal(Response{HttpStatus: http.StatusInternalServerError, Msg: errMarshalOutput.Error()})
		r.HttpStatus = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(r.HttpStatus)
	w.Write(body)
}

// Return 200 http status.
func ReturnOK(w http.ResponseWriter, msg string) {
	(&Response{HttpStatus: http.StatusOK, Msg: msg}).Write(w)
}

// Return 400 http status.
func ReturnBadRequest(w http.ResponseWriter, err error) {
	(&Response{HttpStatus: http.StatusBadRequest, Msg: err.Error()}).Write(w)
}

// Return 404 http status.
func ReturnNotFound(w http.ResponseWriter, err error) {
	(&Response{HttpStatus: http.StatusNotFound, Msg: err.Error()}).Write(w)
}

// Return 500 http status.
func ReturnServerError(w http.ResponseWriter, err error) {
	(&Response{HttpStatus: http.StatusInternalServerError, Msg: err.Error()}).Write(w)
}

// ReturnError picks the status from the error kind.
func ReturnError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidParam), errors.Is(err, common.ErrReadOnlySource):
		ReturnBadRequest(w, err)
	case errors.Is(err, common.ErrObjectNotFound), errors.Is(err, common.ErrSessionNotFound),
		errors.Is(err, common.ErrSettingNotFound):
		ReturnNotFound(w, err)
	default:
		ReturnServerError(w, err)
	}
}

func ReturnJson(w http.ResponseWriter, httpStatus int, data interface{}) {
	if httpStatus == 0 {
		httpStatus = http.StatusOK
	}
	(&Response{HttpStatus: httpStatus, Msg: "success", Data: data}).Write(w)
}
