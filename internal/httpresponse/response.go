package httpresponse

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type Response[T any] struct {
	Status int `json:"Status"`
	Body   any `json:"Body,omitempty"`
}

type ErrorResponse struct {
	ErrorDescription string `json:"ErrorDescription"`
}

const INTERNALERRORJSON = "{\"status\": 500,\"body\":{\"error\": \"Internal server error\"}}"

const MALFORMEDJSON_errorDesc = "json unmarshalling error"

func WriteResponseWithStatus(w http.ResponseWriter, status int, body any) {
	jsonByte, err := marshalStatusJson(status, body)
	if err != nil {
		WriteInternalErrorResponse(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(jsonByte)
}

func WriteErrorWithStatus(w http.ResponseWriter, status int, err error) {
	WriteResponseWithStatus(w, status, ErrorResponse{ErrorDescription: err.Error()})
}

func marshalStatusJson(status int, body any) ([]byte, error) {
	response := Response[any]{
		Status: status,
		Body:   body,
	}
	marshal, err := json.Marshal(response)
	if err != nil {
		return nil, err
	}
	return marshal, nil
}

func WriteHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = fmt.Fprint(w, body)
}

func WriteInternalErrorResponse(w http.ResponseWriter) {
	// implementation similar to http.Error, only difference is the Content-type
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(500)
	_, _ = fmt.Fprintln(w, INTERNALERRORJSON)
}
