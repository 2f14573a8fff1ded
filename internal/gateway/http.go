package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"booking-requests-api/internal/rpc"
)

const maxBody = 1 << 20

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// serve adapts a service method to HTTP: decode, call, encode.
func serve[Req, Resp any](g *Gateway, code int, decode func(*http.Request) (*Req, error),
	fn func(context.Context, *Req) (*Resp, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		req, err := decode(r)
		if err != nil {
			g.writeError(w, err)
			return
		}
		resp, err := fn(r.Context(), req)
		if err != nil {
			g.writeError(w, err)
			return
		}
		if code == http.StatusNoContent {
			w.WriteHeader(code)
			return
		}
		writeJSON(w, code, resp)
	}
}

// body decodes the JSON request body. An empty body is an empty message.
func body[Req any](r *http.Request) (*Req, error) {
	req := new(Req)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil && !errors.Is(err, io.EOF) {
		return nil, status.Error(codes.InvalidArgument, "invalid JSON body")
	}
	return req, nil
}

func none(*http.Request) (*emptypb.Empty, error) { return &emptypb.Empty{}, nil }

func listQuery(r *http.Request) (*rpc.ListRequest, error) {
	return &rpc.ListRequest{Status: r.URL.Query().Get("status")}, nil
}

func pathID(r *http.Request) (*rpc.GetRequest, error) {
	return &rpc.GetRequest{ID: mux.Vars(r)["id"]}, nil
}

// decision reads {"status": "..."} and takes the id from the path.
func decision(r *http.Request) (*rpc.SetStatusRequest, error) {
	req, err := body[rpc.SetStatusRequest](r)
	if err != nil {
		return nil, err
	}
	req.ID = mux.Vars(r)["id"]
	return req, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

var httpStatus = map[codes.Code]int{
	codes.InvalidArgument:    http.StatusBadRequest,
	codes.Unauthenticated:    http.StatusUnauthorized,
	codes.PermissionDenied:   http.StatusForbidden,
	codes.NotFound:           http.StatusNotFound,
	codes.AlreadyExists:      http.StatusConflict,
	codes.FailedPrecondition: http.StatusConflict,
	codes.ResourceExhausted:  http.StatusTooManyRequests,
	codes.Unimplemented:      http.StatusNotImplemented,
	codes.Canceled:           499,
	codes.DeadlineExceeded:   http.StatusGatewayTimeout,
	codes.Unavailable:        http.StatusServiceUnavailable,
}

// writeError renders a status error; field violations become "fields".
func (g *Gateway) writeError(w http.ResponseWriter, err error) {
	st := status.Convert(err)
	code, ok := httpStatus[st.Code()]
	if !ok {
		code = http.StatusInternalServerError
	}
	out := errorBody{Error: st.Message()}
	if code == http.StatusInternalServerError {
		g.log.Error("request failed", zap.Error(err))
		out.Error = "internal error"
	}
	for _, d := range st.Details() {
		br, ok := d.(*errdetails.BadRequest)
		if !ok {
			continue
		}
		out.Fields = make(map[string]string, len(br.GetFieldViolations()))
		for _, v := range br.GetFieldViolations() {
			out.Fields[v.GetField()] = v.GetDescription()
		}
	}
	writeJSON(w, code, out)
}
