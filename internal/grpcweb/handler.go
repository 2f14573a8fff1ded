// Package grpcweb lets browsers call the booking service with gRPC-Web
// (HTTP/1.1, application/grpc-web+json). Frames are forwarded unchanged to
// the native gRPC server.
package grpcweb

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"slices"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"

	"booking-requests-api/internal/middleware"
	"booking-requests-api/internal/rpc"
)

const (
	contentType = "application/grpc-web+json"
	maxBody     = 1 << 20

	flagData    = 0x00
	flagTrailer = 0x80
)

// Bridge translates gRPC-Web (browser HTTP/1.1) to native gRPC over TCP.
type Bridge struct {
	conn    *grpc.ClientConn
	log     *zap.Logger
	origins []string
	key     string
}

// New dials the gRPC server at addr (e.g. "localhost:50051").
// origins lists the allowed CORS origins; "*" allows any.
func New(addr string, origins []string, log *zap.Logger) (*Bridge, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpcweb dial: %w", err)
	}
	return NewWithConn(conn, origins, log), nil
}

func NewWithConn(conn *grpc.ClientConn, origins []string, log *zap.Logger) *Bridge {
	return &Bridge{conn: conn, log: log, origins: origins}
}

// SetForwardKey sends key with every call so the server's rate limiter
// trusts the browser address the bridge forwards.
func (b *Bridge) SetForwardKey(key string) { b.key = key }

func (b *Bridge) Close() error { return b.conn.Close() }

func (b *Bridge) allowOrigin(origin string) string {
	if slices.Contains(b.origins, "*") {
		if origin == "" {
			return "*"
		}
		return origin
	}
	if slices.Contains(b.origins, origin) {
		return origin
	}
	return ""
}

// Handler serves every BookingService method under its gRPC path,
// e.g. POST /booking.v1.BookingService/Login.
func (b *Bridge) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if o := b.allowOrigin(r.Header.Get("Origin")); o != "" {
			w.Header().Set("Access-Control-Allow-Origin", o)
			w.Header().Set("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers",
			"Content-Type, X-Grpc-Web, X-User-Agent, Authorization, x-grpc-web")
		w.Header().Set("Access-Control-Expose-Headers",
			"Grpc-Status, Grpc-Message, Grpc-Status-Details-Bin, grpc-status, grpc-message")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/grpc-web") {
			http.Error(w, "not grpc-web", http.StatusUnsupportedMediaType)
			return
		}
		if !strings.HasPrefix(r.URL.Path, "/"+rpc.ServiceName+"/") {
			writeError(w, status.New(codes.Unimplemented, "unknown method"))
			return
		}

		b.log.Debug("grpc-web", zap.String("method", r.URL.Path))
		payload, err := readFrame(http.MaxBytesReader(w, r.Body, maxBody))
		if err != nil {
			writeError(w, status.New(codes.InvalidArgument, err.Error()))
			return
		}

		ctx := metadata.NewOutgoingContext(r.Context(), b.forwarded(r))
		if r.URL.Path == rpc.MethodWatch {
			b.stream(ctx, w, r.URL.Path, payload)
			return
		}

		resp := &rawMsg{}
		err = b.conn.Invoke(ctx, r.URL.Path, &rawMsg{data: payload}, resp, grpc.ForceCodec(rawCodec{}))
		if err != nil {
			st := status.Convert(err)
			b.log.Debug("grpc-web error", zap.String("code", st.Code().String()), zap.String("msg", st.Message()))
			writeError(w, st)
			return
		}
		writeHeader(w)
		writeFrame(w, flagData, resp.data)
		writeFrame(w, flagTrailer, trailer(status.New(codes.OK, "")))
	})
}

// stream relays a server-streaming call, flushing every message.
func (b *Bridge) stream(ctx context.Context, w http.ResponseWriter, method string, payload []byte) {
	desc := &grpc.StreamDesc{StreamName: "Watch", ServerStreams: true}
	cs, err := b.conn.NewStream(ctx, desc, method, grpc.ForceCodec(rawCodec{}))
	if err == nil {
		err = cs.SendMsg(&rawMsg{data: payload})
	}
	if err == nil {
		err = cs.CloseSend()
	}
	if err != nil {
		writeError(w, status.Convert(err))
		return
	}

	writeHeader(w)
	flusher, _ := w.(http.Flusher)
	for {
		m := &rawMsg{}
		err := cs.RecvMsg(m)
		if errors.Is(err, io.EOF) {
			writeFrame(w, flagTrailer, trailer(status.New(codes.OK, "")))
			return
		}
		if err != nil {
			writeFrame(w, flagTrailer, trailer(status.Convert(err)))
			return
		}
		writeFrame(w, flagData, m.data)
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// forwarded copies the caller's token and address into outgoing metadata.
func (b *Bridge) forwarded(r *http.Request) metadata.MD {
	md := metadata.MD{}
	if vals := r.Header.Values("Authorization"); len(vals) > 0 {
		md.Set("authorization", vals...)
	}
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	md.Set("x-forwarded-for", ip)
	if b.key != "" {
		md.Set(middleware.BridgeKeyHeader, b.key)
	}
	return md
}

// readFrame returns the payload of the first data frame. An empty body is
// an empty message.
func readFrame(body io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.New("read body failed")
	}
	if len(raw) == 0 {
		return nil, nil
	}
	if len(raw) < 5 {
		return nil, errors.New("body too short")
	}
	// 1-byte flag, 4-byte big-endian length, message
	n := binary.BigEndian.Uint32(raw[1:5])
	if uint64(n)+5 > uint64(len(raw)) {
		return nil, errors.New("incomplete frame")
	}
	return raw[5 : 5+n], nil
}

// rawMsg wraps raw JSON bytes.
type rawMsg struct{ data []byte }

// rawCodec passes bytes through untouched. It reports the json name so the
// server decodes with its registered JSON codec.
type rawCodec struct{}

func (rawCodec) Marshal(v any) ([]byte, error) {
	return v.(*rawMsg).data, nil
}

func (rawCodec) Unmarshal(data []byte, v any) error {
	m := v.(*rawMsg)
	m.data = append([]byte(nil), data...)
	return nil
}

func (rawCodec) Name() string { return rpc.CodecName }

func writeHeader(w http.ResponseWriter) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
}

func writeError(w http.ResponseWriter, st *status.Status) {
	writeHeader(w)
	writeFrame(w, flagTrailer, trailer(st))
}

func writeFrame(w io.Writer, flag byte, data []byte) {
	f := make([]byte, 5+len(data))
	f[0] = flag
	binary.BigEndian.PutUint32(f[1:5], uint32(len(data)))
	copy(f[5:], data)
	w.Write(f)
}

func trailer(st *status.Status) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "grpc-status:%d\r\n", st.Code())
	if st.Code() == codes.OK {
		return []byte(sb.String())
	}
	fmt.Fprintf(&sb, "grpc-message:%s\r\n", encodeMessage(st.Message()))
	if len(st.Details()) > 0 {
		if b, err := proto.Marshal(st.Proto()); err == nil {
			fmt.Fprintf(&sb, "grpc-status-details-bin:%s\r\n", base64.RawStdEncoding.EncodeToString(b))
		}
	}
	return []byte(sb.String())
}

// encodeMessage percent-encodes grpc-message the way the gRPC wire format
// requires.
func encodeMessage(msg string) string {
	var sb strings.Builder
	for i := 0; i < len(msg); i++ {
		c := msg[i]
		if c >= ' ' && c <= '~' && c != '%' {
			sb.WriteByte(c)
			continue
		}
		fmt.Fprintf(&sb, "%%%02X", c)
	}
	return sb.String()
}
