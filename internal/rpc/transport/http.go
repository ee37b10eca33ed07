// Package transport provides a thin JSON-over-HTTP front end for the
// five RPCs: a net/http ServeMux with one handler function per route,
// each doing read body / call handler / write response. Framing is
// explicitly out of scope per spec.md §1 — this exists only to make
// the module runnable end-to-end.
package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/reinferio/saltfish/internal/logging"
	"github.com/reinferio/saltfish/internal/rpc"
)

// Handlers is the subset of rpchandlers.Handlers this transport calls
// into, named here so the transport package does not import
// rpchandlers' store-layer dependencies.
type Handlers interface {
	CreateDataset(ctx context.Context, req rpc.CreateDatasetRequest) rpc.CreateDatasetResponse
	DeleteDataset(ctx context.Context, req rpc.DeleteDatasetRequest) rpc.DeleteDatasetResponse
	GenerateId(ctx context.Context, req rpc.GenerateIdRequest) rpc.GenerateIdResponse
	GetDatasets(ctx context.Context, req rpc.GetDatasetsRequest) rpc.GetDatasetsResponse
	PutRecords(ctx context.Context, req rpc.PutRecordsRequest) rpc.PutRecordsResponse
}

// Server is the HTTP front end, one POST route per RPC.
type Server struct {
	handlers Handlers
	log      *logging.Logger

	// ConnectionTimeout and RequestTimeout are the deadlines of spec.md
	// §5 ("3000 ms per connection, 3000 ms per request"), the idiomatic
	// context.Context substitute for the rpcz transport deadline.
	ConnectionTimeout time.Duration
	RequestTimeout    time.Duration
}

// NewServer constructs a Server around handlers.
func NewServer(handlers Handlers, log *logging.Logger) *Server {
	return &Server{
		handlers:          handlers,
		log:               log,
		ConnectionTimeout: 3000 * time.Millisecond,
		RequestTimeout:    3000 * time.Millisecond,
	}
}

// Mux builds the http.Handler routing each RPC to its POST endpoint.
func (s *Server) Mux() http.Handler {
	mux := http.NewServeMux()
	post := func(path string, fn rpcFunc) {
		h := s.handle(fn)
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			h(w, r)
		})
	}
	post("/create_dataset", s.createDataset)
	post("/delete_dataset", s.deleteDataset)
	post("/generate_id", s.generateId)
	post("/get_datasets", s.getDatasets)
	post("/put_records", s.putRecords)
	return mux
}

type rpcFunc func(ctx context.Context, body []byte) (interface{}, error)

// handle wraps one rpcFunc with the shared read-body/apply-deadline/
// write-JSON ceremony.
func (s *Server) handle(fn rpcFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		defer r.Body.Close()
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusInternalServerError)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), s.RequestTimeout)
		defer cancel()

		resp, err := fn(ctx, body)
		if err != nil {
			s.log.Warningf("transport: %s: %v", r.URL.Path, err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			s.log.Warningf("transport: %s: failed to write response: %v", r.URL.Path, err)
		}
	}
}

func (s *Server) createDataset(ctx context.Context, body []byte) (interface{}, error) {
	var req rpc.CreateDatasetRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, err
	}
	return s.handlers.CreateDataset(ctx, req), nil
}

func (s *Server) deleteDataset(ctx context.Context, body []byte) (interface{}, error) {
	var req rpc.DeleteDatasetRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, err
	}
	return s.handlers.DeleteDataset(ctx, req), nil
}

func (s *Server) generateId(ctx context.Context, body []byte) (interface{}, error) {
	var req rpc.GenerateIdRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, err
	}
	return s.handlers.GenerateId(ctx, req), nil
}

func (s *Server) getDatasets(ctx context.Context, body []byte) (interface{}, error) {
	var req rpc.GetDatasetsRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, err
	}
	return s.handlers.GetDatasets(ctx, req), nil
}

func (s *Server) putRecords(ctx context.Context, body []byte) (interface{}, error) {
	var req rpc.PutRecordsRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, err
	}
	return s.handlers.PutRecords(ctx, req), nil
}

// ListenAndServe starts the HTTP server on addr, applying
// ConnectionTimeout as the read header deadline.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Mux(),
		ReadHeaderTimeout: s.ConnectionTimeout,
	}
	return srv.ListenAndServe()
}
