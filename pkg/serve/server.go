package serve

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/praetorian-inc/docsearch/pkg/scanner"
)

// Version is the server protocol version
const Version = "1.0.0"

// handler answers one request type. It returns the response data.
type handler func(payload json.RawMessage) (any, error)

// Server reads classify requests as NDJSON and writes one response line
// per request.
type Server struct {
	core     *scanner.Core
	encoder  *json.Encoder
	decoder  *json.Decoder
	handlers map[string]handler
}

// NewServer creates a server answering requests from in on out.
func NewServer(core *scanner.Core, in io.Reader, out io.Writer) *Server {
	s := &Server{
		core:    core,
		encoder: json.NewEncoder(out),
		decoder: json.NewDecoder(bufio.NewReader(in)),
	}
	s.handlers = map[string]handler{
		TypeClassify:      s.classify,
		TypeClassifyBatch: s.classifyBatch,
		TypeRules:         s.rules,
	}
	return s
}

// Run sends the ready signal and serves requests until the input ends, a
// close request arrives or ctx is cancelled. Requests decoded before the
// input ends are always answered.
func (s *Server) Run(ctx context.Context) error {
	ready, _ := json.Marshal(ReadyData{Version: Version, Rules: len(s.core.Rules())})
	s.send(Response{Success: true, Type: "ready", Data: ready})

	reqChan := make(chan Request, 1)
	errChan := make(chan error, 1)

	go func() {
		for {
			var req Request
			if err := s.decoder.Decode(&req); err != nil {
				errChan <- err
				return
			}
			select {
			case reqChan <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-reqChan:
			if s.dispatch(req) {
				return nil
			}
		case err := <-errChan:
			// The reader may have queued one request before failing
			select {
			case req := <-reqChan:
				if s.dispatch(req) {
					return nil
				}
			default:
			}
			if err != io.EOF {
				s.fail("decode", err)
			}
			return nil
		}
	}
}

// dispatch answers req and reports whether the server should stop.
func (s *Server) dispatch(req Request) bool {
	if req.Type == TypeClose {
		return true
	}

	h, ok := s.handlers[req.Type]
	if !ok {
		s.fail("unknown", fmt.Errorf("unknown request type: %s", req.Type))
		return false
	}

	v, err := h(req.Payload)
	if err != nil {
		s.fail(req.Type, err)
		return false
	}
	data, err := json.Marshal(v)
	if err != nil {
		s.fail(req.Type, err)
		return false
	}
	s.send(Response{Success: true, Type: req.Type, Data: data})
	return false
}

func (s *Server) classify(payload json.RawMessage) (any, error) {
	var p ClassifyPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("invalid classify payload: %w", err)
	}
	return s.core.Classify(p.Content, p.Source)
}

func (s *Server) classifyBatch(payload json.RawMessage) (any, error) {
	var p ClassifyBatchPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("invalid classify_batch payload: %w", err)
	}
	return s.core.ClassifyBatch(p.Items)
}

func (s *Server) rules(json.RawMessage) (any, error) {
	rules := s.core.Rules()
	infos := make([]RuleInfo, 0, len(rules))
	for _, r := range rules {
		infos = append(infos, RuleInfo{
			ID:         r.ID,
			Name:       r.Name,
			MinScore:   r.Threshold(),
			Categories: r.Categories,
		})
	}
	return infos, nil
}

func (s *Server) send(resp Response) {
	s.encoder.Encode(resp)
}

func (s *Server) fail(reqType string, err error) {
	s.send(Response{Success: false, Type: reqType, Error: err.Error()})
}
