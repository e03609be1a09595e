package mcptool

import (
	"bufio"
	"context"
	"encoding/json"
	"os"

	"github.com/oracle-mind/oracle/internal/applog"
)

var logger = applog.Named("mcp")

// ProtocolVersion is the MCP handshake version this server speaks.
const ProtocolVersion = "2024-11-05"

// Server drives the stdio JSON-RPC loop, reading one request
// per line from stdin and writing one response per line to stdout.
type Server struct {
	handler     *Handler
	name        string
	version     string
	initialized bool
}

// NewServer builds a Server bound to a Handler.
func NewServer(handler *Handler, name, version string) *Server {
	return &Server{handler: handler, name: name, version: version}
}

// Run reads requests from stdin until EOF or a scanner error.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(os.Stdin)

	const maxScannerSize = 10 * 1024 * 1024
	buf := make([]byte, maxScannerSize)
	scanner.Buffer(buf, maxScannerSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.sendError(nil, ErrCodeParse, "Parse error", err.Error())
			continue
		}

		s.handleRequest(ctx, &req)
	}

	return scanner.Err()
}

func (s *Server) handleRequest(ctx context.Context, req *Request) {
	switch req.Method {
	case "initialize":
		s.handleInitialize(req)
	case "notifications/initialized":
		s.initialized = true
	case "tools/list":
		s.handleToolsList(req)
	case "tools/call":
		s.handleToolsCall(ctx, req)
	default:
		s.sendError(req.ID, ErrCodeMethodNotFound, "Method not found", nil)
	}
}

func (s *Server) handleInitialize(req *Request) {
	result := InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities: ServerCapabilities{
			Tools: &ToolsCapability{},
		},
		ServerInfo: ServerInfo{
			Name:    s.name,
			Version: s.version,
		},
	}
	s.sendResult(req.ID, result)
}

func (s *Server) handleToolsList(req *Request) {
	s.sendResult(req.ID, ToolsListResult{Tools: Tools()})
}

func (s *Server) handleToolsCall(ctx context.Context, req *Request) {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.sendError(req.ID, ErrCodeInvalidParams, "Invalid params", err.Error())
		return
	}

	result, err := s.handler.CallTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.sendError(req.ID, ErrCodeInternal, "Internal error", err.Error())
		return
	}
	s.sendResult(req.ID, result)
}

func (s *Server) sendResult(id, result any) {
	s.send(Response{JSONRPC: "2.0", ID: id, Result: result})
}

func (s *Server) sendError(id any, code int, message string, data any) {
	s.send(Response{JSONRPC: "2.0", ID: id, Error: &Error{Code: code, Message: message, Data: data}})
}

func (s *Server) send(resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		logger.Error("failed to marshal response", "err", err)
		return
	}
	os.Stdout.Write(data)
	os.Stdout.Write([]byte("\n"))
}
