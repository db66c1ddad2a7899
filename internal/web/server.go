// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"fineprint/internal/annotate"
	"fineprint/internal/cache"
	"fineprint/internal/detector"
	"fineprint/internal/extract"
	"fineprint/internal/formatters"
	"fineprint/internal/observability"
	"fineprint/internal/patterns"
	"fineprint/internal/scanner"
	"fineprint/internal/severity"
	"fineprint/internal/summarize"
	"fineprint/internal/version"
)

//go:embed index.html
var indexHTML string

// DefaultAddr is the listen address when none is configured.
const DefaultAddr = ":8080"

// DefaultMaxBody caps request bodies at 10 MB.
const DefaultMaxBody = int64(10 << 20)

// portRetries is how many successive ports are tried when the configured
// one is busy.
const portRetries = 10

// Options configures a Server. Zero values select the defaults. A nil
// Cache disables scan result caching.
type Options struct {
	Addr     string
	MaxBody  int64
	Scanner  *scanner.Scanner
	Cache    *cache.DiskCache
	Loader   *summarize.Loader
	Observer observability.Observer
}

// Server exposes scanning and annotation over HTTP.
type Server struct {
	addr     string
	maxBody  int64
	scanner  *scanner.Scanner
	files    *scanner.FileScanner
	loader   *summarize.Loader
	observer observability.Observer
	server   *http.Server
}

// NewServer creates a web server instance.
func NewServer(opts Options) *Server {
	s := &Server{
		addr:     opts.Addr,
		maxBody:  opts.MaxBody,
		scanner:  opts.Scanner,
		loader:   opts.Loader,
		observer: opts.Observer,
	}
	if s.addr == "" {
		s.addr = DefaultAddr
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxBody
	}
	if s.scanner == nil {
		s.scanner = scanner.New(scanner.Config{})
	}
	if s.loader == nil {
		s.loader = summarize.NewLoader(func(context.Context) (summarize.Summarizer, error) {
			return summarize.NewHeuristic(), nil
		})
	}
	if s.observer == nil {
		s.observer = observability.NopObserver{}
	}
	s.files = scanner.NewFileScanner(s.scanner, scanner.FileConfig{Cache: opts.Cache})
	return s
}

// Start serves until ctx is cancelled, then shuts down gracefully. When
// the configured port is busy, the next ports are tried in order.
func (s *Server) Start(ctx context.Context) error {
	listener, addr, err := s.listen()
	if err != nil {
		return err
	}

	s.server = s.createSecureServer()
	fmt.Printf("fineprint web UI listening on http://%s\n", displayAddr(addr))

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.server.Serve(listener)
	}()

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.observer.Event("web", "shutdown", "graceful shutdown started")
		return s.server.Shutdown(shutdownCtx)
	}
}

// Stop closes the server immediately. Prefer cancelling the Start context.
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}

// listen binds the configured address, walking forward through ports when
// the requested one is taken.
func (s *Server) listen() (net.Listener, string, error) {
	host, portStr, err := net.SplitHostPort(s.addr)
	if err != nil {
		return nil, "", fmt.Errorf("invalid listen address %q: %w", s.addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, "", fmt.Errorf("invalid port in address %q: %w", s.addr, err)
	}

	var lastErr error
	for i := 0; i < portRetries; i++ {
		addr := net.JoinHostPort(host, strconv.Itoa(port+i))
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			lastErr = err
			continue
		}
		if i > 0 {
			fmt.Printf("Port %d is not available, using %d instead\n", port, port+i)
		}
		return listener, addr, nil
	}
	return nil, "", fmt.Errorf("no available port in range %d-%d: %w", port, port+portRetries-1, lastErr)
}

// createSecureServer creates an HTTP server with security timeouts
func (s *Server) createSecureServer() *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.serveHome)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/scan", s.handleScan)
	mux.HandleFunc("/api/annotate", s.handleAnnotate)
	mux.HandleFunc("/api/export", s.handleExport)
	mux.HandleFunc("/api/patterns", s.handlePatterns)

	return &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// serveHome serves the embedded single-page UI
func (s *Server) serveHome(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

// handleHealth reports service status and build information
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	versionInfo := version.Full()
	healthData := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "fineprint-web",
		"version":   versionInfo["version"],
		"build_info": map[string]interface{}{
			"version":    versionInfo["version"],
			"commit":     versionInfo["commit"],
			"build_date": versionInfo["buildDate"],
			"go_version": versionInfo["goVersion"],
			"platform":   versionInfo["platform"],
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(healthData)
}

// ScanRequest is the /api/scan request body. Exactly one of Text or HTML
// carries the document.
type ScanRequest struct {
	Text    string `json:"text,omitempty"`
	HTML    string `json:"html,omitempty"`
	Title   string `json:"title,omitempty"`
	Summary bool   `json:"summary,omitempty"`
}

// ScanResponse wraps a scan result for the web client.
type ScanResponse struct {
	Success bool                 `json:"success"`
	ScanID  string               `json:"scan_id,omitempty"`
	Result  *detector.ScanResult `json:"result,omitempty"`
	Bullets []string             `json:"bullets,omitempty"`
	Error   string               `json:"error,omitempty"`
}

// handleScan scans submitted text or HTML and returns the full result
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ScanRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	content, ok := s.contentFromRequest(w, req.Text, req.HTML, req.Title)
	if !ok {
		return
	}

	scanID := uuid.NewString()
	result, err := s.files.ScanContent(content)
	if err != nil {
		s.sendError(w, fmt.Sprintf("scan failed: %v", err), http.StatusInternalServerError)
		return
	}

	resp := ScanResponse{
		Success: true,
		ScanID:  scanID,
		Result:  &result,
	}

	// Summary generation is best effort: a summarizer failure never
	// fails the scan.
	if req.Summary {
		if summarizer, err := s.loader.Get(r.Context()); err == nil {
			summaryReq := summarize.BuildRequest(result.Title, result, summarize.DefaultForwardTypes)
			if summaryResp, err := summarizer.Summarize(r.Context(), summaryReq); err == nil {
				resp.Bullets = summaryResp.Bullets
			} else {
				s.observer.Event("web", "summarize_failed", err.Error())
			}
		} else {
			s.observer.Event("web", "summarizer_unavailable", err.Error())
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// AnnotateRequest is the /api/annotate request body. The document comes
// either as structured blocks with runs or as plain block texts.
type AnnotateRequest struct {
	Document *annotate.Document `json:"document,omitempty"`
	Blocks   []string           `json:"blocks,omitempty"`
	Spans    []detector.Span    `json:"spans"`
	MaxMarks int                `json:"max_marks,omitempty"`
}

// AnnotateResponse carries the marked document back to the client.
type AnnotateResponse struct {
	Success  bool               `json:"success"`
	Document *annotate.Document `json:"document,omitempty"`
	HTML     string             `json:"html,omitempty"`
	Applied  int                `json:"applied"`
	Capped   bool               `json:"capped"`
	Removed  int                `json:"removed"`
	Error    string             `json:"error,omitempty"`
}

// handleAnnotate re-applies scan spans onto a document as marks
func (s *Server) handleAnnotate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AnnotateRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	doc := req.Document
	if doc == nil && len(req.Blocks) > 0 {
		doc = annotate.NewDocument(req.Blocks...)
	}
	if doc == nil {
		s.sendError(w, "request must include document or blocks", http.StatusBadRequest)
		return
	}

	applier := annotate.NewApplier(doc).WithObserver(s.observer)
	if req.MaxMarks > 0 {
		applier = applier.WithMaxMarks(req.MaxMarks)
	}

	removed := applier.Clear()
	applied, capped := applier.Apply(req.Spans)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AnnotateResponse{
		Success:  true,
		Document: doc,
		HTML:     doc.RenderHTML(),
		Applied:  applied,
		Capped:   capped,
		Removed:  removed,
	})
}

// ExportRequest is the /api/export request body: a document to scan plus
// the output format to download it in.
type ExportRequest struct {
	Text    string `json:"text,omitempty"`
	HTML    string `json:"html,omitempty"`
	Title   string `json:"title,omitempty"`
	Format  string `json:"format,omitempty"`
	Verbose bool   `json:"verbose,omitempty"`
}

// handleExport scans submitted content and returns the result as a
// downloadable document in any registered output format
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ExportRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	content, ok := s.contentFromRequest(w, req.Text, req.HTML, req.Title)
	if !ok {
		return
	}

	result, err := s.files.ScanContent(content)
	if err != nil {
		s.sendError(w, fmt.Sprintf("scan failed: %v", err), http.StatusInternalServerError)
		return
	}

	format := req.Format
	if format == "" {
		format = "json"
	}
	reports := []formatters.Report{{Path: content.Title, Result: result}}
	output, mimeType, filename, err := formatters.ExportForWeb(format, reports, formatters.FormatterOptions{
		Verbose: req.Verbose,
		NoColor: true,
	})
	if err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	fmt.Fprint(w, output)
}

// PatternsResponse describes the detection inventory.
type PatternsResponse struct {
	Categories     []patterns.CategoryInfo   `json:"categories"`
	Weights        map[detector.RiskType]int `json:"weights"`
	HeatmapBuckets []string                  `json:"heatmap_buckets"`
}

// handlePatterns lists detection categories, weights and heatmap buckets
func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := PatternsResponse{
		Categories:     s.scanner.Bank().Inventory(),
		Weights:        severity.Weights(),
		HeatmapBuckets: patterns.BucketOrder,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// contentFromRequest builds scannable content from a request's text or
// HTML field, writing the error response itself when neither is present.
// An explicit title wins over one extracted from the markup.
func (s *Server) contentFromRequest(w http.ResponseWriter, text, rawHTML, title string) (*extract.Content, bool) {
	switch {
	case text != "":
		return extract.NewContent(title, text), true
	case rawHTML != "":
		parsed, err := extract.ParseHTML(strings.NewReader(rawHTML))
		if err != nil {
			s.sendError(w, fmt.Sprintf("failed to parse HTML: %v", err), http.StatusBadRequest)
			return nil, false
		}
		if title != "" {
			parsed.Title = title
		}
		return parsed, true
	default:
		s.sendError(w, "request must include text or html", http.StatusBadRequest)
		return nil, false
	}
}

// decodeBody decodes a JSON request body under the size cap, writing the
// error response itself when decoding fails.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			s.sendError(w, fmt.Sprintf("request body exceeds %d bytes", maxBytesErr.Limit), http.StatusRequestEntityTooLarge)
			return false
		}
		s.sendError(w, fmt.Sprintf("invalid JSON body: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

// sendError writes a JSON error response with the given status
func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// displayAddr rewrites a bare-host listen address for log output
func displayAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}
