package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kiwis08/record/internal/config"
	"github.com/kiwis08/record/internal/fmedia"
	"github.com/kiwis08/record/internal/recorder"
)

// defaultSession is the session id used when a request does not name one.
const defaultSession = "default"

// Server exposes recorder sessions over HTTP for remote control.
type Server struct {
	rec  *recorder.Recorder
	cfg  *config.Config
	port string

	// opLock serializes session operations: the recorder contract requires
	// that commands for a session never overlap.
	opLock sync.Mutex

	fileLock sync.RWMutex
}

// StatusResponse is the JSON response for the status endpoint.
type StatusResponse struct {
	Session    string         `json:"session"`
	State      recorder.State `json:"state"`
	OutputPath string         `json:"output_path,omitempty"`
}

// StartRequest asks for a new recording. Empty fields fall back to the
// configured audio defaults.
type StartRequest struct {
	Session string `json:"session,omitempty"`
	Name    string `json:"name,omitempty"`
	Encoder string `json:"encoder,omitempty"`
	Device  string `json:"device,omitempty"`
}

// StopResponse reports the finished recording, if any.
type StopResponse struct {
	Success    bool   `json:"success"`
	OutputPath string `json:"output_path,omitempty"`
}

// DevicesResponse is the JSON response for the devices endpoint.
type DevicesResponse struct {
	Devices []fmedia.Device `json:"devices"`
}

// RecordingInfo describes one finished recording on disk.
type RecordingInfo struct {
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	SizeHuman    string    `json:"size_human"`
	ModTime      time.Time `json:"mod_time"`
	ModTimeHuman string    `json:"mod_time_human"`
	Extension    string    `json:"extension"`
	IsLast       bool      `json:"is_last"`
}

// RecordingsResponse is the JSON response for the recordings endpoint.
type RecordingsResponse struct {
	Recordings      []RecordingInfo `json:"recordings"`
	TotalCount      int             `json:"total_count"`
	OutputDirectory string          `json:"output_directory"`
	LastRecording   string          `json:"last_recording,omitempty"`
}

// GenericResponse represents a generic API response.
type GenericResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// New creates a server around an existing recorder and configuration.
func New(rec *recorder.Recorder, cfg *config.Config) *Server {
	return &Server{
		rec:  rec,
		cfg:  cfg,
		port: cfg.Server.Port,
	}
}

// Start runs the HTTP server. It blocks until the listener fails.
func (s *Server) Start() error {
	localIP := getLocalIP()
	slog.Info("Starting recorder control server",
		"port", s.port,
		"local_url", fmt.Sprintf("http://%s:%s", localIP, s.port),
		"localhost_url", fmt.Sprintf("http://localhost:%s", s.port))

	return http.ListenAndServe(":"+s.port, s.routes())
}

// routes builds the request mux.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/start", s.handleStart)
	mux.HandleFunc("/api/stop", s.handleStop)
	mux.HandleFunc("/api/pause", s.handlePause)
	mux.HandleFunc("/api/resume", s.handleResume)
	mux.HandleFunc("/api/cancel", s.handleCancel)
	mux.HandleFunc("/api/devices", s.handleDevices)
	mux.HandleFunc("/api/recordings", s.handleRecordings)
	mux.HandleFunc("/api/events", s.handleEvents)
	return mux
}

// handleStatus returns the current state of a session.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	session := sessionID(r)
	state, path := s.rec.Status(session)
	s.sendJSON(w, http.StatusOK, StatusResponse{
		Session:    session,
		State:      state,
		OutputPath: path,
	})
}

// handleStart begins a new recording for a session.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req StartRequest
	if r.Body != nil {
		// An empty body means "all defaults".
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			s.sendError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
			return
		}
	}

	session := req.Session
	if session == "" {
		session = sessionID(r)
	}

	startCfg := s.cfg.StartConfig()
	if req.Encoder != "" {
		startCfg.Encoder = recorder.Encoder(req.Encoder)
	}
	if req.Device != "" {
		startCfg.Device = req.Device
	}

	name := req.Name
	if name == "" {
		name = "recording-" + time.Now().Format("20060102-150405")
	}
	path := filepath.Join(s.cfg.Output.Directory, recorder.CleanFileName(name)+"."+startCfg.Encoder.FileExtension())

	if err := os.MkdirAll(s.cfg.Output.Directory, 0755); err != nil {
		s.sendError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to create output directory: %v", err))
		return
	}

	s.opLock.Lock()
	err := s.rec.Start(session, startCfg, path)
	s.opLock.Unlock()
	if err != nil {
		slog.Error("Start recording failed", "session", session, "error", err)
		s.sendError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to start recording: %v", err))
		return
	}

	s.sendJSON(w, http.StatusOK, GenericResponse{Success: true, Message: "Recording started: " + path})
}

// handleStop stops a session's recording.
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	session := sessionID(r)

	s.opLock.Lock()
	path, err := s.rec.Stop(session)
	s.opLock.Unlock()
	if err != nil {
		slog.Error("Stop recording failed", "session", session, "error", err)
		s.sendError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to stop recording: %v", err))
		return
	}

	if path != "" {
		if err := s.saveLastRecording(path); err != nil {
			slog.Warn("Failed to persist last recording marker", "error", err)
		}
	}

	s.sendJSON(w, http.StatusOK, StopResponse{Success: true, OutputPath: path})
}

// handlePause suspends a running recording.
func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.handleControl(w, r, "pause", s.rec.Pause)
}

// handleResume continues a paused recording.
func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.handleControl(w, r, "resume", s.rec.Resume)
}

// handleCancel stops a recording and discards its file.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.handleControl(w, r, "cancel", s.rec.Cancel)
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request, op string, fn func(id string) error) {
	if r.Method != http.MethodPost {
		s.sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	session := sessionID(r)

	s.opLock.Lock()
	err := fn(session)
	s.opLock.Unlock()
	if err != nil {
		slog.Error("Session control failed", "operation", op, "session", session, "error", err)
		s.sendError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to %s: %v", op, err))
		return
	}

	s.sendJSON(w, http.StatusOK, GenericResponse{Success: true, Message: op + " ok"})
}

// handleDevices enumerates capture devices. The listing is rebuilt on every
// request.
func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	devices, err := s.rec.ListDevices()
	if err != nil {
		slog.Error("Device listing failed", "error", err)
		s.sendError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to list devices: %v", err))
		return
	}

	s.sendJSON(w, http.StatusOK, DevicesResponse{Devices: devices})
}

// handleRecordings lists finished recordings in the output directory.
func (s *Server) handleRecordings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	recordings, err := s.listRecordings()
	if err != nil {
		s.sendError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to list recordings: %v", err))
		return
	}

	last, _ := s.loadLastRecording()
	for i := range recordings {
		recordings[i].IsLast = recordings[i].Path == last
	}

	s.sendJSON(w, http.StatusOK, RecordingsResponse{
		Recordings:      recordings,
		TotalCount:      len(recordings),
		OutputDirectory: s.cfg.Output.Directory,
		LastRecording:   last,
	})
}

// handleEvents streams state transitions for a session as server-sent
// events until the client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.sendError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	session := sessionID(r)
	sub := s.rec.Subscribe(session)
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case state, open := <-sub.C:
			if !open {
				return
			}
			fmt.Fprintf(w, "event: state\ndata: %s\n\n", state)
			flusher.Flush()
		}
	}
}

// listRecordings scans the output directory for known recording formats.
func (s *Server) listRecordings() ([]RecordingInfo, error) {
	dir := s.cfg.Output.Directory
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create recordings directory: %w", err)
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read recordings directory: %w", err)
	}

	supportedExts := map[string]bool{
		".m4a":  true,
		".flac": true,
		".opus": true,
		".wav":  true,
	}

	var recordings []RecordingInfo
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(file.Name()))
		if !supportedExts[ext] {
			continue
		}

		info, err := file.Info()
		if err != nil {
			slog.Warn("Failed to get file info", "file", file.Name(), "error", err)
			continue
		}

		recordings = append(recordings, RecordingInfo{
			Name:         file.Name(),
			Path:         filepath.Join(dir, file.Name()),
			Size:         info.Size(),
			SizeHuman:    formatBytes(info.Size()),
			ModTime:      info.ModTime(),
			ModTimeHuman: info.ModTime().Format("2006-01-02 15:04:05"),
			Extension:    strings.TrimPrefix(ext, "."),
		})
	}

	sort.Slice(recordings, func(i, j int) bool {
		return recordings[i].ModTime.After(recordings[j].ModTime)
	})

	return recordings, nil
}

func (s *Server) sendJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func (s *Server) sendError(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, GenericResponse{Success: false, Error: message})
}

// sessionID extracts the session from the query string, falling back to the
// shared default session.
func sessionID(r *http.Request) string {
	if id := r.URL.Query().Get("session"); id != "" {
		return id
	}
	return defaultSession
}

// formatBytes formats bytes in human readable form.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// getLocalIP returns the first non-loopback IPv4 address, for the startup
// log.
func getLocalIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "localhost"
	}
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
			return ipnet.IP.String()
		}
	}
	return "localhost"
}
