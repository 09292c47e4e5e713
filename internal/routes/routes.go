package routes

import (
	"net/http"
	"os"
	"path/filepath"

	"oceanguard/internal/config"
	"oceanguard/internal/handler"
	"oceanguard/internal/logger"
	"oceanguard/internal/middleware"
	"oceanguard/internal/repository"
	"oceanguard/internal/service"
	"oceanguard/internal/service/storage"
	"oceanguard/internal/service/websocket"
)

// Dependencies are the services the HTTP layer talks to.
type Dependencies struct {
	Manager  *service.Manager
	Hub      *websocket.HubService
	Live     *storage.LiveCache
	Store    *storage.FrameStore
	Boats    repository.BoatRepository
	Scans    repository.ScanLogRepository
	Captures repository.CaptureRepository
}

// dynamicHTMLHandler serves /path as /static/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if path == "/" {
		path = "/index"
	}

	filePath := filepath.Join("static", path+".html")

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, filePath)
}

// SetupRoutes registers HTTP routes, static file serving, API endpoints,
// and wraps the mux with the authentication middleware.
func SetupRoutes(deps Dependencies, cfg *config.Config, log *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	// Frame ingestion
	mux.HandleFunc("/api/frames", handler.UploadFrameHandler(deps.Manager, log))

	// Review gallery
	mux.HandleFunc("/api/captures", handler.GetCapturesHandler(log, deps.Captures))
	mux.HandleFunc("/api/captures/status", handler.UpdateCaptureStatusHandler(log, deps.Captures))
	mux.HandleFunc("/api/captures/delete", handler.DeleteCaptureHandler(log, deps.Captures, deps.Store))
	mux.HandleFunc("/api/captures/view", handler.ViewCaptureHandler(log, deps.Captures))

	// Registry
	mux.HandleFunc("/api/boats", handler.GetBoatsHandler(log, deps.Boats))
	mux.HandleFunc("/api/boats/blacklist", handler.BlacklistBoatHandler(log, deps.Boats))
	mux.HandleFunc("/api/boats/scans", handler.GetBoatScansHandler(log, deps.Boats, deps.Scans))

	// Live monitoring
	mux.HandleFunc("/api/live", handler.GetLiveFramesHandler(log, deps.Live))
	mux.HandleFunc("/api/live/view", handler.ViewLiveFrameHandler(deps.Live))
	mux.HandleFunc("/api/live/ws", handler.ViewWebsocketHandler(deps.Hub, log))

	// Log endpoints
	for path, file := range map[string]string{
		"/logs/info":    logger.InfoFile,
		"/logs/warning": logger.WarningFile,
		"/logs/error":   logger.ErrorFile,
	} {
		mux.HandleFunc(path, handler.ShowLogsHandler(log, file))
		mux.HandleFunc(path+"/clear", handler.ClearLogsHandler(log, file))
	}

	// Auth endpoints
	mux.HandleFunc("/auth/login", handler.LoginHandler(cfg, log))
	mux.HandleFunc("/auth/logout", handler.LogoutHandler)

	// Automatic HTML handler mapping for example: /settings -> /static/settings.html
	mux.HandleFunc("/", dynamicHTMLHandler)

	// Apply middleware
	return middleware.AuthMiddleware(mux)
}
