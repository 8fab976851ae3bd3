package router

import (
	"io/fs"
	"net/http"

	"mccdaq/logger"
	"mccdaq/web/assets"
	"mccdaq/web/controller"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func InitRouter(controller *controller.Controller, status http.Handler, logger *logger.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(logger.LogRequest)

	router.HandleFunc("/status.json", controller.Status).Methods(http.MethodGet)
	router.HandleFunc("/start.json", controller.StartRecording).Methods(http.MethodPost)
	router.HandleFunc("/stop.json", controller.StopRecording).Methods(http.MethodPost)
	router.Handle("/status.ws", status).Methods(http.MethodGet)

	router.HandleFunc("/api/status", controller.DeviceStatus).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	filerouter := router.PathPrefix("/file").Subrouter()
	filerouter.HandleFunc("/list", controller.ListFiles).Methods(http.MethodGet)
	filerouter.HandleFunc("/upload", controller.UploadFile).Methods(http.MethodPost)
	filerouter.HandleFunc("/upload-all", controller.UploadAllFiles).Methods(http.MethodPost)

	static := http.FileServer(http.FS(assets.FS))
	router.HandleFunc("/", serveIndex).Methods(http.MethodGet)
	router.HandleFunc("/index.html", serveIndex).Methods(http.MethodGet)
	router.PathPrefix("/assets/").Handler(http.StripPrefix("/assets/", static)).Methods(http.MethodGet)

	return router
}

func serveIndex(w http.ResponseWriter, _ *http.Request) {
	page, err := fs.ReadFile(assets.FS, "index.html")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}
