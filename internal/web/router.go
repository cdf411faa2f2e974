package web

import (
	"github.com/gorilla/mux"
)

func (h *WebHandler) SetupRoutes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", h.Index).Methods("GET")
	r.HandleFunc("/predict", h.Predict).Methods("POST")
	r.HandleFunc("/upload", h.Upload).Methods("POST")
	r.HandleFunc("/categories", h.Categories).Methods("GET")
	r.HandleFunc("/delete/{index:[0-9]+}", h.DeleteHistoryItem).Methods("POST")
	r.HandleFunc("/download", h.Download).Methods("GET")
	r.HandleFunc("/graph", h.Graph).Methods("GET")
	r.HandleFunc("/about", h.About).Methods("GET")
	r.HandleFunc("/contact", h.Contact).Methods("GET", "POST")
	r.HandleFunc("/faq", h.FAQPage).Methods("GET")
	r.HandleFunc("/login", h.Login).Methods("GET", "POST")
	r.HandleFunc("/signup", h.Signup).Methods("GET", "POST")
	r.HandleFunc("/logout", h.Logout).Methods("GET")

	return r
}
