package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// StatusRouter is the ad-hoc debug surface: it runs the full token exchange
// and fetch chain on every request and reports the aggregate state.
type StatusRouter struct {
	API    OhmeAPI
	Tokens TokenProvider
}

type StatusResponse struct {
	Charging  bool          `json:"charging"`
	Sessions  int           `json:"sessions"`
	Anomalies []ModeAnomaly `json:"anomalies,omitempty"`
}

func (router *StatusRouter) SetupRoutes(s *mux.Router) {
	s.HandleFunc("/sessions", router.getSessions).Methods("GET")
	s.HandleFunc("/status", router.getStatus).Methods("GET")
}

func SendJSON(w http.ResponseWriter, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Error(err)
		SendInternalServerError(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}

func SendInternalServerError(w http.ResponseWriter) {
	w.WriteHeader(http.StatusInternalServerError)
}

func (router *StatusRouter) getSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := router.fetch(r.Context())
	if err != nil {
		SendInternalServerError(w)
		return
	}
	SendJSON(w, sessions)
}

func (router *StatusRouter) getStatus(w http.ResponseWriter, r *http.Request) {
	sessions, err := router.fetch(r.Context())
	if err != nil {
		SendInternalServerError(w)
		return
	}
	active, anomalies := IsAnySessionActive(sessions)
	SendJSON(w, &StatusResponse{Charging: active, Sessions: len(sessions), Anomalies: anomalies})
}

func (router *StatusRouter) fetch(ctx context.Context) ([]ChargeSession, error) {
	token, err := router.Tokens.ObtainToken(ctx)
	if err != nil {
		return nil, err
	}
	return router.API.FetchSessions(ctx, token)
}

func ServeHTTP(router *StatusRouter, listenAddr string) {
	log.Info("Initializing REST services...")
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	router.SetupRoutes(api)

	httpServer := &http.Server{
		Addr:         listenAddr,
		Handler:      r,
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
	}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()
	log.Info("HTTP Server listening on " + listenAddr)
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c
	log.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()
	httpServer.Shutdown(ctx)
}
