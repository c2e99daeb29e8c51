package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/rs/cors"

	"github.com/rcbilson/dailymenu/pipeline"
)

type urlRequest struct {
	Url string `json:"url"`
}

func routes(p *pipeline.Pipeline) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/summarize", summarize(p))
	mux.HandleFunc("POST /api/debug/scrape", debugScrape(p))
	mux.HandleFunc("POST /api/debug/render", debugRender(p))
	mux.HandleFunc("GET /api/cache/stats", cacheStats(p))
	mux.HandleFunc("DELETE /api/cache", clearCache(p))
	mux.HandleFunc("GET /health", health)
	return mux
}

func handler(p *pipeline.Pipeline, port int, allowedOrigins []string) {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	log.Println("server listening on port", port)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", port), c.Handler(routes(p))))
}

func logError(w http.ResponseWriter, msg string, code int) {
	log.Printf("%d %s", code, msg)
	http.Error(w, msg, code)
}

// failed reports a pipeline error; rejected input is the caller's fault,
// anything else is ours.
func failed(w http.ResponseWriter, what string, err error) {
	var ierr *pipeline.InputError
	if errors.As(err, &ierr) {
		logError(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}
	logError(w, fmt.Sprintf("Error %s: %v", what, err), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func decodeURL(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req urlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(w, fmt.Sprintf("JSON decode error: %v", err), http.StatusBadRequest)
		return "", false
	}
	return req.Url, true
}

func summarize(p *pipeline.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url, ok := decodeURL(w, r)
		if !ok {
			return
		}
		log.Println("summarizing menu", url)
		res, err := p.Summarize(r.Context(), url)
		if err != nil {
			failed(w, "summarizing menu", err)
			return
		}
		writeJSON(w, res)
	}
}

func debugScrape(p *pipeline.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url, ok := decodeURL(w, r)
		if !ok {
			return
		}
		report, err := p.Inspect(r.Context(), url)
		if err != nil {
			failed(w, "scraping page", err)
			return
		}
		writeJSON(w, report)
	}
}

func debugRender(p *pipeline.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url, ok := decodeURL(w, r)
		if !ok {
			return
		}
		cmp, err := p.Compare(r.Context(), url)
		if err != nil {
			failed(w, "comparing fetch strategies", err)
			return
		}
		writeJSON(w, cmp)
	}
}

func cacheStats(p *pipeline.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := p.Stats(r.Context())
		if err != nil {
			failed(w, "reading cache stats", err)
			return
		}
		writeJSON(w, stats)
	}
}

func clearCache(p *pipeline.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := p.Clear(r.Context()); err != nil {
			failed(w, "clearing cache", err)
			return
		}
		writeJSON(w, map[string]string{"message": "Cache cleared successfully"})
	}
}

func health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "healthy", "service": "Restaurant Menu Summarizer"})
}
