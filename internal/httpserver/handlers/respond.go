package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/chantabs/internal/httpserver/deps"
	"github.com/MrSnakeDoc/chantabs/internal/httpserver/mw"
	"github.com/MrSnakeDoc/chantabs/internal/session"
)

const maxBodyBytes = 64 << 10

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads a JSON body into dst. An empty body leaves dst untouched.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func badRequest(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), http.StatusBadRequest)
}

// sessionsFor returns the sessions of the calling user, creating them on
// first access.
func sessionsFor(d deps.Deps, r *http.Request) *session.Sessions {
	return d.Registry.GetOrCreate(mw.UserID(r.Context()))
}

func intParam(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}

// folderOrTop maps an optional folder index to session.NoFolder when absent.
func folderOrTop(folder *int) int {
	if folder == nil {
		return session.NoFolder
	}
	return *folder
}

// folderQuery reads the optional ?folder= query parameter.
func folderQuery(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("folder")
	if raw == "" {
		return session.NoFolder, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid folder: %w", err)
	}
	return v, nil
}
