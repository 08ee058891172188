package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/gofrs/uuid"
	"github.com/paulmach/orb"
	"net/http"
	"photo-geotag/amap"
	"photo-geotag/archive"
	"photo-geotag/geotag"
	"photo-geotag/repos"
	"strconv"
)

const (
	defaultBatchesLimit = 20
	maxBatchesLimit     = 200
)

type WriteRequest struct {
	ImagePaths []string `json:"image_paths"`
	Longitude  *float64 `json:"longitude"`
	Latitude   *float64 `json:"latitude"`
	Archive    bool     `json:"archive"`
}

type WriteResponse struct {
	BatchID  uuid.UUID            `json:"batch_id"`
	Results  []geotag.WriteResult `json:"results"`
	Summary  geotag.Summary       `json:"summary"`
	Archived []archive.Upload     `json:"archived,omitempty"`
}

func (s *Server) postWriteHandler(w http.ResponseWriter, r *http.Request) {
	var req WriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid body: %s", err), http.StatusBadRequest)
		return
	}
	target, err := req.target()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Archive && s.archiver == nil {
		http.Error(w, "archive not configured", http.StatusBadRequest)
		return
	}

	tags := s.tagger.EncodeTarget(target)
	results := s.tagger.WriteTags(req.ImagePaths, tags)

	batch, err := repos.NewBatch(target, tags.Point(), s.exact, results)
	if err != nil {
		s.logger.Error("error creating batch id", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := WriteResponse{
		BatchID: batch.ID,
		Results: results,
		Summary: geotag.Summarize(results),
	}

	if req.Archive {
		resp.Archived = s.archiver.Upload(r.Context(), batch.ID, results)
		batch.ArchiveKeys = archive.Keys(resp.Archived)
	}

	if s.journal != nil {
		// The files are already written, so a journal failure is only logged.
		if err := s.journal.SaveBatch(r.Context(), batch); err != nil {
			s.logger.Error("error saving batch", "batch_id", batch.ID, "err", err)
		}
	}

	writeJSON(w, resp)
}

func (req WriteRequest) target() (orb.Point, error) {
	if req.Longitude == nil || req.Latitude == nil {
		return orb.Point{}, errors.New("longitude and latitude are required")
	}
	return orb.Point{*req.Longitude, *req.Latitude}, nil
}

func (s *Server) getReadHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("image_path")
	if path == "" {
		http.Error(w, "missing parameter image_path", http.StatusBadRequest)
		return
	}

	p, ok := s.tagger.ReadCoordinate(path)
	if !ok {
		writeJSON(w, nil)
		return
	}
	writeJSON(w, p)
}

func (s *Server) getSearchHandler(w http.ResponseWriter, r *http.Request) {
	if s.searcher == nil {
		http.Error(w, "place search not configured", http.StatusNotFound)
		return
	}

	q := r.URL.Query()
	places, err := s.searcher.Search(r.Context(), q.Get("keywords"), q.Get("city"))
	if errors.Is(err, amap.ErrNoKeywords) {
		http.Error(w, "missing parameter keywords", http.StatusBadRequest)
		return
	} else if err != nil {
		s.logger.Error("error in search", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, places)
}

func (s *Server) getBatchesHandler(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		http.Error(w, "journal not configured", http.StatusNotFound)
		return
	}

	limit := defaultBatchesLimit
	if limitS := r.URL.Query().Get("limit"); limitS != "" {
		var err error
		limit, err = strconv.Atoi(limitS)
		if err != nil || limit < 1 || limit > maxBatchesLimit {
			http.Error(w, fmt.Sprintf("invalid parameter limit: %q", limitS), http.StatusBadRequest)
			return
		}
	}

	batches, err := s.journal.ListBatches(r.Context(), limit)
	if err != nil {
		s.logger.Error("error in ListBatches", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, batches)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
