// Package api exposes the geotag pipelines over HTTP for a local frontend.
package api

import (
	"context"
	"github.com/gofrs/uuid"
	"log/slog"
	"net/http"
	"photo-geotag/amap"
	"photo-geotag/archive"
	"photo-geotag/geotag"
	"photo-geotag/repos"
)

type Journal interface {
	SaveBatch(ctx context.Context, b repos.Batch) error
	ListBatches(ctx context.Context, limit int) ([]repos.BatchSummary, error)
}

type Searcher interface {
	Search(ctx context.Context, keywords, city string) ([]amap.Place, error)
}

type Archiver interface {
	Upload(ctx context.Context, batchID uuid.UUID, results []geotag.WriteResult) []archive.Upload
}

// Options configures the optional collaborators. Leave a field nil to
// disable the routes that need it.
type Options struct {
	Journal  Journal
	Searcher Searcher
	Archiver Archiver

	// Exact is recorded with journalled batches.
	Exact  bool
	Logger *slog.Logger
}

type Server struct {
	tagger   *geotag.Tagger
	journal  Journal
	searcher Searcher
	archiver Archiver
	exact    bool
	logger   *slog.Logger
}

func New(tagger *geotag.Tagger, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		tagger:   tagger,
		journal:  opts.Journal,
		searcher: opts.Searcher,
		archiver: opts.Archiver,
		exact:    opts.Exact,
		logger:   logger,
	}
}

func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("POST /api/v0/write", http.HandlerFunc(s.postWriteHandler))
	mux.Handle("GET /api/v0/read", http.HandlerFunc(s.getReadHandler))
	mux.Handle("GET /api/v0/search", http.HandlerFunc(s.getSearchHandler))
	mux.Handle("GET /api/v0/batches", http.HandlerFunc(s.getBatchesHandler))
	return mux
}

func (s *Server) Handler() http.Handler {
	return s.logRequests(s.Mux())
}
