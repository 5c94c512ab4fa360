package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/williamfzc/gossiphs/internal/graph"
	"github.com/williamfzc/gossiphs/internal/symtab"
	"github.com/williamfzc/gossiphs/internal/types"
)

func buildToyGraph(t *testing.T) *graph.Graph {
	t.Helper()
	files := []types.File{
		{ID: 0, Path: "main.rs", Language: "rust"},
		{ID: 1, Path: "helpers.rs", Language: "rust"},
	}
	table := symtab.New()
	table.AddSite(types.Site{ID: table.NextSiteID(), Name: "helper", File: 1, Kind: types.SiteKindDef})
	table.AddSite(types.Site{ID: table.NextSiteID(), Name: "helper", File: 0, Kind: types.SiteKindRef})
	table.AddImport(0, "crate::helpers")
	table.Freeze()

	g, err := graph.Build(context.Background(), files, table, nil, graph.Options{})
	require.NoError(t, err)
	return g
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeJSON(t *testing.T, body io.Reader, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(body).Decode(v))
}

func TestHealthz(t *testing.T) {
	router := NewRouter(discardLogger(), buildToyGraph(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestListFiles(t *testing.T) {
	router := NewRouter(discardLogger(), buildToyGraph(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Files []types.File `json:"files"`
	}
	decodeJSON(t, rec.Body, &body)
	require.Len(t, body.Files, 2)
}

func TestFileMetadataKnownAndUnknownPath(t *testing.T) {
	router := NewRouter(discardLogger(), buildToyGraph(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/file/main.rs/metadata", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/file/nope.rs/metadata", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRelatedFiles(t *testing.T) {
	router := NewRouter(discardLogger(), buildToyGraph(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/file/main.rs/related", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Related []graph.RelatedFile `json:"related"`
	}
	decodeJSON(t, rec.Body, &body)
	require.Len(t, body.Related, 1)
	require.Equal(t, "helpers.rs", body.Related[0].Name)
}

func TestPairsBetweenFilesRequiresBothParams(t *testing.T) {
	router := NewRouter(discardLogger(), buildToyGraph(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pairs?a=main.rs", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pairs?a=main.rs&b=helpers.rs", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestFileMetadataPathIsURLUnescaped(t *testing.T) {
	router := NewRouter(discardLogger(), buildToyGraph(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/file/main%2Ers/metadata", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
