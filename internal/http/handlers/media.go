package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"mediaforge/internal/domain"
	"mediaforge/internal/media"
	"mediaforge/internal/storage"
	"mediaforge/pkg/archive"
)

type videoAsyncResponse struct {
	OperationID string `json:"operation_id"`
	Status      string `json:"status"`
}

func (a *App) ImagesGenerate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var in media.ImageGenerationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(in.Prompt) == "" || in.ProjectID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "prompt and project_id required")
		return
	}
	resp, err := a.Media.GenerateImage(r.Context(), userID, in)
	if err != nil {
		a.serviceError(w, err)
		return
	}
	a.json(w, http.StatusCreated, resp)
}

func (a *App) ImagesUpscale(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var in media.ImageUpscaleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if !storage.IsStorageURI(in.GcsURI) || in.ProjectID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "gcs_uri and project_id required")
		return
	}
	resp, err := a.Media.UpscaleImage(r.Context(), userID, in)
	if err != nil {
		a.serviceError(w, err)
		return
	}
	a.json(w, http.StatusCreated, resp)
}

func (a *App) MusicGenerate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var in media.MusicGenerationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(in.Prompt) == "" || in.ProjectID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "prompt and project_id required")
		return
	}
	resp, err := a.Media.GenerateMusic(r.Context(), userID, in)
	if err != nil {
		a.serviceError(w, err)
		return
	}
	a.json(w, http.StatusCreated, resp)
}

func (a *App) AudioGenerate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var in media.AudioGenerationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(in.Prompt) == "" || in.ProjectID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "prompt and project_id required")
		return
	}
	resp, err := a.Media.GenerateAudio(r.Context(), userID, in)
	if err != nil {
		a.serviceError(w, err)
		return
	}
	a.json(w, http.StatusCreated, resp)
}

// VideosGenerateAsync accepts the request, hands it to the job queue, and
// responds immediately with the correlation id for status polling.
func (a *App) VideosGenerateAsync(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var in media.VideoGenerationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(in.Prompt) == "" || in.ProjectID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "prompt and project_id required")
		return
	}
	operationID, err := a.Media.GenerateVideoAsync(r.Context(), userID, in)
	if err != nil {
		a.serviceError(w, err)
		return
	}
	a.json(w, http.StatusAccepted, videoAsyncResponse{
		OperationID: operationID,
		Status:      string(domain.StatusPending),
	})
}

func (a *App) VideoStatus(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	operationID := r.URL.Query().Get("operationId")
	if operationID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "operationId required")
		return
	}
	resp, err := a.Media.GetVideoGenerationResults(r.Context(), userID, operationID)
	if err != nil {
		a.serviceError(w, err)
		return
	}
	a.json(w, http.StatusOK, resp)
}

func (a *App) MediaHistory(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	q := r.URL.Query()
	query := domain.HistoryQuery{
		Page:      intQuery(q.Get("page")),
		Limit:     intQuery(q.Get("limit")),
		MediaType: domain.MediaType(strings.ToUpper(q.Get("media_type"))),
		Status:    domain.RequestStatus(strings.ToUpper(q.Get("status"))),
		ProjectID: q.Get("project_id"),
		Search:    q.Get("search"),
	}
	page, err := a.Media.GetMediaHistory(r.Context(), userID, query)
	if err != nil {
		a.serviceError(w, err)
		return
	}
	a.json(w, http.StatusOK, page)
}

func (a *App) MediaByID(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	resp, err := a.Media.GetMediaRequestByID(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		a.serviceError(w, err)
		return
	}
	a.json(w, http.StatusOK, resp)
}

// MediaArchive streams all stored artifacts of one generation as a zip. It
// pulls objects by their storage-native identifiers, not the signed URLs.
func (a *App) MediaArchive(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	id := chi.URLParam(r, "id")
	resp, err := a.Media.GetMediaRequestByID(r.Context(), id, userID)
	if err != nil {
		a.serviceError(w, err)
		return
	}
	if len(resp.Results) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "no results to archive")
		return
	}

	assets := make([]archive.Asset, 0, len(resp.Results))
	for i, res := range resp.Results {
		uri := res.ResultURL
		if original, ok := res.Metadata[media.MetadataOriginalURIKey].(string); ok {
			uri = original
		}
		if !storage.IsStorageURI(uri) {
			continue
		}
		data, err := a.Storage.Download(r.Context(), uri)
		if err != nil {
			a.Logger.Error().Err(err).Str("uri", uri).Msg("handlers: archive download failed")
			a.error(w, http.StatusBadGateway, "storage_failure", "failed to fetch stored results")
			return
		}
		_, object, err := storage.ParseURI(uri)
		if err != nil {
			continue
		}
		name := object[strings.LastIndex(object, "/")+1:]
		assets = append(assets, archive.Asset{
			Filename: fmt.Sprintf("%02d_%s", i, name),
			Data:     data,
		})
	}
	if len(assets) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "no stored results to archive")
		return
	}

	data, err := archive.Build(assets)
	if err != nil {
		a.Logger.Error().Err(err).Msg("handlers: build archive failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".zip"))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func intQuery(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
