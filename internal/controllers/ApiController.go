package controllers

import (
	"errors"
	"fmt"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/spf13/cast"

	"srd/internal/models"
	"srd/internal/providers"
	"srd/internal/services"
)

const (
	maxRequestBodySize = 1 << 20  // 1 MB
	maxImportBodySize  = 32 << 20 // 32 MB, snapshots carry whole collections
)

type ApiController struct {
	logger  providers.Logger
	service services.ReviewServiceInterface
	cache   providers.CacheProviderInterface
}

func NewApiController(logger providers.Logger, service services.ReviewServiceInterface, cache providers.CacheProviderInterface) *ApiController {
	return &ApiController{
		logger:  logger,
		service: service,
		cache:   cache,
	}
}

func getPack(r *http.Request) string {
	return r.URL.Query().Get("pack")
}

// versionedKey stamps the service's mutation counter into a cache key,
// so every write invalidates all cached reads at once.
func (ac *ApiController) versionedKey(base string) string {
	return fmt.Sprintf("%s:v%d", base, ac.service.Version())
}

func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, cacheKey string, compute func() (any, error)) {
	if data, ok := ac.cache.Get(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	result, err := compute()
	if err != nil {
		ac.writeError(w, err)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ac.cache.Set(cacheKey, gson)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

// writeError maps domain errors onto HTTP statuses: unknown ids are
// 404, rejected input is 400, anything else is a logged 500.
func (ac *ApiController) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrCardNotFound) || errors.Is(err, models.ErrPackNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, models.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		ac.logger.Errorf(providers.TypeApp, "Request failed: %s", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (ac *ApiController) writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

func (ac *ApiController) AddCard(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var payload models.AddCardInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	card, err := ac.service.AddCard(&payload)
	if err != nil {
		ac.writeError(w, err)
		return
	}
	ac.writeJSON(w, http.StatusCreated, card)
}

func (ac *ApiController) RemoveCard(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if err := ac.service.RemoveCard(id); err != nil {
		ac.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type savedResponse struct {
	Saved bool `json:"saved"`
}

func (ac *ApiController) IsCardSaved(w http.ResponseWriter, r *http.Request) {
	sourceType := r.URL.Query().Get("type")
	sourceID := r.URL.Query().Get("id")
	ac.serveFromCacheOrCompute(w, ac.versionedKey("saved:"+sourceType+":"+sourceID), func() (any, error) {
		return savedResponse{Saved: ac.service.IsCardSaved(models.SourceType(sourceType), sourceID)}, nil
	})
}

func (ac *ApiController) GetDueCards(w http.ResponseWriter, r *http.Request) {
	pack := getPack(r)
	ac.serveFromCacheOrCompute(w, ac.versionedKey("due:"+pack), func() (any, error) {
		return ac.service.GetDueCards(pack)
	})
}

func (ac *ApiController) RecordReview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var payload models.ReviewInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	card, err := ac.service.RecordReview(payload.CardID, payload.Quality)
	if err != nil {
		ac.writeError(w, err)
		return
	}
	ac.writeJSON(w, http.StatusOK, card)
}

type undoResponse struct {
	Undone bool         `json:"undone"`
	Card   *models.Card `json:"card,omitempty"`
}

// UndoReview reverses the latest review of a card when still allowed.
// An expired or absent undo is not an error; the response just says
// nothing was undone.
func (ac *ApiController) UndoReview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var payload models.UndoInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	card, undone := ac.service.UndoLastReview(payload.CardID)
	ac.writeJSON(w, http.StatusOK, undoResponse{Undone: undone, Card: card})
}

func (ac *ApiController) PreviewIntervals(w http.ResponseWriter, r *http.Request) {
	cardID := r.URL.Query().Get("card")
	ac.serveFromCacheOrCompute(w, ac.versionedKey("preview:"+cardID), func() (any, error) {
		return ac.service.PreviewIntervals(cardID)
	})
}

func (ac *ApiController) GetPacks(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, ac.versionedKey("packs"), func() (any, error) {
		return ac.service.GetPacks(), nil
	})
}

func (ac *ApiController) CreatePack(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var payload models.PackInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	pack, err := ac.service.CreatePack(payload.Name)
	if err != nil {
		ac.writeError(w, err)
		return
	}
	ac.writeJSON(w, http.StatusCreated, pack)
}

func (ac *ApiController) DeletePack(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if err := ac.service.DeletePack(id); err != nil {
		ac.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (ac *ApiController) RenamePack(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var payload models.RenamePackInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	pack, err := ac.service.RenamePack(payload.PackID, payload.Name)
	if err != nil {
		ac.writeError(w, err)
		return
	}
	ac.writeJSON(w, http.StatusOK, pack)
}

func (ac *ApiController) AssignCard(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var payload models.PackAssignmentInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if err := ac.service.AssignCard(payload.CardID, payload.PackID); err != nil {
		ac.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (ac *ApiController) UnassignCard(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var payload models.PackAssignmentInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if err := ac.service.UnassignCard(payload.CardID, payload.PackID); err != nil {
		ac.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (ac *ApiController) GetStats(w http.ResponseWriter, r *http.Request) {
	window := cast.ToInt(r.URL.Query().Get("window"))
	topN := cast.ToInt(r.URL.Query().Get("n"))
	key := ac.versionedKey(fmt.Sprintf("stats:%d:%d", window, topN))
	ac.serveFromCacheOrCompute(w, key, func() (any, error) {
		return ac.service.GetStats(window, topN), nil
	})
}

func (ac *ApiController) GetSummary(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, ac.versionedKey("summary"), func() (any, error) {
		return ac.service.GetSummary(), nil
	})
}

func (ac *ApiController) ExportData(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, ac.versionedKey("export"), func() (any, error) {
		return ac.service.GetSnapshot(), nil
	})
}

func (ac *ApiController) ImportData(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBodySize)
	var snapshot models.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snapshot); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if err := ac.service.PutSnapshot(&snapshot); err != nil {
		ac.writeError(w, err)
		return
	}
	ac.logger.Infof(providers.TypePost, "Imported snapshot with %d cards", len(snapshot.Cards))
	w.WriteHeader(http.StatusNoContent)
}

// ClearData wipes everything and answers with the pre-deletion counts,
// so the caller can show what is gone.
func (ac *ApiController) ClearData(w http.ResponseWriter, r *http.Request) {
	summary := ac.service.ClearData()
	ac.logger.Warnf(providers.TypeApp, "Cleared all review data: %d cards, %d reviews", summary.Cards, summary.Reviews)
	ac.writeJSON(w, http.StatusOK, summary)
}
