package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"mediaforge/internal/domain"
)

type projectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type projectDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (a *App) ProjectsCreate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "name required")
		return
	}

	project := &domain.Project{
		ID:          uuid.NewString(),
		OwnerID:     userID,
		Name:        req.Name,
		Description: req.Description,
	}
	if err := a.Projects.Create(r.Context(), project); err != nil {
		a.Logger.Error().Err(err).Msg("handlers: create project failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create project")
		return
	}
	a.json(w, http.StatusCreated, newProjectDTO(project))
}

func (a *App) ProjectsList(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	projects, err := a.Projects.ListByOwner(r.Context(), userID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("handlers: list projects failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list projects")
		return
	}
	out := make([]projectDTO, 0, len(projects))
	for i := range projects {
		out = append(out, newProjectDTO(&projects[i]))
	}
	a.json(w, http.StatusOK, out)
}

func (a *App) ProjectsGet(w http.ResponseWriter, r *http.Request) {
	project, ok := a.ownedProject(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, newProjectDTO(project))
}

func (a *App) ProjectsUpdate(w http.ResponseWriter, r *http.Request) {
	project, ok := a.ownedProject(w, r)
	if !ok {
		return
	}
	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Name) != "" {
		project.Name = req.Name
	}
	project.Description = req.Description

	if err := a.Projects.Update(r.Context(), project); err != nil {
		a.Logger.Error().Err(err).Msg("handlers: update project failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to update project")
		return
	}
	a.json(w, http.StatusOK, newProjectDTO(project))
}

func (a *App) ProjectsDelete(w http.ResponseWriter, r *http.Request) {
	project, ok := a.ownedProject(w, r)
	if !ok {
		return
	}
	if err := a.Projects.Delete(r.Context(), project.ID); err != nil {
		a.Logger.Error().Err(err).Msg("handlers: delete project failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to delete project")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ownedProject loads the {id} project and enforces ownership. Foreign
// projects read as not found so ids do not leak across tenants.
func (a *App) ownedProject(w http.ResponseWriter, r *http.Request) (*domain.Project, bool) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return nil, false
	}
	id := chi.URLParam(r, "id")
	project, err := a.Projects.GetByID(r.Context(), id)
	if err != nil || project.OwnerID != userID {
		a.error(w, http.StatusNotFound, "not_found", "project not found")
		return nil, false
	}
	return project, true
}

func newProjectDTO(p *domain.Project) projectDTO {
	return projectDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
