package provider

import (
	"fmt"

	"github.com/waabox/vibedeck/internal/domain"
	"github.com/waabox/vibedeck/internal/git"
)

// Registry maps hosted repositories to the backend projects built from them.
type Registry struct {
	entries []entry
}

type entry struct {
	repo    domain.Repository
	project domain.Project
}

// NewRegistry creates a registry from the backend project list.
// Projects whose repository URL cannot be parsed are skipped.
func NewRegistry(projects []domain.Project) *Registry {
	r := &Registry{}
	for _, p := range projects {
		r.Register(p)
	}
	return r
}

// Register adds a project. It reports false when the project has no usable repository URL.
func (r *Registry) Register(p domain.Project) bool {
	repo, err := git.ParseRemoteURL(p.RepositoryURL)
	if err != nil {
		return false
	}
	r.entries = append(r.entries, entry{repo: repo, project: p})
	return true
}

// Detect returns the project built from the given repository.
// Returns an error if no project matches or if the match is ambiguous.
func (r *Registry) Detect(repo domain.Repository) (domain.Project, error) {
	var found []domain.Project
	for _, e := range r.entries {
		if e.repo.SameAs(repo) {
			found = append(found, e.project)
		}
	}
	switch len(found) {
	case 0:
		return domain.Project{}, fmt.Errorf("no project found for %s/%s: %w", repo.Owner, repo.Name, domain.ErrNotFound)
	case 1:
		return found[0], nil
	}
	return domain.Project{}, fmt.Errorf("%d projects match %s/%s, pass --project", len(found), repo.Owner, repo.Name)
}
