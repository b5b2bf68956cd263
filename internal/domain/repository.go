package domain

import "strings"

// Repository is the local git checkout a prompt is submitted from.
type Repository struct {
	Host      string
	Owner     string
	Name      string
	RemoteURL string
}

// SameAs reports whether both values point at the same hosted repository.
// Hosts are compared only when both are known.
func (r Repository) SameAs(other Repository) bool {
	if r.Host != "" && other.Host != "" && !strings.EqualFold(r.Host, other.Host) {
		return false
	}
	return strings.EqualFold(r.Owner, other.Owner) && strings.EqualFold(r.Name, other.Name)
}
