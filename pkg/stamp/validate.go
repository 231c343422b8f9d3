// validate.go — Report placements whose library stamp no longer resolves.
package stamp

import "fmt"

// Orphans returns the placements whose library id is not in the snapshot.
// Orphans are skipped when rendering; they are never an error.
func (s *Snapshot) Orphans() []Placement {
	var result []Placement
	for _, p := range s.Placements {
		if _, ok := s.byID[p.LibraryID]; !ok {
			result = append(result, p)
		}
	}
	return result
}

// Warnings describes every orphaned placement, one line each, for logs.
func (s *Snapshot) Warnings() []string {
	var warnings []string
	for _, p := range s.Orphans() {
		warnings = append(warnings, fmt.Sprintf("placement %s on page %d references unknown stamp %q, skipped", p.ID, p.Page, p.LibraryID))
	}
	return warnings
}
