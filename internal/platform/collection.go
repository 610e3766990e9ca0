package platform

// ProjectCollection is an ordered snapshot of one listing page, indexed by
// project ID and by title for constant-time lookup. It never refreshes
// itself; staleness is the caller's concern.
type ProjectCollection struct {
	projects []*Project
	byID     map[int64]*Project
	byTitle  map[string]*Project
}

// NewProjectCollection builds an indexed collection from the given projects,
// preserving server order. IDs are unique within a page; should the server
// ever repeat one, the first occurrence wins in the index while the slice
// keeps every entry. Duplicate titles are possible upstream and likewise
// resolve to the first match.
func NewProjectCollection(projects []*Project) *ProjectCollection {
	c := &ProjectCollection{
		projects: projects,
		byID:     make(map[int64]*Project, len(projects)),
		byTitle:  make(map[string]*Project, len(projects)),
	}

	for _, p := range projects {
		if _, seen := c.byID[p.ID]; !seen {
			c.byID[p.ID] = p
		}
		if _, seen := c.byTitle[p.Title]; !seen {
			c.byTitle[p.Title] = p
		}
	}

	return c
}

// Len returns the number of projects in the snapshot.
func (c *ProjectCollection) Len() int {
	return len(c.projects)
}

// All returns the projects in server order. The slice is shared; callers
// must not mutate it.
func (c *ProjectCollection) All() []*Project {
	return c.projects
}

// IDs returns the project IDs in server order.
func (c *ProjectCollection) IDs() []int64 {
	ids := make([]int64, len(c.projects))
	for i, p := range c.projects {
		ids[i] = p.ID
	}
	return ids
}

// FindByID returns the project with the given ID, or nil if the snapshot
// does not contain it. Pure lookup, no network.
func (c *ProjectCollection) FindByID(id int64) *Project {
	return c.byID[id]
}

// FindByTitle returns the first project with the given title, or nil if the
// snapshot does not contain one. Titles are not unique upstream; first match
// wins. Pure lookup, no network.
func (c *ProjectCollection) FindByTitle(title string) *Project {
	return c.byTitle[title]
}
