package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/eWloYW8/ZJUMilCubesHelper/internal/platform"
)

var (
	_ list.Item = projectItem{}
	_ list.Item = mediaItem{}
)

// projectItem wraps [platform.Project] to implement [list.Item].
type projectItem struct {
	project *platform.Project
}

func (i projectItem) FilterValue() string { return i.project.Title }
func (i projectItem) Title() string       { return i.project.Title }
func (i projectItem) Description() string {
	return fmt.Sprintf("ID %d • group %d", i.project.ID, i.project.GroupID)
}

// mediaItem wraps one media reference to implement [list.Item].
type mediaItem struct {
	kind string
	url  string
}

func (i mediaItem) FilterValue() string { return i.url }
func (i mediaItem) Title() string       { return i.url }
func (i mediaItem) Description() string { return i.kind }

// mediaItems flattens a project's media inventory into list items, cover first.
func mediaItems(p *platform.Project) []list.Item {
	media := p.MediaURLs()
	items := make([]list.Item, 0)
	for _, kind := range []string{"cover", "book", "image", "video"} {
		for _, u := range media[kind] {
			items = append(items, mediaItem{kind: kind, url: u})
		}
	}
	return items
}
