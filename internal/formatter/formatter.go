// package formatter provides functions to render project data to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/eWloYW8/ZJUMilCubesHelper/internal/platform"
	"github.com/eWloYW8/ZJUMilCubesHelper/internal/shared"
)

// ExportToCSV converts a project listing to CSV format with columns: ID, Title, Group, Episode, Books, Images, Videos
func ExportToCSV(projects []*platform.Project) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Group", "Episode", "Books", "Images", "Videos"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, p := range projects {
		record := []string{
			strconv.FormatInt(p.ID, 10),
			p.Title,
			strconv.FormatInt(p.GroupID, 10),
			strconv.FormatInt(p.EpisodeID, 10),
			strconv.Itoa(len(p.Books)),
			strconv.Itoa(len(p.Images)),
			strconv.Itoa(len(p.Videos)),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a single project to a Markdown summary with its media inventory
func ExportToMarkdown(p *platform.Project) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", p.Title))

	if p.Cover != "" {
		buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", p.Cover))
	}

	buf.WriteString(fmt.Sprintf("**ID**: %d\n", p.ID))
	buf.WriteString(fmt.Sprintf("**Group**: %d\n", p.GroupID))
	buf.WriteString(fmt.Sprintf("**Episode**: %d\n\n", p.EpisodeID))

	media := p.MediaURLs()
	for _, kind := range []string{"book", "image", "video"} {
		urls := media[kind]
		if len(urls) == 0 {
			continue
		}
		buf.WriteString(fmt.Sprintf("## %ss\n\n", kind))
		for i, u := range urls {
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, u))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts a project listing to plain text format
func ExportToText(projects []*platform.Project) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Projects: %d\n\n", len(projects)))
	for i, p := range projects {
		buf.WriteString(fmt.Sprintf("%d. (%d) %s\n", i+1, p.ID, p.Title))
	}

	return buf.Bytes(), nil
}

// ToProjectJSON generates an indented JSON representation of a project
func ToProjectJSON(p *platform.Project) ([]byte, error) {
	return shared.MarshalJSON(p, true)
}

// WriteCSVExport writes a project listing to a CSV file.
//
// Defaults to projects.csv when filepath is empty.
func WriteCSVExport(projects []*platform.Project, filepath string) (string, error) {
	if filepath == "" {
		filepath = "projects.csv"
	}

	csvData, err := ExportToCSV(projects)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	if err := os.WriteFile(filepath, csvData, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}

	return filepath, nil
}

// WriteTextExport writes a project listing to a plain text file.
//
// Defaults to projects.txt when filepath is empty.
func WriteTextExport(projects []*platform.Project, filepath string) (string, error) {
	if filepath == "" {
		filepath = "projects.txt"
	}

	textData, err := ExportToText(projects)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}
