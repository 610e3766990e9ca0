// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for browsing and exporting projects:
//  1. [ProjectListView] : Browse the account's projects
//  2. [ProjectDetailView] : Inspect a project's media inventory
//  3. [ConfirmView] : Confirm the download operation
//  4. [DownloadView] : Monitor real-time progress updates
//  5. [ResultView] : Display the download summary and failed assets
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the SyncEngine, providing non-blocking status reporting during downloads.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
