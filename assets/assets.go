// Package assets embeds the control panel injected into annotated reports.
package assets

import _ "embed"

// PanelTemplate is the html/template source of the floating control panel
//
//go:embed panel.html
var PanelTemplate string

// PanelCSS styles the panel and the dark appearance
//
//go:embed panel.css
var PanelCSS string
