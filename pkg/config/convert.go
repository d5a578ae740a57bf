package config

import (
	"strings"

	"fleetdesk/exporter/pkg/export"
	"fleetdesk/exporter/pkg/history"
	"fleetdesk/exporter/pkg/history/retention"
)

var orientations = map[string]string{"landscape": "L", "portrait": "P"}

// DispatcherConfig converts the export and pdf sections into a dispatcher
// configuration. The configuration must have passed Validate.
func (c *Config) DispatcherConfig() *export.Config {
	style := export.DefaultTableStyle()
	style.Orientation = orientations[strings.ToLower(c.PDF.Orientation)]
	style.PageSize = c.PDF.PageSize
	style.Margin = c.PDF.Margin
	style.FontSize = c.PDF.FontSize
	style.Title = c.PDF.Title
	if col, err := parseHexColor(c.PDF.HeaderColor); err == nil {
		style.HeaderFill = col
	}
	if col, err := parseHexColor(c.PDF.StripeColor); err == nil {
		style.StripeFill = col
	}

	return &export.Config{
		DefaultFileName: c.Export.DefaultFileName,
		JSONPretty:      c.Export.JSONPretty,
		CSVUseCRLF:      c.Export.CSVUseCRLF,
		PDF: export.PDFConfig{
			DefaultColumnWidth: c.PDF.DefaultColumnWidth,
			NarrowColumnWidth:  c.PDF.NarrowColumnWidth,
			Style:              style,
		},
	}
}

// HistorySQLiteConfig converts history.sqlite into a store configuration.
func (c *Config) HistorySQLiteConfig() *history.SQLiteConfig {
	return &history.SQLiteConfig{
		Path:         c.History.SQLite.Path,
		Driver:       c.History.SQLite.Driver,
		MaxOpenConns: c.History.SQLite.MaxOpenConns,
		WALMode:      c.History.SQLite.WALMode,
		BusyTimeout:  c.History.SQLite.BusyTimeout,
	}
}

// RetentionConfig converts history.retention into a pruner configuration.
// Output files are only pruned when prune_output is set.
func (c *Config) RetentionConfig() *retention.Config {
	rc := &retention.Config{
		MaxAge:     c.History.Retention.MaxAge,
		MaxJobs:    c.History.Retention.MaxJobs,
		Schedule:   c.History.Retention.Schedule,
		ArchiveDir: c.History.Retention.ArchiveDir,
	}
	if c.History.Retention.PruneOutput {
		rc.OutputDir = c.Export.OutputDir
	}
	return rc
}
