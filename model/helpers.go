package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// exportPage writes the source of the page on screen to a local directory.
func (m *Model) exportPage() error {
	if m.pageSource == "" {
		return fmt.Errorf("no page source loaded")
	}
	exportDir := fmt.Sprintf("bluewiki_export_%d", time.Now().Unix())
	if err := os.MkdirAll(exportDir, 0755); err != nil {
		return err
	}

	name := strings.ReplaceAll(strings.Trim(m.ctrl.CurrentURI(), "/"), "/", "_")
	if filepath.Ext(name) == "" {
		name += ".md"
	}
	path := filepath.Join(exportDir, name)
	if err := os.WriteFile(path, []byte(m.pageSource), 0644); err != nil {
		return err
	}

	m.setStatus(fmt.Sprintf("Exported %s to %s", m.ctrl.CurrentURI(), path))
	return nil
}
