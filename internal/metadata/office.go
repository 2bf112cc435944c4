package metadata

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"strings"

	"foldersort/internal/errkind"
)

// coreProperties mirrors the subset of docProps/core.xml fields that
// templates can reasonably reference.
type coreProperties struct {
	XMLName xml.Name `xml:"coreProperties"`
	Title   string   `xml:"title"`
	Creator string   `xml:"creator"`
	Subject string   `xml:"subject"`
	Created string   `xml:"created"`
}

// readOfficeCoreProperties extracts docProps/core.xml from an Office
// Open XML package (.docx/.xlsx/.pptx, all zip archives).
func readOfficeCoreProperties(path string) (map[string]string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s as office archive: %w: %w", path, errkind.IO, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "docProps/core.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening docProps/core.xml in %s: %w: %w", path, errkind.IO, err)
		}
		defer rc.Close()

		var props coreProperties
		if err := xml.NewDecoder(rc).Decode(&props); err != nil {
			return nil, fmt.Errorf("parsing docProps/core.xml in %s: %w: %w", path, errkind.Parse, err)
		}

		out := map[string]string{}
		if strings.TrimSpace(props.Title) != "" {
			out["title"] = props.Title
		}
		if strings.TrimSpace(props.Creator) != "" {
			out["author"] = props.Creator
		}
		if strings.TrimSpace(props.Subject) != "" {
			out["subject"] = props.Subject
		}
		if len(props.Created) >= 4 {
			out["year"] = props.Created[:4]
		}
		return out, nil
	}
	return nil, fmt.Errorf("%s has no docProps/core.xml: %w", path, errkind.Parse)
}
