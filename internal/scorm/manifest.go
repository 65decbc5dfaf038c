package scorm

import (
	"archive/zip"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

const (
	ManifestFile = "imsmanifest.xml"
	QuizDataFile = "quiz_data.json"
	LauncherFile = "quiz_launcher.html"

	defaultMasteryScore = 70
)

type manifest struct {
	XMLName        xml.Name `xml:"manifest"`
	Identifier     string   `xml:"identifier,attr"`
	Version        string   `xml:"version,attr"`
	Xmlns          string   `xml:"xmlns,attr"`
	XmlnsXsi       string   `xml:"xmlns:xsi,attr"`
	XmlnsAdlcp     string   `xml:"xmlns:adlcp,attr"`
	XmlnsImsss     string   `xml:"xmlns:imsss,attr,omitempty"`
	SchemaLocation string   `xml:"xsi:schemaLocation,attr"`

	Metadata      manifestMetadata `xml:"metadata"`
	Organizations organizations    `xml:"organizations"`
	Resources     resources        `xml:"resources"`
}

type manifestMetadata struct {
	Schema        string `xml:"schema"`
	SchemaVersion string `xml:"schemaversion"`
}

type organizations struct {
	Default      string       `xml:"default,attr"`
	Organization organization `xml:"organization"`
}

type organization struct {
	Identifier string `xml:"identifier,attr"`
	Structure  string `xml:"structure,attr"`
	Title      string `xml:"title"`
	Item       item   `xml:"item"`
}

type item struct {
	Identifier    string      `xml:"identifier,attr"`
	IdentifierRef string      `xml:"identifierref,attr"`
	IsVisible     string      `xml:"isvisible,attr"`
	Title         string      `xml:"title"`
	MasteryScore  string      `xml:"adlcp:masteryscore,omitempty"`
	Sequencing    *sequencing `xml:"imsss:sequencing,omitempty"`
}

type sequencing struct {
	ControlMode controlMode `xml:"imsss:controlMode"`
}

type controlMode struct {
	Choice string `xml:"choice,attr"`
	Flow   string `xml:"flow,attr"`
}

type resources struct {
	Resource resource `xml:"resource"`
}

type resource struct {
	Identifier string `xml:"identifier,attr"`
	Type       string `xml:"type,attr"`
	ScormType  string `xml:"adlcp:scormtype,attr"`
	Href       string `xml:"href,attr"`
	Files      []file `xml:"file"`
}

type file struct {
	Href string `xml:"href,attr"`
}

// PackageOptions lists extra files shipped next to the quiz data, typically
// the player bundle, keyed by path inside the package. A launcher page is
// generated from Launcher unless Assets already carries one.
type PackageOptions struct {
	Assets   map[string][]byte
	Launcher LauncherOptions
}

// Manifest renders imsmanifest.xml for the quiz. The SCORM version comes
// from the quiz settings and defaults to 1.2.
func Manifest(q *models.Quiz, files []string) ([]byte, error) {
	settings := q.SettingsOrDefault()
	version := models.Scorm12
	if settings.Scorm != nil && settings.Scorm.Version != "" {
		version = settings.Scorm.Version
	}

	id := q.ID
	m := manifest{
		Identifier: id + "_MANIFEST",
		Version:    "1.1",
		Xmlns:      "http://www.imsglobal.org/xsd/imscp_v1p1",
		XmlnsXsi:   "http://www.w3.org/2001/XMLSchema-instance",
		Metadata:   manifestMetadata{Schema: "ADL SCORM"},
		Organizations: organizations{
			Default: "ORG-" + id,
			Organization: organization{
				Identifier: "ORG-" + id,
				Structure:  "hierarchical",
				Title:      q.Title,
				Item: item{
					Identifier:    "ITEM-" + id,
					IdentifierRef: "RES-" + id,
					IsVisible:     "true",
					Title:         q.Title,
				},
			},
		},
		Resources: resources{Resource: resource{
			Identifier: "RES-" + id,
			Type:       "webcontent",
			ScormType:  "sco",
			Href:       LauncherFile,
		}},
	}

	if version == models.Scorm2004 {
		m.Metadata.SchemaVersion = "2004 4th Edition"
		m.XmlnsAdlcp = "http://www.adlnet.org/xsd/adlcp_v1p3"
		m.XmlnsImsss = "http://www.imsglobal.org/xsd/imsss"
		m.SchemaLocation = "http://www.imsglobal.org/xsd/imscp_v1p1 imscp_v1p1.xsd " +
			"http://www.adlnet.org/xsd/adlcp_v1p3 adlcp_v1p3.xsd " +
			"http://www.imsglobal.org/xsd/imsss imsss_v1p0.xsd"
		m.Organizations.Organization.Item.Sequencing = &sequencing{
			ControlMode: controlMode{Choice: "true", Flow: "true"},
		}
	} else {
		m.Metadata.SchemaVersion = "1.2"
		m.XmlnsAdlcp = "http://www.adlnet.org/xsd/adlcp_rootv1p2"
		m.SchemaLocation = "http://www.imsglobal.org/xsd/imscp_v1p1 imscp_v1p1.xsd " +
			"http://www.adlnet.org/xsd/adlcp_rootv1p2 adlcp_rootv1p2.xsd"
		mastery := float64(defaultMasteryScore)
		if settings.PassingScorePercent != nil {
			mastery = *settings.PassingScorePercent
		}
		m.Organizations.Organization.Item.MasteryScore = strconv.FormatFloat(mastery, 'f', -1, 64)
	}

	for _, f := range files {
		m.Resources.Resource.Files = append(m.Resources.Resource.Files, file{Href: f})
	}

	body, err := xml.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to render manifest: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

// WritePackage writes a SCORM content package zip: the manifest, the quiz
// definition as quiz_data.json, the launcher page and any assets.
func WritePackage(w io.Writer, q *models.Quiz, opts PackageOptions) error {
	data, err := json.MarshalIndent(q, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode quiz data: %w", err)
	}

	if _, ok := opts.Assets[LauncherFile]; !ok {
		page, err := Launcher(q, opts.Launcher)
		if err != nil {
			return err
		}
		assets := make(map[string][]byte, len(opts.Assets)+1)
		for name, body := range opts.Assets {
			assets[name] = body
		}
		assets[LauncherFile] = page
		opts.Assets = assets
	}

	assetNames := make([]string, 0, len(opts.Assets))
	for name := range opts.Assets {
		if name == ManifestFile || name == QuizDataFile {
			continue
		}
		assetNames = append(assetNames, name)
	}
	slices.Sort(assetNames)

	files := []string{LauncherFile, QuizDataFile}
	for _, name := range assetNames {
		if name != LauncherFile {
			files = append(files, name)
		}
	}

	manifestXML, err := Manifest(q, files)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	entries := []struct {
		name string
		body []byte
	}{
		{ManifestFile, manifestXML},
		{QuizDataFile, data},
	}
	for _, name := range assetNames {
		entries = append(entries, struct {
			name string
			body []byte
		}{name, opts.Assets[name]})
	}

	for _, e := range entries {
		fw, err := zw.Create(e.name)
		if err != nil {
			return fmt.Errorf("failed to add %s: %w", e.name, err)
		}
		if _, err := fw.Write(e.body); err != nil {
			return fmt.Errorf("failed to write %s: %w", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish package: %w", err)
	}
	return nil
}
