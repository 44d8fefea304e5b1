package export

import (
	"time"

	"github.com/hupe1980/tetgeo/meshio"
)

// ManifestName is the blob name of the manifest below the run prefix.
const ManifestName = "manifest.json"

// Kind names the content of an artifact.
type Kind string

const (
	KindDomain Kind = "domain"
	KindGroup  Kind = "group"
	KindSkin   Kind = "skin"
)

// Artifact describes one written blob.
type Artifact struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
	// Group is the partition direction for KindGroup artifacts.
	Group  int    `json:"group,omitempty"`
	Points int    `json:"points"`
	Cells  int    `json:"cells"`
	Bytes  int64  `json:"bytes"`
	CRC32C string `json:"crc32c"`
}

// Manifest lists the artifacts of one run.
type Manifest struct {
	RunID       string     `json:"run_id"`
	Input       string     `json:"input,omitempty"`
	Prefix      string     `json:"prefix"`
	Compression string     `json:"compression"`
	CreatedAt   time.Time  `json:"created_at"`
	Artifacts   []Artifact `json:"artifacts"`
}

// Names returns the full blob names of all artifacts.
func (m *Manifest) Names() []string {
	names := make([]string, len(m.Artifacts))
	for i, a := range m.Artifacts {
		names[i] = a.Name
	}
	return names
}

// TotalBytes sums the artifact sizes.
func (m *Manifest) TotalBytes() int64 {
	var n int64
	for _, a := range m.Artifacts {
		n += a.Bytes
	}
	return n
}

type job struct {
	artifact Artifact
	data     *meshio.FileData
}
