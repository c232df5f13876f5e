package domain

// DefaultIndexer is the only indexer iMangarr records. It is informational.
const DefaultIndexer = "nyaa"

// Settings is the singleton configuration created by the setup page.
type Settings struct {
	RootPath string `json:"root_path"`
	Indexer  string `json:"indexer"`
}

// NewSettings builds the settings record for a setup submission.
func NewSettings(rootPath string) *Settings {
	return &Settings{RootPath: rootPath, Indexer: DefaultIndexer}
}
