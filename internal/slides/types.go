package slides

// Endpoints are the Dropbox API v1 locations the slide browser reads from.
type Endpoints struct {
	MetadataURL string // folder listing of the app folder
	ContentURL  string // file bytes; the file path is appended
}

// DropboxEndpoints returns the sandbox (app folder) endpoints.
func DropboxEndpoints() Endpoints {
	return Endpoints{
		MetadataURL: "https://api.dropbox.com/1/metadata/sandbox",
		ContentURL:  "https://api-content.dropbox.com/1/files/sandbox",
	}
}

// Entry is one item of a folder listing.
type Entry struct {
	Path     string `json:"path"`
	IsDir    bool   `json:"is_dir"`
	MimeType string `json:"mime_type,omitempty"`
	Size     string `json:"size,omitempty"`
	Bytes    int64  `json:"bytes"`
	Modified string `json:"modified,omitempty"`
}

// File is a downloaded file, or the provider status when it could not be read.
type File struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// PageResponse is returned by the informational pages.
type PageResponse struct {
	Page     string `json:"page"`
	Username string `json:"username"`
}

// SlidesResponse lists the user's slide decks.
type SlidesResponse struct {
	Username string  `json:"username"`
	Contents []Entry `json:"contents"`
}

// PresenterResponse points the presenter view at a deck.
type PresenterResponse struct {
	PDF      string `json:"pdf"`
	Username string `json:"username"`
}

// defaultContentType is used when the metadata header is absent or unreadable.
const defaultContentType = "application/octet-stream"
