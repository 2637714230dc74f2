package slackapi

// File is the subset of a Slack file object we read from files.list
type File struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Title    string `json:"title"`
	Created  int64  `json:"created"`
	Size     int64  `json:"size"`
	Filetype string `json:"filetype"`
	User     string `json:"user"`
}

// envelope is the common Slack Web API response wrapper. OK is a pointer so that a body
// that omits it is distinguishable from an explicit "ok": false.
type envelope struct {
	OK    *bool  `json:"ok"`
	Error string `json:"error"`
}

func (e envelope) rejected() bool {
	return e.OK != nil && !*e.OK
}

// FileListResponse represents the response from files.list
type FileListResponse struct {
	envelope
	Files  *[]File `json:"files"`
	Paging *Paging `json:"paging,omitempty"`
}

// Paging is reported by files.list. Only the first page is requested.
type Paging struct {
	Count int `json:"count"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

// DeleteResponse represents the response from files.delete
type DeleteResponse struct {
	envelope
}
