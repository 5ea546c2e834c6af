package storage

// StoredCookie is a cookie persisted to the session file.
type StoredCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// sessionFile is the on-disk layout of the session file.
type sessionFile struct {
	URL     string         `json:"url"`     // API base URL the cookies belong to
	Cookies []StoredCookie `json:"cookies"` // name/value pairs scoped to "/"
}
