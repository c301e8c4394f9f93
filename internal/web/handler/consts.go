package handler

const (
	// RootPath is the root path of the route group.
	RootPath = "/"

	// ErrNilACFatalLogMsg is used if the app, cfg or flow service pointer is nil.
	ErrNilACFatalLogMsg = "app, cfg or flow service is nil"
)
