package middleware

// SessionFinder reports whether an upload session is live. It decouples
// RequireSession from the concrete session store.
type SessionFinder interface {
	Exists(id string) bool
}
