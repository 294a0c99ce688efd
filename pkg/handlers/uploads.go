package handlers

import (
	"io/fs"
	"net/http"
	"os"
)

// UploadsHandler serves stored attachments read-only under /uploads/.
// Directory listings are not served. Files are always sent as downloads in a
// sandbox so uploaded markup never runs on the API origin.
func UploadsHandler(dir string) http.Handler {
	files := http.StripPrefix("/uploads/", http.FileServerFS(noDirs{os.DirFS(dir)}))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Content-Disposition", "attachment")
		h.Set("Content-Security-Policy", "sandbox; default-src 'none'")
		h.Set("X-Content-Type-Options", "nosniff")
		files.ServeHTTP(w, r)
	})
}

type noDirs struct {
	fsys fs.FS
}

func (n noDirs) Open(name string) (fs.File, error) {
	f, err := n.fsys.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, fs.ErrNotExist
	}
	return f, nil
}
