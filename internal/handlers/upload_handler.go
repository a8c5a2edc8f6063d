package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/adilet-s/spacebook/pkg/logger"
	"github.com/adilet-s/spacebook/pkg/middleware"
	"github.com/google/uuid"
)

// UploadHandler stores avatar and post media files on local disk.
type UploadHandler struct {
	Dir string
}

func NewUploadHandler(dir string) *UploadHandler {
	return &UploadHandler{Dir: dir}
}

// UploadFileHandler accepts one multipart file and returns its public URL.
func (h *UploadHandler) UploadFileHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	r.ParseMultipartForm(10 << 20) // max ~10MB
	file, handler, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Failed to read file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if err := os.MkdirAll(h.Dir, os.ModePerm); err != nil {
		http.Error(w, "Failed to save file", http.StatusInternalServerError)
		return
	}

	fileName := fmt.Sprintf("%s_%s%s", claims.UserID, uuid.NewString(), filepath.Ext(handler.Filename))
	out, err := os.Create(filepath.Join(h.Dir, fileName))
	if err != nil {
		http.Error(w, "Failed to save file", http.StatusInternalServerError)
		return
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		http.Error(w, "Failed to save file", http.StatusInternalServerError)
		return
	}

	logger.Log.Infof("User %s uploaded %s", claims.UserID, fileName)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"url":  "/uploads/" + fileName,
		"name": handler.Filename,
	})
}
