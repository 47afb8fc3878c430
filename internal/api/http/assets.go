// internal/api/http/assets.go
package http

import (
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/examportal/internal/flash"
	"github.com/mind-engage/examportal/internal/storage"
	"github.com/mind-engage/examportal/internal/users"
)

const maxPictureBytes = 8 << 20

// POST /student/profile/picture/  multipart field "picture"
func UploadPictureHandler(bs storage.BlobStore, accounts users.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := principal(r)
		r.Body = http.MaxBytesReader(w, r.Body, maxPictureBytes)
		f, _, err := r.FormFile("picture")
		if err != nil {
			redirect(w, r, "/student/profile/", flash.Error, "Please choose an image to upload!")
			return
		}
		defer f.Close()

		thumb, err := storage.Thumbnail(f, storage.ProfilePictureSize)
		if errors.Is(err, storage.ErrImageTooLarge) {
			redirect(w, r, "/student/profile/", flash.Error,
				"Image is too large! Maximum is "+strconv.Itoa(storage.MaxImageSide)+"x"+strconv.Itoa(storage.MaxImageSide)+" pixels.")
			return
		}
		if err != nil {
			redirect(w, r, "/student/profile/", flash.Error, "Uploaded file is not a valid image!")
			return
		}
		key, err := bs.Put("profiles/"+strconv.FormatInt(p.UserID, 10)+".jpg", thumb)
		if err != nil {
			log.Printf("picture upload %d: %v", p.UserID, err)
			redirect(w, r, "/student/profile/", flash.Error, "Error saving picture. Please try again.")
			return
		}
		if err := accounts.SetPictureKey(r.Context(), p.UserID, key); err != nil {
			log.Printf("picture key %d: %v", p.UserID, err)
			redirect(w, r, "/student/profile/", flash.Error, "Error saving picture. Please try again.")
			return
		}
		redirect(w, r, "/student/profile/", flash.Success, "Profile picture updated!")
	}
}

// GET /media/*  -> the blob at whatever follows /media/
func MediaHandler(bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		rc, err := bs.Get(key)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				log.Printf("media %q: %v", key, err)
			}
			http.NotFound(w, r)
			return
		}
		defer rc.Close()
		ct := mime.TypeByExtension(path.Ext(key))
		if ct == "" {
			ct = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ct)
		_, _ = io.Copy(w, rc)
	}
}
