package web

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"Sparkle/internal/core/assets"
	"Sparkle/internal/core/posts"
	"Sparkle/internal/session"
)

// multipartMemory is how much of a multipart body is held in memory before
// spilling to temporary files
const multipartMemory = 8 << 20

// NewPostData is the data the new post form renders
type NewPostData struct {
	Title        string
	Content      string
	ImageURL     string
	ExternalURL  string
	Error        string
	MaxImageSize string
	Busy         bool
}

func (h *Handlers) maxImageBytes() int64 {
	if h.MaxImageBytes > 0 {
		return h.MaxImageBytes
	}
	return assets.DefaultMaxBytes
}

func (h *Handlers) newPostData() NewPostData {
	return NewPostData{MaxImageSize: fmt.Sprintf("%dMB", h.maxImageBytes()>>20)}
}

// NewPostFormHandler handles GET /posts/new
func (h *Handlers) NewPostFormHandler(w http.ResponseWriter, r *http.Request) {
	data := h.newPostData()
	data.Busy = h.Submitter.State(session.ViewerID(r.Context())).Busy()
	h.render(w, r, http.StatusOK, "new_post.html", h.page(w, r, DefaultMeta(h.pageURL(r)), data))
}

// SubmitPostHandler handles POST /posts/new. On success the form is cleared
// and the browser returns to the feed, which picks the new post up from the
// change stream.
func (h *Handlers) SubmitPostHandler(w http.ResponseWriter, r *http.Request) {
	viewerID := session.ViewerID(r.Context())
	if viewerID == "" {
		http.Redirect(w, r, session.LoginURL(posts.MsgLoginRequired), http.StatusSeeOther)
		return
	}

	data := h.newPostData()

	// Allow headroom past the image limit so oversized files reach validation
	// and get the size message instead of a generic parse error.
	r.Body = http.MaxBytesReader(w, r.Body, 2*h.maxImageBytes()+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			data.Error = assets.UserMessage(assets.ErrImageTooLarge, h.maxImageBytes())
		} else {
			data.Error = posts.MsgGenericFailure
		}
		h.render(w, r, http.StatusBadRequest, "new_post.html", h.page(w, r, DefaultMeta(h.pageURL(r)), data))
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	form := posts.SubmissionForm{
		Title:       r.FormValue("title"),
		Content:     r.FormValue("content"),
		ImageURL:    r.FormValue("image_url"),
		ExternalURL: r.FormValue("external_url"),
	}
	data.Title, data.Content, data.ImageURL, data.ExternalURL = form.Title, form.Content, form.ImageURL, form.ExternalURL

	file, header, err := r.FormFile("image")
	if err == nil {
		defer func() { _ = file.Close() }()
		form.Image = imageFile(file, header)
	}

	if _, err := h.Submitter.Submit(r.Context(), viewerID, form); err != nil {
		data.Error = posts.UserMessage(err)
		status := http.StatusUnprocessableEntity
		if errors.Is(err, posts.ErrSubmissionInProgress) {
			status = http.StatusConflict
			data.Busy = true
		}
		h.render(w, r, status, "new_post.html", h.page(w, r, DefaultMeta(h.pageURL(r)), data))
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func imageFile(file multipart.File, header *multipart.FileHeader) *assets.ImageFile {
	if header.Size == 0 && strings.TrimSpace(header.Filename) == "" {
		return nil
	}
	return &assets.ImageFile{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Reader:      file,
	}
}
