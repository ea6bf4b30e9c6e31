package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"Sparkle/internal/core/likes"
	"Sparkle/internal/core/posts"
	"Sparkle/internal/session"
)

func urlParam(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// redirectBack returns the user to the page they acted from
func redirectBack(w http.ResponseWriter, r *http.Request, fallback string) {
	target := fallback
	if ref := r.Referer(); ref != "" {
		target = ref
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// LikeHandler handles POST /post/{id}/like. The form carries the state the
// card is showing; the response is the state after the toggle. Anonymous
// viewers get their current state back unchanged.
func (h *Handlers) LikeHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	current := likes.State{PostID: urlParam(r, "id")}
	current.Liked, _ = strconv.ParseBool(r.PostForm.Get("liked"))
	current.Count, _ = strconv.Atoi(r.PostForm.Get("count"))
	current.Count = max(0, current.Count)

	// Failures leave the state unchanged; the service has already logged them.
	next, _ := h.Likes.Toggle(r.Context(), session.ViewerID(r.Context()), current)

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, next)
		return
	}
	redirectBack(w, r, "/post/"+current.PostID)
}

// DeleteConfirmHandler handles GET /post/{id}/delete, the confirmation step
// for browsers without script.
func (h *Handlers) DeleteConfirmHandler(w http.ResponseWriter, r *http.Request) {
	post, err := h.Posts.GetPost(r.Context(), urlParam(r, "id"))
	if err != nil || !post.IsAuthor(session.ViewerID(r.Context())) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "confirm_delete.html", h.page(w, r, DefaultMeta(h.pageURL(r)), post))
}

// DeleteHandler handles POST /post/{id}/delete with confirm=true.
// Only the author may delete; on failure the post stays and a dismissible
// notice is shown.
func (h *Handlers) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	postID := urlParam(r, "id")
	confirmed := r.FormValue("confirm") == "true"

	err := h.Posts.DeletePost(r.Context(), session.ViewerID(r.Context()), postID, confirmed)
	switch {
	case err == nil:
		h.Sessions.AddFlash(w, r, posts.MsgDeleteSucceeded)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	case errors.Is(err, posts.ErrNotConfirmed):
		http.Redirect(w, r, "/post/"+postID+"/delete", http.StatusSeeOther)
	default:
		h.Logger.Warn("post delete refused or failed", "post_id", postID, "error", err)
		h.Sessions.AddFlash(w, r, posts.MsgDeleteFailed)
		redirectBack(w, r, "/post/"+postID)
	}
}

// ShareHandler handles GET /post/{id}/share and returns the canonical URL
func (h *Handlers) ShareHandler(w http.ResponseWriter, r *http.Request) {
	post, err := h.Posts.GetPost(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "NotFound", "message": "Post not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": h.PostURL(post.ID)})
}
