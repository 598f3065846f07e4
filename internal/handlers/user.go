package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/capoo-pm/apiserver/internal/services"
	"github.com/capoo-pm/apiserver/types"
	"github.com/go-chi/chi/v5"
)

const (
	formFieldAvatar    = "avatar"
	maxMultipartMemory = services.MaxAvatarBytes + 1<<20
)

var errAvatarTooLarge = errors.New("uploaded file too large")

// UserHandler serves the authenticated user's own profile.
type UserHandler struct {
	profileService *services.ProfileService
}

func NewUserHandler(profileService *services.ProfileService) *UserHandler {
	return &UserHandler{profileService: profileService}
}

// UserRouter registers profile routes on the given router. Every route
// requires authentication.
func UserRouter(r chi.Router, profileService *services.ProfileService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewUserHandler(profileService)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/me", handler.GetMe)
		r.Patch("/me", handler.UpdateMe)
		r.Post("/me/avatar", handler.UploadAvatar)
	})
}

// GetMe returns the authenticated user.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	current, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, services.KindUnauthorized.String(), keyMissingCredentials, nil)
		return
	}

	user, err := h.profileService.GetProfile(r.Context(), current.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, keyProfileRetrieved, user)
}

// UpdateMe applies a partial profile update.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	current, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, services.KindUnauthorized.String(), keyMissingCredentials, nil)
		return
	}

	var req UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeRequestError(w, r, err)
		return
	}

	user, err := h.profileService.UpdateProfile(r.Context(), current.ID, types.UserUpdate{
		Name:      req.Name,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, keyProfileUpdated, user)
}

// UploadAvatar stores a multipart avatar image and returns the updated user.
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	current, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, services.KindUnauthorized.String(), keyMissingCredentials, nil)
		return
	}
	if !h.profileService.AvatarUploadsEnabled() {
		writeError(w, r, http.StatusBadRequest, services.KindBadRequest.String(), services.KeyAvatarUploadsDisabled, nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartMemory)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, http.StatusUnprocessableEntity, services.KindValidation.String(), services.KeyUnsupportedAvatar, nil)
			return
		}
		writeRequestError(w, r, err)
		return
	}

	data, err := parseAvatarFile(r.MultipartForm)
	if err != nil {
		if errors.Is(err, errAvatarTooLarge) {
			writeError(w, r, http.StatusUnprocessableEntity, services.KindValidation.String(), services.KeyUnsupportedAvatar, nil)
			return
		}
		writeRequestError(w, r, err)
		return
	}

	user, err := h.profileService.UploadAvatar(r.Context(), current.ID, services.Avatar{
		ContentType: http.DetectContentType(data),
		Data:        data,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, keyAvatarUploaded, user)
}

// UpdateProfileRequest carries the editable profile fields. Absent and null
// fields are left unchanged; present fields must not be blank.
type UpdateProfileRequest struct {
	Name      *string `json:"name" validate:"omitnil,notblank,max=255"`
	AvatarURL *string `json:"avatarUrl" validate:"omitnil,notblank,max=2048"`
}

func parseAvatarFile(form *multipart.Form) ([]byte, error) {
	if form == nil {
		return nil, errors.New("missing form data")
	}

	files := form.File[formFieldAvatar]
	if len(files) != 1 {
		return nil, errors.New("exactly one avatar file is required")
	}

	file, err := files[0].Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return readFileLimited(file, services.MaxAvatarBytes)
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(reader, limit+1))
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errAvatarTooLarge
	}
	return data, nil
}
