package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"tush00nka/filestash/api/response"
	"tush00nka/filestash/internal/model"
	"tush00nka/filestash/internal/pkg/httputils"
	"tush00nka/filestash/internal/service"
)

type FileHandler struct {
	fileService   service.FileService
	maxUploadSize int64
}

func NewFileHandler(fileService service.FileService, maxUploadSize int64) *FileHandler {
	return &FileHandler{fileService: fileService, maxUploadSize: maxUploadSize}
}

// RegisterRoutes mounts the file API on private and the blob view redirect on root.
func (h *FileHandler) RegisterRoutes(root, private *mux.Router) {
	private.HandleFunc("/files", h.listFiles).Methods("GET", "OPTIONS")
	private.HandleFunc("/files", h.uploadFile).Methods("POST", "OPTIONS")
	private.HandleFunc("/files/usage", h.usage).Methods("GET", "OPTIONS")
	private.HandleFunc("/files/{id}", h.getFile).Methods("GET", "OPTIONS")
	private.HandleFunc("/files/{id}", h.renameFile).Methods("PATCH", "OPTIONS")
	private.HandleFunc("/files/{id}/users", h.shareFile).Methods("PUT", "OPTIONS")
	private.HandleFunc("/files/{id}", h.deleteFile).Methods("DELETE", "OPTIONS")

	root.HandleFunc("/storage/buckets/{bucket}/files/{id}/view", h.viewFile).Methods("GET")
}

// parseTypes accepts both repeated and comma separated type parameters.
func parseTypes(values []string) []model.FileType {
	var types []model.FileType
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				types = append(types, model.FileType(part))
			}
		}
	}
	return types
}

// @Summary List files
// @Description Files owned by or shared with the current user
// @ID list-files
// @Tags files
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param type query []string false "File types" collectionFormat(multi)
// @Param query query string false "Name substring"
// @Param sort query string false "Sort spec, e.g. $createdAt-desc or name-asc"
// @Param limit query int false "Maximum number of files"
// @Success 200 {object} model.FileList
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /files [get]
func (h *FileHandler) listFiles(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	filter := service.ListFilter{
		Types:  parseTypes(params["type"]),
		Search: params.Get("query"),
		Sort:   params.Get("sort"),
	}
	if raw := params.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			httputils.ResponseError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		filter.Limit = limit
	}

	list, err := h.fileService.List(r.Context(), currentUser(r), filter)
	if err != nil {
		httputils.ResponseAppError(w, r, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, list)
}

// @Summary Upload file
// @ID upload-file
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param file formData file true "File"
// @Success 201 {object} model.File
// @Failure 400 {object} response.ErrorResponse
// @Failure 413 {object} response.ErrorResponse
// @Failure 507 {object} response.ErrorResponse
// @Router /files [post]
func (h *FileHandler) uploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	src, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputils.ResponseError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("File exceeds %d bytes", h.maxUploadSize))
			return
		}
		httputils.ResponseError(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer src.Close()

	file, err := h.fileService.Upload(r.Context(), currentUser(r), service.Upload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        src,
	})
	if err != nil {
		httputils.ResponseAppError(w, r, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusCreated, file)
}

// @Summary Get file
// @ID get-file
// @Tags files
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param id path string true "File ID"
// @Success 200 {object} model.File
// @Failure 404 {object} response.ErrorResponse
// @Router /files/{id} [get]
func (h *FileHandler) getFile(w http.ResponseWriter, r *http.Request) {
	file, err := h.fileService.Get(r.Context(), currentUser(r), mux.Vars(r)["id"])
	if err != nil {
		httputils.ResponseAppError(w, r, err)
		return
	}
	httputils.ResponseJSON(w, http.StatusOK, file)
}

type RenameRequest struct {
	Name string `json:"name"`
}

// @Summary Rename file
// @Description Changes the name only; the file type stays as uploaded
// @ID rename-file
// @Tags files
// @Accept json
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param id path string true "File ID"
// @Param renameData body RenameRequest true "New name"
// @Success 200 {object} model.File
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /files/{id} [patch]
func (h *FileHandler) renameFile(w http.ResponseWriter, r *http.Request) {
	var request RenameRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	file, err := h.fileService.Rename(r.Context(), currentUser(r), mux.Vars(r)["id"], request.Name)
	if err != nil {
		httputils.ResponseAppError(w, r, err)
		return
	}
	httputils.ResponseJSON(w, http.StatusOK, file)
}

type ShareRequest struct {
	Emails []string `json:"emails"`
}

// @Summary Share file
// @Description Replaces the list of users the file is shared with
// @ID share-file
// @Tags files
// @Accept json
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param id path string true "File ID"
// @Param shareData body ShareRequest true "Emails"
// @Success 200 {object} model.File
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /files/{id}/users [put]
func (h *FileHandler) shareFile(w http.ResponseWriter, r *http.Request) {
	var request ShareRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	file, err := h.fileService.Share(r.Context(), currentUser(r), mux.Vars(r)["id"], request.Emails)
	if err != nil {
		httputils.ResponseAppError(w, r, err)
		return
	}
	httputils.ResponseJSON(w, http.StatusOK, file)
}

// @Summary Delete file
// @Description Deletes the file for its owner; for anyone else it only removes their access
// @ID delete-file
// @Tags files
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param id path string true "File ID"
// @Param bucketFileId query string false "Blob ID of the file"
// @Success 200 {object} response.StatusResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /files/{id} [delete]
func (h *FileHandler) deleteFile(w http.ResponseWriter, r *http.Request) {
	fileID := mux.Vars(r)["id"]
	blobID := r.URL.Query().Get("bucketFileId")

	if err := h.fileService.DeleteOrUnshare(r.Context(), currentUser(r), fileID, blobID); err != nil {
		httputils.ResponseAppError(w, r, err)
		return
	}
	httputils.ResponseJSON(w, http.StatusOK, response.StatusResponse{Status: "success"})
}

// @Summary Space usage
// @ID usage
// @Tags files
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Success 200 {object} model.SpaceUsage
// @Failure 401 {object} response.ErrorResponse
// @Router /files/usage [get]
func (h *FileHandler) usage(w http.ResponseWriter, r *http.Request) {
	usage, err := h.fileService.Usage(r.Context(), currentUser(r))
	if err != nil {
		httputils.ResponseAppError(w, r, err)
		return
	}
	httputils.ResponseJSON(w, http.StatusOK, usage)
}

// viewFile redirects to a short-lived presigned URL of the blob.
func (h *FileHandler) viewFile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	target, err := h.fileService.ViewURL(r.Context(), vars["bucket"], vars["id"])
	if err != nil {
		httputils.ResponseAppError(w, r, err)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}
