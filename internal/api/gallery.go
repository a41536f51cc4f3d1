// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/model"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/services"
)

// Gallery serves the /photos routes.
type Gallery struct {
	Listing        *services.ListingPaginator
	Uploads        *services.UploadService
	Batches        *services.BatchOperationCoordinator
	Delete         services.ItemOperation
	Patch          services.ItemOperation
	MaxUploadBytes int64 // <= 0 means unlimited.
}

// Register adds the gallery routes to r.
func (g *Gallery) Register(r *gin.RouterGroup) {
	photos := r.Group("/photos")
	{
		photos.GET("", g.list)
		photos.POST("", g.upload)
		photos.PATCH("", g.batch(g.Patch))
		photos.DELETE("", g.batch(g.Delete))
	}
}

func (g *Gallery) list(c *gin.Context) {
	// Missing, malformed and non-positive sizes all mean the default page size.
	pageSize, err := strconv.Atoi(c.Query("pageSize"))
	if err != nil || pageSize < 0 {
		pageSize = 0
	}

	page, err := g.Listing.Page(c.Request.Context(), pageSize, c.Query("pageMarker"))
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "listing failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not retrieve photos"})
		return
	}
	c.JSON(http.StatusOK, page)
}

func (g *Gallery) upload(c *gin.Context) {
	filename := c.Query("filename")
	if filename == "" {
		abort(c, http.StatusBadRequest, "filename is required")
		return
	}
	body := c.Request.Body
	if g.MaxUploadBytes > 0 {
		body = http.MaxBytesReader(c.Writer, body, g.MaxUploadBytes)
	}

	view, err := g.Uploads.Upload(c.Request.Context(), filename, c.ContentType(), body)
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, view)
	case errors.Is(err, services.ErrInvalidFilename):
		abort(c, http.StatusBadRequest, err.Error())
	case errors.As(err, &tooLarge):
		abort(c, http.StatusRequestEntityTooLarge, "upload exceeds the size limit")
	default:
		slog.ErrorContext(c.Request.Context(), "upload failed", "filename", filename, "error", err)
		abort(c, http.StatusInternalServerError, "upload failed")
	}
}

// batch runs op over the request's files. The coordinator decides the status.
func (g *Gallery) batch(op services.ItemOperation) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abort(c, http.StatusBadRequest, err.Error())
			return
		}
		status, outcome := g.Batches.Run(c.Request.Context(), req.Files, req.Password, op)
		c.JSON(status.HTTPStatus(), model.BatchResponse{Outcomes: outcome})
	}
}
