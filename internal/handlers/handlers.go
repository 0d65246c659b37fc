package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/example/image-predict/internal/auth"
	"github.com/example/image-predict/internal/labels"
	"github.com/example/image-predict/internal/usecase"
	"github.com/example/image-predict/internal/validation"
	"github.com/example/image-predict/internal/workflow"
)

// MaxMultipartMemory caps in-memory multipart parsing. Larger than the
// workflow's 1MB acceptance limit so oversized drops reach the validator and
// get its too-large message instead of a transport error.
const MaxMultipartMemory = 8 << 20

// RegisterRoutes wires the HTTP handlers to the Gin router.
func RegisterRoutes(router *gin.Engine, uc *usecase.WorkflowUseCase, authMiddleware gin.HandlerFunc) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/", authMiddleware)

	api.GET("/labels", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"labels": labels.Classes})
	})

	api.POST("/session", func(c *gin.Context) {
		session := uc.CreateSession()
		c.JSON(http.StatusCreated, gin.H{"session_id": session.ID()})
	})

	api.GET("/workflow/:id", func(c *gin.Context) {
		session, ok := uc.Session(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusOK, renderSnapshot(session.Snapshot()))
	})

	api.DELETE("/workflow/:id", func(c *gin.Context) {
		if !uc.Teardown(c.Param("id")) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.Status(http.StatusNoContent)
	})

	api.POST("/workflow/:id/image", func(c *gin.Context) {
		session, ok := uc.Session(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}

		snap := uc.AttachFile(session, candidateFromForm(c))
		respondSnapshot(c, snap)
	})

	api.POST("/workflow/:id/link", func(c *gin.Context) {
		session, ok := uc.Session(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}

		var body struct {
			URL string `json:"url"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		snap, err := uc.AttachLink(c.Request.Context(), session, body.URL)
		if errors.Is(err, usecase.ErrLinkRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "link required"})
			return
		}
		respondSnapshot(c, snap)
	})

	api.POST("/workflow/:id/label", func(c *gin.Context) {
		session, ok := uc.Session(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}

		var body struct {
			Label string `json:"label"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := session.SetLabel(body.Label); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, renderSnapshot(session.Snapshot()))
	})

	api.POST("/workflow/:id/predict", func(c *gin.Context) {
		session, ok := uc.Session(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}

		userID, _ := auth.GetUserID(c.Request.Context())
		snap, err := uc.Predict(c.Request.Context(), session, userID)
		switch {
		case errors.Is(err, usecase.ErrNoImageSelected):
			c.JSON(http.StatusBadRequest, gin.H{"error": "no image selected"})
		case err != nil:
			c.JSON(http.StatusBadGateway, renderSnapshot(snap))
		default:
			c.JSON(http.StatusOK, renderSnapshot(snap))
		}
	})

	api.GET("/workflow/:id/preview", func(c *gin.Context) {
		session, ok := uc.Session(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}

		data, contentType, ok := session.PreviewBytes()
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no local preview"})
			return
		}
		c.Data(http.StatusOK, contentType, data)
	})

	api.GET("/history", func(c *gin.Context) {
		userID, _ := auth.GetUserID(c.Request.Context())
		limit, _ := strconv.Atoi(c.Query("limit"))

		logs, err := uc.History(c.Request.Context(), userID, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"predictions": logs})
	})

	api.GET("/metrics", func(c *gin.Context) {
		summary, err := uc.GetMetricsSummary(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to aggregate metrics"})
			return
		}
		c.JSON(http.StatusOK, summary)
	})
}

// candidateFromForm extracts the first dropped file from the multipart form.
// Additional files are discarded; a missing or unreadable file yields a nil
// candidate, which the validator rejects as missing.
func candidateFromForm(c *gin.Context) *validation.CandidateImage {
	form, err := c.MultipartForm()
	if err != nil {
		return nil
	}
	files := form.File["image"]
	if len(files) == 0 {
		return nil
	}

	header := files[0]
	src, err := header.Open()
	if err != nil {
		return nil
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, validation.MaxSizeBytes+1))
	if err != nil {
		return nil
	}

	return &validation.CandidateImage{
		Bytes:        data,
		Filename:     header.Filename,
		DeclaredType: header.Header.Get("Content-Type"),
		DeclaredSize: header.Size,
		Source:       validation.SourceFile,
	}
}

// respondSnapshot maps an acquisition outcome to a status code: accepted
// images render 200, rejected candidates 422 with the error in the snapshot.
func respondSnapshot(c *gin.Context, snap workflow.Snapshot) {
	status := http.StatusOK
	if !snap.HasImage {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, renderSnapshot(snap))
}

// renderSnapshot rewrites file-backed preview handles into the serving route;
// the raw handle never leaves the process.
func renderSnapshot(snap workflow.Snapshot) workflow.Snapshot {
	if snap.PreviewKind == "file" {
		snap.PreviewRef = fmt.Sprintf("/workflow/%s/preview", snap.SessionID)
	}
	return snap
}
