package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	uuid "github.com/twinj/uuid"

	"brainbox/annotations"
	"brainbox/session"
	"brainbox/source"
	"brainbox/utils"
	"brainbox/widget"
)

// SessionEnv What the session handlers share
type SessionEnv struct {
	Cache  *session.Cache
	Source *source.Database
	Stores *session.Stores
	Config *utils.Config
	Clock  clockwork.Clock
}

// sessionError Write the status that matches err
func sessionError(c *gin.Context, err error) {
	var sourceErr *session.SourceDataError
	switch {
	case errors.As(err, &sourceErr):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": sourceErr.Message})
	case errors.Is(err, session.ErrSessionNotInCache):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrClosed):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrNotReady), errors.Is(err, session.ErrNotConfigured), errors.Is(err, annotations.ErrReadOnlyCell):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, annotations.ErrInvalidValue):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, annotations.ErrNoSuchCell):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Warn(fmt.Sprintf("Session request failed: %s", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// lookupSession Find the session of the request, owned by the current user
func lookupSession(c *gin.Context, env *SessionEnv) (*session.Session, bool) {
	s, err := env.Cache.Get(c.Param("id"))
	if err != nil {
		sessionError(c, err)
		return nil, false
	}
	if s.User != CurrentUser(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "session belongs to another user"})
		return nil, false
	}
	return s, true
}

// CreateSession Open an image for editing: initialize a widget, fetch the metadata and reconcile its configuration
func CreateSession(env *SessionEnv) gin.HandlerFunc {
	fn := func(c *gin.Context) {
		var overrides session.Overrides
		if err := c.ShouldBindJSON(&overrides); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if overrides.URL == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
			return
		}

		ctx := c.Request.Context()
		user := CurrentUser(c)
		w := widget.NewHeadless(user, widget.DefaultModules(env.Source)...)
		s := session.New(session.Options{
			ID:      uuid.NewV4().String(),
			User:    user,
			Widget:  w,
			Loader:  w,
			Modules: env.Config.Session.Modules,
			Store:   env.Stores.For(user),
			Columns: annotations.ColumnsFromConfig(env.Config.Annotations.Columns),
			Clock:   env.Clock,
		})
		if err := s.Init(ctx); err != nil {
			sessionError(c, err)
			return
		}

		metadata, err := env.Source.FetchImageMetadata(ctx, overrides.URL)
		if err != nil {
			sessionError(c, err)
			return
		}
		labelSets, err := env.Source.FetchLabelSets(ctx)
		if err != nil {
			sessionError(c, err)
			return
		}
		config, err := s.Configure(ctx, metadata, overrides)
		if err != nil {
			sessionError(c, err)
			return
		}
		env.Cache.Put(s)
		log.Info(fmt.Sprintf("Session %s opened %s for %s", s.ID, overrides.URL, user))
		c.JSON(http.StatusCreated, gin.H{"id": s.ID, "config": config, "labelSets": labelSets})
	}
	return fn
}

// FindSession Describe a session
func FindSession(env *SessionEnv) gin.HandlerFunc {
	fn := func(c *gin.Context) {
		s, ok := lookupSession(c, env)
		if !ok {
			return
		}
		snapshot, err := s.Snapshot()
		if err != nil {
			sessionError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": snapshot})
	}
	return fn
}

// CloseSession Tear a session down, recording its view in the user's history
func CloseSession(env *SessionEnv) gin.HandlerFunc {
	fn := func(c *gin.Context) {
		if _, ok := lookupSession(c, env); !ok {
			return
		}
		if err := env.Cache.Delete(c.Param("id")); err != nil {
			sessionError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": true})
	}
	return fn
}

// GetSessionMessages The diagnostic messages of a session
func GetSessionMessages(env *SessionEnv) gin.HandlerFunc {
	fn := func(c *gin.Context) {
		s, ok := lookupSession(c, env)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": s.Messages()})
	}
	return fn
}

type NavigateInput struct {
	View  string `json:"view" binding:"required"`
	Slice int    `json:"slice"`
}

// NavigateSession Move the session's widget to another view and slice
func NavigateSession(env *SessionEnv) gin.HandlerFunc {
	fn := func(c *gin.Context) {
		s, ok := lookupSession(c, env)
		if !ok {
			return
		}
		var input NavigateInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := s.Navigate(input.View, input.Slice); err != nil {
			sessionError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": true})
	}
	return fn
}

// AddAnnotation Append a new annotation to the session's image
func AddAnnotation(env *SessionEnv) gin.HandlerFunc {
	fn := func(c *gin.Context) {
		s, ok := lookupSession(c, env)
		if !ok {
			return
		}
		index, err := s.AddAnnotation(c.Request.Context())
		if err != nil {
			sessionError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"index": index})
	}
	return fn
}

// RemoveAnnotation Remove the annotation at ?index=, or the selected one
func RemoveAnnotation(env *SessionEnv) gin.HandlerFunc {
	fn := func(c *gin.Context) {
		s, ok := lookupSession(c, env)
		if !ok {
			return
		}

		var removed bool
		var err error
		if raw, given := c.GetQuery("index"); given {
			index, convErr := strconv.Atoi(raw)
			if convErr != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "index must be an integer"})
				return
			}
			removed, err = s.RemoveAnnotation(c.Request.Context(), index)
		} else {
			removed, err = s.RemoveSelectedAnnotation(c.Request.Context())
		}
		if err != nil {
			sessionError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"removed": removed})
	}
	return fn
}

type SelectInput struct {
	Row int `json:"row"`
}

// SelectAnnotation Select a row of the annotation table
func SelectAnnotation(env *SessionEnv) gin.HandlerFunc {
	fn := func(c *gin.Context) {
		s, ok := lookupSession(c, env)
		if !ok {
			return
		}
		var input SelectInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		selected, err := s.SelectAnnotation(c.Request.Context(), input.Row)
		if err != nil {
			sessionError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"selected": selected})
	}
	return fn
}

type EditCellInput struct {
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Value string `json:"value"`
}

// EditCell Type into a cell of the annotation table
func EditCell(env *SessionEnv) gin.HandlerFunc {
	fn := func(c *gin.Context) {
		s, ok := lookupSession(c, env)
		if !ok {
			return
		}
		var input EditCellInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := s.EditCell(input.Row, input.Col, input.Value); err != nil {
			sessionError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": true})
	}
	return fn
}

// SaveAnnotations Flush edits and persist the annotations
func SaveAnnotations(env *SessionEnv) gin.HandlerFunc {
	fn := func(c *gin.Context) {
		s, ok := lookupSession(c, env)
		if !ok {
			return
		}
		if err := s.SaveAnnotations(c.Request.Context()); err != nil {
			sessionError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": true})
	}
	return fn
}
