package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"squad-service/internal/apperr"
	"squad-service/internal/feed"
)

func postHook(r http.Handler, secret, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/hooks/changes", bytes.NewBufferString(body))
	if secret != "" {
		req.Header.Set(HookSecretHeader, secret)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func setupHookRouter(router ChangeRouter, secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/hooks/changes", NewHookHandler(router, secret).Changes)
	return r
}

const profileInsert = `{"type":"INSERT","table":"profiles","schema":"public","record":{"id":"7b0c6c1e-4a4b-4f8e-9a53-6c1f0f1d2e3a"},"old_record":null}`

func TestHookRejectsWrongSecret(t *testing.T) {
	cr := new(mockChangeRouter)
	r := setupHookRouter(cr, "s3cret")

	assert.Equal(t, http.StatusUnauthorized, postHook(r, "", profileInsert).Code)
	assert.Equal(t, http.StatusUnauthorized, postHook(r, "guess", profileInsert).Code)
	cr.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestHookDisabledWithoutSecret(t *testing.T) {
	r := setupHookRouter(new(mockChangeRouter), "")
	assert.Equal(t, http.StatusServiceUnavailable, postHook(r, "anything", profileInsert).Code)
}

func TestHookRoutesChange(t *testing.T) {
	cr := new(mockChangeRouter)
	r := setupHookRouter(cr, "s3cret")
	cr.On("Handle", mock.Anything, mock.MatchedBy(func(c feed.Change) bool {
		return c.Table == "profiles" && c.Type == feed.TypeInsert
	})).Return(nil).Once()

	assert.Equal(t, http.StatusAccepted, postHook(r, "s3cret", profileInsert).Code)
	cr.AssertExpectations(t)
}

func TestHookBadPayloadAndFailures(t *testing.T) {
	cr := new(mockChangeRouter)
	r := setupHookRouter(cr, "s3cret")
	assert.Equal(t, http.StatusBadRequest, postHook(r, "s3cret", `{"type":"INSERT"}`).Code)

	cr.On("Handle", mock.Anything, mock.Anything).Return(apperr.Storage(assert.AnError)).Once()
	assert.Equal(t, http.StatusServiceUnavailable, postHook(r, "s3cret", profileInsert).Code)
}
