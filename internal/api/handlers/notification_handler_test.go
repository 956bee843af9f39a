package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wikid82/blackfeed/backend/internal/api/handlers"
	"github.com/Wikid82/blackfeed/backend/internal/models"
	"github.com/Wikid82/blackfeed/backend/internal/services"
)

func notificationRouter(t *testing.T) (*gin.Engine, *services.NotificationService) {
	t.Helper()
	db := setupTestDB(t)
	svc := services.NewNotificationService(db, services.NewSettingsService(db))
	handler := handlers.NewNotificationHandler(svc)

	router := gin.New()
	router.GET("/notifications", handler.List)
	router.POST("/notifications/:id/read", handler.MarkRead)
	router.POST("/notifications/read-all", handler.MarkAllRead)
	return router, svc
}

func TestNotificationHandler_List(t *testing.T) {
	router, svc := notificationRouter(t)
	first, err := svc.Create(models.NotificationTypeError, "Source feodo failed", "fetch timed out")
	require.NoError(t, err)
	_, err = svc.Create(models.NotificationTypeSuccess, "Source feodo recovered", "back to normal")
	require.NoError(t, err)
	require.NoError(t, svc.MarkAsRead(first.ID))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/notifications?unread=true", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got []models.Notification
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Source feodo recovered", got[0].Title)
}

func TestNotificationHandler_MarkRead(t *testing.T) {
	router, svc := notificationRouter(t)
	n, err := svc.Create(models.NotificationTypeError, "Source feodo failed", "fetch timed out")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/notifications/"+n.ID+"/read", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	unread, err := svc.List(true)
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestNotificationHandler_MarkAllRead(t *testing.T) {
	router, svc := notificationRouter(t)
	for i := 0; i < 3; i++ {
		_, err := svc.Create(models.NotificationTypeWarning, "Source degraded", "slow responses")
		require.NoError(t, err)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/notifications/read-all", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	unread, err := svc.List(true)
	require.NoError(t, err)
	assert.Empty(t, unread)
}
