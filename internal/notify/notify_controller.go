package notify

import (
	"net/http"

	"github.com/DhavalSuthar-24/clubhouse/internal/common"
	"github.com/DhavalSuthar-24/clubhouse/pkg/responses"
	"github.com/gin-gonic/gin"
)

type NotificationController struct {
	store *Store
}

func NewNotificationController(store *Store) *NotificationController {
	return &NotificationController{store: store}
}

// GetNotifications godoc
// @Summary My notifications
// @Description Newest first. unread=true hides read ones.
// @Tags Notifications
// @Produce json
// @Param unread query bool false "Only unread"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} responses.PaginatedResponse{data=[]Notification}
// @Security ApiKeyAuth
// @Router /notifications [get]
func (nc *NotificationController) GetNotifications(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	page, limit := common.Pagination(c)
	items, total, err := nc.store.List(c.Request.Context(), actor.UserID(), c.Query("unread") == "true", page, limit)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendPaginated(c, http.StatusOK, "", items, total, page, limit)
}

// MarkRead godoc
// @Summary Mark a notification read
// @Tags Notifications
// @Produce json
// @Param notification_id path int true "Notification ID"
// @Success 200 {object} responses.SuccessResponse{data=Notification}
// @Failure 403 {object} responses.ErrorResponse "Not the recipient"
// @Failure 404 {object} responses.ErrorResponse
// @Security ApiKeyAuth
// @Router /notifications/{notification_id}/read [post]
func (nc *NotificationController) MarkRead(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	id, ok := common.IDParam(c, "notification_id")
	if !ok {
		return
	}
	n, err := nc.store.MarkRead(c.Request.Context(), actor.UserID(), id)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Notification marked read", n)
}

func NotificationRoutes(router *gin.RouterGroup, store *Store, authMW gin.HandlerFunc) {
	nc := NewNotificationController(store)
	inbox := router.Group("/notifications")
	inbox.Use(authMW)
	{
		inbox.GET("", nc.GetNotifications)
		inbox.POST("/:notification_id/read", nc.MarkRead)
	}
}
