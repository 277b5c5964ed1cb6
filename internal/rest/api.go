package rest

import (
	"net/http"

	"github.com/dfryer1193/namestofaces/people/application"
	"github.com/dfryer1193/namestofaces/people/events"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Api struct {
	people        *application.CollectionService
	vault         *application.PasswordVault
	hub           *events.Hub
	thumbnailSize int
}

func NewApi(people *application.CollectionService, vault *application.PasswordVault, hub *events.Hub, thumbnailSize int) *Api {
	if thumbnailSize <= 0 {
		thumbnailSize = application.DefaultThumbnailSize
	}
	return &Api{
		people:        people,
		vault:         vault,
		hub:           hub,
		thumbnailSize: thumbnailSize,
	}
}

func (a *Api) SetRoutes(router *gin.Engine) {
	router.GET("/probe", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	peopleV1 := router.Group("people/v1")
	{
		peopleV1.GET("", a.GetPeople)
		peopleV1.GET("/:index/image", a.GetImage)
		peopleV1.GET("/:index/thumbnail", a.GetThumbnail)

		mutations := peopleV1.Group("", a.requireUnlocked)
		mutations.POST("", a.CapturePerson)
		mutations.PUT("/:index", a.RenamePerson)
		mutations.DELETE("/:index", a.DeletePerson)
	}

	lockV1 := router.Group("lock/v1")
	{
		lockV1.GET("", a.GetLockState)
		lockV1.POST("/lock", a.Lock)
		lockV1.POST("/unlock", a.Unlock)
		lockV1.PUT("/password", a.SetPassword)
	}

	if a.hub != nil {
		router.GET("/events/v1", a.StreamEvents)
	}
}

// requireUnlocked rejects collection changes while the collection is locked
func (a *Api) requireUnlocked(c *gin.Context) {
	if a.people.Locked() {
		c.AbortWithStatusJSON(http.StatusLocked, gin.H{"error": "collection is locked"})
		return
	}
	c.Next()
}

func (a *Api) StreamEvents(c *gin.Context) {
	if err := a.hub.ServeWS(c.Request.Context(), c.Writer, c.Request); err != nil {
		// the upgrader has already written the response
		_ = c.Error(err)
	}
}
