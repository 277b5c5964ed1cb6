package rest

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/dfryer1193/namestofaces/api"
	"github.com/dfryer1193/namestofaces/people/domain"
	"github.com/gin-gonic/gin"
)

const (
	maxUploadBytes   = 20 << 20
	maxThumbnailSize = 4096
	jpegContentType  = "image/jpeg"
)

func (a *Api) GetPeople(c *gin.Context) {
	people := a.people.People()

	resp := api.Collection{
		Locked: people == nil,
		Count:  len(people),
		People: make([]api.Person, 0, len(people)),
	}
	for i, p := range people {
		resp.People = append(resp.People, toPersonDTO(i, p))
	}
	c.JSON(http.StatusOK, resp)
}

func (a *Api) CapturePerson(c *gin.Context) {
	header, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing image file"})
		return
	}
	if header.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	person, index, err := a.people.Capture(c.Request.Context(), content)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, toPersonDTO(index, person))
}

func (a *Api) RenamePerson(c *gin.Context) {
	index, ok := parseIndex(c)
	if !ok {
		return
	}

	req := &api.RenameRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	person, ok := a.people.RenamePerson(c.Request.Context(), index, req.Name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no person at index %d", index)})
		return
	}
	c.JSON(http.StatusOK, toPersonDTO(index, person))
}

func (a *Api) DeletePerson(c *gin.Context) {
	index, ok := parseIndex(c)
	if !ok {
		return
	}

	if !a.people.Delete(c.Request.Context(), index) {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no person at index %d", index)})
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *Api) GetImage(c *gin.Context) {
	index, ok := parseIndex(c)
	if !ok {
		return
	}

	img, err := a.people.ImageContent(c.Request.Context(), index)
	if err != nil {
		writeImageError(c, index, err)
		return
	}
	c.Header("Last-Modified", img.UpdatedAt.UTC().Format(http.TimeFormat))
	c.Data(http.StatusOK, jpegContentType, img.Content)
}

func (a *Api) GetThumbnail(c *gin.Context) {
	index, ok := parseIndex(c)
	if !ok {
		return
	}

	size := a.thumbnailSize
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxThumbnailSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid size %q", raw)})
			return
		}
		size = n
	}

	data, err := a.people.Thumbnail(c.Request.Context(), index, size)
	if err != nil {
		writeImageError(c, index, err)
		return
	}
	c.Data(http.StatusOK, jpegContentType, data)
}

func writeImageError(c *gin.Context, index int, err error) {
	if errors.Is(err, domain.ErrNotVisible) || errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no image for person %d", index)})
		return
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func parseIndex(c *gin.Context) (int, bool) {
	raw := c.Param("index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid index %q", raw)})
		return 0, false
	}
	return index, true
}

func toPersonDTO(index int, p domain.Person) api.Person {
	return api.Person{
		Index: index,
		Name:  p.Name,
		Image: p.Image,
	}
}
