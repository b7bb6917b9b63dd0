package status

import (
	"net/http"
	"strconv"

	"github.com/akash27nik/Chat-App/internal/auth"
	"github.com/akash27nik/Chat-App/internal/httpx"
	"github.com/akash27nik/Chat-App/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Service struct {
	Engine *Engine
}

type createReq struct {
	Caption  string `json:"caption"`
	MediaURL string `json:"mediaUrl" binding:"required"`
}

type replyReq struct {
	Message string `json:"message" binding:"required"`
}

func Register(rg *gin.RouterGroup, engine *Engine) {
	s := Service{Engine: engine}
	rg.POST("/status", s.create)
	rg.GET("/status", s.list)
	rg.DELETE("/status/:id", s.remove)
	rg.POST("/status/:id/view", s.view)
	rg.GET("/status/:id/viewers", s.viewers)
	rg.POST("/status/:id/like", s.like)
	rg.POST("/status/:id/unlike", s.unlike)
	rg.POST("/status/:id/reply", s.reply)
}

func statusID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Err(c, http.StatusBadRequest, "invalid status id")
		return 0, false
	}
	return id, true
}

func (s Service) create(c *gin.Context) {
	uid := auth.MustUserID(c)
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			httpx.Err(c, http.StatusBadRequest, utils.ValidationErr(validationErrors))
			return
		}
		httpx.Err(c, http.StatusBadRequest, err.Error())
		return
	}

	st, err := s.Engine.Create(c.Request.Context(), uid, req.Caption, req.MediaURL)
	if err != nil {
		httpx.Domain(c, err)
		return
	}
	httpx.OK(c, gin.H{"message": "status uploaded", "status": st})
}

func (s Service) list(c *gin.Context) {
	list, err := s.Engine.Store.List(c.Request.Context())
	if err != nil {
		httpx.Domain(c, err)
		return
	}
	httpx.OK(c, gin.H{"statuses": list})
}

func (s Service) remove(c *gin.Context) {
	uid := auth.MustUserID(c)
	id, ok := statusID(c)
	if !ok {
		return
	}
	if err := s.Engine.Delete(c.Request.Context(), id, uid); err != nil {
		httpx.Domain(c, err)
		return
	}
	httpx.OK(c, gin.H{"message": "status deleted"})
}

func (s Service) view(c *gin.Context) {
	uid := auth.MustUserID(c)
	id, ok := statusID(c)
	if !ok {
		return
	}
	viewers, err := s.Engine.RecordView(c.Request.Context(), id, uid)
	if err != nil {
		httpx.Domain(c, err)
		return
	}
	httpx.OK(c, gin.H{"statusId": id, "viewers": viewers})
}

func (s Service) viewers(c *gin.Context) {
	uid := auth.MustUserID(c)
	id, ok := statusID(c)
	if !ok {
		return
	}
	viewers, err := s.Engine.ViewerList(c.Request.Context(), id, uid)
	if err != nil {
		httpx.Domain(c, err)
		return
	}
	httpx.OK(c, gin.H{"statusId": id, "viewers": viewers})
}

func (s Service) like(c *gin.Context) {
	uid := auth.MustUserID(c)
	id, ok := statusID(c)
	if !ok {
		return
	}
	likes, err := s.Engine.Like(c.Request.Context(), id, uid)
	if err != nil {
		httpx.Domain(c, err)
		return
	}
	httpx.OK(c, gin.H{"statusId": id, "likes": likes})
}

func (s Service) unlike(c *gin.Context) {
	uid := auth.MustUserID(c)
	id, ok := statusID(c)
	if !ok {
		return
	}
	likes, err := s.Engine.Unlike(c.Request.Context(), id, uid)
	if err != nil {
		httpx.Domain(c, err)
		return
	}
	httpx.OK(c, gin.H{"statusId": id, "likes": likes})
}

func (s Service) reply(c *gin.Context) {
	uid := auth.MustUserID(c)
	id, ok := statusID(c)
	if !ok {
		return
	}
	var req replyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			httpx.Err(c, http.StatusBadRequest, utils.ValidationErr(validationErrors))
			return
		}
		httpx.Err(c, http.StatusBadRequest, err.Error())
		return
	}
	replies, err := s.Engine.Reply(c.Request.Context(), id, uid, req.Message)
	if err != nil {
		httpx.Domain(c, err)
		return
	}
	httpx.OK(c, gin.H{"statusId": id, "replies": replies})
}
