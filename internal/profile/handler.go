package profile

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/akash27nik/Chat-App/internal/auth"
	"github.com/akash27nik/Chat-App/internal/conversations"
	"github.com/akash27nik/Chat-App/internal/httpx"
	"github.com/gin-gonic/gin"
)

type Service struct {
	DB   *sql.DB
	Conv *conversations.Store
}

type updateReq struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

func Register(rg *gin.RouterGroup, db *sql.DB, conv *conversations.Store) {
	s := Service{DB: db, Conv: conv}
	rg.GET("/user/current", s.current)
	rg.PUT("/user/profile", s.update)
	rg.GET("/user/others", s.others)
	rg.GET("/user/others-with-lastmsg", s.othersWithLastMsg)
	rg.GET("/user/search", s.search)
	rg.GET("/user/:id/last-seen", s.lastSeen)
}

func (s Service) current(c *gin.Context) {
	uid := auth.MustUserID(c)
	if uid == 0 {
		httpx.Err(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	row := s.DB.QueryRow(
		`SELECT id, username, email, COALESCE(image, ''), created_at FROM users WHERE id=?`, uid)

	var id int64
	var username, email, image string
	var created time.Time
	if err := row.Scan(&id, &username, &email, &image, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httpx.Err(c, http.StatusNotFound, "user not found")
		} else {
			httpx.Err(c, http.StatusInternalServerError, "database error")
		}
		return
	}

	httpx.OK(c, gin.H{"user": gin.H{
		"id": id, "userName": username, "email": email,
		"image": image, "createdAt": created,
	}})
}

func (s Service) update(c *gin.Context) {
	uid := auth.MustUserID(c)
	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Err(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" && req.Image == "" {
		httpx.Err(c, http.StatusBadRequest, "nothing to update")
		return
	}

	if req.Name != "" {
		if _, err := s.DB.Exec(`UPDATE users SET username=? WHERE id=?`, req.Name, uid); err != nil {
			httpx.Err(c, http.StatusConflict, "username already taken")
			return
		}
	}
	if req.Image != "" {
		if _, err := s.DB.Exec(`UPDATE users SET image=? WHERE id=?`, req.Image, uid); err != nil {
			httpx.Err(c, http.StatusInternalServerError, "update failed")
			return
		}
	}
	s.current(c)
}

func (s Service) others(c *gin.Context) {
	uid := auth.MustUserID(c)

	rows, err := s.DB.Query(
		`SELECT id, username, COALESCE(image, '') FROM users WHERE id != ? ORDER BY username`, uid)
	if err != nil {
		httpx.Err(c, http.StatusInternalServerError, "database error")
		return
	}
	defer rows.Close()

	var list []gin.H
	for rows.Next() {
		var id int64
		var username, image string
		if err := rows.Scan(&id, &username, &image); err != nil {
			continue
		}
		list = append(list, gin.H{"id": id, "userName": username, "image": image})
	}
	httpx.OK(c, gin.H{"users": list})
}

// othersWithLastMsg is the sidebar query: peers ordered by most recent
// contact, with last message preview and unread count.
func (s Service) othersWithLastMsg(c *gin.Context) {
	uid := auth.MustUserID(c)
	contacts, err := s.Conv.Contacts(c.Request.Context(), uid)
	if err != nil {
		httpx.Domain(c, err)
		return
	}
	httpx.OK(c, gin.H{"users": contacts})
}

func (s Service) search(c *gin.Context) {
	uid := auth.MustUserID(c)
	query := c.Query("q")
	if query == "" {
		httpx.Err(c, http.StatusBadRequest, "query parameter is required")
		return
	}

	rows, err := s.DB.Query(
		`SELECT id, username, COALESCE(image, '') FROM users
		 WHERE username LIKE ? AND id != ? LIMIT 10`, "%"+query+"%", uid)
	if err != nil {
		httpx.Err(c, http.StatusInternalServerError, "database query failed")
		return
	}
	defer rows.Close()

	var list []gin.H
	for rows.Next() {
		var id int64
		var username, image string
		if err := rows.Scan(&id, &username, &image); err != nil {
			continue
		}
		list = append(list, gin.H{"id": id, "userName": username, "image": image})
	}
	httpx.OK(c, gin.H{"users": list})
}

func (s Service) lastSeen(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httpx.Err(c, http.StatusBadRequest, "invalid user id")
		return
	}

	row := s.DB.QueryRow(`SELECT last_seen FROM users WHERE id=?`, userID)
	var lastSeen sql.NullTime
	if err := row.Scan(&lastSeen); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httpx.Err(c, http.StatusNotFound, "user not found")
		} else {
			httpx.Err(c, http.StatusInternalServerError, "database error")
		}
		return
	}

	if !lastSeen.Valid {
		httpx.OK(c, gin.H{"lastSeen": nil})
		return
	}
	httpx.OK(c, gin.H{"lastSeen": lastSeen.Time.UTC().Format(time.RFC3339)})
}
