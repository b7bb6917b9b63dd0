package users

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/akash27nik/Chat-App/internal/auth"
	"github.com/akash27nik/Chat-App/internal/config"
	"github.com/akash27nik/Chat-App/internal/httpx"
	"github.com/akash27nik/Chat-App/internal/otp"
	"github.com/akash27nik/Chat-App/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Service struct {
	DB        *sql.DB
	JWTSecret string
	JWTTTLMin int
	OTP       otp.Service
}

type signupReq struct {
	Username string `json:"userName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type forgotInitReq struct {
	Email string `json:"email" binding:"required,email"`
}

type forgotVerifyReq struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required"`
}

type resetReq struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

func RegisterPublic(rg *gin.RouterGroup, db *sql.DB, cfg config.Config) {
	s := Service{
		DB:        db,
		JWTSecret: cfg.JWTSecret,
		JWTTTLMin: cfg.JWTTTLMin,
		OTP: otp.Service{
			DB:     db,
			Digits: cfg.OTPDigits,
			TTL:    time.Duration(cfg.OTPTTLSec) * time.Second,
			APIKey: cfg.SendGridAPIKey,
			From:   cfg.SendGridFrom,
		},
	}

	rg.POST("/signup", s.signup)
	rg.POST("/login", s.login)
	rg.GET("/logout", s.logout)
	rg.POST("/forgot/initiate", s.forgotInitiate)
	rg.POST("/forgot/verify", s.forgotVerify)
	rg.PUT("/forgot/reset", s.resetPassword)
}

func (s Service) signup(c *gin.Context) {
	var req signupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			httpx.Err(c, http.StatusBadRequest, utils.ValidationErr(validationErrors))
			return
		}
		httpx.Err(c, http.StatusBadRequest, err.Error())
		return
	}

	var count int
	_ = s.DB.QueryRow(`SELECT COUNT(1) FROM users WHERE username=? OR email=?`,
		req.Username, req.Email).Scan(&count)
	if count > 0 {
		httpx.Err(c, http.StatusConflict, "username or email already exists")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		httpx.Err(c, http.StatusInternalServerError, "hash failed")
		return
	}
	res, err := s.DB.Exec(
		`INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		req.Username, req.Email, hash, time.Now().UTC())
	if err != nil {
		httpx.Err(c, http.StatusBadRequest, "create user failed")
		return
	}
	uid, _ := res.LastInsertId()

	tok, err := auth.NewToken(s.JWTSecret, uid, s.JWTTTLMin)
	if err != nil {
		httpx.Err(c, http.StatusInternalServerError, "token generation failed")
		return
	}

	s.setAuthCookie(c, tok)
	httpx.OK(c, gin.H{"token": tok, "user": gin.H{
		"id": uid, "userName": req.Username, "email": req.Email,
	}})
}

func (s Service) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			httpx.Err(c, http.StatusBadRequest, utils.ValidationErr(validationErrors))
			return
		}
		httpx.Err(c, http.StatusBadRequest, err.Error())
		return
	}

	row := s.DB.QueryRow(`SELECT id, username, password_hash FROM users WHERE email=?`, req.Email)

	var id int64
	var username, hash string
	if err := row.Scan(&id, &username, &hash); err != nil {
		httpx.Err(c, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := auth.CheckPassword(hash, req.Password); err != nil {
		httpx.Err(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	tok, err := auth.NewToken(s.JWTSecret, id, s.JWTTTLMin)
	if err != nil {
		httpx.Err(c, http.StatusInternalServerError, "token generation failed")
		return
	}

	s.setAuthCookie(c, tok)
	httpx.OK(c, gin.H{"token": tok, "user": gin.H{
		"id": id, "userName": username, "email": req.Email,
	}})
}

func (s Service) logout(c *gin.Context) {
	c.SetCookie("token", "", -1, "/", "", false, true)
	httpx.OK(c, gin.H{"message": "logged out"})
}

func (s Service) setAuthCookie(c *gin.Context, tok string) {
	c.SetCookie("token", tok, s.JWTTTLMin*60, "/", "", false, true)
}

func (s Service) forgotInitiate(c *gin.Context) {
	var req forgotInitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			httpx.Err(c, http.StatusBadRequest, utils.ValidationErr(validationErrors))
			return
		}
		httpx.Err(c, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := s.OTP.Generate(req.Email, "reset"); err != nil {
		httpx.Err(c, http.StatusInternalServerError, "otp send failed")
		return
	}
	httpx.OK(c, gin.H{"message": "otp sent"})
}

func (s Service) forgotVerify(c *gin.Context) {
	var req forgotVerifyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			httpx.Err(c, http.StatusBadRequest, utils.ValidationErr(validationErrors))
			return
		}
		httpx.Err(c, http.StatusBadRequest, err.Error())
		return
	}
	ok, err := s.OTP.Verify(req.Email, "reset", req.OTP)
	if err != nil || !ok {
		httpx.Err(c, http.StatusUnauthorized, "invalid otp")
		return
	}
	httpx.OK(c, gin.H{"message": "otp verified"})
}

func (s Service) resetPassword(c *gin.Context) {
	var req resetReq
	if err := c.ShouldBindJSON(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			httpx.Err(c, http.StatusBadRequest, utils.ValidationErr(validationErrors))
			return
		}
		httpx.Err(c, http.StatusBadRequest, err.Error())
		return
	}
	ok, err := s.OTP.Verify(req.Email, "reset", req.OTP)
	if err != nil || !ok {
		httpx.Err(c, http.StatusUnauthorized, "invalid otp")
		return
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		httpx.Err(c, http.StatusInternalServerError, "hash failed")
		return
	}
	if _, err := s.DB.Exec(`UPDATE users SET password_hash=? WHERE email=?`, hash, req.Email); err != nil {
		httpx.Err(c, http.StatusInternalServerError, "update password failed")
		return
	}
	httpx.OK(c, gin.H{"message": "password updated"})
}
