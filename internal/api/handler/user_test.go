package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/qs3c/persona_go_server/config"
	"github.com/qs3c/persona_go_server/internal/model"
	"github.com/qs3c/persona_go_server/internal/repository"
	"github.com/qs3c/persona_go_server/internal/service"
	"github.com/qs3c/persona_go_server/internal/testutil"
)

func setupUserHandler(t *testing.T) (*UserHandler, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	cfg := &config.Config{Quota: config.QuotaConfig{FreeImageGrant: 3, ProMonthlyImages: 20, ChatDailyLimit: 20}}
	userRepo := repository.NewUserRepository(db)
	quota := service.NewQuotaService(userRepo,
		repository.NewImageRepository(db),
		repository.NewChatRepository(db),
		cfg)
	return NewUserHandler(service.NewUserService(userRepo, quota, cfg)), db
}

func TestUserHandler_Me(t *testing.T) {
	h, db := setupUserHandler(t)
	user := testutil.TestUser(t, db, testutil.WithFreeGrant(2))

	router := gin.New()
	router.GET("/me", mockAuth(user.ID), h.Me)

	w := doJSON(router, http.MethodGet, "/me", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, model.PlanFree, body["plan"])
	assert.Equal(t, float64(2), body["credits"])
}

func TestUserHandler_Me_Unauthorized(t *testing.T) {
	h, _ := setupUserHandler(t)

	router := gin.New()
	router.GET("/me", h.Me)

	w := doJSON(router, http.MethodGet, "/me", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", decodeJSON(t, w)["error"])
}
