package controllers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func newUserTestRouter(authedID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	uc := NewUserController(&Srv{})
	r := gin.New()
	r.DELETE("/api/users/:id", func(c *gin.Context) {
		c.Set("userID", authedID)
	}, uc.DeleteUser)
	return r
}

func TestDeleteUserRejectsSelf(t *testing.T) {
	me := uuid.NewString()
	r := newUserTestRouter(me)

	w, out := doJSON(r, http.MethodDelete, "/api/users/"+me, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("self delete: expected 400, got %d", w.Code)
	}
	if out["message"] != "cannot delete yourself" {
		t.Errorf("unexpected message: %v", out["message"])
	}
}

func TestDeleteUserRejectsBadID(t *testing.T) {
	r := newUserTestRouter(uuid.NewString())

	w, _ := doJSON(r, http.MethodDelete, "/api/users/not-a-uuid", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad id: expected 400, got %d", w.Code)
	}
}
