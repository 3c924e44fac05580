package users

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/replate-app/replate-backend/pkg/db/models"
	"github.com/replate-app/replate-backend/pkg/enums"
	pkgerrors "github.com/replate-app/replate-backend/pkg/errors"
	"github.com/replate-app/replate-backend/pkg/logger"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:users_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	svc, err := NewService(NewRepository(db), logger.New(logger.Options{Output: io.Discard}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, db
}

func seedStudent(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := models.User{
		Email:        uuid.NewString() + "@campus.edu",
		PasswordHash: "x",
		FirstName:    "Stu",
		LastName:     "Dent",
		Role:         enums.RoleStudent,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return &user
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	if typed.Code() != code {
		t.Fatalf("expected code %s, got %s (%v)", code, typed.Code(), err)
	}
}

func TestBanAndUnbanRoundTrip(t *testing.T) {
	svc, db := newTestService(t)
	user := seedStudent(t, db)

	banned, err := svc.Ban(context.Background(), ModerateInput{UserID: user.ID, ActorRole: enums.RoleAdmin})
	if err != nil {
		t.Fatalf("ban: %v", err)
	}
	if !banned.IsBanned {
		t.Fatalf("expected banned user")
	}

	_, err = svc.Ban(context.Background(), ModerateInput{UserID: user.ID, ActorRole: enums.RoleAdmin})
	expectCode(t, err, pkgerrors.CodeStateConflict)

	restored, err := svc.Unban(context.Background(), ModerateInput{UserID: user.ID, ActorRole: enums.RoleAdmin})
	if err != nil {
		t.Fatalf("unban: %v", err)
	}
	if restored.IsBanned {
		t.Fatalf("expected unbanned user")
	}
}

func TestModerationRequiresAdmin(t *testing.T) {
	svc, db := newTestService(t)
	user := seedStudent(t, db)

	_, err := svc.Ban(context.Background(), ModerateInput{UserID: user.ID, ActorRole: enums.RoleOrganization})
	expectCode(t, err, pkgerrors.CodeForbidden)

	_, err = svc.Ban(context.Background(), ModerateInput{UserID: uuid.New(), ActorRole: enums.RoleAdmin})
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestGet(t *testing.T) {
	svc, db := newTestService(t)
	user := seedStudent(t, db)

	got, err := svc.Get(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Email != user.Email {
		t.Fatalf("expected %s, got %s", user.Email, got.Email)
	}

	_, err = svc.Get(context.Background(), uuid.New())
	expectCode(t, err, pkgerrors.CodeNotFound)
}
