package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ldelattre/microgest/internal/auth"
	appdb "github.com/ldelattre/microgest/internal/db"
	"github.com/ldelattre/microgest/internal/models"
)

func setupHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := appdb.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	user := models.User{Email: email, Password: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("user: %v", err)
	}
	return user
}

func seedClient(t *testing.T, db *gorm.DB, userID uint) models.Client {
	t.Helper()
	client := models.Client{UserID: userID, Kind: models.ClientKindCompany, RaisonSociale: "ACME SAS", Email: "contact@acme.fr"}
	if err := db.Create(&client).Error; err != nil {
		t.Fatalf("client: %v", err)
	}
	return client
}

func itoa(n uint) string { return strconv.FormatUint(uint64(n), 10) }

// asUser attaches the acting user to the request context, bypassing the
// token middleware the router normally applies.
func asUser(r *http.Request, userID uint) *http.Request {
	return r.WithContext(auth.WithUserID(r.Context(), userID))
}
