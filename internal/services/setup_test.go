package services

import (
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	appdb "github.com/ldelattre/microgest/internal/db"
	"github.com/ldelattre/microgest/internal/models"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
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

func seedOwnerAndClient(t *testing.T, db *gorm.DB) (models.User, models.Client) {
	t.Helper()
	user := models.User{Email: "svc@test", Password: "x", Nom: "Delattre", Prenom: "Léa"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("user: %v", err)
	}
	client := models.Client{UserID: user.ID, Kind: models.ClientKindCompany, RaisonSociale: "ACME SAS", SIRET: "12345678900011"}
	if err := db.Create(&client).Error; err != nil {
		t.Fatalf("client: %v", err)
	}
	return user, client
}
