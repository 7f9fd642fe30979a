package models

import "time"

// Client kinds
const (
	ClientKindIndividual = "individual"
	ClientKindCompany    = "company"
)

// Client entity
type Client struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	UserID        uint   `gorm:"not null;index" json:"user_id"` // FK vers User (propriétaire)
	Kind          string `gorm:"not null;default:'company'" json:"kind"`
	Nom           string `gorm:"index" json:"nom"` // nom de famille (particulier)
	Prenom        string `json:"prenom"`
	RaisonSociale string `gorm:"index" json:"raison_sociale"` // société
	Contact       string `json:"contact"`                     // nom du contact principal
	Email         string `json:"email"`
	Telephone     string `json:"telephone"`
	Ligne1        string `json:"ligne1"`
	Ligne2        string `json:"ligne2"`
	CodePostal    string `json:"code_postal"`
	Ville         string `json:"ville"`
	Pays          string `json:"pays"`
	SIRET         string `gorm:"index" json:"siret"`
	TVAIntra      string `json:"tva_intra"` // numéro TVA intracommunautaire
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DisplayName returns the billing name: company name for companies,
// "Prenom Nom" otherwise.
func (c Client) DisplayName() string {
	if c.Kind == ClientKindCompany && c.RaisonSociale != "" {
		return c.RaisonSociale
	}
	if c.Prenom != "" {
		return c.Prenom + " " + c.Nom
	}
	return c.Nom
}

func (c Client) GetUserID() uint { return c.UserID }
