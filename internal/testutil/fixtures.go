package testutil

import (
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"hu-tracker/internal/models"
)

// Fixtures holds rows shared by integration tests
type Fixtures struct {
	DB            *sql.DB
	AdminUser     *models.User
	CommitteeUser *models.User
	Candidate     *models.Candidate
	Rapporteurs   []models.Rapporteur
}

// FixturePassword is the password of every fixture user
const FixturePassword = "password123"

// SetupFixtures creates two users, a candidate and two rapporteurs
func SetupFixtures(t *testing.T, db *sql.DB) *Fixtures {
	t.Helper()

	return &Fixtures{
		DB:            db,
		AdminUser:     CreateUser(t, db, "admin@test.fpo.ma", "Admin Test", models.RoleAdmin),
		CommitteeUser: CreateUser(t, db, "committee@test.fpo.ma", "Committee Test", models.RoleCommittee),
		Candidate:     CreateCandidate(t, db, "Mohammed", "Alami"),
		Rapporteurs: []models.Rapporteur{
			CreateRapporteur(t, db, "Pr. Test Un"),
			CreateRapporteur(t, db, "Pr. Test Deux"),
		},
	}
}

// CreateUser inserts a user with FixturePassword
func CreateUser(t *testing.T, db *sql.DB, email, name, role string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(FixturePassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	user := &models.User{Name: name, Email: email, PasswordHash: string(hash), Role: role}
	err = db.QueryRow(
		`INSERT INTO users (name, email, password_hash, role) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		user.Name, user.Email, user.PasswordHash, user.Role,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		t.Fatalf("Failed to create user %s: %v", email, err)
	}
	return user
}

// CreateCandidate inserts a candidate with a derived unique email
func CreateCandidate(t *testing.T, db *sql.DB, first, last string) *models.Candidate {
	t.Helper()

	c := &models.Candidate{
		FirstName:   first,
		LastName:    last,
		Email:       fmt.Sprintf("%s.%s.%d@test.fpo.ma", first, last, nextSeq()),
		Department:  "Informatique",
		ThesisTitle: "Apprentissage automatique appliqué",
		Status:      models.CandidatePending,
	}
	err := db.QueryRow(
		`INSERT INTO candidates (first_name, last_name, email, department, thesis_title, status)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`,
		c.FirstName, c.LastName, c.Email, c.Department, c.ThesisTitle, c.Status,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		t.Fatalf("Failed to create candidate: %v", err)
	}
	return c
}

// CreateRapporteur inserts a rapporteur
func CreateRapporteur(t *testing.T, db *sql.DB, name string) models.Rapporteur {
	t.Helper()

	r := models.Rapporteur{Name: name, Institution: "Université Test"}
	err := db.QueryRow(
		`INSERT INTO rapporteurs (name, institution) VALUES ($1, $2) RETURNING id, created_at`,
		r.Name, r.Institution,
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		t.Fatalf("Failed to create rapporteur %s: %v", name, err)
	}
	return r
}

var seq atomic.Int64

func nextSeq() int64 {
	return seq.Add(1)
}
