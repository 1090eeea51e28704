package main

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"langarchive/internal/database"
	"langarchive/internal/domain"
	"langarchive/internal/domain/catalog"
	"langarchive/internal/domain/deposit"
	"langarchive/internal/domain/notification"

	"golang.org/x/crypto/bcrypt"
)

// rawLanguoid mimics a legacy export row: everything is a string and levels
// use the old vocabulary.
type rawLanguoid struct {
	fields map[string]string
}

// languoidTransforms is the explicit field-transform table for legacy rows:
// one typed transform per field identifier, no reflection.
var languoidTransforms = map[string]func(l *catalog.Languoid, raw string) error{
	"code": func(l *catalog.Languoid, raw string) error {
		l.Code = strings.ToLower(strings.TrimSpace(raw))
		return nil
	},
	"name": func(l *catalog.Languoid, raw string) error {
		l.Name = strings.TrimSpace(raw)
		return nil
	},
	"level": func(l *catalog.Languoid, raw string) error {
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "lang", "language":
			l.Level = catalog.LevelLanguage
		case "dial", "dialect":
			l.Level = catalog.LevelDialect
		case "fam", "family":
			l.Level = catalog.LevelFamily
		default:
			return fmt.Errorf("unknown level %q", raw)
		}
		return nil
	},
	"latitude": func(l *catalog.Languoid, raw string) error {
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		l.Latitude = &v
		return nil
	},
	"longitude": func(l *catalog.Languoid, raw string) error {
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		l.Longitude = &v
		return nil
	},
}

func transformLanguoid(row rawLanguoid) (*catalog.Languoid, error) {
	l := &catalog.Languoid{}
	for field, raw := range row.fields {
		transform, ok := languoidTransforms[field]
		if !ok {
			return nil, fmt.Errorf("no transform for field %q", field)
		}
		if err := transform(l, raw); err != nil {
			return nil, fmt.Errorf("field %q: %w", field, err)
		}
	}
	return l, nil
}

func main() {
	db, err := database.Connect("archive.db")
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := db.AutoMigrate(
		&domain.User{},
		&catalog.Languoid{},
		&catalog.Collection{},
		&catalog.Item{},
		&catalog.Collaborator{},
		&catalog.ItemCollaborator{},
		&deposit.Deposit{},
		&deposit.DepositFile{},
		&deposit.InvolvedUser{},
		&deposit.DepositEvent{},
		&notification.Notification{},
	); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	// Cleanup old data (in safe order to avoid foreign key errors)
	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM notifications")
	db.Exec("DELETE FROM deposit_events")
	db.Exec("DELETE FROM deposit_files")
	db.Exec("DELETE FROM deposit_involved_users")
	db.Exec("DELETE FROM deposits")
	db.Exec("DELETE FROM item_collaborators")
	db.Exec("DELETE FROM item_languoids")
	db.Exec("DELETE FROM items")
	db.Exec("DELETE FROM collaborators")
	db.Exec("DELETE FROM collections")
	db.Exec("DELETE FROM languoids")
	db.Exec("DELETE FROM users")

	// ================== USERS ==================
	log.Println("Creating users...")

	users := map[string]*domain.User{}
	for _, acct := range []struct {
		email, password, name string
		role                  domain.UserRole
	}{
		{"admin@langarchive.org", "admin123", "Archive Admin", domain.RoleAdmin},
		{"reviewer@langarchive.org", "reviewer123", "Riya Narayan", domain.RoleReviewer},
		{"depositor@langarchive.org", "depositor123", "Tom Ellison", domain.RoleDepositor},
	} {
		hash, _ := bcrypt.GenerateFromPassword([]byte(acct.password), bcrypt.DefaultCost)
		u := &domain.User{
			Email:        acct.email,
			PasswordHash: string(hash),
			Role:         acct.role,
			Name:         acct.name,
		}
		if err := db.Create(u).Error; err != nil {
			log.Fatal("create user failed:", err)
		}
		users[string(acct.role)] = u
	}

	// ================== LANGUOIDS ==================
	log.Println("Creating languoids...")

	rawRows := []rawLanguoid{
		{fields: map[string]string{"code": "ULW", "name": "Ulwa", "level": "lang", "latitude": "13.0", "longitude": "-84.3"}},
		{fields: map[string]string{"code": "mwf", "name": "Murrinh-Patha", "level": "language", "latitude": "-14.1", "longitude": "129.5"}},
		{fields: map[string]string{"code": "yolu", "name": "Yolngu Matha", "level": "dial", "latitude": "-12.4", "longitude": "136.3"}},
		{fields: map[string]string{"code": "pnut", "name": "Pama-Nyungan", "level": "family", "latitude": "", "longitude": ""}},
		{fields: map[string]string{"code": "fij", "name": "Fijian", "level": "lang", "latitude": "-17.8", "longitude": "178.0"}},
	}

	var languoids []*catalog.Languoid
	for _, row := range rawRows {
		l, err := transformLanguoid(row)
		if err != nil {
			log.Fatal("languoid transform failed:", err)
		}
		if err := db.Create(l).Error; err != nil {
			log.Fatal("create languoid failed:", err)
		}
		languoids = append(languoids, l)
	}

	// ================== COLLECTION & ITEMS ==================
	log.Println("Creating collection and items...")

	col := &catalog.Collection{
		Slug:        "fieldwork-2025",
		Title:       "Fieldwork Recordings 2025",
		Description: "Elicitation sessions and narratives from the 2025 field season.",
		CuratorID:   users[string(domain.RoleAdmin)].ID,
	}
	if err := db.Create(col).Error; err != nil {
		log.Fatal("create collection failed:", err)
	}

	speaker := &catalog.Collaborator{Name: "J. Waradi", Anonymous: false}
	if err := db.Create(speaker).Error; err != nil {
		log.Fatal("create collaborator failed:", err)
	}

	for i := 1; i <= 3; i++ {
		item := &catalog.Item{
			Ident:        fmt.Sprintf("FW2025-%03d", i),
			Title:        fmt.Sprintf("Elicitation session %d", i),
			CollectionID: &col.ID,
		}
		if err := db.Create(item).Error; err != nil {
			log.Fatal("create item failed:", err)
		}
		db.Exec("INSERT INTO item_languoids (item_id, languoid_id) VALUES (?, ?)", item.ID, languoids[i%len(languoids)].ID)
		db.Create(&catalog.ItemCollaborator{ItemID: item.ID, CollaboratorID: speaker.ID, Role: "speaker"})
	}
	db.Exec("UPDATE languoids SET item_count = (SELECT COUNT(*) FROM item_languoids WHERE languoid_id = languoids.id)")

	// ================== DEPOSIT MID-WORKFLOW ==================
	log.Println("Creating deposit...")

	dep := &deposit.Deposit{
		Title:       "Murrinh-Patha narratives, wet season",
		DraftUserID: users[string(domain.RoleDepositor)].ID,
		State:       deposit.StateReview,
		IsDraft:     false,
		Metadata:    []byte(`{"region":"Wadeye","recorded":"2025-02"}`),
	}
	if err := db.Create(dep).Error; err != nil {
		log.Fatal("create deposit failed:", err)
	}
	db.Create(&deposit.InvolvedUser{DepositID: dep.ID, UserID: users[string(domain.RoleReviewer)].ID})
	db.Create(&deposit.DepositFile{
		ID:         "seed-file-1",
		DepositID:  dep.ID,
		Filename:   "session01.wav",
		FilePath:   "seed/session01.wav",
		Size:       52_428_800,
		MimeType:   "audio/wav",
		UploadedBy: users[string(domain.RoleDepositor)].ID,
	})
	db.Create(&deposit.DepositFile{
		ID:             "seed-file-2",
		DepositID:      dep.ID,
		Filename:       "metadata.xml",
		FilePath:       "seed/metadata.xml",
		Size:           4_096,
		MimeType:       "text/xml",
		UploadedBy:     users[string(domain.RoleDepositor)].ID,
		IsMetadataFile: true,
	})
	db.Create(&deposit.DepositEvent{
		DepositID: dep.ID,
		FromState: deposit.StateDraft,
		ToState:   deposit.StateReview,
		ActorID:   users[string(domain.RoleDepositor)].ID,
	})

	log.Println("Seed completed.")
}
