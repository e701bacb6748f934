// Package main provides a tool to seed the database with demo exchange data.
//
// This creates a handful of members with point balances and a closet of items
// in various lifecycle states, useful for trying out the browse, swap and
// moderation flows against a fresh server.
//
// Usage:
//
//	DATA_PATH=~/rewear go run ./cmd/seed
//	DATA_PATH=~/rewear go run ./cmd/seed --admin-email you@example.com
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/rewearapp/rewear-server/internal/auth"
	"github.com/rewearapp/rewear-server/internal/domain"
	"github.com/rewearapp/rewear-server/internal/id"
	"github.com/rewearapp/rewear-server/internal/store/sqlite"
)

var (
	adminEmail = flag.String("admin-email", "admin@rewear.local", "Email for the seeded admin account")
	password   = flag.String("password", "swapmeet", "Password for all seeded accounts")
)

type seedMember struct {
	email   string
	display string
	role    domain.Role
	balance int64
}

type seedItem struct {
	title     string
	category  string
	size      string
	condition domain.Condition
	itemType  domain.ItemType
	points    int64
	state     domain.ItemState
}

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/rewear")
	}
	dbPath := filepath.Join(dataPath, "rewear.db")

	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := sqlite.Open(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	members := []seedMember{
		{email: *adminEmail, display: "Site Admin", role: domain.RoleAdmin, balance: 0},
		{email: "frida@example.com", display: "Frida", role: domain.RoleMember, balance: 120},
		{email: "marco@example.com", display: "Marco", role: domain.RoleMember, balance: 75},
		{email: "june@example.com", display: "June", role: domain.RoleMember, balance: 40},
	}

	memberIDs := make([]string, 0, len(members))
	for _, m := range members {
		memberID := createMember(ctx, s, m)
		if m.role == domain.RoleMember {
			memberIDs = append(memberIDs, memberID)
		}
	}

	items := []seedItem{
		{title: "Denim Jacket", category: "outerwear", size: "M", condition: domain.ConditionGood, itemType: domain.TypeClothing, points: 35, state: domain.ItemAvailable},
		{title: "Linen Shirt", category: "tops", size: "L", condition: domain.ConditionLikeNew, itemType: domain.TypeClothing, points: 20, state: domain.ItemAvailable},
		{title: "Chelsea Boots", category: "footwear", size: "42", condition: domain.ConditionFair, itemType: domain.TypeShoes, points: 45, state: domain.ItemAvailable},
		{title: "Wool Scarf", category: "accessories", size: "", condition: domain.ConditionNew, itemType: domain.TypeAccessories, points: 15, state: domain.ItemAvailable},
		{title: "Corduroy Trousers", category: "bottoms", size: "32", condition: domain.ConditionGood, itemType: domain.TypeClothing, points: 25, state: domain.ItemPendingReview},
		{title: "Vintage Band Tee", category: "tops", size: "S", condition: domain.ConditionPoor, itemType: domain.TypeClothing, points: 10, state: domain.ItemPendingReview},
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	created := 0
	for _, it := range items {
		ownerID := memberIDs[rng.Intn(len(memberIDs))]
		if err := createItem(ctx, s, ownerID, it); err != nil {
			log.Printf("Failed to create item %q: %v", it.title, err)
			continue
		}
		created++
	}

	fmt.Printf("\nSeeded %d members and %d items\n", len(members), created)
	fmt.Printf("All accounts use the password %q\n", *password)
}

func createMember(ctx context.Context, s *sqlite.Store, m seedMember) string {
	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	memberID, err := id.Generate("mem")
	if err != nil {
		log.Fatalf("Failed to generate member ID: %v", err)
	}

	now := time.Now()
	member := &domain.Member{
		Entity:       domain.Entity{ID: memberID, CreatedAt: now, UpdatedAt: now},
		Email:        m.email,
		PasswordHash: hash,
		DisplayName:  m.display,
		Role:         m.role,
	}

	if err := s.CreateMember(ctx, member); err != nil {
		// Likely re-running against a seeded database; reuse the account.
		existing, getErr := s.GetMemberByEmail(ctx, m.email)
		if getErr != nil {
			log.Fatalf("Failed to create member %s: %v", m.email, err)
		}
		fmt.Printf("Member %s already exists, skipping\n", m.email)
		return existing.ID
	}

	if m.balance > 0 {
		entryID, err := id.Generate("led")
		if err != nil {
			log.Fatalf("Failed to generate entry ID: %v", err)
		}
		entry := &domain.LedgerEntry{
			ID:        entryID,
			MemberID:  memberID,
			Amount:    m.balance,
			Kind:      domain.EntryEarned,
			Reason:    "seed grant",
			CreatedAt: now,
		}
		if err := s.RecordEntry(ctx, entry); err != nil {
			log.Fatalf("Failed to grant points to %s: %v", m.email, err)
		}
	}

	fmt.Printf("Created member %s (%s) with %d points\n", m.display, m.email, m.balance)
	return memberID
}

func createItem(ctx context.Context, s *sqlite.Store, ownerID string, it seedItem) error {
	itemID, err := id.Generate("item")
	if err != nil {
		return err
	}

	now := time.Now()
	item := &domain.Item{
		Entity:      domain.Entity{ID: itemID, CreatedAt: now, UpdatedAt: now},
		OwnerID:     ownerID,
		Title:       it.title,
		Category:    it.category,
		Size:        it.size,
		Condition:   it.condition,
		Type:        it.itemType,
		PointsValue: it.points,
		State:       it.state,
	}

	if err := s.CreateItem(ctx, item); err != nil {
		return err
	}

	fmt.Printf("Created item %q (%s, %d points) for %s\n", it.title, it.state, it.points, ownerID)
	return nil
}
