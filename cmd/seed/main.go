// Command seed fills the database with sample categories, users and posts so
// the API can be exercised locally. Generated credentials are printed so the
// accounts can be logged into.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math/rand"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/goblog/internal/server/auth"
	"github.com/dmitrijs2005/goblog/internal/server/config"
	"github.com/dmitrijs2005/goblog/internal/server/models"
	"github.com/dmitrijs2005/goblog/internal/server/repositories/repomanager"
)

var categoryNames = []string{"Technology", "Travel", "Food", "Nature", "Sports"}

type seedAccount struct {
	username string
	fullname string
	password string
}

var accounts = []seedAccount{
	{"amartin", "Alice Martin", "sunflower42"},
	{"bkowalski", "Bart Kowalski", "riverstone7"},
	{"cdubois", "Claire Dubois", "maplegrove19"},
	{"dsilva", "Diego Silva", "bluemarble88"},
	{"eivanova", "Elena Ivanova", "pinebranch3"},
}

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	if err := seed(ctx, db, rm); err != nil {
		log.Fatalf("seed error: %v", err)
	}
}

func seed(ctx context.Context, db *sql.DB, rm repomanager.RepositoryManager) error {

	categoryRepo := rm.Categories(db)
	userRepo := rm.Users(db)
	postRepo := rm.Posts(db)

	var categories []*models.Category
	for _, name := range categoryNames {
		category, err := categoryRepo.Create(ctx, &models.Category{Name: name})
		if err != nil {
			return fmt.Errorf("creating category %q: %w", name, err)
		}
		categories = append(categories, category)
	}

	var users []*models.User
	for _, account := range accounts {
		hashed, err := auth.HashPassword(account.password)
		if err != nil {
			return fmt.Errorf("hashing password for %q: %w", account.username, err)
		}

		user, err := userRepo.Create(ctx, &models.User{
			Username: account.username,
			Fullname: account.fullname,
			Password: hashed,
		})
		if err != nil {
			return fmt.Errorf("creating user %q: %w", account.username, err)
		}
		users = append(users, user)
		log.Printf("created user %s (password: %s)", account.username, account.password)
	}

	var posts []*models.Post
	for _, user := range users {
		for i := 1; i <= 4; i++ {
			category := categories[rand.Intn(len(categories))]
			post, err := postRepo.Create(ctx, &models.Post{
				Title:       fmt.Sprintf("%s's post #%d", user.Fullname, i),
				Description: fmt.Sprintf("A short summary of what %s has to say, part %d.", user.Fullname, i),
				Content:     fmt.Sprintf("Sample article number %d written by %s.", i, user.Fullname),
				CreatedBy:   models.Author{ID: user.ID, Fullname: user.Fullname},
				Category:    &models.CategoryRef{ID: category.ID, Name: category.Name},
				Views:       int64(rand.Intn(500)),
			})
			if err != nil {
				return fmt.Errorf("creating post for %q: %w", user.Username, err)
			}
			posts = append(posts, post)
		}
	}

	// each user favorites a handful of posts; the like counters are kept in
	// step with the favorite lists
	likes := map[string]int64{}
	for _, user := range users {
		var favorites []string
		for _, post := range posts {
			if post.CreatedBy.ID != user.ID && rand.Intn(3) == 0 {
				favorites = append(favorites, post.ID)
				likes[post.ID]++
			}
		}
		if len(favorites) == 0 {
			continue
		}
		if err := userRepo.UpdateFavorites(ctx, user.ID, favorites); err != nil {
			return fmt.Errorf("saving favorites for %q: %w", user.Username, err)
		}
	}
	for postID, count := range likes {
		if err := postRepo.UpdateLikes(ctx, postID, count); err != nil {
			return fmt.Errorf("saving likes for %q: %w", postID, err)
		}
	}

	log.Printf("seeded %d categories, %d users, %d posts", len(categories), len(users), len(posts))
	return nil
}
