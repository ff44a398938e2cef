package seed

import (
	"log"

	"Yatube/api/models"

	"gorm.io/gorm"
)

var users = []models.User{
	{
		Username: "steven",
		Email:    "steven@example.com",
		Password: "password",
	},
	{
		Username: "martin",
		Email:    "luther@example.com",
		Password: "password",
	},
}

var groups = []models.Group{
	{
		Title:       "General",
		Slug:        "general",
		Description: "Anything goes.",
	},
	{
		Title:       "Travel",
		Slug:        "travel",
		Description: "Trip reports and route notes.",
	},
}

var posts = []models.Post{
	{
		Text: "Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do eiusmod tempor incididunt ut labore et dolore magna aliqua.",
	},
	{
		Text: "Ut enim ad minim veniam, quis nostrud exercitation ullamco laboris nisi ut aliquip ex ea commodo consequat.",
	},
}

// Load drops and recreates the schema, then inserts a couple of users, groups
// and posts. Development only.
func Load(db *gorm.DB) {
	err := db.Migrator().DropTable(&models.Follow{}, &models.Comment{}, &models.Post{}, &models.Group{}, &models.User{})
	if err != nil {
		log.Fatalf("cannot drop tables: %v", err)
	}
	err = db.AutoMigrate(&models.User{}, &models.Group{}, &models.Post{}, &models.Comment{}, &models.Follow{})
	if err != nil {
		log.Fatalf("cannot migrate tables: %v", err)
	}

	for i := range groups {
		if err := db.Create(&groups[i]).Error; err != nil {
			log.Fatalf("cannot seed groups table: %v", err)
		}
	}

	for i := range users {
		if err := db.Create(&users[i]).Error; err != nil {
			log.Fatalf("cannot seed users table: %v", err)
		}
		posts[i].AuthorID = users[i].ID
		posts[i].GroupID = &groups[i].ID

		if err := db.Create(&posts[i]).Error; err != nil {
			log.Fatalf("cannot seed posts table: %v", err)
		}
	}
}
