package models

import (
	"html"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Comment belongs to exactly one post. Comments are never edited; they are
// removed only when their post is deleted.
type Comment struct {
	ID        uint      `gorm:"primary_key;autoIncrement" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	AuthorID  uint      `gorm:"not null" json:"author_id"`
	Author    User      `gorm:"foreignKey:AuthorID" json:"author"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (c *Comment) Prepare() {
	c.ID = 0
	c.Text = html.EscapeString(strings.TrimSpace(c.Text))
	c.Author = User{}
	c.CreatedAt = time.Now()
}

func (c *Comment) Validate() map[string]string {
	var errorMessages = make(map[string]string)

	if c.Text == "" {
		errorMessages["Required_text"] = "Text is required"
	}
	if c.AuthorID == 0 {
		errorMessages["Required_author"] = "Author is required"
	}
	if c.PostID == 0 {
		errorMessages["Required_post"] = "Post is required"
	}
	return errorMessages
}

func (c *Comment) SaveComment(db *gorm.DB) (*Comment, error) {
	err := db.Omit(clause.Associations).Create(&c).Error
	if err != nil {
		return nil, err
	}
	if err := db.Model(c).Association("Author").Find(&c.Author); err != nil {
		return nil, err
	}
	return c, nil
}

// GetPostComments lists a post's comments in creation order.
func (c *Comment) GetPostComments(db *gorm.DB, pid uint) (*[]Comment, error) {
	comments := []Comment{}
	err := db.Preload("Author").Where("post_id = ?", pid).
		Order("created_at asc").Order("id asc").Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return &comments, nil
}

func (c *Comment) CountPostComments(db *gorm.DB, pid uint) (int64, error) {
	var total int64
	err := db.Model(&Comment{}).Where("post_id = ?", pid).Count(&total).Error
	return total, err
}
