package models

import (
	"html"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Group is a topical category a post may belong to. Groups are created by
// administrators and addressed by their unique slug.
type Group struct {
	ID          uint      `gorm:"primary_key;autoIncrement" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Slug        string    `gorm:"size:255;not null;unique" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

func (g *Group) Prepare() {
	g.Title = html.EscapeString(strings.TrimSpace(g.Title))
	g.Slug = strings.ToLower(strings.TrimSpace(g.Slug))
	g.Description = html.EscapeString(strings.TrimSpace(g.Description))
	g.CreatedAt = time.Now()
	g.UpdatedAt = time.Now()
}

func (g *Group) Validate() map[string]string {
	var errorMessages = make(map[string]string)

	if g.Title == "" {
		errorMessages["Required_title"] = "Title is required"
	}
	if g.Slug == "" {
		errorMessages["Required_slug"] = "Slug is required"
	}
	if g.Slug != "" && !slugPattern.MatchString(g.Slug) {
		errorMessages["Invalid_slug"] = "Slug may only contain lowercase letters, digits and hyphens"
	}
	return errorMessages
}

func (g *Group) SaveGroup(db *gorm.DB) (*Group, error) {
	err := db.Create(&g).Error
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Group) FindAllGroups(db *gorm.DB) (*[]Group, error) {
	var groups []Group
	err := db.Order("title asc").Limit(100).Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return &groups, nil
}

func (g *Group) FindGroupBySlug(db *gorm.DB, slug string) (*Group, error) {
	var group Group
	err := db.Where("slug = ?", strings.ToLower(strings.TrimSpace(slug))).Take(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (g *Group) FindGroupByID(db *gorm.DB, gid uint) (*Group, error) {
	var group Group
	err := db.Where("id = ?", gid).Take(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// DeleteGroup removes the group. Posts keep living: their group reference is
// cleared in the same transaction, never cascaded.
func (g *Group) DeleteGroup(db *gorm.DB, gid uint) (int64, error) {
	var deleted int64
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Post{}).Where("group_id = ?", gid).
			Update("group_id", nil).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", gid).Delete(&Group{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
