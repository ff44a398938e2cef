package models

import (
	"html"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Post is the central content entity. The author never changes after
// creation; the group and image are optional.
type Post struct {
	ID        uint      `gorm:"primary_key;autoIncrement" json:"id"`
	Author    User      `gorm:"foreignKey:AuthorID" json:"author"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	Group     *Group    `gorm:"foreignKey:GroupID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"group,omitempty"`
	GroupID   *uint     `gorm:"index" json:"group_id,omitempty"`
	ImagePath string    `gorm:"size:255" json:"image_path"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (p *Post) Prepare() {
	p.Text = html.EscapeString(strings.TrimSpace(p.Text))
	p.Author = User{}
	p.Group = nil
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
}

func (p *Post) Validate() map[string]string {
	var errorMessages = make(map[string]string)

	if strings.TrimSpace(p.Text) == "" {
		errorMessages["Required_text"] = "Text is required"
	}
	if p.AuthorID == 0 {
		errorMessages["Required_author"] = "Author is required"
	}
	return errorMessages
}

func (p *Post) SavePost(db *gorm.DB) (*Post, error) {
	if err := db.Omit(clause.Associations).Create(&p).Error; err != nil {
		return nil, err
	}
	if err := db.Model(p).Association("Author").Find(&p.Author); err != nil {
		return nil, err
	}
	if p.GroupID != nil {
		if err := db.Model(p).Association("Group").Find(&p.Group); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Post) FindPostByID(db *gorm.DB, pid uint) (*Post, error) {
	var post Post
	err := db.Preload("Author").Preload("Group").Where("id = ?", pid).Take(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// feedOrder is the total order every feed serves: newest first, ties broken
// by the monotonically increasing id.
func feedOrder(db *gorm.DB) *gorm.DB {
	return db.Order("created_at desc").Order("id desc")
}

func (p *Post) FindAllPosts(db *gorm.DB, limit, offset int) ([]Post, error) {
	var posts []Post
	err := feedOrder(db.Preload("Author").Preload("Group")).
		Offset(offset).Limit(limit).Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (p *Post) CountAllPosts(db *gorm.DB) (int64, error) {
	var total int64
	err := db.Model(&Post{}).Count(&total).Error
	return total, err
}

func (p *Post) FindGroupPosts(db *gorm.DB, gid uint, limit, offset int) ([]Post, error) {
	var posts []Post
	err := feedOrder(db.Preload("Author").Preload("Group")).
		Where("group_id = ?", gid).
		Offset(offset).Limit(limit).Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (p *Post) CountGroupPosts(db *gorm.DB, gid uint) (int64, error) {
	var total int64
	err := db.Model(&Post{}).Where("group_id = ?", gid).Count(&total).Error
	return total, err
}

func (p *Post) FindAuthorPosts(db *gorm.DB, uid uint, limit, offset int) ([]Post, error) {
	var posts []Post
	err := feedOrder(db.Preload("Author").Preload("Group")).
		Where("author_id = ?", uid).
		Offset(offset).Limit(limit).Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (p *Post) CountAuthorPosts(db *gorm.DB, uid uint) (int64, error) {
	var total int64
	err := db.Model(&Post{}).Where("author_id = ?", uid).Count(&total).Error
	return total, err
}

// FindFollowingPosts returns posts authored by anyone the viewer follows.
// Following nobody yields an empty page, not an error.
func (p *Post) FindFollowingPosts(db *gorm.DB, viewerID uint, limit, offset int) ([]Post, error) {
	var posts []Post
	err := feedOrder(db.Preload("Author").Preload("Group")).
		Where("author_id IN (?)",
			db.Session(&gorm.Session{NewDB: true}).Table("follows").
				Select("author_id").Where("user_id = ?", viewerID)).
		Offset(offset).Limit(limit).Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (p *Post) CountFollowingPosts(db *gorm.DB, viewerID uint) (int64, error) {
	var total int64
	err := db.Model(&Post{}).
		Where("author_id IN (?)",
			db.Session(&gorm.Session{NewDB: true}).Table("follows").
				Select("author_id").Where("user_id = ?", viewerID)).
		Count(&total).Error
	return total, err
}

func (p *Post) UpdatePost(db *gorm.DB) (*Post, error) {
	err := db.Model(&Post{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"text":       p.Text,
		"group_id":   p.GroupID,
		"updated_at": time.Now(),
	}).Error
	if err != nil {
		return nil, err
	}
	return p.FindPostByID(db, p.ID)
}

// DeletePost removes the post and its comments in one transaction. The
// comment cascade is explicit: comments only ever disappear this way.
func (p *Post) DeletePost(db *gorm.DB, pid uint) (int64, error) {
	var deleted int64
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", pid).Delete(&Comment{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", pid).Delete(&Post{})
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
