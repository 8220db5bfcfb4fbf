// knoflo/sources/psql/models/note.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Note struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    int        `json:"user_id" gorm:"not null;index"`
	User      User       `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	FolderID  *uuid.UUID `json:"folder_id,omitempty" gorm:"type:uuid;index"`
	Title     string     `json:"title" gorm:"type:varchar(255);default:''"`
	Content   string     `json:"content" gorm:"type:text;not null;default:''"`
	PlainText string     `json:"plain_text" gorm:"type:text;not null;default:''"`
	Favourite bool       `json:"favourite" gorm:"not null;default:false"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Note) TableName() string {
	return "notes"
}

func (n *Note) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
