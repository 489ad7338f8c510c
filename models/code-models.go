package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OutputType string

const (
	OutputHTML  OutputType = "html"
	OutputReact OutputType = "react"
)

// ParseOutputType accepts only the closed set {html, react}.
func ParseOutputType(s string) (OutputType, error) {
	switch OutputType(s) {
	case OutputHTML, OutputReact:
		return OutputType(s), nil
	default:
		return "", fmt.Errorf("unsupported output type %q", s)
	}
}

// Describe names the code flavor the model is asked for.
func (o OutputType) Describe() string {
	if o == OutputReact {
		return "React components with Tailwind CSS"
	}
	return "HTML with CSS"
}

// GeneratedCode is one successful screenshot-to-code run. Rows are never updated.
type GeneratedCode struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	UserID        uint       `json:"-" gorm:"not null;index:idx_generated_codes_user_created,priority:1"`
	OriginalImage string     `json:"originalImage" gorm:"not null"`
	HTMLCode      string     `json:"htmlCode,omitempty"`
	ReactCode     string     `json:"reactCode,omitempty"`
	OutputType    OutputType `json:"outputType" gorm:"type:varchar(16);not null"`
	CreatedAt     time.Time  `json:"createdAt" gorm:"not null;index:idx_generated_codes_user_created,priority:2,sort:desc"`

	// Relationship
	User User `json:"-" gorm:"foreignKey:UserID"`
}

func (g *GeneratedCode) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// SetCode stores code in the field selected by the output type and clears the other.
func (g *GeneratedCode) SetCode(outputType OutputType, code string) {
	g.OutputType = outputType
	g.HTMLCode, g.ReactCode = "", ""
	if outputType == OutputReact {
		g.ReactCode = code
		return
	}
	g.HTMLCode = code
}

// Code returns whichever payload the output type selects.
func (g *GeneratedCode) Code() string {
	if g.OutputType == OutputReact {
		return g.ReactCode
	}
	return g.HTMLCode
}
