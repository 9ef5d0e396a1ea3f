package models

import "time"

type Access string

const (
	AccessReadWrite Access = "Read/Write"
	AccessRead      Access = "Read"
)

// Accesses The access levels an annotation can have
var Accesses = []Access{AccessReadWrite, AccessRead}

type AnnotationType string

const (
	AnnotationVolume AnnotationType = "volume"
	AnnotationText   AnnotationType = "text"
)

// AnnotationTypes The kinds of overlay an annotation can be
var AnnotationTypes = []AnnotationType{AnnotationVolume, AnnotationText}

// DefaultLabels Label set given to new annotations
const DefaultLabels = "/labels/foreground.json"

// Annotation One overlay on an image. Its existence is its membership in Image.Atlas.
type Annotation struct {
	ID       uint           `json:"-" gorm:"primary_key"`
	ImageID  uint           `json:"-" gorm:"index"`
	Position int            `json:"-"`
	Name     string         `json:"name"`
	Project  string         `json:"project"`
	Access   Access         `json:"access"`
	Created  time.Time      `json:"created"`
	Modified time.Time      `json:"modified"`
	Filename string         `json:"filename"`
	Labels   string         `json:"labels"`
	Owner    string         `json:"owner"`
	Type     AnnotationType `json:"type"`
}

// LabelSet A named label set resource annotations can refer to
type LabelSet struct {
	ID     uint   `json:"-" gorm:"primary_key"`
	Name   string `json:"name"`
	Source string `json:"source" gorm:"uniqueIndex"`
}
