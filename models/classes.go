// Package models - Definitions for detection class sets.
package models

import (
	"fmt"
	"image/color"
)

// OutputClassGeneration identifies the naming convention / dataset.
type OutputClassGeneration string

const (
	// ModelTypeKITTI is the KITTI object detection convention.
	ModelTypeKITTI OutputClassGeneration = "kitti"
)

// OutputClass represents one detection label.
type OutputClass struct {
	// The integer index returned by the model.
	Index int
	// The human-readable label.
	Name string
	// The display color of the label.
	Color color.RGBA
}

// OutputClassSet ties a style to its full list of labels.
type OutputClassSet struct {
	// Class set identifier.
	Style OutputClassGeneration
	// Classes that are supported and mappable.
	Classes []OutputClass
}

// GetName returns the class name for an index.
func (s OutputClassSet) GetName(idx int) (string, error) {
	if idx < 0 || idx >= len(s.Classes) {
		return "", fmt.Errorf("index %d out of range for style %q", idx, s.Style)
	}
	return s.Classes[idx].Name, nil
}

// GetIndex returns the class index for a name.
func (s OutputClassSet) GetIndex(name string) (int, error) {
	for _, c := range s.Classes {
		if c.Name == name {
			return c.Index, nil
		}
	}
	return -1, fmt.Errorf("name %q not found in style %q", name, s.Style)
}

// KITTIClasses are the three classes both model families are trained on.
var KITTIClasses = OutputClassSet{
	Style: ModelTypeKITTI,
	Classes: []OutputClass{
		{Index: 0, Name: "pedestrian", Color: color.RGBA{R: 255, G: 255, B: 0, A: 255}},
		{Index: 1, Name: "car", Color: color.RGBA{R: 255, G: 0, B: 0, A: 255}},
		{Index: 2, Name: "cyclist", Color: color.RGBA{R: 0, G: 0, B: 255, A: 255}},
	},
}
