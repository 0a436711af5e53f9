// Package model - Model families, configuration and raw output types shared by the decoders.
package model

// Family identifies one of the supported raw output encodings.
type Family int

const (
	// FamilyUnknown is the zero value and never resolves to a decoder.
	FamilyUnknown Family = iota
	// FamilyDarknet emits a flat list of rotated boxes per image (Complex-YOLO).
	FamilyDarknet
	// FamilyResnet emits per-head heatmap tensors decoded as keypoints (SFA3D).
	FamilyResnet
)

// String returns the family's model name.
func (f Family) String() string {
	switch f {
	case FamilyDarknet:
		return string(NameDarknet)
	case FamilyResnet:
		return string(NameResnet)
	default:
		return "unknown"
	}
}

// Name is the unique identifier of a model.
type Name string

const (
	// NameDarknet is the name of the Complex-YOLO model.
	NameDarknet Name = "darknet"
	// NameResnet is the name of the FPN ResNet keypoint model.
	NameResnet Name = "fpn_resnet"
)

// Arch is the network architecture a configuration resolves to.
type Arch string

const (
	// ArchDarknet is the Complex-YOLOv4 darknet backbone.
	ArchDarknet Arch = "darknet"
	// ArchResnet is the 18-layer feature pyramid ResNet.
	ArchResnet Arch = "fpn_resnet_18"
)

// Family returns the family an architecture decodes with.
func (a Arch) Family() Family {
	switch a {
	case ArchDarknet:
		return FamilyDarknet
	case ArchResnet:
		return FamilyResnet
	default:
		return FamilyUnknown
	}
}

// Params is a marker interface for family-specific parameters.
//
// Exactly two implementations exist, DarknetParams and ResnetParams, so a type switch over
// Params is exhaustive.
type Params interface {
	isParams()
	// Family returns the family the parameters belong to.
	Family() Family
	// Validate checks the family-specific fields.
	Validate() error
}
